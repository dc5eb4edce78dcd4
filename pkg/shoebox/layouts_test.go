package shoebox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func TestAlbumLayout(t *testing.T) {
	svc := setupManual(t)
	ctx := context.Background()
	a := addAlbum(t, svc, "A")
	b := addAlbum(t, svc, "B")

	layout, err := svc.GetAlbumLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.MainLayoutID, layout.LayoutID)
	assert.Equal(t, []string{a.AlbumID, b.AlbumID}, layout.AlbumIDs)
	assert.Equal(t, types.DefaultLayoutColumns, layout.Columns)
	assert.Equal(t, types.ViewModeGrid, layout.ViewMode)

	updated, err := svc.UpdateAlbumLayout(ctx, types.LayoutUpdate{
		Columns:  ptr(6),
		ViewMode: ptr(types.ViewModeList),
		Sort:     &types.LayoutSort{Key: "name", Order: types.OrderDesc},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Columns)
	assert.Equal(t, types.ViewModeList, updated.ViewMode)
	assert.Equal(t, "name", updated.Sort.Key)

	// New and deleted albums are reflected without touching view settings.
	c := addAlbum(t, svc, "C")
	require.NoError(t, svc.DeleteAlbum(ctx, a.AlbumID, false))
	layout, err = svc.GetAlbumLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.AlbumID, c.AlbumID}, layout.AlbumIDs)
	assert.Equal(t, 6, layout.Columns)

	_, err = svc.UpdateAlbumLayout(ctx, types.LayoutUpdate{Columns: ptr(13)})
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = svc.UpdateAlbumLayout(ctx, types.LayoutUpdate{ViewMode: ptr("mosaic")})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestPhotoLayout(t *testing.T) {
	svc := setupManual(t)
	ctx := context.Background()
	ids := addPhotos(t, svc, 3)
	album := addAlbum(t, svc, "Trip", ids[:2]...)

	layout, err := svc.GetPhotoLayout(ctx, album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, album.AlbumID, layout.AlbumID)
	assert.Equal(t, ids[:2], layout.PhotoIDs)

	_, err = svc.UpdatePhotoLayout(ctx, album.AlbumID, types.LayoutUpdate{Columns: ptr(2)})
	require.NoError(t, err)

	_, err = svc.AddPhotosToAlbum(ctx, album.AlbumID, ids[2:], 0)
	require.NoError(t, err)
	_, err = svc.RemovePhotosFromAlbum(ctx, album.AlbumID, ids[:1])
	require.NoError(t, err)

	layout, err = svc.GetPhotoLayout(ctx, album.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[1], ids[2]}, layout.PhotoIDs, "members only, new members appended")
	assert.Equal(t, 2, layout.Columns)

	_, err = svc.GetPhotoLayout(ctx, "0190c5a0-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSettings(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSettings(), settings)

	year := types.GranularityYear
	updated, err := svc.UpdateSettings(ctx, types.SettingsUpdate{DateGranularity: &year, Theme: ptr("dark")})
	require.NoError(t, err)
	assert.Equal(t, types.GranularityYear, updated.DateGranularity)
	assert.Equal(t, "dark", updated.Theme)
	assert.True(t, updated.AutoOrganize, "unset fields keep their value")

	got, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = svc.UpdateSettings(ctx, types.SettingsUpdate{ThumbnailQuality: ptr(0)})
	assert.ErrorIs(t, err, types.ErrValidation)

	addPhoto(t, svc, "a.jpg", june(1))
	albums, err := svc.ListAlbums(ctx, types.AlbumQuery{Type: types.AlbumTypeDate})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "2024", albums[0].Name, "year granularity files by year")
}
