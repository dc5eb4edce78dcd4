package shoebox_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/internal/sqlite"
	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func june(d int) time.Time { return time.Date(2024, time.June, d, 10, 0, 0, 0, time.UTC) }

func attach(t *testing.T, quota int64) types.Store {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), QuotaBytes: quota}))
	t.Cleanup(func() { store.Detach() })
	return store
}

// setup returns a service with auto-organize on, as a fresh library has it.
func setup(t *testing.T, opts ...shoebox.Option) *shoebox.Service {
	t.Helper()
	opts = append([]shoebox.Option{shoebox.WithClock(func() time.Time { return fixedNow })}, opts...)
	return shoebox.New(attach(t, 0), opts...)
}

// setupManual returns a service with auto-organize off, so photos only land
// in the albums a test puts them in.
func setupManual(t *testing.T, opts ...shoebox.Option) *shoebox.Service {
	t.Helper()
	svc := setup(t, opts...)
	off := false
	_, err := svc.UpdateSettings(context.Background(), types.SettingsUpdate{AutoOrganize: &off})
	require.NoError(t, err)
	return svc
}

func addPhoto(t *testing.T, svc *shoebox.Service, name string, taken time.Time, tags ...string) *types.Photo {
	t.Helper()
	p, err := svc.CreatePhoto(context.Background(), types.NewPhoto{
		FileName:  name,
		MimeType:  "image/jpeg",
		FileSize:  1024,
		Width:     640,
		Height:    480,
		DateTaken: taken,
		Tags:      tags,
	})
	require.NoError(t, err)
	return p
}

func addPhotos(t *testing.T, svc *shoebox.Service, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range n {
		ids[i] = addPhoto(t, svc, fmt.Sprintf("img%02d.jpg", i), june(i+1)).PhotoID
	}
	return ids
}

func addAlbum(t *testing.T, svc *shoebox.Service, name string, photoIDs ...string) *types.Album {
	t.Helper()
	ctx := context.Background()
	a, err := svc.CreateAlbum(ctx, types.NewAlbum{Name: name})
	require.NoError(t, err)
	if len(photoIDs) > 0 {
		_, err = svc.AddPhotosToAlbum(ctx, a.AlbumID, photoIDs, -1)
		require.NoError(t, err)
	}
	a, err = svc.GetAlbum(ctx, a.AlbumID)
	require.NoError(t, err)
	return a
}

// requireConsistent asserts the derived caches agree with the relations.
func requireConsistent(t *testing.T, svc *shoebox.Service) {
	t.Helper()
	ctx := context.Background()

	albums, err := svc.ListAlbums(ctx, types.AlbumQuery{})
	require.NoError(t, err)
	for _, a := range albums {
		assert.Equal(t, len(a.PhotoIDs), a.PhotoCount, "album %s count", a.Name)
		if a.CoverPhotoID != "" {
			assert.Contains(t, a.PhotoIDs, a.CoverPhotoID, "album %s cover", a.Name)
		}
		for _, id := range a.PhotoIDs {
			p, err := svc.GetPhoto(ctx, id)
			require.NoError(t, err)
			assert.Contains(t, p.AlbumIDs, a.AlbumID, "photo %s lists album %s", id, a.Name)
		}
	}

	tags, err := svc.ListTags(ctx, types.TagQuery{})
	require.NoError(t, err)
	for _, tag := range tags {
		page, err := svc.SearchPhotos(ctx, types.PhotoQuery{Tags: []string{tag.Name}})
		require.NoError(t, err)
		assert.Equal(t, page.Total, tag.PhotoCount, "tag %s count", tag.Name)
	}

	report, err := svc.HealthCheck(ctx, false)
	require.NoError(t, err)
	assert.True(t, report.Healthy(), "unresolved issues: %+v", report.Unresolved())
}

func TestErrors_Taxonomy(t *testing.T) {
	svc := setupManual(t)
	ctx := context.Background()

	_, err := svc.GetPhoto(ctx, "")
	assert.ErrorIs(t, err, types.ErrValidation, "an empty id is malformed input")

	_, err = svc.GetPhoto(ctx, "0190c5a0-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.CreateAlbum(ctx, types.NewAlbum{Name: ""})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, err = svc.SearchPhotos(ctx, types.PhotoQuery{TagMatch: "some"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestErrors_NothingWrittenOnFailure(t *testing.T) {
	svc := setupManual(t)
	ctx := context.Background()
	p := addPhoto(t, svc, "a.jpg", june(1))

	missing := "0190c5a0-0000-7000-8000-000000000000"
	err := svc.DeletePhotos(ctx, []string{p.PhotoID, missing})
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.GetPhoto(ctx, p.PhotoID)
	assert.NoError(t, err, "the whole delete is rolled back")
}

func TestQuotaExceeded_LeavesStoreUnchanged(t *testing.T) {
	svc := shoebox.New(attach(t, 1))
	ctx := context.Background()

	_, err := svc.CreatePhoto(ctx, types.NewPhoto{FileName: "big.jpg", MimeType: "image/jpeg", DateTaken: june(1)})
	require.ErrorIs(t, err, types.ErrQuotaExceeded)
	assert.False(t, errors.Is(err, types.ErrOperation), "quota errors are not wrapped")

	page, err := svc.SearchPhotos(ctx, types.PhotoQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	albums, err := svc.ListAlbums(ctx, types.AlbumQuery{})
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestInvariants_HoldAcrossOperations(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	a := addPhoto(t, svc, "a.jpg", june(1), "sea", "Sun")
	b := addPhoto(t, svc, "b.jpg", june(2), "sea")
	c := addPhoto(t, svc, "c.jpg", time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC), "sun")
	trip := addAlbum(t, svc, "Trip", a.PhotoID, b.PhotoID, c.PhotoID)
	requireConsistent(t, svc)

	_, err := svc.UpdateAlbum(ctx, trip.AlbumID, types.AlbumUpdate{CoverPhotoID: &b.PhotoID})
	require.NoError(t, err)
	require.NoError(t, svc.AddTags(ctx, []string{c.PhotoID}, []string{"Sea"}))
	require.NoError(t, svc.RemoveTags(ctx, []string{a.PhotoID}, []string{"sun"}))
	requireConsistent(t, svc)

	moved := time.Date(2023, time.January, 5, 0, 0, 0, 0, time.UTC)
	_, err = svc.UpdatePhoto(ctx, a.PhotoID, types.PhotoUpdate{DateTaken: &moved})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePhotos(ctx, []string{b.PhotoID}))
	requireConsistent(t, svc)

	got, err := svc.GetAlbum(ctx, trip.AlbumID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.PhotoID, c.PhotoID}, got.PhotoIDs)
	assert.Equal(t, a.PhotoID, got.CoverPhotoID, "the cover moves to the first remaining member")
}
