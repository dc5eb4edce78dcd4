package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// fixture holds the ids of a small library used by the query tests.
type fixture struct {
	beach, city, forest, night string
	album                      string
}

func day(d int) time.Time { return time.Date(2024, 6, d, 12, 0, 0, 0, time.UTC) }

func setupLibrary(t *testing.T) (*Backend, fixture) {
	t.Helper()
	b := setupBackend(t)
	var f fixture
	update(t, b, func(tx types.Tx) error {
		f.beach = addPhoto(t, tx, &types.Photo{FileName: "beach.jpg", DateTaken: day(3), Tags: []string{"sea", "summer"}, Caption: "Waves"})
		f.city = addPhoto(t, tx, &types.Photo{FileName: "city.jpg", DateTaken: day(1), Tags: []string{"urban"}})
		f.forest = addPhoto(t, tx, &types.Photo{FileName: "forest.png", DateTaken: day(2), Tags: []string{"summer", "green"}})
		f.night = addPhoto(t, tx, &types.Photo{FileName: "night_sky.jpg", DateTaken: day(2)})
		f.album = addAlbum(t, tx, "Trip")
		return tx.SetAlbumPhotos(f.album, []string{f.forest, f.beach})
	})
	return b, f
}

func fetchPhotoIDs(t *testing.T, b *Backend, filter types.Filter) []string {
	t.Helper()
	var ids []string
	err := b.View(context.Background(), func(tx types.Tx) error {
		rows, err := table(t, tx, types.PhotosTable).Fetch(filter)
		if err != nil {
			return err
		}
		ids = []string{}
		for _, r := range rows {
			ids = append(ids, r.(*types.Photo).PhotoID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func TestPhotosTable_Fetch(t *testing.T) {
	b, f := setupLibrary(t)

	// Photos sharing a date taken break ties on photo id.
	sameDay := []string{f.forest, f.night}
	if f.night < f.forest {
		sameDay = []string{f.night, f.forest}
	}

	tests := []struct {
		name   string
		filter types.Filter
		want   []string
	}{
		{"default sort is date taken", nil, append(append([]string{f.city}, sameDay...), f.beach)},
		{"descending", types.Filter{types.FilterOrder: types.OrderDesc, types.FilterIDs: []string{f.beach, f.city}}, []string{f.beach, f.city}},
		{"date range inclusive", types.Filter{types.FilterDateFrom: day(2), types.FilterDateTo: day(3)}, append(sameDay, f.beach)},
		{"tags any", types.Filter{types.FilterTags: []string{"Sea", "urban"}}, []string{f.city, f.beach}},
		{"tags all", types.Filter{types.FilterTags: []string{"summer", "sea"}, types.FilterTagMatch: types.TagMatchAll}, []string{f.beach}},
		{"text matches file name", types.Filter{types.FilterText: "SKY"}, []string{f.night}},
		{"text matches caption", types.Filter{types.FilterText: "wave"}, []string{f.beach}},
		{"text matches tag", types.Filter{types.FilterText: "gree"}, []string{f.forest}},
		{"text wildcard is literal", types.Filter{types.FilterText: "_"}, []string{f.night}},
		{"album in position order", types.Filter{types.FilterAlbumID: f.album}, []string{f.forest, f.beach}},
		{"album sorted by date", types.Filter{types.FilterAlbumID: f.album, types.FilterSort: types.SortDateTaken}, []string{f.forest, f.beach}},
		{"file name sort", types.Filter{types.FilterSort: types.SortFileName}, []string{f.beach, f.city, f.forest, f.night}},
		{"limit and offset", types.Filter{types.FilterSort: types.SortFileName, types.FilterLimit: 2, types.FilterOffset: 1}, []string{f.city, f.forest}},
		{"combined criteria", types.Filter{types.FilterTags: []string{"summer"}, types.FilterAlbumID: f.album, types.FilterText: "beach"}, []string{f.beach}},
		{"empty ids", types.Filter{types.FilterIDs: []string{}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fetchPhotoIDs(t, b, tt.filter))
		})
	}
}

func TestPhotosTable_FetchInvalidFilter(t *testing.T) {
	b, _ := setupLibrary(t)
	filters := []types.Filter{
		{types.FilterTags: "sea"},
		{types.FilterTags: []string{"sea"}, types.FilterTagMatch: "most"},
		{types.FilterSort: "size"},
		{types.FilterSort: types.SortPosition},
		{types.FilterOrder: "up"},
		{types.FilterLimit: "10"},
		{types.FilterDateFrom: "2024-01-01"},
	}
	for _, filter := range filters {
		err := b.View(context.Background(), func(tx types.Tx) error {
			_, err := table(t, tx, types.PhotosTable).Fetch(filter)
			return err
		})
		assert.ErrorIs(t, err, types.ErrInvalidFilter, "%v", filter)
	}
}

func TestPhotosTable_Count(t *testing.T) {
	b, f := setupLibrary(t)
	err := b.View(context.Background(), func(tx types.Tx) error {
		tbl := table(t, tx, types.PhotosTable)
		n, err := tbl.Count(types.Filter{types.FilterTags: []string{"summer"}, types.FilterLimit: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, n, "count ignores paging")

		n, err = tbl.Count(types.Filter{types.FilterAlbumID: f.album})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = tx.CountTagPhotos("SUMMER")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
}

func TestPhotosTable_SetAndDelete(t *testing.T) {
	b, f := setupLibrary(t)

	update(t, b, func(tx types.Tx) error {
		tbl := table(t, tx, types.PhotosTable)
		got, err := tbl.Get(f.beach)
		require.NoError(t, err)
		p := got.(*types.Photo)
		assert.Equal(t, []string{f.album}, p.AlbumIDs)
		assert.False(t, p.DateAdded.IsZero())

		p.Tags = []string{"  Ocean  View ", "ocean view", ""}
		_, err = tbl.Set(p.PhotoID, p)
		require.NoError(t, err)
		assert.Equal(t, []string{"ocean view"}, p.Tags)

		_, err = tbl.Set("", &types.Photo{FileName: "  "})
		assert.ErrorIs(t, err, types.ErrValidation)
		_, err = tbl.Set("", "not a photo")
		assert.ErrorIs(t, err, types.ErrInvalidData)

		require.NoError(t, tbl.Delete(f.forest))
		assert.ErrorIs(t, tbl.Delete(f.forest), types.ErrNotFound)
		_, err = tbl.Get(f.forest)
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	})

	err := b.View(context.Background(), func(tx types.Tx) error {
		ids, err := tx.AlbumPhotoIDs(f.album)
		require.NoError(t, err)
		assert.Equal(t, []string{f.beach}, ids, "deleted photo leaves the album")

		links, err := tx.TagLinks()
		require.NoError(t, err)
		for _, l := range links {
			assert.NotEqual(t, f.forest, l.PhotoID)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAlbumsTable_Uniqueness(t *testing.T) {
	b := setupBackend(t)
	err := b.Update(context.Background(), func(tx types.Tx) error {
		tbl := table(t, tx, types.AlbumsTable)
		_, err := tbl.Set("", &types.Album{Name: "Trip", Type: types.AlbumTypeCustom})
		require.NoError(t, err)
		_, err = tbl.Set("", &types.Album{Name: " trip ", Type: types.AlbumTypeCustom})
		assert.ErrorIs(t, err, types.ErrConflict)

		june := &types.Album{Type: types.AlbumTypeDate, Year: 2024, Month: 6}
		_, err = tbl.Set("", june)
		require.NoError(t, err)
		assert.Equal(t, "June 2024", june.Name)
		assert.Equal(t, 202406, june.SortKey)
		_, err = tbl.Set("", &types.Album{Type: types.AlbumTypeDate, Year: 2024, Month: 6})
		assert.ErrorIs(t, err, types.ErrConflict)

		// A custom album may share a date album's name.
		_, err = tbl.Set("", &types.Album{Name: "June 2024", Type: types.AlbumTypeCustom})
		assert.NoError(t, err)

		_, err = tbl.Set("", &types.Album{Type: types.AlbumTypeDate, Year: 2024, Month: 13})
		assert.ErrorIs(t, err, types.ErrValidation)
		_, err = tbl.Set("", &types.Album{Type: "smart", Name: "x"})
		assert.ErrorIs(t, err, types.ErrValidation)
		_, err = tbl.Set("", &types.Album{Type: types.AlbumTypeCustom})
		assert.ErrorIs(t, err, types.ErrValidation)
		return nil
	})
	require.NoError(t, err)
}

func TestAlbumsTable_FetchAndDelete(t *testing.T) {
	b, f := setupLibrary(t)
	var second string
	update(t, b, func(tx types.Tx) error {
		tbl := table(t, tx, types.AlbumsTable)
		var err error
		second, err = tbl.Set("", &types.Album{Type: types.AlbumTypeDate, Year: 2023, Position: 1})
		require.NoError(t, err)
		_, err = table(t, tx, types.PhotoLayoutsTable).Set(f.album, types.DefaultPhotoLayout(f.album, nil))
		return err
	})

	err := b.Update(context.Background(), func(tx types.Tx) error {
		tbl := table(t, tx, types.AlbumsTable)
		rows, err := tbl.Fetch(types.Filter{types.FilterType: types.AlbumTypeDate})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "2023", rows[0].(*types.Album).Name)

		rows, err = tbl.Fetch(types.Filter{types.FilterName: "TRIP"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{f.forest, f.beach}, rows[0].(*types.Album).PhotoIDs)

		rows, err = tbl.Fetch(types.Filter{types.FilterSort: types.SortPosition, types.FilterOrder: types.OrderDesc})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, second, rows[0].(*types.Album).AlbumID)

		require.NoError(t, tbl.Delete(f.album))
		n, err := tx.CountAlbumPhotos(f.album)
		require.NoError(t, err)
		assert.Zero(t, n)
		_, err = table(t, tx, types.PhotoLayoutsTable).Get(f.album)
		assert.ErrorIs(t, err, types.ErrNotFound)

		albums, err := tx.PhotoAlbumIDs(f.beach)
		require.NoError(t, err)
		assert.Empty(t, albums)

		_, err = table(t, tx, types.PhotosTable).Get(f.beach)
		assert.NoError(t, err, "photos survive album deletion")
		return nil
	})
	require.NoError(t, err)
}

func TestTagsTable(t *testing.T) {
	b, f := setupLibrary(t)
	err := b.Update(context.Background(), func(tx types.Tx) error {
		tbl := table(t, tx, types.TagsTable)
		id, err := tbl.Set("", &types.Tag{Name: "  Summer  "})
		require.NoError(t, err)

		got, err := tbl.Get("SUMMER")
		require.NoError(t, err)
		tag := got.(*types.Tag)
		assert.Equal(t, id, tag.TagID)
		assert.Equal(t, "summer", tag.Name)
		assert.Equal(t, "Summer", tag.DisplayName)

		_, err = tbl.Set("", &types.Tag{Name: "summer"})
		assert.ErrorIs(t, err, types.ErrConflict)
		_, err = tbl.Set("", &types.Tag{Name: "   "})
		assert.ErrorIs(t, err, types.ErrValidation)

		tag.Name = "Sunny"
		_, err = tbl.Set(id, tag)
		require.NoError(t, err)
		n, err := tx.CountTagPhotos("sunny")
		require.NoError(t, err)
		assert.Equal(t, 2, n, "rename relabels photos")

		require.NoError(t, tbl.Delete("sunny"))
		n, err = tx.CountTagPhotos("sunny")
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err = table(t, tx, types.PhotosTable).Get(f.beach)
		require.NoError(t, err)
		assert.Equal(t, []string{"sea"}, got.(*types.Photo).Tags)
		assert.ErrorIs(t, tbl.Delete("sunny"), types.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestTagsTable_Fetch(t *testing.T) {
	b := setupBackend(t)
	update(t, b, func(tx types.Tx) error {
		tbl := table(t, tx, types.TagsTable)
		for name, count := range map[string]int{"a": 1, "b": 5, "c": 3} {
			_, err := tbl.Set("", &types.Tag{Name: name, PhotoCount: count})
			require.NoError(t, err)
		}
		return nil
	})
	err := b.View(context.Background(), func(tx types.Tx) error {
		rows, err := table(t, tx, types.TagsTable).Fetch(types.Filter{
			types.FilterSort: types.SortCount, types.FilterOrder: types.OrderDesc, types.FilterMinCount: 2,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "b", rows[0].(*types.Tag).Name)
		assert.Equal(t, "c", rows[1].(*types.Tag).Name)
		return nil
	})
	require.NoError(t, err)
}

func TestLayoutsAndSettings(t *testing.T) {
	b, f := setupLibrary(t)
	err := b.Update(context.Background(), func(tx types.Tx) error {
		albumLayouts := table(t, tx, types.AlbumLayoutsTable)
		_, err := albumLayouts.Get("")
		assert.ErrorIs(t, err, types.ErrNotFound)

		_, err = albumLayouts.Set("", types.DefaultAlbumLayout([]string{f.album}))
		require.NoError(t, err)
		got, err := albumLayouts.Get(types.MainLayoutID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.album}, got.(*types.AlbumLayout).AlbumIDs)

		_, err = albumLayouts.Set("other", types.DefaultAlbumLayout(nil))
		assert.ErrorIs(t, err, types.ErrInvalidID)
		bad := types.DefaultAlbumLayout(nil)
		bad.Columns = 0
		_, err = albumLayouts.Set("", bad)
		assert.ErrorIs(t, err, types.ErrValidation)

		photoLayouts := table(t, tx, types.PhotoLayoutsTable)
		_, err = photoLayouts.Set("missing", types.DefaultPhotoLayout("missing", nil))
		assert.ErrorIs(t, err, types.ErrNotFound)
		_, err = photoLayouts.Set("", types.DefaultPhotoLayout(f.album, []string{f.beach}))
		require.NoError(t, err)
		rows, err := photoLayouts.Fetch(types.Filter{types.FilterAlbumID: f.album})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{f.beach}, rows[0].(*types.PhotoLayout).PhotoIDs)

		settings := table(t, tx, types.SettingsTable)
		_, err = settings.Get("")
		assert.ErrorIs(t, err, types.ErrNotFound)
		s := types.DefaultSettings()
		s.TagMatch = types.TagMatchAll
		_, err = settings.Set("", s)
		require.NoError(t, err)
		stored, err := settings.Get("")
		require.NoError(t, err)
		assert.Equal(t, s, stored)
		return nil
	})
	require.NoError(t, err)
}
