package organize

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/internal/sqlite"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func setup(t *testing.T, opts ...Option) (types.Store, *Organizer) {
	t.Helper()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })
	return store, New(store, consistency.New(nil), opts...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func addPhotos(t *testing.T, store types.Store, taken ...time.Time) []string {
	t.Helper()
	ids := make([]string, len(taken))
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		for i, ts := range taken {
			id, err := consistency.Put(tx, types.PhotosTable, "", &types.Photo{
				FileName: "img.jpg", MimeType: "image/jpeg", DateTaken: ts,
			})
			if err != nil {
				return err
			}
			ids[i] = id
		}
		return nil
	}))
	return ids
}

func dateAlbums(t *testing.T, store types.Store) []*types.Album {
	t.Helper()
	var albums []*types.Album
	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		var err error
		albums, err = consistency.FetchAlbums(tx, types.Filter{
			types.FilterType: types.AlbumTypeDate,
			types.FilterSort: types.SortDate,
		})
		return err
	}))
	return albums
}

func TestKeyFor(t *testing.T) {
	ts := time.Date(2024, time.June, 30, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, types.DateKey{Year: 2024, Month: 7}, KeyFor(ts, types.GranularityMonth), "keys use UTC")
	assert.Equal(t, types.DateKey{Year: 2024}, KeyFor(ts, types.GranularityYear))
}

func TestOrganizeAll_June2024(t *testing.T) {
	store, org := setup(t)
	ids := addPhotos(t, store, day(2024, time.June, 1), day(2024, time.June, 15), day(2023, time.December, 31))

	before := testutil.ToFloat64(metrics.DateAlbumsCreated)
	result, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 3, result.Attached)
	assert.Len(t, result.AlbumsCreated, 2)
	assert.False(t, result.Cancelled)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.DateAlbumsCreated))

	albums := dateAlbums(t, store)
	require.Len(t, albums, 2)
	dec, june := albums[0], albums[1]
	assert.Equal(t, "December 2023", dec.Name)
	assert.Equal(t, 202312, dec.SortKey)
	assert.Equal(t, []string{ids[2]}, dec.PhotoIDs)

	assert.Equal(t, "June 2024", june.Name)
	assert.Equal(t, 2024, june.Year)
	assert.Equal(t, 6, june.Month)
	assert.Equal(t, 202406, june.SortKey)
	assert.Equal(t, []string{ids[0], ids[1]}, june.PhotoIDs)
	assert.Equal(t, 2, june.PhotoCount)
	assert.Equal(t, dec.Position+1, june.Position, "albums are created oldest first at the end of the grid")
}

func TestOrganize_Idempotent(t *testing.T) {
	store, org := setup(t)
	addPhotos(t, store, day(2024, time.June, 1), day(2024, time.July, 1))

	_, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)
	first := dateAlbums(t, store)

	again, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Processed)
	assert.Zero(t, again.Attached)
	assert.Empty(t, again.AlbumsCreated)

	second := dateAlbums(t, store)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].AlbumID, second[i].AlbumID)
		assert.Equal(t, first[i].PhotoIDs, second[i].PhotoIDs)
		assert.Equal(t, first[i].PhotoCount, second[i].PhotoCount)
	}
}

func TestOrganize_YearGranularity(t *testing.T) {
	store, org := setup(t)
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		s := types.DefaultSettings()
		s.DateGranularity = types.GranularityYear
		_, err := consistency.Put(tx, types.SettingsTable, "", s)
		return err
	}))
	addPhotos(t, store, day(2024, time.June, 1), day(2024, time.July, 1))

	_, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)

	albums := dateAlbums(t, store)
	require.Len(t, albums, 1)
	assert.Equal(t, "2024", albums[0].Name)
	assert.Equal(t, 202400, albums[0].SortKey)
	assert.Equal(t, 2, albums[0].PhotoCount)
}

func TestAttachPhoto_MovesOnDateChange(t *testing.T) {
	store, org := setup(t)
	ids := addPhotos(t, store, day(2024, time.June, 1))
	_, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		p, err := consistency.GetPhoto(tx, ids[0])
		require.NoError(t, err)
		p.DateTaken = day(2024, time.August, 9)
		if _, err := consistency.Put(tx, types.PhotosTable, p.PhotoID, p); err != nil {
			return err
		}
		attached, created, err := org.AttachPhoto(context.Background(), tx, p, types.GranularityMonth)
		require.NoError(t, err)
		assert.True(t, attached)
		require.NotNil(t, created)
		assert.Equal(t, "August 2024", created.Name)
		return nil
	}))

	albums := dateAlbums(t, store)
	require.Len(t, albums, 2)
	assert.Empty(t, albums[0].PhotoIDs, "June keeps no photos")
	assert.Zero(t, albums[0].PhotoCount)
	assert.Equal(t, ids, albums[1].PhotoIDs)
}

func TestAttachPhoto_KeepsCustomAlbums(t *testing.T) {
	store, org := setup(t)
	ids := addPhotos(t, store, day(2024, time.June, 1))
	m := consistency.New(nil)

	var custom string
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		var err error
		custom, err = consistency.Put(tx, types.AlbumsTable, "", &types.Album{Name: "Trip", Type: types.AlbumTypeCustom})
		require.NoError(t, err)
		_, err = m.AddToAlbum(context.Background(), tx, custom, ids, consistency.AppendPosition)
		return err
	}))
	_, err := org.OrganizeAll(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		p, err := consistency.GetPhoto(tx, ids[0])
		require.NoError(t, err)
		assert.Len(t, p.AlbumIDs, 2)
		assert.Contains(t, p.AlbumIDs, custom)
		return nil
	}))
}

func TestOrganizePhotos_Batches(t *testing.T) {
	store, org := setup(t, WithBatchSize(2))
	ids := addPhotos(t, store,
		day(2024, time.January, 1), day(2024, time.February, 1), day(2024, time.March, 1),
		day(2024, time.April, 1), day(2024, time.May, 1))

	result, err := org.OrganizePhotos(context.Background(), append(ids, "missing"))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Processed)
	assert.Len(t, result.AlbumsCreated, 5)
	assert.Len(t, dateAlbums(t, store), 5)
}

func TestOrganizePhotos_Cancelled(t *testing.T) {
	store, org := setup(t, WithBatchSize(1))
	ids := addPhotos(t, store, day(2024, time.January, 1), day(2024, time.February, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := org.OrganizePhotos(ctx, ids)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Zero(t, result.Processed)
	assert.Empty(t, dateAlbums(t, store))
}

func TestOrganize_ConcurrentRunsShareAlbums(t *testing.T) {
	store, org := setup(t, WithBatchSize(3))
	var taken []time.Time
	for i := range 24 {
		taken = append(taken, day(2024, time.Month(i%3+1), i%28+1))
	}
	ids := addPhotos(t, store, taken...)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[w] = org.OrganizePhotos(context.Background(), ids[w*6:(w+1)*6])
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	albums := dateAlbums(t, store)
	require.Len(t, albums, 3, "one album per month despite concurrent creation")
	total := 0
	for _, a := range albums {
		assert.Equal(t, len(a.PhotoIDs), a.PhotoCount)
		total += a.PhotoCount
	}
	assert.Equal(t, len(ids), total)

	var report *types.HealthReport
	require.NoError(t, store.View(context.Background(), func(tx types.Tx) error {
		var err error
		report, err = consistency.New(nil).Check(context.Background(), tx, false)
		return err
	}))
	assert.True(t, report.Healthy())
}

func TestEnsureAlbum_InvalidKey(t *testing.T) {
	store, org := setup(t)
	err := store.Update(context.Background(), func(tx types.Tx) error {
		_, _, err := org.EnsureAlbum(context.Background(), tx, types.DateKey{Year: 2024, Month: 13})
		return err
	})
	assert.ErrorIs(t, err, types.ErrValidation)
}
