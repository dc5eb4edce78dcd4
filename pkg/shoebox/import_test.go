package shoebox_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/shoebox"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// fakeExtractor returns canned metadata by file name; names containing
// "broken" fail.
type fakeExtractor struct {
	meta  map[string]*types.Metadata
	calls atomic.Int32
}

func (e *fakeExtractor) Extract(_ context.Context, f *types.RawFile) (*types.Metadata, error) {
	e.calls.Add(1)
	if strings.Contains(f.Name, "broken") {
		return nil, errors.New("unreadable header")
	}
	if m, ok := e.meta[f.Name]; ok {
		return m, nil
	}
	return &types.Metadata{}, nil
}

type fakeThumbnails struct {
	maxSize atomic.Int32
}

func (g *fakeThumbnails) Generate(_ context.Context, f *types.RawFile, maxSize, _ int) (string, error) {
	g.maxSize.Store(int32(maxSize))
	return "thumb/" + f.Name, nil
}

type imagesOnly struct{}

func (imagesOnly) Validate(f *types.RawFile) types.FileCheck {
	if !strings.HasPrefix(f.MimeType, "image/") {
		return types.FileCheck{Reason: "unsupported type " + f.MimeType}
	}
	return types.FileCheck{OK: true}
}

func rawFile(name, mime string, mod time.Time) *types.RawFile {
	return &types.RawFile{Name: name, Path: "/card/" + name, MimeType: mime, Size: 2048, ModTime: mod}
}

func TestImportFiles(t *testing.T) {
	taken := june(12)
	extractor := &fakeExtractor{meta: map[string]*types.Metadata{
		"beach.jpg": {DateTaken: &taken, Width: 4000, Height: 3000, Camera: "X100", Tags: []string{"Sea"}},
	}}
	thumbs := &fakeThumbnails{}
	svc := setup(t,
		shoebox.WithMetadataExtractor(extractor),
		shoebox.WithThumbnailGenerator(thumbs),
		shoebox.WithFileValidator(imagesOnly{}),
		shoebox.WithImportConcurrency(2),
	)
	ctx := context.Background()

	modTime := time.Date(2024, time.June, 20, 8, 0, 0, 0, time.UTC)
	files := []*types.RawFile{
		rawFile("beach.jpg", "image/jpeg", modTime),
		rawFile("notes.txt", "text/plain", modTime),
		rawFile("broken.png", "image/png", modTime),
		{Name: "", MimeType: "image/png", ModTime: modTime},
	}

	before := testutil.ToFloat64(metrics.PhotosImported)
	result, err := svc.ImportFiles(ctx, files)
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	require.Len(t, result.Imported, 2)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.PhotosImported))

	beach, broken := result.Imported[0], result.Imported[1]
	assert.Equal(t, "beach.jpg", beach.FileName)
	assert.True(t, beach.DateTaken.Equal(taken))
	assert.Equal(t, 4000, beach.Width)
	assert.Equal(t, "X100", beach.Camera)
	assert.Equal(t, []string{"sea"}, beach.Tags)
	assert.Equal(t, "thumb/beach.jpg", beach.Thumbnail)
	assert.Equal(t, int64(2048), beach.FileSize)

	assert.Equal(t, "broken.png", broken.FileName)
	assert.True(t, broken.DateTaken.Equal(modTime), "failed extraction falls back to the file time")
	assert.Zero(t, broken.Width)

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, "notes.txt", result.Rejected[0].FileName)
	assert.Contains(t, result.Rejected[0].Reason, "unsupported type")
	assert.Contains(t, result.Rejected[1].Reason, "fileName")

	assert.EqualValues(t, 320, thumbs.maxSize.Load(), "thumbnails use the configured size")

	require.NotNil(t, result.Organized)
	assert.Equal(t, 2, result.Organized.Processed)
	assert.Len(t, result.Organized.AlbumsCreated, 1)
	albums, err := svc.ListAlbums(ctx, types.AlbumQuery{Type: types.AlbumTypeDate})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "June 2024", albums[0].Name)
	assert.Equal(t, 2, albums[0].PhotoCount)

	sea, err := svc.GetTag(ctx, "sea")
	require.NoError(t, err)
	assert.Equal(t, "Sea", sea.DisplayName)
	requireConsistent(t, svc)
}

func TestImportFiles_Batches(t *testing.T) {
	svc := setupManual(t, shoebox.WithBatchSize(2))
	ctx := context.Background()

	files := make([]*types.RawFile, 5)
	for i := range files {
		files[i] = rawFile(fmt.Sprintf("img%d.jpg", i), "image/jpeg", june(i+1))
	}
	result, err := svc.ImportFiles(ctx, files)
	require.NoError(t, err)
	require.Len(t, result.Imported, 5)
	assert.Nil(t, result.Organized, "auto-organize is off")
	for i, p := range result.Imported {
		assert.Equal(t, files[i].Name, p.FileName, "results keep file order")
	}

	page, err := svc.SearchPhotos(ctx, types.PhotoQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	albums, err := svc.ListAlbums(ctx, types.AlbumQuery{})
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestImportFiles_Cancelled(t *testing.T) {
	extractor := &fakeExtractor{}
	svc := setup(t, shoebox.WithMetadataExtractor(extractor))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.ImportFiles(ctx, []*types.RawFile{rawFile("a.jpg", "image/jpeg", june(1))})
	require.Error(t, err, "the settings cannot be read after cancellation")
	assert.Nil(t, result)

	page, err := svc.SearchPhotos(context.Background(), types.PhotoQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Zero(t, extractor.calls.Load())
}

// cancelOnExtract cancels the import while files are being prepared.
type cancelOnExtract struct {
	cancel context.CancelFunc
}

func (c cancelOnExtract) Extract(ctx context.Context, _ *types.RawFile) (*types.Metadata, error) {
	c.cancel()
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestImportFiles_CancelledWhilePreparing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := setup(t, shoebox.WithMetadataExtractor(cancelOnExtract{cancel: cancel}))

	result, err := svc.ImportFiles(ctx, []*types.RawFile{
		rawFile("a.jpg", "image/jpeg", june(1)),
		rawFile("b.jpg", "image/jpeg", june(2)),
	})
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Empty(t, result.Imported)

	page, err := svc.SearchPhotos(context.Background(), types.PhotoQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "nothing is written once cancelled")
}
