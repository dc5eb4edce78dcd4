package shoebox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func TestStorageStats(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	addPhoto(t, svc, "a.jpg", june(1), "sea")
	addPhoto(t, svc, "b.jpg", june(2))
	addAlbum(t, svc, "Trip")

	stats, err := svc.StorageStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Photos)
	assert.Equal(t, 2, stats.Albums)
	assert.Equal(t, 1, stats.DateAlbums)
	assert.Equal(t, 1, stats.CustomAlbums)
	assert.Equal(t, 1, stats.Tags)
	assert.Equal(t, int64(2048), stats.PhotoBytes)
	assert.Positive(t, stats.Usage.TotalBytes)
	assert.Zero(t, stats.Usage.QuotaBytes)
}

func TestHealthCheck_Healthy(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	p := addPhoto(t, svc, "a.jpg", june(1), "sea")
	addAlbum(t, svc, "Trip", p.PhotoID)
	_, err := svc.CreateTag(ctx, types.NewTag{Name: "spare"})
	require.NoError(t, err)

	for _, repair := range []bool{false, true} {
		report, err := svc.HealthCheck(ctx, repair)
		require.NoError(t, err)
		assert.True(t, report.Healthy())
		assert.NoError(t, report.Err())
		assert.Equal(t, 1, report.Photos)
		assert.Equal(t, 2, report.Albums)
		assert.Equal(t, 2, report.Tags)
		for _, issue := range report.Issues {
			assert.True(t, issue.Info, "only informational findings: %+v", issue)
		}
	}
}

func TestClearAll(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	addPhoto(t, svc, "a.jpg", june(1), "sea")
	addAlbum(t, svc, "Trip")
	_, err := svc.UpdateSettings(ctx, types.SettingsUpdate{Theme: ptr("dark")})
	require.NoError(t, err)

	require.NoError(t, svc.ClearAll(ctx))

	stats, err := svc.StorageStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Photos)
	assert.Zero(t, stats.Albums)
	assert.Zero(t, stats.Tags)
	settings, err := svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultSettings(), settings)
}
