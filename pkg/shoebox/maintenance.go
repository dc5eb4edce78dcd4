package shoebox

import (
	"context"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// StorageStats summarizes the library and its on-disk footprint.
func (s *Service) StorageStats(ctx context.Context) (*types.StorageStats, error) {
	stats := &types.StorageStats{}
	err := s.view(ctx, "StorageStats", func(tx types.Tx) error {
		counts := []struct {
			table  string
			filter types.Filter
			into   *int
		}{
			{types.PhotosTable, nil, &stats.Photos},
			{types.AlbumsTable, nil, &stats.Albums},
			{types.AlbumsTable, types.Filter{types.FilterType: types.AlbumTypeDate}, &stats.DateAlbums},
			{types.AlbumsTable, types.Filter{types.FilterType: types.AlbumTypeCustom}, &stats.CustomAlbums},
			{types.TagsTable, nil, &stats.Tags},
		}
		for _, c := range counts {
			tbl, err := tx.Table(c.table)
			if err != nil {
				return err
			}
			if *c.into, err = tbl.Count(c.filter); err != nil {
				return err
			}
		}
		photos, err := consistency.FetchPhotos(tx, nil)
		if err != nil {
			return err
		}
		for _, p := range photos {
			stats.PhotoBytes += p.FileSize
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	usage, err := s.store.Usage()
	if err != nil {
		return nil, wrap("StorageStats", err)
	}
	stats.Usage = usage
	return stats, nil
}

// HealthCheck scans the library for broken invariants. With repair the
// derived caches (counts, covers, tag records, layouts) are corrected; the
// album and tag relations themselves are never changed. The report's Err
// wraps ErrCorruption while unresolved issues remain.
func (s *Service) HealthCheck(ctx context.Context, repair bool) (*types.HealthReport, error) {
	var report *types.HealthReport
	run := s.view
	if repair {
		run = s.update
	}
	err := run(ctx, "HealthCheck", func(tx types.Tx) error {
		var err error
		report, err = s.maint.Check(ctx, tx, repair)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ClearAll deletes every photo, album, tag, layout and the settings.
func (s *Service) ClearAll(ctx context.Context) error {
	err := s.update(ctx, "ClearAll", func(tx types.Tx) error {
		return tx.Clear()
	})
	if err != nil {
		return err
	}
	s.log.WarnContext(ctx, "library cleared")
	return nil
}
