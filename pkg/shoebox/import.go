package shoebox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// prepared is one file after validation, metadata extraction and thumbnail
// generation.
type prepared struct {
	photo    *types.Photo
	rawTags  []string
	rejected *types.Rejection
}

// ImportFiles imports files as photos. Files are validated, read for
// metadata and thumbnailed in parallel; the photos are then written in
// batches, one update each, and filed in date albums when auto-organize is
// on. A file the validator refuses, or whose metadata is invalid, is
// rejected and the rest continue. Cancellation is honored between batches:
// the result then has Cancelled set and lists what was committed.
func (s *Service) ImportFiles(ctx context.Context, files []*types.RawFile) (result *types.ImportResult, err error) {
	defer observe("ImportFiles", time.Now(), &err)
	result = &types.ImportResult{Imported: []*types.Photo{}, Rejected: []types.Rejection{}}

	var settings *types.Settings
	if err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		settings, err = consistency.LoadSettings(tx)
		return err
	}); err != nil {
		return nil, wrap("ImportFiles", err)
	}

	items, err := s.prepare(ctx, files, settings)
	if err != nil {
		if ctx.Err() != nil {
			result.Cancelled = true
			return result, nil
		}
		return nil, wrap("ImportFiles", err)
	}

	var accepted []prepared
	for _, it := range items {
		if it.rejected != nil {
			result.Rejected = append(result.Rejected, *it.rejected)
			continue
		}
		accepted = append(accepted, it)
	}
	if settings.AutoOrganize {
		result.Organized = &types.OrganizeResult{AlbumsCreated: []string{}}
	}

	for start := 0; start < len(accepted); start += s.batchSize {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		batch := accepted[start:min(start+s.batchSize, len(accepted))]
		photos, organized, err := s.writeBatch(ctx, batch, settings)
		if err != nil {
			return result, wrap("ImportFiles", err)
		}
		metrics.PhotosImported.Add(float64(len(photos)))
		result.Imported = append(result.Imported, photos...)
		if organized != nil {
			result.Organized.Processed += organized.Processed
			result.Organized.Attached += organized.Attached
			result.Organized.AlbumsCreated = append(result.Organized.AlbumsCreated, organized.AlbumsCreated...)
		}
	}

	s.log.InfoContext(ctx, "import finished",
		"imported", len(result.Imported), "rejected", len(result.Rejected), "cancelled", result.Cancelled)
	return result, nil
}

// prepare runs the collaborators over files with bounded parallelism. The
// result is in file order.
func (s *Service) prepare(ctx context.Context, files []*types.RawFile, settings *types.Settings) ([]prepared, error) {
	items := make([]prepared, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := s.prepareFile(gctx, f, settings)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) prepareFile(ctx context.Context, f *types.RawFile, settings *types.Settings) (prepared, error) {
	reject := func(reason string) (prepared, error) {
		s.log.DebugContext(ctx, "file rejected", "file", f.Name, "reason", reason)
		return prepared{rejected: &types.Rejection{FileName: f.Name, Reason: reason}}, nil
	}
	if f == nil {
		return prepared{rejected: &types.Rejection{Reason: "no file"}}, nil
	}
	if s.files != nil {
		if check := s.files.Validate(f); !check.OK {
			return reject(check.Reason)
		}
	}

	meta := &types.Metadata{}
	if s.extractor != nil {
		m, err := s.extractor.Extract(ctx, f)
		switch {
		case err != nil && ctx.Err() != nil:
			return prepared{}, ctx.Err()
		case err != nil:
			s.log.DebugContext(ctx, "metadata extraction failed", "file", f.Name, "error", err)
		case m != nil:
			meta = m
		}
	}

	now := s.now()
	p := &types.Photo{
		FileName:     f.Name,
		FilePath:     f.Path,
		FileSize:     f.Size,
		MimeType:     f.MimeType,
		Width:        meta.Width,
		Height:       meta.Height,
		DateTaken:    f.ModTime.UTC(),
		DateAdded:    now,
		DateModified: now,
		Camera:       meta.Camera,
		Location:     meta.Location,
		Caption:      meta.Caption,
	}
	if meta.DateTaken != nil && !meta.DateTaken.IsZero() {
		p.DateTaken = meta.DateTaken.UTC()
	}
	if p.DateTaken.IsZero() {
		p.DateTaken = now
	}
	p.SetTags(meta.Tags)
	if err := s.check(p); err != nil {
		return reject(err.Error())
	}

	if s.thumbnails != nil {
		ref, err := s.thumbnails.Generate(ctx, f, settings.ThumbnailMaxSize, settings.ThumbnailQuality)
		switch {
		case err != nil && ctx.Err() != nil:
			return prepared{}, ctx.Err()
		case err != nil:
			s.log.WarnContext(ctx, "thumbnail generation failed", "file", f.Name, "error", err)
		default:
			p.Thumbnail = ref
		}
	}
	return prepared{photo: p, rawTags: meta.Tags}, nil
}

// writeBatch stores one batch of prepared photos in a single update and
// returns them as committed.
func (s *Service) writeBatch(ctx context.Context, batch []prepared, settings *types.Settings) ([]*types.Photo, *types.OrganizeResult, error) {
	var (
		stored    []*types.Photo
		organized *types.OrganizeResult
	)
	err := s.store.Update(ctx, func(tx types.Tx) error {
		stored = make([]*types.Photo, 0, len(batch))
		organized = nil
		if settings.AutoOrganize {
			organized = &types.OrganizeResult{AlbumsCreated: []string{}}
		}

		photos := make([]*types.Photo, len(batch))
		raw := make([][]string, len(batch))
		for i, it := range batch {
			photos[i] = it.photo.Clone()
			raw[i] = it.rawTags
		}
		if err := s.insertPhotos(ctx, tx, photos, raw, settings, organized); err != nil {
			return err
		}
		for _, p := range photos {
			got, err := consistency.GetPhoto(tx, p.PhotoID)
			if err != nil {
				return err
			}
			stored = append(stored, got)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrQuotaExceeded) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("writing import batch: %w", err)
	}
	return stored, organized, nil
}
