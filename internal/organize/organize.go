// Package organize files photos into date albums keyed by the year and
// month (or year alone) they were taken.
//
// Runs are idempotent: a photo that already sits in the album for its key
// is skipped. Work is split into batches, one store update per batch, and
// the context is checked between batches only, so a cancelled run leaves
// the store consistent as of the last committed batch.
package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/internal/logger"
	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// DefaultBatchSize is the number of photos organized per store update.
const DefaultBatchSize = 200

// Organizer attaches photos to their date albums.
type Organizer struct {
	store     types.Store
	maint     *consistency.Maintainer
	log       *slog.Logger
	batchSize int
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithBatchSize sets the number of photos per update. Values below 1 are
// ignored.
func WithBatchSize(n int) Option {
	return func(o *Organizer) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Organizer) { o.log = logger.OrDiscard(log) }
}

// New creates an Organizer over store.
func New(store types.Store, maint *consistency.Maintainer, opts ...Option) *Organizer {
	o := &Organizer{
		store:     store,
		maint:     maint,
		log:       logger.Discard(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// KeyFor returns the date album key for a capture time.
func KeyFor(taken time.Time, g types.Granularity) types.DateKey {
	return types.DateKeyFor(taken, g)
}

// EnsureAlbum returns the date album for key, creating it at the end of the
// album grid when absent. created reports whether it was created.
func (o *Organizer) EnsureAlbum(ctx context.Context, tx types.Tx, key types.DateKey) (album *types.Album, created bool, err error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	found, err := consistency.FetchAlbums(tx, types.Filter{
		types.FilterType:  types.AlbumTypeDate,
		types.FilterYear:  key.Year,
		types.FilterMonth: key.Month,
	})
	if err != nil {
		return nil, false, fmt.Errorf("looking up date album %s: %w", key, err)
	}
	if len(found) > 0 {
		return found[0], false, nil
	}

	pos, err := consistency.NextAlbumPosition(tx)
	if err != nil {
		return nil, false, err
	}
	album = &types.Album{
		Type:     types.AlbumTypeDate,
		Year:     key.Year,
		Month:    key.Month,
		Position: pos,
		PhotoIDs: []string{},
	}
	if _, err := consistency.Put(tx, types.AlbumsTable, "", album); err != nil {
		return nil, false, fmt.Errorf("creating date album %s: %w", key, err)
	}
	metrics.DateAlbumsCreated.Inc()
	o.log.DebugContext(ctx, "created date album", "album", album.AlbumID, "key", key.String(), "name", album.Name)
	o.maint.Apply(ctx, tx, consistency.Change{AlbumSetChanged: true})
	return album, true, nil
}

// AttachPhoto puts the photo into the date album for its capture time at
// granularity g. The photo leaves any other date album of the same
// granularity. attached is false when it was already in place; created is
// the album created for it, if any.
func (o *Organizer) AttachPhoto(ctx context.Context, tx types.Tx, p *types.Photo, g types.Granularity) (attached bool, created *types.Album, err error) {
	key := KeyFor(p.DateTaken, g)
	yearly := g == types.GranularityYear

	for _, id := range p.AlbumIDs {
		a, err := consistency.GetAlbum(tx, id)
		if err != nil {
			return false, nil, err
		}
		if !a.IsDate() || (a.Month == 0) != yearly || a.DateKey() == key {
			continue
		}
		if _, err := o.maint.RemoveFromAlbum(ctx, tx, id, []string{p.PhotoID}); err != nil {
			return false, nil, err
		}
		o.log.DebugContext(ctx, "moved photo out of date album", "photo", p.PhotoID, "from", a.DateKey().String(), "to", key.String())
	}

	album, isNew, err := o.EnsureAlbum(ctx, tx, key)
	if err != nil {
		return false, nil, err
	}
	if isNew {
		created = album
	}
	added, err := o.maint.AddToAlbum(ctx, tx, album.AlbumID, []string{p.PhotoID}, consistency.AppendPosition)
	if err != nil {
		return false, created, err
	}
	return len(added) > 0, created, nil
}

// OrganizeAll organizes every photo in the library, oldest first.
func (o *Organizer) OrganizeAll(ctx context.Context) (*types.OrganizeResult, error) {
	var ids []string
	err := o.store.View(ctx, func(tx types.Tx) error {
		photos, err := consistency.FetchPhotos(tx, types.Filter{types.FilterSort: types.SortDateTaken})
		if err != nil {
			return err
		}
		ids = make([]string, len(photos))
		for i, p := range photos {
			ids[i] = p.PhotoID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.OrganizePhotos(ctx, ids)
}

// OrganizePhotos organizes the given photos in batches. Ids that no longer
// exist are skipped. When ctx is cancelled between batches the result has
// Cancelled set and covers the committed batches; the error is nil.
func (o *Organizer) OrganizePhotos(ctx context.Context, ids []string) (*types.OrganizeResult, error) {
	result := &types.OrganizeResult{AlbumsCreated: []string{}}

	for start := 0; start < len(ids); start += o.batchSize {
		if ctx.Err() != nil {
			result.Cancelled = true
			o.log.InfoContext(ctx, "organize cancelled", "processed", result.Processed, "remaining", len(ids)-start)
			return result, nil
		}
		batch := ids[start:min(start+o.batchSize, len(ids))]

		var processed, attached int
		var created []string
		err := o.store.Update(ctx, func(tx types.Tx) error {
			processed, attached, created = 0, 0, nil
			settings, err := consistency.LoadSettings(tx)
			if err != nil {
				return err
			}
			for _, id := range batch {
				p, err := consistency.GetPhoto(tx, id)
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				ok, album, err := o.AttachPhoto(ctx, tx, p, settings.DateGranularity)
				if err != nil {
					return fmt.Errorf("organizing photo %s: %w", id, err)
				}
				processed++
				if ok {
					attached++
				}
				if album != nil {
					created = append(created, album.AlbumID)
				}
			}
			return nil
		})
		if err != nil {
			return result, err
		}
		result.Processed += processed
		result.Attached += attached
		result.AlbumsCreated = append(result.AlbumsCreated, created...)
	}

	o.log.InfoContext(ctx, "organized photos",
		"processed", result.Processed, "attached", result.Attached, "albums_created", len(result.AlbumsCreated))
	return result, nil
}
