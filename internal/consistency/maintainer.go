// Package consistency keeps the caches derived from the album/photo and
// photo/tag relations correct: album and tag photo counts, album covers,
// layouts and tag records. It also owns the membership operations and the
// health check.
//
// Counts are always recomputed from the relation indexes, never adjusted in
// place, so a later pass repairs any drift.
package consistency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mesh-intelligence/shoebox/internal/logger"
	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Maintainer recomputes derived caches inside the caller's transaction.
type Maintainer struct {
	log *slog.Logger
	now func() time.Time
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithClock sets the time source used for modification timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Maintainer) { m.now = now }
}

// New creates a Maintainer. A nil logger discards output.
func New(log *slog.Logger, opts ...Option) *Maintainer {
	m := &Maintainer{
		log: logger.OrDiscard(log),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply runs Reconcile inside a savepoint of tx. A failure rolls back only
// the recomputation; it is logged and counted, and the caller's writes stand.
// The health check repairs whatever was left stale.
func (m *Maintainer) Apply(ctx context.Context, tx types.Tx, c Change) {
	if c.Empty() {
		return
	}
	err := tx.Savepoint("reconcile", func() error {
		return m.Reconcile(ctx, tx, c)
	})
	if err != nil {
		metrics.RecountFailures.Inc()
		m.log.WarnContext(ctx, "derived cache recomputation failed",
			"albums", c.albums(), "tags", c.tags(), "error", err)
	}
}

// Reconcile recomputes every cache derived from the relations c touched.
func (m *Maintainer) Reconcile(ctx context.Context, tx types.Tx, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	settings, err := LoadSettings(tx)
	if err != nil {
		return err
	}
	for _, id := range c.albums() {
		if err := m.reconcileAlbum(tx, id); err != nil {
			return err
		}
	}
	if c.AlbumSetChanged {
		if err := m.syncAlbumLayout(tx); err != nil {
			return err
		}
	}
	for _, name := range c.tags() {
		display, used := c.TagsUsed[name]
		if err := m.reconcileTag(tx, name, display, used, settings.PruneEmptyTags); err != nil {
			return err
		}
	}
	return nil
}

// reconcileAlbum recounts the album, repairs its cover and syncs its photo
// layout. A deleted album is skipped.
func (m *Maintainer) reconcileAlbum(tx types.Tx, id string) error {
	a, err := GetAlbum(tx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	count, err := tx.CountAlbumPhotos(id)
	if err != nil {
		return err
	}

	changed := false
	if a.PhotoCount != count {
		a.PhotoCount = count
		changed = true
	}
	if cover := fixCover(a.CoverPhotoID, a.PhotoIDs); cover != a.CoverPhotoID {
		m.log.Debug("reassigning album cover", "album", id, "from", a.CoverPhotoID, "to", cover)
		a.CoverPhotoID = cover
		changed = true
	}
	if changed {
		a.DateModified = m.now()
		if _, err := Put(tx, types.AlbumsTable, id, a); err != nil {
			return fmt.Errorf("updating album %s: %w", id, err)
		}
	}
	return m.syncPhotoLayout(tx, id, a.PhotoIDs)
}

// fixCover returns cover if it is a member, else the first member, else "".
func fixCover(cover string, members []string) string {
	if cover == "" || slices.Contains(members, cover) {
		return cover
	}
	if len(members) > 0 {
		return members[0]
	}
	return ""
}

// syncPhotoLayout restricts an existing photo layout to the album's members
// and appends members it does not list yet.
func (m *Maintainer) syncPhotoLayout(tx types.Tx, albumID string, members []string) error {
	l, err := get[*types.PhotoLayout](tx, types.PhotoLayoutsTable, albumID)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	synced := syncOrder(l.PhotoIDs, members)
	if slices.Equal(synced, l.PhotoIDs) {
		return nil
	}
	l.PhotoIDs = synced
	l.DateModified = m.now()
	if _, err := Put(tx, types.PhotoLayoutsTable, albumID, l); err != nil {
		return fmt.Errorf("syncing photo layout %s: %w", albumID, err)
	}
	return nil
}

// syncAlbumLayout restricts the main album layout to existing albums and
// appends new albums in position order.
func (m *Maintainer) syncAlbumLayout(tx types.Tx) error {
	l, err := get[*types.AlbumLayout](tx, types.AlbumLayoutsTable, types.MainLayoutID)
	if errors.Is(err, types.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	albums, err := FetchAlbums(tx, types.Filter{types.FilterSort: types.SortPosition})
	if err != nil {
		return err
	}
	ids := make([]string, len(albums))
	for i, a := range albums {
		ids[i] = a.AlbumID
	}
	synced := syncOrder(l.AlbumIDs, ids)
	if slices.Equal(synced, l.AlbumIDs) {
		return nil
	}
	l.AlbumIDs = synced
	l.DateModified = m.now()
	if _, err := Put(tx, types.AlbumLayoutsTable, types.MainLayoutID, l); err != nil {
		return fmt.Errorf("syncing album layout: %w", err)
	}
	return nil
}

// syncOrder keeps the entries of order that are in valid, in order, then
// appends the rest of valid in its own order. The result is never nil.
func syncOrder(order, valid []string) []string {
	isValid := make(map[string]bool, len(valid))
	for _, id := range valid {
		isValid[id] = true
	}
	out := make([]string, 0, len(valid))
	seen := make(map[string]bool, len(valid))
	for _, id := range order {
		if isValid[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	for _, id := range valid {
		if !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// reconcileTag recounts a tag, creating its record on first use and pruning
// it when it falls to zero and pruning is enabled.
func (m *Maintainer) reconcileTag(tx types.Tx, name, display string, used, prune bool) error {
	count, err := tx.CountTagPhotos(name)
	if err != nil {
		return err
	}
	now := m.now()

	t, err := GetTag(tx, name)
	if errors.Is(err, types.ErrNotFound) {
		if count == 0 {
			return nil
		}
		if display == "" {
			display = name
		}
		t = &types.Tag{
			Name:         name,
			DisplayName:  display,
			PhotoCount:   count,
			DateCreated:  now,
			DateLastUsed: now,
		}
		if _, err := Put(tx, types.TagsTable, "", t); err != nil {
			return fmt.Errorf("creating tag %s: %w", name, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if count == 0 && prune {
		m.log.Debug("pruning unused tag", "tag", name)
		return Remove(tx, types.TagsTable, t.TagID)
	}
	if t.PhotoCount == count && !used {
		return nil
	}
	t.PhotoCount = count
	if used {
		t.DateLastUsed = now
	}
	if _, err := Put(tx, types.TagsTable, t.TagID, t); err != nil {
		return fmt.Errorf("updating tag %s: %w", name, err)
	}
	return nil
}

// LoadSettings returns the stored settings, or the defaults when none are
// stored.
func LoadSettings(tx types.Tx) (*types.Settings, error) {
	s, err := get[*types.Settings](tx, types.SettingsTable, types.SettingsID)
	if errors.Is(err, types.ErrNotFound) {
		return types.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NextAlbumPosition returns the grid position after the last album.
func NextAlbumPosition(tx types.Tx) (int, error) {
	last, err := FetchAlbums(tx, types.Filter{
		types.FilterSort:  types.SortPosition,
		types.FilterOrder: types.OrderDesc,
		types.FilterLimit: 1,
	})
	if err != nil {
		return 0, err
	}
	if len(last) == 0 {
		return 0, nil
	}
	return last[0].Position + 1, nil
}
