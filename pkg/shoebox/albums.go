package shoebox

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// topTagLimit caps AlbumStats.TopTags.
const topTagLimit = 10

// CreateAlbum creates a custom album. Names are unique among custom albums
// ignoring case; a clash returns ErrConflict. Without a position the album
// goes to the end of the grid.
func (s *Service) CreateAlbum(ctx context.Context, req types.NewAlbum) (*types.Album, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	album := &types.Album{Name: req.Name, Type: types.AlbumTypeCustom, PhotoIDs: []string{}}
	err := s.update(ctx, "CreateAlbum", func(tx types.Tx) error {
		return s.insertAlbum(ctx, tx, album, req.Position)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "album created", "album_id", album.AlbumID, "name", album.Name)
	return album, nil
}

// CreateDateAlbum creates a date album for (year, month); month 0 makes a
// whole-year album. A second album for the same key returns ErrConflict.
func (s *Service) CreateDateAlbum(ctx context.Context, req types.NewDateAlbum) (*types.Album, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	album := &types.Album{
		Name:     req.Name,
		Type:     types.AlbumTypeDate,
		Year:     req.Year,
		Month:    req.Month,
		PhotoIDs: []string{},
	}
	err := s.update(ctx, "CreateDateAlbum", func(tx types.Tx) error {
		return s.insertAlbum(ctx, tx, album, req.Position)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "date album created", "album_id", album.AlbumID, "name", album.Name)
	return album, nil
}

func (s *Service) insertAlbum(ctx context.Context, tx types.Tx, album *types.Album, position *int) error {
	if position != nil {
		album.Position = *position
	} else {
		next, err := consistency.NextAlbumPosition(tx)
		if err != nil {
			return err
		}
		album.Position = next
	}
	now := s.now()
	album.DateCreated, album.DateModified = now, now
	if _, err := consistency.Put(tx, types.AlbumsTable, "", album); err != nil {
		return err
	}
	s.maint.Apply(ctx, tx, consistency.Change{AlbumSetChanged: true})
	return nil
}

// GetAlbum returns an album with its members in album order.
func (s *Service) GetAlbum(ctx context.Context, id string) (*types.Album, error) {
	var album *types.Album
	err := s.view(ctx, "GetAlbum", func(tx types.Tx) error {
		var err error
		album, err = consistency.GetAlbum(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

// ListAlbums returns the albums matching q, in grid order unless q sorts
// otherwise.
func (s *Service) ListAlbums(ctx context.Context, q types.AlbumQuery) ([]*types.Album, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	var albums []*types.Album
	err := s.view(ctx, "ListAlbums", func(tx types.Tx) error {
		var err error
		albums, err = consistency.FetchAlbums(tx, q.Filter())
		return err
	})
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// UpdateAlbum renames an album or changes its cover. Date albums are named
// after their key and cannot be renamed. The cover must be a member; an
// empty cover clears it.
func (s *Service) UpdateAlbum(ctx context.Context, id string, upd types.AlbumUpdate) (*types.Album, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var album *types.Album
	err := s.update(ctx, "UpdateAlbum", func(tx types.Tx) error {
		a, err := consistency.GetAlbum(tx, id)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			if a.IsDate() {
				return types.NewValidationError("name", "cannot be changed on a date album")
			}
			a.Name = *upd.Name
		}
		if upd.CoverPhotoID != nil {
			cover := *upd.CoverPhotoID
			if cover != "" {
				if _, err := consistency.GetPhoto(tx, cover); err != nil {
					return err
				}
				if !a.Contains(cover) {
					return types.NewValidationError("coverPhotoId", "must be a member of the album")
				}
			}
			a.CoverPhotoID = cover
		}
		a.DateModified = s.now()
		if _, err := consistency.Put(tx, types.AlbumsTable, id, a); err != nil {
			return err
		}
		album = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return album, nil
}

// DeleteAlbum deletes an album, its memberships and its photo layout. Member
// photos are kept. A date album that still holds photos is only deleted
// with force; otherwise an OperationError wrapping ErrDateAlbumNotEmpty is
// returned.
func (s *Service) DeleteAlbum(ctx context.Context, id string, force bool) error {
	err := s.update(ctx, "DeleteAlbum", func(tx types.Tx) error {
		a, err := consistency.GetAlbum(tx, id)
		if err != nil {
			return err
		}
		if a.IsDate() && len(a.PhotoIDs) > 0 && !force {
			return &types.OperationError{Op: "DeleteAlbum",
				Err: fmt.Errorf("album %q holds %d photo(s): %w", a.Name, len(a.PhotoIDs), types.ErrDateAlbumNotEmpty)}
		}
		if err := consistency.Remove(tx, types.AlbumsTable, id); err != nil {
			return err
		}
		s.maint.Apply(ctx, tx, consistency.Change{AlbumSetChanged: true})
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "album deleted", "album_id", id, "force", force)
	return nil
}

// AddPhotosToAlbum inserts photos at position; consistency.AppendPosition
// appends. Photos already in the album are skipped. It returns the ids
// added.
func (s *Service) AddPhotosToAlbum(ctx context.Context, albumID string, photoIDs []string, position int) ([]string, error) {
	var added []string
	err := s.update(ctx, "AddPhotosToAlbum", func(tx types.Tx) error {
		var err error
		added, err = s.maint.AddToAlbum(ctx, tx, albumID, photoIDs, position)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// RemovePhotosFromAlbum removes photos from an album and returns the ids
// removed. Ids that are not members are ignored.
func (s *Service) RemovePhotosFromAlbum(ctx context.Context, albumID string, photoIDs []string) ([]string, error) {
	var removed []string
	err := s.update(ctx, "RemovePhotosFromAlbum", func(tx types.Tx) error {
		var err error
		removed, err = s.maint.RemoveFromAlbum(ctx, tx, albumID, photoIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ReorderPhotosInAlbum applies moves one after another, each to the order
// produced by the previous one, and returns the final order.
func (s *Service) ReorderPhotosInAlbum(ctx context.Context, albumID string, moves []types.Move) ([]string, error) {
	for i := range moves {
		if err := s.check(moves[i]); err != nil {
			return nil, err
		}
	}
	var order []string
	err := s.update(ctx, "ReorderPhotosInAlbum", func(tx types.Tx) error {
		a, err := consistency.GetAlbum(tx, albumID)
		if err != nil {
			return err
		}
		order, err = ApplyMoves(a.PhotoIDs, moves)
		if err != nil {
			return &types.OperationError{Op: "ReorderPhotosInAlbum", Err: err}
		}
		return s.maint.SetAlbumOrder(ctx, tx, albumID, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ApplyMoves returns order after applying moves sequentially. A move's
// photo is found at From when it is still there and by id otherwise; To is
// clamped into range. A photo not in order fails with ErrNotInAlbum.
//
// [p1 p2 p3 p4] with (p1,0,3) then (p4,3,0) gives [p4 p2 p3 p1].
func ApplyMoves(order []string, moves []types.Move) ([]string, error) {
	out := slices.Clone(order)
	for _, mv := range moves {
		from := mv.From
		if from < 0 || from >= len(out) || out[from] != mv.PhotoID {
			from = slices.Index(out, mv.PhotoID)
		}
		if from < 0 {
			return nil, fmt.Errorf("photo %s: %w", mv.PhotoID, types.ErrNotInAlbum)
		}
		to := max(0, min(mv.To, len(out)-1))
		out = slices.Delete(out, from, from+1)
		out = slices.Insert(out, to, mv.PhotoID)
	}
	return out, nil
}

// ReorderAlbums sets the grid order of all albums. albumIDs must list every
// album exactly once. The main album layout follows.
func (s *Service) ReorderAlbums(ctx context.Context, albumIDs []string) error {
	return s.update(ctx, "ReorderAlbums", func(tx types.Tx) error {
		albums, err := consistency.FetchAlbums(tx, nil)
		if err != nil {
			return err
		}
		byID := make(map[string]*types.Album, len(albums))
		for _, a := range albums {
			byID[a.AlbumID] = a
		}
		seen := make(map[string]bool, len(albumIDs))
		for _, id := range albumIDs {
			if byID[id] == nil || seen[id] {
				return types.NewValidationError("albumIds", "must list every album exactly once")
			}
			seen[id] = true
		}
		if len(albumIDs) != len(albums) {
			return types.NewValidationError("albumIds", "must list every album exactly once")
		}

		now := s.now()
		for pos, id := range albumIDs {
			a := byID[id]
			if a.Position == pos {
				continue
			}
			a.Position = pos
			a.DateModified = now
			if _, err := consistency.Put(tx, types.AlbumsTable, id, a); err != nil {
				return err
			}
		}

		l, err := s.albumLayout(tx)
		if err != nil {
			return err
		}
		l.AlbumIDs = slices.Clone(albumIDs)
		l.DateModified = now
		_, err = consistency.Put(tx, types.AlbumLayoutsTable, types.MainLayoutID, l)
		return err
	})
}

// MergeAlbums appends the members of each source album to target, in source
// order, skipping photos already present. With deleteSources the sources
// are deleted afterwards, date albums included. It returns the target.
func (s *Service) MergeAlbums(ctx context.Context, targetID string, sourceIDs []string, deleteSources bool) (*types.Album, error) {
	if len(sourceIDs) == 0 {
		return nil, types.NewValidationError("sourceIds", "must not be empty")
	}
	var target *types.Album
	err := s.update(ctx, "MergeAlbums", func(tx types.Tx) error {
		if _, err := consistency.GetAlbum(tx, targetID); err != nil {
			return err
		}
		sources := make([]*types.Album, 0, len(sourceIDs))
		for _, id := range sourceIDs {
			if id == targetID {
				return types.NewValidationError("sourceIds", "must not contain the target album")
			}
			src, err := consistency.GetAlbum(tx, id)
			if err != nil {
				return err
			}
			sources = append(sources, src)
		}

		for _, src := range sources {
			if _, err := s.maint.AddToAlbum(ctx, tx, targetID, src.PhotoIDs, consistency.AppendPosition); err != nil {
				return err
			}
		}
		if deleteSources {
			for _, src := range sources {
				if err := consistency.Remove(tx, types.AlbumsTable, src.AlbumID); err != nil {
					return err
				}
			}
			s.maint.Apply(ctx, tx, consistency.Change{AlbumSetChanged: true})
		}

		var err error
		target, err = consistency.GetAlbum(tx, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "albums merged", "target", targetID, "sources", sourceIDs, "deleted", deleteSources)
	return target, nil
}

// CleanupEmptyAlbums deletes custom albums without photos, and empty date
// albums too when includeDate is set. It returns the deleted ids.
func (s *Service) CleanupEmptyAlbums(ctx context.Context, includeDate bool) ([]string, error) {
	deleted := []string{}
	err := s.update(ctx, "CleanupEmptyAlbums", func(tx types.Tx) error {
		deleted = deleted[:0]
		albums, err := consistency.FetchAlbums(tx, nil)
		if err != nil {
			return err
		}
		for _, a := range albums {
			if len(a.PhotoIDs) > 0 || (a.IsDate() && !includeDate) {
				continue
			}
			if err := consistency.Remove(tx, types.AlbumsTable, a.AlbumID); err != nil {
				return err
			}
			deleted = append(deleted, a.AlbumID)
		}
		if len(deleted) > 0 {
			s.maint.Apply(ctx, tx, consistency.Change{AlbumSetChanged: true})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.log.InfoContext(ctx, "empty albums deleted", "count", len(deleted))
	}
	return deleted, nil
}

// AlbumStats summarizes an album's photos.
func (s *Service) AlbumStats(ctx context.Context, albumID string) (*types.AlbumStats, error) {
	var stats *types.AlbumStats
	err := s.view(ctx, "AlbumStats", func(tx types.Tx) error {
		if _, err := consistency.GetAlbum(tx, albumID); err != nil {
			return err
		}
		photos, err := consistency.FetchPhotos(tx, types.Filter{types.FilterAlbumID: albumID})
		if err != nil {
			return err
		}
		stats = summarize(albumID, photos)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func summarize(albumID string, photos []*types.Photo) *types.AlbumStats {
	stats := &types.AlbumStats{
		AlbumID:    albumID,
		PhotoCount: len(photos),
		MimeTypes:  map[string]int{},
		TopTags:    []types.TagCount{},
	}
	tags := map[string]int{}
	for _, p := range photos {
		stats.TotalBytes += p.FileSize
		stats.MimeTypes[p.MimeType]++
		for _, t := range p.Tags {
			tags[t]++
		}
		taken := p.DateTaken
		if stats.EarliestTaken == nil || taken.Before(*stats.EarliestTaken) {
			stats.EarliestTaken = &taken
		}
		if stats.LatestTaken == nil || taken.After(*stats.LatestTaken) {
			stats.LatestTaken = &taken
		}
	}
	for name, n := range tags {
		stats.TopTags = append(stats.TopTags, types.TagCount{Name: name, Count: n})
	}
	slices.SortFunc(stats.TopTags, func(a, b types.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(stats.TopTags) > topTagLimit {
		stats.TopTags = stats.TopTags[:topTagLimit]
	}
	return stats
}
