package consistency

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// AppendPosition inserts at the end of an album.
const AppendPosition = -1

// AddToAlbum inserts photoIDs into the album at position, skipping photos
// that are already members and repeated ids. AppendPosition, or a position
// past the end, appends. The album and every photo must exist. It returns
// the ids actually added.
//
// Adding [p1, p2] at position 0 to an album holding [p3] yields [p1, p2, p3].
func (m *Maintainer) AddToAlbum(ctx context.Context, tx types.Tx, albumID string, photoIDs []string, position int) ([]string, error) {
	if position < AppendPosition {
		return nil, types.NewValidationError("position", "must be -1 or greater")
	}
	a, err := GetAlbum(tx, albumID)
	if err != nil {
		return nil, err
	}
	for _, id := range photoIDs {
		if _, err := GetPhoto(tx, id); err != nil {
			return nil, err
		}
	}

	added := make([]string, 0, len(photoIDs))
	for _, id := range photoIDs {
		if !a.Contains(id) && !slices.Contains(added, id) {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return added, nil
	}

	if position == AppendPosition || position > len(a.PhotoIDs) {
		position = len(a.PhotoIDs)
	}
	order := slices.Insert(slices.Clone(a.PhotoIDs), position, added...)
	if err := tx.SetAlbumPhotos(albumID, order); err != nil {
		return nil, fmt.Errorf("adding photos to album %s: %w", albumID, err)
	}
	m.Apply(ctx, tx, Change{Albums: []string{albumID}})
	return added, nil
}

// RemoveFromAlbum removes photoIDs from the album. Ids that are not members
// are ignored. It returns the ids actually removed.
func (m *Maintainer) RemoveFromAlbum(ctx context.Context, tx types.Tx, albumID string, photoIDs []string) ([]string, error) {
	a, err := GetAlbum(tx, albumID)
	if err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(photoIDs))
	for _, id := range photoIDs {
		drop[id] = true
	}

	removed := []string{}
	kept := make([]string, 0, len(a.PhotoIDs))
	for _, id := range a.PhotoIDs {
		if drop[id] {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if err := tx.SetAlbumPhotos(albumID, kept); err != nil {
		return nil, fmt.Errorf("removing photos from album %s: %w", albumID, err)
	}
	m.Apply(ctx, tx, Change{Albums: []string{albumID}})
	return removed, nil
}

// SetAlbumOrder replaces the album's order. order must be a permutation of
// the current members. An existing photo layout takes the same order.
func (m *Maintainer) SetAlbumOrder(ctx context.Context, tx types.Tx, albumID string, order []string) error {
	a, err := GetAlbum(tx, albumID)
	if err != nil {
		return err
	}
	if !isPermutation(a.PhotoIDs, order) {
		return types.NewValidationError("photoIds", "must list every album member exactly once")
	}
	if slices.Equal(a.PhotoIDs, order) {
		return nil
	}
	if err := tx.SetAlbumPhotos(albumID, order); err != nil {
		return fmt.Errorf("reordering album %s: %w", albumID, err)
	}

	l, err := get[*types.PhotoLayout](tx, types.PhotoLayoutsTable, albumID)
	switch {
	case err == nil:
		l.PhotoIDs = slices.Clone(order)
		l.DateModified = m.now()
		if _, err := Put(tx, types.PhotoLayoutsTable, albumID, l); err != nil {
			return fmt.Errorf("reordering photo layout %s: %w", albumID, err)
		}
	case !errors.Is(err, types.ErrNotFound):
		return err
	}
	m.Apply(ctx, tx, Change{Albums: []string{albumID}})
	return nil
}

// isPermutation reports whether b holds exactly the elements of a.
func isPermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
