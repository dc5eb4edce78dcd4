package shoebox

import (
	"context"
	"errors"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// GetAlbumLayout returns the album grid layout, creating it with defaults
// on first access.
func (s *Service) GetAlbumLayout(ctx context.Context) (*types.AlbumLayout, error) {
	var layout *types.AlbumLayout
	err := s.update(ctx, "GetAlbumLayout", func(tx types.Tx) error {
		var err error
		layout, err = s.albumLayout(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

// UpdateAlbumLayout changes the album grid's view settings.
func (s *Service) UpdateAlbumLayout(ctx context.Context, upd types.LayoutUpdate) (*types.AlbumLayout, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var layout *types.AlbumLayout
	err := s.update(ctx, "UpdateAlbumLayout", func(tx types.Tx) error {
		l, err := s.albumLayout(tx)
		if err != nil {
			return err
		}
		applyLayout(upd, &l.Columns, &l.ViewMode, &l.Sort)
		l.DateModified = s.now()
		if _, err := consistency.Put(tx, types.AlbumLayoutsTable, types.MainLayoutID, l); err != nil {
			return err
		}
		layout = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

// albumLayout loads the main layout, storing the default when absent.
func (s *Service) albumLayout(tx types.Tx) (*types.AlbumLayout, error) {
	tbl, err := tx.Table(types.AlbumLayoutsTable)
	if err != nil {
		return nil, err
	}
	v, err := tbl.Get(types.MainLayoutID)
	if err == nil {
		return v.(*types.AlbumLayout), nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	albums, err := consistency.FetchAlbums(tx, types.Filter{types.FilterSort: types.SortPosition})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(albums))
	for i, a := range albums {
		ids[i] = a.AlbumID
	}
	l := types.DefaultAlbumLayout(ids)
	l.DateModified = s.now()
	if _, err := tbl.Set(types.MainLayoutID, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetPhotoLayout returns an album's photo layout, creating it with the
// album's order on first access.
func (s *Service) GetPhotoLayout(ctx context.Context, albumID string) (*types.PhotoLayout, error) {
	var layout *types.PhotoLayout
	err := s.update(ctx, "GetPhotoLayout", func(tx types.Tx) error {
		var err error
		layout, err = s.photoLayout(tx, albumID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

// UpdatePhotoLayout changes an album's photo grid view settings.
func (s *Service) UpdatePhotoLayout(ctx context.Context, albumID string, upd types.LayoutUpdate) (*types.PhotoLayout, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var layout *types.PhotoLayout
	err := s.update(ctx, "UpdatePhotoLayout", func(tx types.Tx) error {
		l, err := s.photoLayout(tx, albumID)
		if err != nil {
			return err
		}
		applyLayout(upd, &l.Columns, &l.ViewMode, &l.Sort)
		l.DateModified = s.now()
		if _, err := consistency.Put(tx, types.PhotoLayoutsTable, albumID, l); err != nil {
			return err
		}
		layout = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *Service) photoLayout(tx types.Tx, albumID string) (*types.PhotoLayout, error) {
	a, err := consistency.GetAlbum(tx, albumID)
	if err != nil {
		return nil, err
	}
	tbl, err := tx.Table(types.PhotoLayoutsTable)
	if err != nil {
		return nil, err
	}
	v, err := tbl.Get(albumID)
	if err == nil {
		return v.(*types.PhotoLayout), nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	l := types.DefaultPhotoLayout(albumID, a.PhotoIDs)
	l.DateModified = s.now()
	if _, err := tbl.Set(albumID, l); err != nil {
		return nil, err
	}
	return l, nil
}

func applyLayout(upd types.LayoutUpdate, columns *int, viewMode *string, sort *types.LayoutSort) {
	if upd.Columns != nil {
		*columns = *upd.Columns
	}
	if upd.ViewMode != nil {
		*viewMode = *upd.ViewMode
	}
	if upd.Sort != nil {
		*sort = *upd.Sort
	}
}

// GetSettings returns the library settings.
func (s *Service) GetSettings(ctx context.Context) (*types.Settings, error) {
	var settings *types.Settings
	err := s.view(ctx, "GetSettings", func(tx types.Tx) error {
		var err error
		settings, err = consistency.LoadSettings(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings applies upd to the stored settings and returns the result.
func (s *Service) UpdateSettings(ctx context.Context, upd types.SettingsUpdate) (*types.Settings, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var settings *types.Settings
	err := s.update(ctx, "UpdateSettings", func(tx types.Tx) error {
		current, err := consistency.LoadSettings(tx)
		if err != nil {
			return err
		}
		upd.Apply(current)
		if err := s.check(current); err != nil {
			return err
		}
		if _, err := consistency.Put(tx, types.SettingsTable, types.SettingsID, current); err != nil {
			return err
		}
		settings = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
