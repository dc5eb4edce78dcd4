package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var (
	_ types.Table = (*albumLayoutsTable)(nil)
	_ types.Table = (*photoLayoutsTable)(nil)
	_ types.Table = (*settingsTable)(nil)
)

const layoutColumns = "%s, %s, columns, view_mode, sort_key, sort_order, date_modified"

// albumLayoutsTable stores the single album grid layout under MainLayoutID.
type albumLayoutsTable struct {
	tx *tx
}

func (lt *albumLayoutsTable) Get(id string) (any, error) {
	if id == "" {
		id = types.MainLayoutID
	}
	row := lt.tx.queryRow("SELECT "+fmt.Sprintf(layoutColumns, "layout_id", "album_ids")+
		" FROM album_layouts WHERE layout_id = ?", id)
	l, err := scanAlbumLayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("album layout %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting album layout: %w", err)
	}
	return l, nil
}

func (lt *albumLayoutsTable) Set(id string, data any) (string, error) {
	l, ok := data.(*types.AlbumLayout)
	if !ok || l == nil {
		return "", types.ErrInvalidData
	}
	if err := lt.tx.checkWritable(); err != nil {
		return "", err
	}
	if id == "" {
		id = types.MainLayoutID
	}
	if id != types.MainLayoutID {
		return "", fmt.Errorf("album layout %q: %w", id, types.ErrInvalidID)
	}
	if err := validateLayout(l.Columns, l.ViewMode); err != nil {
		return "", err
	}
	ids, err := encodeIDs(l.AlbumIDs)
	if err != nil {
		return "", err
	}
	l.LayoutID = id
	if l.DateModified.IsZero() {
		l.DateModified = lt.tx.backend.now()
	}

	_, err = lt.tx.exec(`INSERT INTO album_layouts (layout_id, album_ids, columns, view_mode, sort_key, sort_order, date_modified)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (layout_id) DO UPDATE SET album_ids = excluded.album_ids, columns = excluded.columns,
view_mode = excluded.view_mode, sort_key = excluded.sort_key, sort_order = excluded.sort_order,
date_modified = excluded.date_modified`,
		id, ids, l.Columns, l.ViewMode, l.Sort.Key, l.Sort.Order, formatTime(l.DateModified))
	if err != nil {
		return "", fmt.Errorf("persisting album layout: %w", err)
	}
	lt.tx.markDirty("album_layouts")
	return id, nil
}

func (lt *albumLayoutsTable) Delete(id string) error {
	if id == "" {
		id = types.MainLayoutID
	}
	if err := lt.tx.checkWritable(); err != nil {
		return err
	}
	res, err := lt.tx.exec("DELETE FROM album_layouts WHERE layout_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting album layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("album layout %s: %w", id, types.ErrNotFound)
	}
	lt.tx.markDirty("album_layouts")
	return nil
}

func (lt *albumLayoutsTable) Fetch(filter types.Filter) ([]any, error) {
	rows, err := lt.tx.query("SELECT " + fmt.Sprintf(layoutColumns, "layout_id", "album_ids") +
		" FROM album_layouts ORDER BY layout_id")
	if err != nil {
		return nil, fmt.Errorf("fetching album layouts: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		l, err := scanAlbumLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating album layout: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

func (lt *albumLayoutsTable) Count(filter types.Filter) (int, error) {
	return lt.tx.queryInt("SELECT COUNT(*) FROM album_layouts")
}

// photoLayoutsTable stores one photo grid layout per album, keyed by the
// album id.
type photoLayoutsTable struct {
	tx *tx
}

func (lt *photoLayoutsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := lt.tx.queryRow("SELECT "+fmt.Sprintf(layoutColumns, "album_id", "photo_ids")+
		" FROM photo_layouts WHERE album_id = ?", id)
	l, err := scanPhotoLayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo layout %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting photo layout: %w", err)
	}
	return l, nil
}

// Set stores the layout of album id. The album must exist.
func (lt *photoLayoutsTable) Set(id string, data any) (string, error) {
	l, ok := data.(*types.PhotoLayout)
	if !ok || l == nil {
		return "", types.ErrInvalidData
	}
	if err := lt.tx.checkWritable(); err != nil {
		return "", err
	}
	if id == "" {
		id = l.AlbumID
	}
	if id == "" {
		return "", types.ErrInvalidID
	}
	if ok, err := lt.tx.exists("SELECT 1 FROM albums WHERE album_id = ?", id); err != nil {
		return "", err
	} else if !ok {
		return "", fmt.Errorf("album %s: %w", id, types.ErrNotFound)
	}
	if err := validateLayout(l.Columns, l.ViewMode); err != nil {
		return "", err
	}
	ids, err := encodeIDs(l.PhotoIDs)
	if err != nil {
		return "", err
	}
	l.AlbumID = id
	if l.DateModified.IsZero() {
		l.DateModified = lt.tx.backend.now()
	}

	_, err = lt.tx.exec(`INSERT INTO photo_layouts (album_id, photo_ids, columns, view_mode, sort_key, sort_order, date_modified)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (album_id) DO UPDATE SET photo_ids = excluded.photo_ids, columns = excluded.columns,
view_mode = excluded.view_mode, sort_key = excluded.sort_key, sort_order = excluded.sort_order,
date_modified = excluded.date_modified`,
		id, ids, l.Columns, l.ViewMode, l.Sort.Key, l.Sort.Order, formatTime(l.DateModified))
	if err != nil {
		return "", fmt.Errorf("persisting photo layout: %w", err)
	}
	lt.tx.markDirty("photo_layouts")
	return id, nil
}

func (lt *photoLayoutsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if err := lt.tx.checkWritable(); err != nil {
		return err
	}
	res, err := lt.tx.exec("DELETE FROM photo_layouts WHERE album_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting photo layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("photo layout %s: %w", id, types.ErrNotFound)
	}
	lt.tx.markDirty("photo_layouts")
	return nil
}

// Fetch returns every photo layout, or only the one of album_id when the
// filter names it.
func (lt *photoLayoutsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, err := photoLayoutConditions(filter)
	if err != nil {
		return nil, err
	}
	rows, err := lt.tx.query("SELECT "+fmt.Sprintf(layoutColumns, "album_id", "photo_ids")+
		" FROM photo_layouts"+where+" ORDER BY album_id", args...)
	if err != nil {
		return nil, fmt.Errorf("fetching photo layouts: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		l, err := scanPhotoLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating photo layout: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

func (lt *photoLayoutsTable) Count(filter types.Filter) (int, error) {
	where, args, err := photoLayoutConditions(filter)
	if err != nil {
		return 0, err
	}
	return lt.tx.queryInt("SELECT COUNT(*) FROM photo_layouts"+where, args...)
}

func photoLayoutConditions(filter types.Filter) (string, []any, error) {
	albumID, ok, err := filterString(filter, types.FilterAlbumID)
	if err != nil || !ok {
		return "", nil, err
	}
	return " WHERE album_id = ?", []any{albumID}, nil
}

// settingsTable stores the Settings singleton as a JSON document.
type settingsTable struct {
	tx *tx
}

func (st *settingsTable) Get(id string) (any, error) {
	if id == "" {
		id = types.SettingsID
	}
	var value string
	err := st.tx.queryRow("SELECT value FROM settings WHERE settings_id = ?", id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}
	s := types.DefaultSettings()
	if err := json.Unmarshal([]byte(value), s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

func (st *settingsTable) Set(id string, data any) (string, error) {
	s, ok := data.(*types.Settings)
	if !ok || s == nil {
		return "", types.ErrInvalidData
	}
	if err := st.tx.checkWritable(); err != nil {
		return "", err
	}
	if id == "" {
		id = types.SettingsID
	}
	value, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := st.tx.exec(`INSERT INTO settings (settings_id, value) VALUES (?, ?)
ON CONFLICT (settings_id) DO UPDATE SET value = excluded.value`, id, string(value)); err != nil {
		return "", fmt.Errorf("persisting settings: %w", err)
	}
	st.tx.markDirty("settings")
	return id, nil
}

func (st *settingsTable) Delete(id string) error {
	if id == "" {
		id = types.SettingsID
	}
	if err := st.tx.checkWritable(); err != nil {
		return err
	}
	res, err := st.tx.exec("DELETE FROM settings WHERE settings_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("settings %s: %w", id, types.ErrNotFound)
	}
	st.tx.markDirty("settings")
	return nil
}

func (st *settingsTable) Fetch(filter types.Filter) ([]any, error) {
	s, err := st.Get(types.SettingsID)
	if errors.Is(err, types.ErrNotFound) {
		return []any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []any{s}, nil
}

func (st *settingsTable) Count(filter types.Filter) (int, error) {
	return st.tx.queryInt("SELECT COUNT(*) FROM settings")
}

// validateLayout checks the grid settings shared by both layout kinds.
func validateLayout(columns int, viewMode string) error {
	if columns < 1 || columns > types.MaxLayoutColumns {
		return types.NewValidationError("columns", fmt.Sprintf("must be between 1 and %d", types.MaxLayoutColumns))
	}
	if viewMode != types.ViewModeGrid && viewMode != types.ViewModeList {
		return types.NewValidationError("viewMode", "must be one of grid list")
	}
	return nil
}

func scanAlbumLayout(row rowScanner) (*types.AlbumLayout, error) {
	var (
		l             types.AlbumLayout
		ids, modified string
	)
	if err := row.Scan(&l.LayoutID, &ids, &l.Columns, &l.ViewMode, &l.Sort.Key, &l.Sort.Order, &modified); err != nil {
		return nil, err
	}
	var err error
	if l.AlbumIDs, err = decodeIDs(ids); err != nil {
		return nil, err
	}
	if l.DateModified, err = parseTime(modified); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanPhotoLayout(row rowScanner) (*types.PhotoLayout, error) {
	var (
		l             types.PhotoLayout
		ids, modified string
	)
	if err := row.Scan(&l.AlbumID, &ids, &l.Columns, &l.ViewMode, &l.Sort.Key, &l.Sort.Order, &modified); err != nil {
		return nil, err
	}
	var err error
	if l.PhotoIDs, err = decodeIDs(ids); err != nil {
		return nil, err
	}
	if l.DateModified, err = parseTime(modified); err != nil {
		return nil, err
	}
	return &l, nil
}
