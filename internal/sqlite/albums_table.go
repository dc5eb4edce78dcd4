package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var _ types.Table = (*albumsTable)(nil)

const albumColumns = `album_id, name, album_type, year, month, sort_key, cover_photo_id,
position, photo_count, date_created, date_modified`

var albumSortColumns = map[string]string{
	types.SortPosition:    "position",
	types.SortName:        "name_key",
	types.SortDate:        "sort_key",
	types.SortDateCreated: "date_created",
}

// albumsTable implements types.Table for albums. PhotoIDs are read from
// album_photos; SetAlbumPhotos is the only way to change them.
type albumsTable struct {
	tx *tx
}

// Get retrieves an album by ID with its members in album order.
func (at *albumsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	a, err := scanAlbum(at.tx.queryRow("SELECT "+albumColumns+" FROM albums WHERE album_id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("album %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting album %s: %w", id, err)
	}
	if a.PhotoIDs, err = at.tx.AlbumPhotoIDs(id); err != nil {
		return nil, err
	}
	return a, nil
}

// Set creates or updates an album. Date albums must carry a valid key and
// are named after it when Name is empty; custom albums need a name and
// never carry a key. A second date album with the same key or a second
// custom album whose name folds to the same string returns ErrConflict.
func (at *albumsTable) Set(id string, data any) (string, error) {
	a, ok := data.(*types.Album)
	if !ok || a == nil {
		return "", types.ErrInvalidData
	}
	if err := at.tx.checkWritable(); err != nil {
		return "", err
	}

	a.Name = strings.TrimSpace(a.Name)
	switch a.Type {
	case types.AlbumTypeDate:
		key := a.DateKey()
		if err := key.Validate(); err != nil {
			return "", err
		}
		if a.Name == "" {
			a.Name = key.Name()
		}
		a.SortKey = key.SortKey()
	case types.AlbumTypeCustom:
		if a.Name == "" {
			return "", types.NewValidationError("name", "is required")
		}
		a.Year, a.Month, a.SortKey = 0, 0, 0
	default:
		return "", types.NewValidationError("type", "must be one of date custom")
	}
	if utf8.RuneCountInString(a.Name) > types.MaxAlbumNameLength {
		return "", types.NewValidationError("name", fmt.Sprintf("must be at most %d characters", types.MaxAlbumNameLength))
	}
	nameKey := types.FoldName(a.Name)

	if id == "" {
		id = generateUUID()
	}
	if err := at.checkUnique(id, a, nameKey); err != nil {
		return "", err
	}

	now := at.tx.backend.now()
	a.AlbumID = id
	if a.DateCreated.IsZero() {
		a.DateCreated = now
	}
	if a.DateModified.IsZero() {
		a.DateModified = a.DateCreated
	}

	_, err := at.tx.exec(`INSERT INTO albums (album_id, name, name_key, album_type, year, month, sort_key,
cover_photo_id, position, photo_count, date_created, date_modified)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (album_id) DO UPDATE SET name = excluded.name, name_key = excluded.name_key,
album_type = excluded.album_type, year = excluded.year, month = excluded.month,
sort_key = excluded.sort_key, cover_photo_id = excluded.cover_photo_id, position = excluded.position,
photo_count = excluded.photo_count, date_created = excluded.date_created,
date_modified = excluded.date_modified`,
		id, a.Name, nameKey, a.Type, a.Year, a.Month, a.SortKey, a.CoverPhotoID, a.Position,
		a.PhotoCount, formatTime(a.DateCreated), formatTime(a.DateModified))
	if err != nil {
		return "", fmt.Errorf("persisting album: %w", err)
	}
	at.tx.markDirty("albums")

	if a.PhotoIDs, err = at.tx.AlbumPhotoIDs(id); err != nil {
		return "", err
	}
	return id, nil
}

// checkUnique reports ErrConflict when another album holds the same date
// key or custom name.
func (at *albumsTable) checkUnique(id string, a *types.Album, nameKey string) error {
	if a.Type == types.AlbumTypeDate {
		clash, err := at.tx.exists(
			"SELECT 1 FROM albums WHERE album_type = 'date' AND year = ? AND month = ? AND album_id <> ?",
			a.Year, a.Month, id)
		if err != nil {
			return err
		}
		if clash {
			return fmt.Errorf("date album %s already exists: %w", a.DateKey(), types.ErrConflict)
		}
		return nil
	}
	clash, err := at.tx.exists(
		"SELECT 1 FROM albums WHERE album_type = 'custom' AND name_key = ? AND album_id <> ?", nameKey, id)
	if err != nil {
		return err
	}
	if clash {
		return fmt.Errorf("album named %q already exists: %w", a.Name, types.ErrConflict)
	}
	return nil
}

// Delete removes an album with its membership rows and photo layout.
// Member photos are not deleted.
func (at *albumsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if err := at.tx.checkWritable(); err != nil {
		return err
	}
	ok, err := at.tx.exists("SELECT 1 FROM albums WHERE album_id = ?", id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("album %s: %w", id, types.ErrNotFound)
	}

	if _, err := at.tx.exec("DELETE FROM album_photos WHERE album_id = ?", id); err != nil {
		return fmt.Errorf("deleting album memberships: %w", err)
	}
	if _, err := at.tx.exec("DELETE FROM photo_layouts WHERE album_id = ?", id); err != nil {
		return fmt.Errorf("deleting album layout: %w", err)
	}
	if _, err := at.tx.exec("DELETE FROM albums WHERE album_id = ?", id); err != nil {
		return fmt.Errorf("deleting album: %w", err)
	}
	at.tx.markDirty("albums", "album_photos", "photo_layouts")
	return nil
}

// Fetch returns albums matching the filter. Supported keys: type, year,
// month, name (case-insensitive exact), sort (position, name, date,
// dateCreated), order, limit and offset. Ties break on album id.
func (at *albumsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, err := albumConditions(filter)
	if err != nil {
		return nil, err
	}
	sortKey, ok, err := filterString(filter, types.FilterSort)
	if err != nil {
		return nil, err
	}
	if !ok || sortKey == "" {
		sortKey = types.SortPosition
	}
	column, known := albumSortColumns[sortKey]
	if !known {
		return nil, fmt.Errorf("filter sort %q: %w", sortKey, types.ErrInvalidFilter)
	}
	order, err := filterOrder(filter, types.OrderAsc)
	if err != nil {
		return nil, err
	}
	limit, err := limitClause(filter)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + albumColumns + " FROM albums" + where +
		fmt.Sprintf(" ORDER BY %s %s, album_id ASC", column, order) + limit
	rows, err := at.tx.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching albums: %w", err)
	}
	var albums []*types.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("hydrating album: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating albums: %w", err)
	}
	rows.Close()

	results := make([]any, 0, len(albums))
	for _, a := range albums {
		if a.PhotoIDs, err = at.tx.AlbumPhotoIDs(a.AlbumID); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, nil
}

// Count returns the number of albums matching the filter.
func (at *albumsTable) Count(filter types.Filter) (int, error) {
	where, args, err := albumConditions(filter)
	if err != nil {
		return 0, err
	}
	return at.tx.queryInt("SELECT COUNT(*) FROM albums"+where, args...)
}

func albumConditions(filter types.Filter) (string, []any, error) {
	var (
		conditions []string
		args       []any
	)
	if typ, ok, err := filterString(filter, types.FilterType); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "album_type = ?")
		args = append(args, typ)
	}
	if year, ok, err := filterInt(filter, types.FilterYear); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "year = ?")
		args = append(args, year)
	}
	if month, ok, err := filterInt(filter, types.FilterMonth); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "month = ?")
		args = append(args, month)
	}
	if name, ok, err := filterString(filter, types.FilterName); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "name_key = ?")
		args = append(args, types.FoldName(name))
	}
	return whereClause(conditions), args, nil
}

func scanAlbum(row rowScanner) (*types.Album, error) {
	var (
		a                 types.Album
		created, modified string
	)
	if err := row.Scan(&a.AlbumID, &a.Name, &a.Type, &a.Year, &a.Month, &a.SortKey, &a.CoverPhotoID,
		&a.Position, &a.PhotoCount, &created, &modified); err != nil {
		return nil, err
	}
	var err error
	if a.DateCreated, err = parseTime(created); err != nil {
		return nil, err
	}
	if a.DateModified, err = parseTime(modified); err != nil {
		return nil, err
	}
	return &a, nil
}
