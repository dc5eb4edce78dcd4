package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var _ types.Tx = (*tx)(nil)

// savepointName restricts savepoint names to plain identifiers.
var savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// tx implements types.Tx on top of one SQL transaction. It records which
// SQLite tables were written so that Update persists only those.
type tx struct {
	ctx      context.Context
	backend  *Backend
	sqlTx    *sql.Tx
	writable bool
	dirty    map[string]bool
}

func newTx(ctx context.Context, b *Backend, sqlTx *sql.Tx, writable bool) *tx {
	return &tx{
		ctx:      ctx,
		backend:  b,
		sqlTx:    sqlTx,
		writable: writable,
		dirty:    make(map[string]bool),
	}
}

// Table returns the accessor for a standard collection.
func (t *tx) Table(name string) (types.Table, error) {
	switch name {
	case types.PhotosTable:
		return &photosTable{tx: t}, nil
	case types.AlbumsTable:
		return &albumsTable{tx: t}, nil
	case types.TagsTable:
		return &tagsTable{tx: t}, nil
	case types.AlbumLayoutsTable:
		return &albumLayoutsTable{tx: t}, nil
	case types.PhotoLayoutsTable:
		return &photoLayoutsTable{tx: t}, nil
	case types.SettingsTable:
		return &settingsTable{tx: t}, nil
	default:
		return nil, types.ErrTableNotFound
	}
}

// AlbumPhotoIDs returns the album's members in album order.
func (t *tx) AlbumPhotoIDs(albumID string) ([]string, error) {
	return t.queryStrings(
		"SELECT photo_id FROM album_photos WHERE album_id = ? ORDER BY position, photo_id", albumID)
}

// PhotoAlbumIDs returns the albums containing the photo, in grid order.
func (t *tx) PhotoAlbumIDs(photoID string) ([]string, error) {
	return t.queryStrings(`SELECT ap.album_id FROM album_photos ap
LEFT JOIN albums a ON a.album_id = ap.album_id
WHERE ap.photo_id = ? ORDER BY a.position, ap.album_id`, photoID)
}

// SetAlbumPhotos replaces the album's membership with photoIDs in order.
// The album and every photo must exist and photoIDs must not repeat.
func (t *tx) SetAlbumPhotos(albumID string, photoIDs []string) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if albumID == "" {
		return types.ErrInvalidID
	}
	if ok, err := t.exists("SELECT 1 FROM albums WHERE album_id = ?", albumID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("album %s: %w", albumID, types.ErrNotFound)
	}

	seen := make(map[string]bool, len(photoIDs))
	for _, id := range photoIDs {
		if seen[id] {
			return fmt.Errorf("photo %s listed twice: %w", id, types.ErrInvalidData)
		}
		seen[id] = true
		ok, err := t.exists("SELECT 1 FROM photos WHERE photo_id = ?", id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("photo %s: %w", id, types.ErrNotFound)
		}
	}

	if _, err := t.exec("DELETE FROM album_photos WHERE album_id = ?", albumID); err != nil {
		return fmt.Errorf("clearing membership of album %s: %w", albumID, err)
	}
	for i, id := range photoIDs {
		if _, err := t.exec(
			"INSERT INTO album_photos (album_id, photo_id, position) VALUES (?, ?, ?)",
			albumID, id, i,
		); err != nil {
			return fmt.Errorf("inserting membership %s/%s: %w", albumID, id, err)
		}
	}
	t.markDirty("album_photos")
	return nil
}

// CountAlbumPhotos counts the album's members.
func (t *tx) CountAlbumPhotos(albumID string) (int, error) {
	return t.queryInt("SELECT COUNT(*) FROM album_photos WHERE album_id = ?", albumID)
}

// CountTagPhotos counts the photos carrying the tag.
func (t *tx) CountTagPhotos(name string) (int, error) {
	return t.queryInt("SELECT COUNT(*) FROM photo_tags WHERE tag_name = ?", types.NormalizeTagName(name))
}

// Memberships lists every album/photo relation row.
func (t *tx) Memberships() ([]types.Membership, error) {
	rows, err := t.query("SELECT album_id, photo_id, position FROM album_photos ORDER BY album_id, position, photo_id")
	if err != nil {
		return nil, fmt.Errorf("querying memberships: %w", err)
	}
	defer rows.Close()

	out := []types.Membership{}
	for rows.Next() {
		var m types.Membership
		if err := rows.Scan(&m.AlbumID, &m.PhotoID, &m.Position); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TagLinks lists every photo/tag relation row.
func (t *tx) TagLinks() ([]types.TagLink, error) {
	rows, err := t.query("SELECT photo_id, tag_name FROM photo_tags ORDER BY photo_id, tag_name")
	if err != nil {
		return nil, fmt.Errorf("querying tag links: %w", err)
	}
	defer rows.Close()

	out := []types.TagLink{}
	for rows.Next() {
		var l types.TagLink
		if err := rows.Scan(&l.PhotoID, &l.TagName); err != nil {
			return nil, fmt.Errorf("scanning tag link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Savepoint runs fn inside SAVEPOINT name. On failure the savepoint is
// rolled back and released, leaving earlier writes of the transaction intact.
func (t *tx) Savepoint(name string, fn func() error) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("savepoint name %q: %w", name, types.ErrInvalidData)
	}
	if _, err := t.exec("SAVEPOINT " + name); err != nil {
		return fmt.Errorf("opening savepoint %s: %w", name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.exec("ROLLBACK TO " + name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back savepoint %s: %w", name, rbErr))
		}
		if _, relErr := t.exec("RELEASE " + name); relErr != nil {
			return errors.Join(err, fmt.Errorf("releasing savepoint %s: %w", name, relErr))
		}
		return err
	}
	if _, err := t.exec("RELEASE " + name); err != nil {
		return fmt.Errorf("releasing savepoint %s: %w", name, err)
	}
	return nil
}

// Clear deletes every row of every table.
func (t *tx) Clear() error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	for _, m := range jsonlTableMapping {
		if _, err := t.exec("DELETE FROM " + m.table); err != nil {
			return fmt.Errorf("clearing %s: %w", m.table, err)
		}
		t.markDirty(m.table)
	}
	return nil
}

// checkWritable rejects writes in a View.
func (t *tx) checkWritable() error {
	if !t.writable {
		return types.ErrReadOnly
	}
	return nil
}

// markDirty records SQLite tables whose JSONL file must be rewritten.
func (t *tx) markDirty(tables ...string) {
	for _, name := range tables {
		t.dirty[name] = true
	}
}

// dirtyTables returns the written tables in name order.
func (t *tx) dirtyTables() []string {
	out := make([]string, 0, len(t.dirty))
	for name := range t.dirty {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *tx) exec(query string, args ...any) (sql.Result, error) {
	res, err := t.sqlTx.ExecContext(t.ctx, query, args...)
	return res, classifySQLError(err)
}

func (t *tx) query(query string, args ...any) (*sql.Rows, error) {
	return t.sqlTx.QueryContext(t.ctx, query, args...)
}

func (t *tx) queryRow(query string, args ...any) *sql.Row {
	return t.sqlTx.QueryRowContext(t.ctx, query, args...)
}

// exists reports whether query returns a row.
func (t *tx) exists(query string, args ...any) (bool, error) {
	var one int
	err := t.queryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return true, nil
}

// queryInt returns the single integer produced by query.
func (t *tx) queryInt(query string, args ...any) (int, error) {
	var n int
	if err := t.queryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}

// queryStrings returns the first column of every row. Never nil.
func (t *tx) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
