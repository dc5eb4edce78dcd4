package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// tableMapping ties a JSONL data file to its SQLite table.
type tableMapping struct {
	file    string
	table   string
	columns []string
	orderBy string
}

// Data files, one per SQLite table.
const (
	photosJSONL       = "photos.jsonl"
	albumsJSONL       = "albums.jsonl"
	albumPhotosJSONL  = "album_photos.jsonl"
	tagsJSONL         = "tags.jsonl"
	photoTagsJSONL    = "photo_tags.jsonl"
	albumLayoutsJSONL = "album_layouts.jsonl"
	photoLayoutsJSONL = "photo_layouts.jsonl"
	settingsJSONL     = "settings.jsonl"
)

// jsonlTableMapping lists every persisted table.
var jsonlTableMapping = []tableMapping{
	{photosJSONL, "photos", []string{
		"photo_id", "file_name", "file_path", "file_size", "mime_type", "width", "height",
		"date_taken", "date_added", "date_modified", "camera", "latitude", "longitude",
		"caption", "thumbnail", "search_text",
	}, "photo_id"},
	{albumsJSONL, "albums", []string{
		"album_id", "name", "name_key", "album_type", "year", "month", "sort_key",
		"cover_photo_id", "position", "photo_count", "date_created", "date_modified",
	}, "album_id"},
	{albumPhotosJSONL, "album_photos", []string{"album_id", "photo_id", "position"}, "album_id, position, photo_id"},
	{tagsJSONL, "tags", []string{
		"tag_id", "name", "display_name", "color", "photo_count", "date_created", "date_last_used",
	}, "name"},
	{photoTagsJSONL, "photo_tags", []string{"photo_id", "tag_name"}, "photo_id, tag_name"},
	{albumLayoutsJSONL, "album_layouts", []string{
		"layout_id", "album_ids", "columns", "view_mode", "sort_key", "sort_order", "date_modified",
	}, "layout_id"},
	{photoLayoutsJSONL, "photo_layouts", []string{
		"album_id", "photo_ids", "columns", "view_mode", "sort_key", "sort_order", "date_modified",
	}, "album_id"},
	{settingsJSONL, "settings", []string{"settings_id", "value"}, "settings_id"},
}

// mappingFor returns the mapping of a SQLite table.
func mappingFor(table string) (tableMapping, bool) {
	for _, m := range jsonlTableMapping {
		if m.table == table {
			return m, true
		}
	}
	return tableMapping{}, false
}

// loadAllJSONL reads each JSONL file from dataDir and inserts records into
// the corresponding SQLite tables in one transaction: all succeed or the
// database stays empty. Malformed lines, records violating constraints and
// unknown fields are skipped.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only the
// mapped columns are read; missing columns are inserted as NULL so column
// defaults and NOT NULL constraints decide whether the row is kept.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		obj, err := decodeRecord(rec)
		if err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = columnValue(obj[col])
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}

// decodeRecord parses one record keeping numbers exact.
func decodeRecord(rec json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(rec)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// columnValue converts a decoded JSON value to a SQL argument.
func columnValue(val any) any {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return val
	}
}
