package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var _ types.Table = (*tagsTable)(nil)

const tagColumns = "tag_id, name, display_name, color, photo_count, date_created, date_last_used"

var tagSortColumns = map[string]string{
	types.SortName:     "name",
	types.SortCount:    "photo_count",
	types.SortLastUsed: "date_last_used",
}

// tagsTable implements types.Table for tags. Get and Delete accept either
// the tag id or its name.
type tagsTable struct {
	tx *tx
}

// Get retrieves a tag by id or name.
func (tt *tagsTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t, err := scanTag(tt.tx.queryRow(
		"SELECT "+tagColumns+" FROM tags WHERE tag_id = ? OR name = ? LIMIT 1", id, types.NormalizeTagName(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tag %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting tag %s: %w", id, err)
	}
	return t, nil
}

// Set creates or updates a tag. The name is normalized; a name already
// held by another tag returns ErrConflict. Renaming a tag relabels the
// photos carrying it.
func (tt *tagsTable) Set(id string, data any) (string, error) {
	t, ok := data.(*types.Tag)
	if !ok || t == nil {
		return "", types.ErrInvalidData
	}
	if err := tt.tx.checkWritable(); err != nil {
		return "", err
	}
	display := types.DisplayTagName(t.Name)
	name := types.NormalizeTagName(t.Name)
	if name == "" {
		return "", types.NewValidationError("name", "is required")
	}
	t.Name = name
	if t.DisplayName == "" {
		t.DisplayName = display
	}

	if id == "" {
		id = generateUUID()
	}
	clash, err := tt.tx.exists("SELECT 1 FROM tags WHERE name = ? AND tag_id <> ?", name, id)
	if err != nil {
		return "", err
	}
	if clash {
		return "", fmt.Errorf("tag %q already exists: %w", name, types.ErrConflict)
	}

	var previous string
	err = tt.tx.queryRow("SELECT name FROM tags WHERE tag_id = ?", id).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up tag %s: %w", id, err)
	}
	if previous != "" && previous != name {
		if _, err := tt.tx.exec("UPDATE photo_tags SET tag_name = ? WHERE tag_name = ?", name, previous); err != nil {
			return "", fmt.Errorf("relabeling photos of tag %s: %w", previous, err)
		}
		tt.tx.markDirty("photo_tags")
	}

	now := tt.tx.backend.now()
	t.TagID = id
	if t.DateCreated.IsZero() {
		t.DateCreated = now
	}
	if t.DateLastUsed.IsZero() {
		t.DateLastUsed = t.DateCreated
	}

	_, err = tt.tx.exec(`INSERT INTO tags (tag_id, name, display_name, color, photo_count, date_created, date_last_used)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (tag_id) DO UPDATE SET name = excluded.name, display_name = excluded.display_name,
color = excluded.color, photo_count = excluded.photo_count, date_created = excluded.date_created,
date_last_used = excluded.date_last_used`,
		id, t.Name, t.DisplayName, t.Color, t.PhotoCount, formatTime(t.DateCreated), formatTime(t.DateLastUsed))
	if err != nil {
		return "", fmt.Errorf("persisting tag: %w", err)
	}
	tt.tx.markDirty("tags")
	return id, nil
}

// Delete removes a tag and detaches it from every photo.
func (tt *tagsTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if err := tt.tx.checkWritable(); err != nil {
		return err
	}
	var tagID, name string
	err := tt.tx.queryRow("SELECT tag_id, name FROM tags WHERE tag_id = ? OR name = ? LIMIT 1",
		id, types.NormalizeTagName(id)).Scan(&tagID, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tag %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("looking up tag %s: %w", id, err)
	}

	if _, err := tt.tx.exec("DELETE FROM photo_tags WHERE tag_name = ?", name); err != nil {
		return fmt.Errorf("detaching tag %s: %w", name, err)
	}
	if _, err := tt.tx.exec("DELETE FROM tags WHERE tag_id = ?", tagID); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	tt.tx.markDirty("tags", "photo_tags")
	return nil
}

// Fetch returns tags matching the filter. Supported keys: name, min_count,
// sort (name, count, lastUsed), order and limit. Ties break on name.
func (tt *tagsTable) Fetch(filter types.Filter) ([]any, error) {
	where, args, err := tagConditions(filter)
	if err != nil {
		return nil, err
	}
	sortKey, ok, err := filterString(filter, types.FilterSort)
	if err != nil {
		return nil, err
	}
	if !ok || sortKey == "" {
		sortKey = types.SortName
	}
	column, known := tagSortColumns[sortKey]
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

	rows, err := tt.tx.query("SELECT "+tagColumns+" FROM tags"+where+
		fmt.Sprintf(" ORDER BY %s %s, name ASC", column, order)+limit, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating tag: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return results, nil
}

// Count returns the number of tags matching the filter.
func (tt *tagsTable) Count(filter types.Filter) (int, error) {
	where, args, err := tagConditions(filter)
	if err != nil {
		return 0, err
	}
	return tt.tx.queryInt("SELECT COUNT(*) FROM tags"+where, args...)
}

func tagConditions(filter types.Filter) (string, []any, error) {
	var (
		conditions []string
		args       []any
	)
	if name, ok, err := filterString(filter, types.FilterName); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "name = ?")
		args = append(args, types.NormalizeTagName(name))
	}
	if minCount, ok, err := filterInt(filter, types.FilterMinCount); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "photo_count >= ?")
		args = append(args, minCount)
	}
	return whereClause(conditions), args, nil
}

func scanTag(row rowScanner) (*types.Tag, error) {
	var (
		t             types.Tag
		created, used string
	)
	if err := row.Scan(&t.TagID, &t.Name, &t.DisplayName, &t.Color, &t.PhotoCount, &created, &used); err != nil {
		return nil, err
	}
	var err error
	if t.DateCreated, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.DateLastUsed, err = parseTime(used); err != nil {
		return nil, err
	}
	return &t, nil
}
