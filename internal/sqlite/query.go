package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// photoSortColumns maps photo sort keys to indexed columns.
var photoSortColumns = map[string]string{
	types.SortDateTaken: "p.date_taken",
	types.SortDateAdded: "p.date_added",
	types.SortFileName:  "p.file_name",
	types.SortPosition:  "ap.position",
}

// buildPhotoQuery translates a photos filter into SQL. Criteria families
// combine with AND:
//
//   - date_from / date_to bound date_taken inclusively;
//   - tags with tag_match "any" keeps photos carrying at least one tag,
//     "all" keeps photos carrying every tag;
//   - album_id restricts to members and enables the "position" sort;
//   - text is a case-insensitive substring of file name, caption or a tag;
//   - ids restricts to the listed photos.
//
// Results are ordered by the sort key (date taken by default, album
// position when album_id is set) then by photo id ascending so that equal
// keys order deterministically. With count set the query selects COUNT(*)
// and ignores ordering and paging.
func buildPhotoQuery(filter types.Filter, count bool) (string, []any, error) {
	var (
		conditions []string
		args       []any
		join       string
	)

	if from, ok, err := filterTime(filter, types.FilterDateFrom); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "p.date_taken >= ?")
		args = append(args, formatTime(from))
	}
	if to, ok, err := filterTime(filter, types.FilterDateTo); err != nil {
		return "", nil, err
	} else if ok {
		conditions = append(conditions, "p.date_taken <= ?")
		args = append(args, formatTime(to))
	}

	tags, _, err := filterStrings(filter, types.FilterTags)
	if err != nil {
		return "", nil, err
	}
	tags = types.NormalizeTagNames(tags)
	match, ok, err := filterString(filter, types.FilterTagMatch)
	if err != nil {
		return "", nil, err
	}
	if !ok || match == "" {
		match = types.TagMatchAny
	}
	if len(tags) > 0 {
		tagArgs := make([]any, len(tags))
		for i, tag := range tags {
			tagArgs[i] = tag
		}
		switch match {
		case types.TagMatchAny:
			conditions = append(conditions, fmt.Sprintf(
				"p.photo_id IN (SELECT photo_id FROM photo_tags WHERE tag_name IN (%s))", placeholders(len(tags))))
			args = append(args, tagArgs...)
		case types.TagMatchAll:
			conditions = append(conditions, fmt.Sprintf(
				"p.photo_id IN (SELECT photo_id FROM photo_tags WHERE tag_name IN (%s) GROUP BY photo_id HAVING COUNT(DISTINCT tag_name) = ?)",
				placeholders(len(tags))))
			args = append(args, tagArgs...)
			args = append(args, len(tags))
		default:
			return "", nil, fmt.Errorf("filter tag_match %q: %w", match, types.ErrInvalidFilter)
		}
	}

	albumID, hasAlbum, err := filterString(filter, types.FilterAlbumID)
	if err != nil {
		return "", nil, err
	}
	if hasAlbum {
		join = " INNER JOIN album_photos ap ON ap.photo_id = p.photo_id AND ap.album_id = ?"
		args = append([]any{albumID}, args...)
	}

	if text, ok, err := filterString(filter, types.FilterText); err != nil {
		return "", nil, err
	} else if ok && strings.TrimSpace(text) != "" {
		needle := "%" + escapeLike(lowerText(strings.TrimSpace(text))) + "%"
		conditions = append(conditions, `(p.search_text LIKE ? ESCAPE '\' OR EXISTS (
SELECT 1 FROM photo_tags pt WHERE pt.photo_id = p.photo_id AND pt.tag_name LIKE ? ESCAPE '\'))`)
		args = append(args, needle, needle)
	}

	if ids, ok, err := filterStrings(filter, types.FilterIDs); err != nil {
		return "", nil, err
	} else if ok {
		if len(ids) == 0 {
			conditions = append(conditions, "0")
		} else {
			conditions = append(conditions, fmt.Sprintf("p.photo_id IN (%s)", placeholders(len(ids))))
			for _, id := range ids {
				args = append(args, id)
			}
		}
	}

	if count {
		return "SELECT COUNT(*) FROM photos p" + join + whereClause(conditions), args, nil
	}

	sortKey, ok, err := filterString(filter, types.FilterSort)
	if err != nil {
		return "", nil, err
	}
	if !ok || sortKey == "" {
		sortKey = types.SortDateTaken
		if hasAlbum {
			sortKey = types.SortPosition
		}
	}
	column, known := photoSortColumns[sortKey]
	if !known || (sortKey == types.SortPosition && !hasAlbum) {
		return "", nil, fmt.Errorf("filter sort %q: %w", sortKey, types.ErrInvalidFilter)
	}
	order, err := filterOrder(filter, types.OrderAsc)
	if err != nil {
		return "", nil, err
	}
	limit, err := limitClause(filter)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT " + photoColumns + " FROM photos p" + join + whereClause(conditions) +
		fmt.Sprintf(" ORDER BY %s %s, p.photo_id ASC", column, order) + limit
	return query, args, nil
}
