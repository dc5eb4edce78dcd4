package sqlite

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// lowerText lowercases s for case-insensitive matching. Tag names are
// lowercased the same way, so one needle serves both.
func lowerText(s string) string {
	return cases.Lower(language.Und).String(s)
}

// escapeLike escapes LIKE wildcards; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// placeholders returns n comma-separated "?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Filter accessors. Each returns ok=false when the key is absent and
// ErrInvalidFilter when the value has the wrong type.

func filterString(f types.Filter, key string) (string, bool, error) {
	v, ok := f[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return s, true, nil
}

func filterInt(f types.Filter, key string) (int, bool, error) {
	v, ok := f[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return n, true, nil
}

func filterStrings(f types.Filter, key string) ([]string, bool, error) {
	v, ok := f[key]
	if !ok {
		return nil, false, nil
	}
	s, ok := v.([]string)
	if !ok {
		return nil, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return s, true, nil
}

func filterTime(f types.Filter, key string) (time.Time, bool, error) {
	v, ok := f[key]
	if !ok {
		return time.Time{}, false, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return t, true, nil
}

// filterOrder returns "ASC" or "DESC", defaulting to def.
func filterOrder(f types.Filter, def string) (string, error) {
	s, ok, err := filterString(f, types.FilterOrder)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		s = def
	}
	switch s {
	case types.OrderAsc:
		return "ASC", nil
	case types.OrderDesc:
		return "DESC", nil
	default:
		return "", fmt.Errorf("filter order %q: %w", s, types.ErrInvalidFilter)
	}
}

// limitClause renders LIMIT/OFFSET from the filter.
func limitClause(f types.Filter) (string, error) {
	limit, _, err := filterInt(f, types.FilterLimit)
	if err != nil {
		return "", err
	}
	offset, _, err := filterInt(f, types.FilterOffset)
	if err != nil {
		return "", err
	}
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset), nil
	case limit > 0:
		return fmt.Sprintf(" LIMIT %d", limit), nil
	case offset > 0:
		return fmt.Sprintf(" LIMIT -1 OFFSET %d", offset), nil
	}
	return "", nil
}

// whereClause joins conditions with AND.
func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}
