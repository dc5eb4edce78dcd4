package types

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tag is a normalized label attached to photos.
type Tag struct {
	TagID        string    `json:"id"`              // UUID v7, generated on creation.
	Name         string    `json:"name"`            // Normalized, unique.
	DisplayName  string    `json:"displayName"`     // Case as first entered.
	Color        string    `json:"color,omitempty"` // Optional UI color.
	PhotoCount   int       `json:"photoCount"`      // Denormalized count of tagged photos.
	DateCreated  time.Time `json:"dateCreated"`
	DateLastUsed time.Time `json:"dateLastUsed"`
}

// NormalizeTagName lowercases name, trims it and collapses inner whitespace
// to single spaces. Lowercasing is Unicode-aware.
func NormalizeTagName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Lower(language.Und).String(strings.Join(fields, " "))
}

// NormalizeTagNames normalizes, de-duplicates and sorts names. Names that
// normalize to the empty string are dropped. The result is never nil.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if norm := NormalizeTagName(n); norm != "" {
			out = append(out, norm)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// DisplayTagName trims and collapses whitespace without changing case.
func DisplayTagName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// FoldName returns the case-folded form of a name for case-insensitive
// comparison of album names.
func FoldName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
