package types

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Album types.
const (
	AlbumTypeDate   = "date"
	AlbumTypeCustom = "custom"
)

// MaxAlbumNameLength is the maximum album name length in characters.
const MaxAlbumNameLength = 100

// Album is an ordered collection of photos. Date albums are keyed by
// (Year, Month) and maintained by the auto-organizer; custom albums are
// named by the user.
type Album struct {
	AlbumID      string    `json:"id"`                     // UUID v7, generated on creation.
	Name         string    `json:"name"`                   // Display name.
	Type         string    `json:"type"`                   // AlbumTypeDate or AlbumTypeCustom.
	Year         int       `json:"year,omitempty"`         // Date albums only.
	Month        int       `json:"month,omitempty"`        // Date albums only; 0 for a whole-year album.
	SortKey      int       `json:"sortKey,omitempty"`      // year*100+month for date albums.
	CoverPhotoID string    `json:"coverPhotoId,omitempty"` // Must be a member when set.
	PhotoIDs     []string  `json:"photoIds"`               // Derived from membership, in album order.
	Position     int       `json:"position"`               // Grid order among albums.
	PhotoCount   int       `json:"photoCount"`             // Denormalized member count.
	DateCreated  time.Time `json:"dateCreated"`
	DateModified time.Time `json:"dateModified"`
}

// IsDate reports whether the album is a date album.
func (a *Album) IsDate() bool { return a.Type == AlbumTypeDate }

// DateKey returns the album's date key. Only meaningful for date albums.
func (a *Album) DateKey() DateKey {
	return DateKey{Year: a.Year, Month: a.Month}
}

// Contains reports whether the photo is a member of the album.
func (a *Album) Contains(photoID string) bool {
	return slices.Contains(a.PhotoIDs, photoID)
}

// Granularity selects the span of an auto-organized date album.
type Granularity string

// Date album granularities.
const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// DateKey identifies a date album. Month is 0 for a whole-year album.
type DateKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// DateKeyFor derives the date key of t at granularity g, in UTC.
func DateKeyFor(t time.Time, g Granularity) DateKey {
	t = t.UTC()
	if g == GranularityYear {
		return DateKey{Year: t.Year()}
	}
	return DateKey{Year: t.Year(), Month: int(t.Month())}
}

// Validate checks the key is in range.
func (k DateKey) Validate() error {
	if k.Year < 1 || k.Year > 9999 {
		return NewValidationError("year", "must be between 1 and 9999")
	}
	if k.Month < 0 || k.Month > 12 {
		return NewValidationError("month", "must be between 0 and 12")
	}
	return nil
}

// Name returns the display name of the date album, e.g. "June 2024" or "2024".
func (k DateKey) Name() string {
	if k.Month == 0 {
		return strconv.Itoa(k.Year)
	}
	return fmt.Sprintf("%s %d", time.Month(k.Month), k.Year)
}

// SortKey returns year*100+month.
func (k DateKey) SortKey() int {
	return k.Year*100 + k.Month
}

// String implements fmt.Stringer.
func (k DateKey) String() string {
	if k.Month == 0 {
		return fmt.Sprintf("%04d", k.Year)
	}
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}
