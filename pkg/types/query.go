package types

import "time"

// Tag join modes for PhotoQuery.Tags.
const (
	TagMatchAny = "any" // A photo matches if it carries at least one tag.
	TagMatchAll = "all" // A photo matches only if it carries every tag.
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Photo sort keys.
const (
	SortDateTaken = "dateTaken"
	SortDateAdded = "dateAdded"
	SortFileName  = "fileName"
)

// Album sort keys.
const (
	SortPosition    = "position"
	SortName        = "name"
	SortDate        = "date" // sort key of date albums.
	SortDateCreated = "dateCreated"
)

// Tag sort keys.
const (
	SortCount    = "count"
	SortLastUsed = "lastUsed"
)

// PhotoQuery selects photos. Criteria families combine with AND. Results
// are ordered by SortBy then by photo id ascending.
type PhotoQuery struct {
	Tags     []string   `json:"tags,omitempty" validate:"omitempty,dive,required"`
	TagMatch string     `json:"tagMatch,omitempty" validate:"omitempty,oneof=any all"` // Empty uses the library default.
	DateFrom *time.Time `json:"dateFrom,omitempty"`                                      // Inclusive.
	DateTo   *time.Time `json:"dateTo,omitempty"`                                        // Inclusive.
	AlbumID  string     `json:"albumId,omitempty"`
	Text     string     `json:"text,omitempty" validate:"max=200"`
	SortBy   string     `json:"sortBy,omitempty" validate:"omitempty,oneof=dateTaken dateAdded fileName"`
	Order    string     `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	Offset   int        `json:"offset,omitempty" validate:"gte=0"`
	Limit    int        `json:"limit,omitempty" validate:"gte=0,lte=10000"` // 0 means no limit.
}

// Filter converts the query into a photos table filter.
func (q PhotoQuery) Filter() Filter {
	f := Filter{}
	if len(q.Tags) > 0 {
		f[FilterTags] = NormalizeTagNames(q.Tags)
		match := q.TagMatch
		if match == "" {
			match = TagMatchAny
		}
		f[FilterTagMatch] = match
	}
	if q.DateFrom != nil {
		f[FilterDateFrom] = *q.DateFrom
	}
	if q.DateTo != nil {
		f[FilterDateTo] = *q.DateTo
	}
	if q.AlbumID != "" {
		f[FilterAlbumID] = q.AlbumID
	}
	if q.Text != "" {
		f[FilterText] = q.Text
	}
	if q.SortBy != "" {
		f[FilterSort] = q.SortBy
	}
	if q.Order != "" {
		f[FilterOrder] = q.Order
	}
	if q.Offset > 0 {
		f[FilterOffset] = q.Offset
	}
	if q.Limit > 0 {
		f[FilterLimit] = q.Limit
	}
	return f
}

// PhotoPage is one page of query results.
type PhotoPage struct {
	Photos []*Photo `json:"photos"`
	Total  int      `json:"total"` // Matches before pagination.
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// AlbumQuery selects albums.
type AlbumQuery struct {
	Type   string `json:"type,omitempty" validate:"omitempty,oneof=date custom"`
	Year   int    `json:"year,omitempty" validate:"gte=0"`
	Month  int    `json:"month,omitempty" validate:"gte=0,lte=12"`
	Name   string `json:"name,omitempty"`
	SortBy string `json:"sortBy,omitempty" validate:"omitempty,oneof=position name date dateCreated"`
	Order  string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	Offset int    `json:"offset,omitempty" validate:"gte=0"`
	Limit  int    `json:"limit,omitempty" validate:"gte=0"`
}

// Filter converts the query into an albums table filter.
func (q AlbumQuery) Filter() Filter {
	f := Filter{}
	if q.Type != "" {
		f[FilterType] = q.Type
	}
	if q.Year > 0 {
		f[FilterYear] = q.Year
	}
	if q.Month > 0 {
		f[FilterMonth] = q.Month
	}
	if q.Name != "" {
		f[FilterName] = q.Name
	}
	if q.SortBy != "" {
		f[FilterSort] = q.SortBy
	}
	if q.Order != "" {
		f[FilterOrder] = q.Order
	}
	if q.Offset > 0 {
		f[FilterOffset] = q.Offset
	}
	if q.Limit > 0 {
		f[FilterLimit] = q.Limit
	}
	return f
}

// TagQuery selects tags.
type TagQuery struct {
	MinCount int    `json:"minCount,omitempty" validate:"gte=0"`
	SortBy   string `json:"sortBy,omitempty" validate:"omitempty,oneof=name count lastUsed"`
	Order    string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	Limit    int    `json:"limit,omitempty" validate:"gte=0"`
}

// Filter converts the query into a tags table filter.
func (q TagQuery) Filter() Filter {
	f := Filter{}
	if q.MinCount > 0 {
		f[FilterMinCount] = q.MinCount
	}
	if q.SortBy != "" {
		f[FilterSort] = q.SortBy
	}
	if q.Order != "" {
		f[FilterOrder] = q.Order
	}
	if q.Limit > 0 {
		f[FilterLimit] = q.Limit
	}
	return f
}
