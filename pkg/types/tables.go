package types

// Standard collection names for Tx.Table.
const (
	PhotosTable       = "photos"
	AlbumsTable       = "albums"
	TagsTable         = "tags"
	AlbumLayoutsTable = "album_layouts"
	PhotoLayoutsTable = "photo_layouts"
	SettingsTable     = "settings"
)

// StandardTableNames lists all standard collection names for enumeration.
var StandardTableNames = []string{
	PhotosTable,
	AlbumsTable,
	TagsTable,
	AlbumLayoutsTable,
	PhotoLayoutsTable,
	SettingsTable,
}

// Filter keys understood by the photos table.
const (
	FilterDateFrom = "date_from" // time.Time, inclusive.
	FilterDateTo   = "date_to"   // time.Time, inclusive.
	FilterTags     = "tags"      // []string of normalized tag names.
	FilterTagMatch = "tag_match" // TagMatchAny or TagMatchAll.
	FilterAlbumID  = "album_id"  // string.
	FilterText     = "text"      // string, case-insensitive substring.
	FilterIDs      = "ids"       // []string.
	FilterSort     = "sort"      // sort key; accepted values depend on the table.
	FilterOrder    = "order"     // OrderAsc or OrderDesc.
	FilterLimit    = "limit"     // int.
	FilterOffset   = "offset"    // int.
)

// Filter keys understood by the albums and tags tables.
const (
	FilterType     = "type"      // album type.
	FilterYear     = "year"      // int.
	FilterMonth    = "month"     // int, 0 for year albums.
	FilterName     = "name"      // string, matched case-insensitively.
	FilterMinCount = "min_count" // int, tags only.
)
