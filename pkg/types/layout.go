package types

import "time"

// MainLayoutID is the key of the single AlbumLayout record.
const MainLayoutID = "main"

// View modes for layouts.
const (
	ViewModeGrid = "grid"
	ViewModeList = "list"
)

// Layout defaults applied when a layout is created lazily.
const (
	DefaultLayoutColumns = 4
	MaxLayoutColumns     = 12
)

// LayoutSort is the sort preference stored with a layout.
type LayoutSort struct {
	Key   string `json:"key"`
	Order string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// AlbumLayout is the view state of the album grid.
type AlbumLayout struct {
	LayoutID     string     `json:"id"`       // Always MainLayoutID.
	AlbumIDs     []string   `json:"albumIds"` // Grid order; references existing albums only.
	Columns      int        `json:"columns"`
	ViewMode     string     `json:"viewMode"`
	Sort         LayoutSort `json:"sort"`
	DateModified time.Time  `json:"dateModified"`
}

// PhotoLayout is the view state of one album's photo grid.
type PhotoLayout struct {
	AlbumID      string     `json:"albumId"`  // Owning album; the layout is deleted with it.
	PhotoIDs     []string   `json:"photoIds"` // Display order; members of the album only.
	Columns      int        `json:"columns"`
	ViewMode     string     `json:"viewMode"`
	Sort         LayoutSort `json:"sort"`
	DateModified time.Time  `json:"dateModified"`
}

// LayoutUpdate carries optional changes to a layout's view settings.
type LayoutUpdate struct {
	Columns  *int        `json:"columns,omitempty" validate:"omitempty,gte=1,lte=12"`
	ViewMode *string     `json:"viewMode,omitempty" validate:"omitempty,oneof=grid list"`
	Sort     *LayoutSort `json:"sort,omitempty"`
}

// DefaultAlbumLayout returns the layout used when none is stored yet.
func DefaultAlbumLayout(albumIDs []string) *AlbumLayout {
	return &AlbumLayout{
		LayoutID: MainLayoutID,
		AlbumIDs: albumIDs,
		Columns:  DefaultLayoutColumns,
		ViewMode: ViewModeGrid,
		Sort:     LayoutSort{Key: "position", Order: OrderAsc},
	}
}

// DefaultPhotoLayout returns the layout used for an album that has none yet.
func DefaultPhotoLayout(albumID string, photoIDs []string) *PhotoLayout {
	return &PhotoLayout{
		AlbumID:  albumID,
		PhotoIDs: photoIDs,
		Columns:  DefaultLayoutColumns,
		ViewMode: ViewModeGrid,
		Sort:     LayoutSort{Key: "position", Order: OrderAsc},
	}
}
