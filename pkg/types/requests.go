package types

import "time"

// NewAlbum describes a custom album to create.
type NewAlbum struct {
	Name     string `json:"name" validate:"required,max=100"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"` // Nil appends to the grid.
}

// NewDateAlbum describes a date album to create. Month 0 makes a whole-year
// album.
type NewDateAlbum struct {
	Year     int    `json:"year" validate:"gte=1,lte=9999"`
	Month    int    `json:"month" validate:"gte=0,lte=12"`
	Name     string `json:"name,omitempty" validate:"max=100"` // Empty uses the key's name.
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// AlbumUpdate carries optional changes to an album. An empty CoverPhotoID
// clears the cover.
type AlbumUpdate struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=100"`
	CoverPhotoID *string `json:"coverPhotoId,omitempty"`
}

// NewPhoto describes a photo created directly, outside the import pipeline.
type NewPhoto struct {
	FileName  string    `json:"fileName" validate:"required,max=255"`
	FilePath  string    `json:"filePath,omitempty"`
	FileSize  int64     `json:"fileSize" validate:"gte=0"`
	MimeType  string    `json:"mimeType" validate:"required"`
	Width     int       `json:"width" validate:"gte=0"`
	Height    int       `json:"height" validate:"gte=0"`
	DateTaken time.Time `json:"dateTaken"` // Zero uses the creation time.
	Camera    string    `json:"camera,omitempty" validate:"max=255"`
	Location  *GeoPoint `json:"location,omitempty"`
	Caption   string    `json:"caption,omitempty" validate:"max=1000"`
	Tags      []string  `json:"tags,omitempty" validate:"dive,max=100"`
	Thumbnail string    `json:"thumbnail,omitempty"`
}

// PhotoUpdate carries optional changes to a photo's metadata. Tags replaces
// the whole tag set when non-nil. ClearLocation removes the location.
type PhotoUpdate struct {
	Caption       *string    `json:"caption,omitempty" validate:"omitempty,max=1000"`
	Tags          *[]string  `json:"tags,omitempty" validate:"omitempty,dive,max=100"`
	DateTaken     *time.Time `json:"dateTaken,omitempty"`
	Camera        *string    `json:"camera,omitempty" validate:"omitempty,max=255"`
	Location      *GeoPoint  `json:"location,omitempty"`
	ClearLocation bool       `json:"clearLocation,omitempty"`
}

// NewTag describes a tag to create ahead of use.
type NewTag struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color,omitempty" validate:"max=32"`
}

// TagUpdate carries optional changes to a tag. A new DisplayName that
// normalizes to a different name renames the tag on every photo.
type TagUpdate struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,max=100"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// Move relocates one photo inside an album. PhotoID is authoritative; From
// is used only when it still points at that photo. To is clamped into range.
type Move struct {
	PhotoID string `json:"photoId" validate:"required"`
	From    int    `json:"from"`
	To      int    `json:"to"`
}
