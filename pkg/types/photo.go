package types

import (
	"slices"
	"time"
)

// MaxCaptionLength is the maximum caption length in characters.
const MaxCaptionLength = 1000

// GeoPoint is an optional capture location.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Photo is an imported image and its metadata.
type Photo struct {
	PhotoID      string    `json:"id"`                                        // UUID v7, generated on creation.
	FileName     string    `json:"fileName" validate:"required,max=255"`      // Original file name.
	FilePath     string    `json:"filePath,omitempty"`                        // Original location, informational.
	FileSize     int64     `json:"fileSize" validate:"gte=0"`                 // Bytes.
	MimeType     string    `json:"mimeType" validate:"required"`              // e.g. image/jpeg.
	Width        int       `json:"width" validate:"gte=0"`                    // Pixels.
	Height       int       `json:"height" validate:"gte=0"`                   // Pixels.
	DateTaken    time.Time `json:"dateTaken"`                                 // Capture time, else file modification time.
	DateAdded    time.Time `json:"dateAdded"`                                 // Import time.
	DateModified time.Time `json:"dateModified"`                              // Last metadata change.
	Camera       string    `json:"camera,omitempty" validate:"max=255"`       // Camera model, optional.
	Location     *GeoPoint `json:"location,omitempty"`                        // Capture location, optional.
	Caption      string    `json:"caption,omitempty" validate:"max=1000"`     // Free text, optional.
	Tags         []string  `json:"tags" validate:"dive,required,max=100"`     // Normalized tag names.
	AlbumIDs     []string  `json:"albumIds"`                                  // Derived from album membership.
	Thumbnail    string    `json:"thumbnail,omitempty"`                       // Opaque thumbnail reference.
}

// HasTag reports whether the photo carries the tag, comparing normalized names.
func (p *Photo) HasTag(name string) bool {
	return slices.Contains(p.Tags, NormalizeTagName(name))
}

// InAlbum reports whether the photo is a member of the album.
func (p *Photo) InAlbum(albumID string) bool {
	return slices.Contains(p.AlbumIDs, albumID)
}

// SetTags replaces the photo's tags with the normalized, de-duplicated and
// sorted form of names. Empty names are dropped.
func (p *Photo) SetTags(names []string) {
	p.Tags = NormalizeTagNames(names)
}

// DateKey returns the date album key the photo belongs to at the given
// granularity.
func (p *Photo) DateKey(g Granularity) DateKey {
	return DateKeyFor(p.DateTaken, g)
}

// Clone returns a deep copy of the photo.
func (p *Photo) Clone() *Photo {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.AlbumIDs = slices.Clone(p.AlbumIDs)
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	return &c
}
