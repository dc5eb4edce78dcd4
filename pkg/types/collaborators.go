package types

import (
	"context"
	"time"
)

// RawFile is a file handed to the import pipeline.
type RawFile struct {
	Name     string    // Base name.
	Path     string    // Original location, informational.
	MimeType string    // Declared or sniffed type.
	Size     int64     // Bytes.
	ModTime  time.Time // File modification time; DateTaken fallback.
	Data     []byte    // Content, may be nil when collaborators read Path.
}

// Metadata is what a MetadataExtractor could read from a file. Zero values
// mean unknown.
type Metadata struct {
	DateTaken *time.Time
	Width     int
	Height    int
	Camera    string
	Location  *GeoPoint
	Caption   string
	Tags      []string
}

// MetadataExtractor reads capture metadata from a file.
type MetadataExtractor interface {
	Extract(ctx context.Context, file *RawFile) (*Metadata, error)
}

// ThumbnailGenerator produces an opaque thumbnail reference for a file.
type ThumbnailGenerator interface {
	Generate(ctx context.Context, file *RawFile, maxSize, quality int) (string, error)
}

// FileCheck is the verdict of a FileValidator.
type FileCheck struct {
	OK     bool
	Reason string
}

// FileValidator decides whether a file may be imported.
type FileValidator interface {
	Validate(file *RawFile) FileCheck
}
