package types

import (
	"context"
	"errors"
)

// Store defines backend-agnostic access to a photo library.
// Callers attach to a backend, run units of work through View or Update,
// and detach when done. A Store is an explicit value passed to the services
// that use it; there is no process-wide instance.
type Store interface {
	// Attach opens the backend described by config. Creates DataDir if it
	// does not exist. Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, View and Update return ErrStoreDetached.
	Detach() error

	// View runs fn in a read-only unit of work. Views may run concurrently
	// with each other but never with an Update.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a read-write unit of work. Updates are serialized.
	// If fn returns an error, nothing fn wrote is kept. If the new state
	// cannot be persisted (quota, disk full) Update returns ErrQuotaExceeded
	// and the store is exactly as it was before the call.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// Usage reports the size of the persisted data files.
	Usage() (Usage, error)
}

// Tx is a unit of work against the store. A Tx must not be used after the
// View or Update callback that received it returns, and View or Update
// must not be called from inside a callback.
type Tx interface {
	// Table returns the accessor for the named collection.
	// Returns ErrTableNotFound for unknown names.
	Table(name string) (Table, error)

	// AlbumPhotoIDs returns the album's member photo ids in album order.
	AlbumPhotoIDs(albumID string) ([]string, error)

	// PhotoAlbumIDs returns the ids of the albums containing the photo.
	PhotoAlbumIDs(photoID string) ([]string, error)

	// SetAlbumPhotos replaces the album's ordered membership. This is the
	// only write path for the album/photo relation.
	SetAlbumPhotos(albumID string, photoIDs []string) error

	// CountAlbumPhotos counts the album's members through the relation index.
	CountAlbumPhotos(albumID string) (int, error)

	// CountTagPhotos counts the photos carrying the normalized tag name.
	CountTagPhotos(name string) (int, error)

	// Memberships lists every album/photo relation row.
	Memberships() ([]Membership, error)

	// TagLinks lists every photo/tag relation row.
	TagLinks() ([]TagLink, error)

	// Savepoint runs fn inside a nested savepoint. When fn fails only the
	// writes made inside fn are undone and the error is returned.
	Savepoint(name string, fn func() error) error

	// Clear deletes every record from every collection.
	Clear() error
}

// Membership is one row of the album/photo relation.
type Membership struct {
	AlbumID  string `json:"albumId"`
	PhotoID  string `json:"photoId"`
	Position int    `json:"position"`
}

// TagLink is one row of the photo/tag relation.
type TagLink struct {
	PhotoID string `json:"photoId"`
	TagName string `json:"tagName"`
}

// Usage describes the on-disk footprint of the persisted collections.
type Usage struct {
	Files      map[string]int64 `json:"files"`      // Bytes per data file.
	TotalBytes int64            `json:"totalBytes"` // Sum of Files.
	QuotaBytes int64            `json:"quotaBytes"` // Configured cap; 0 means unlimited.
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
	ErrReadOnly        = errors.New("write attempted in a read-only transaction")
)
