package consistency

import (
	"fmt"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Typed accessors over types.Tx tables.

func table(tx types.Tx, name string) (types.Table, error) {
	tbl, err := tx.Table(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return tbl, nil
}

// GetPhoto loads a photo by id.
func GetPhoto(tx types.Tx, id string) (*types.Photo, error) {
	return get[*types.Photo](tx, types.PhotosTable, id)
}

// GetAlbum loads an album by id.
func GetAlbum(tx types.Tx, id string) (*types.Album, error) {
	return get[*types.Album](tx, types.AlbumsTable, id)
}

// GetTag loads a tag by id or name.
func GetTag(tx types.Tx, idOrName string) (*types.Tag, error) {
	return get[*types.Tag](tx, types.TagsTable, idOrName)
}

// FetchPhotos returns the photos matching filter.
func FetchPhotos(tx types.Tx, filter types.Filter) ([]*types.Photo, error) {
	return fetch[*types.Photo](tx, types.PhotosTable, filter)
}

// FetchAlbums returns the albums matching filter.
func FetchAlbums(tx types.Tx, filter types.Filter) ([]*types.Album, error) {
	return fetch[*types.Album](tx, types.AlbumsTable, filter)
}

// FetchTags returns the tags matching filter.
func FetchTags(tx types.Tx, filter types.Filter) ([]*types.Tag, error) {
	return fetch[*types.Tag](tx, types.TagsTable, filter)
}

// Put writes entity to the named table and returns its id.
func Put(tx types.Tx, name, id string, entity any) (string, error) {
	tbl, err := table(tx, name)
	if err != nil {
		return "", err
	}
	return tbl.Set(id, entity)
}

// Remove deletes id from the named table.
func Remove(tx types.Tx, name, id string) error {
	tbl, err := table(tx, name)
	if err != nil {
		return err
	}
	return tbl.Delete(id)
}

func get[T any](tx types.Tx, name, id string) (T, error) {
	var zero T
	tbl, err := table(tx, name)
	if err != nil {
		return zero, err
	}
	v, err := tbl.Get(id)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s %s: unexpected %T: %w", name, id, v, types.ErrInvalidData)
	}
	return out, nil
}

func fetch[T any](tx types.Tx, name string, filter types.Filter) ([]T, error) {
	tbl, err := table(tx, name)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected %T: %w", name, r, types.ErrInvalidData)
		}
		out = append(out, v)
	}
	return out, nil
}
