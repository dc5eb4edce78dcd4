package types

import "errors"

// Filter selects entities in Table.Fetch and Table.Count. Recognized keys
// depend on the table; an unrecognized value type yields ErrInvalidFilter.
// A nil or empty filter matches every entity.
type Filter map[string]any

// Table provides uniform CRUD operations for a single collection.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates an entity. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the entity with the given ID together with its
	// relation rows. Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// Fetch returns all entities matching the filter.
	Fetch(filter Filter) ([]any, error)

	// Count returns the number of entities matching the filter, ignoring
	// limit and offset.
	Count(filter Filter) (int, error)
}

// Table operation errors.
var (
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)
