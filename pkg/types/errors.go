package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error taxonomy returned by the store and the services. Callers test with
// errors.Is; the concrete error usually wraps one of these with context.
var (
	// ErrNotFound reports that a referenced id does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict reports a uniqueness violation: a duplicate custom album
	// name, a duplicate date album key or a duplicate tag name.
	ErrConflict = errors.New("conflict")

	// ErrValidation reports malformed input. Nothing was written.
	ErrValidation = errors.New("validation failed")

	// ErrQuotaExceeded reports that persisting the change would exceed the
	// storage budget. The store is unchanged.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrCorruption reports a detected invariant violation in stored data.
	ErrCorruption = errors.New("store corruption detected")

	// ErrOperation reports a failed multi-step operation; see OperationError.
	ErrOperation = errors.New("operation failed")
)

// Operation failure causes.
var (
	ErrDateAlbumNotEmpty = errors.New("date album still contains photos")
	ErrNotInAlbum        = errors.New("photo is not a member of the album")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Message string
	Fields  map[string]string // Field name to message.
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: field + " " + message,
		Fields:  map[string]string{field: message},
	}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// OperationError wraps a failure in a multi-step operation with the name of
// the operation. It matches ErrOperation and unwraps to its cause.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrOperation.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperation
}

// IsDomainError reports whether err already belongs to the taxonomy and
// should reach the caller unchanged.
func IsDomainError(err error) bool {
	for _, target := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrQuotaExceeded, ErrCorruption, ErrOperation} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
