package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"name": "is required", "caption": "is too long"}}

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "validation failed: caption is too long; name is required", err.Error())

	wrapped := fmt.Errorf("creating album: %w", NewValidationError("name", "is required"))
	var ve *ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "is required", ve.Fields["name"])
}

func TestOperationError(t *testing.T) {
	err := &OperationError{Op: "deleteAlbum", Err: ErrDateAlbumNotEmpty}

	assert.ErrorIs(t, err, ErrOperation)
	assert.ErrorIs(t, err, ErrDateAlbumNotEmpty)
	assert.Equal(t, "deleteAlbum: date album still contains photos", err.Error())
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", fmt.Errorf("album x: %w", ErrNotFound), true},
		{"conflict", ErrConflict, true},
		{"validation", NewValidationError("name", "is required"), true},
		{"quota", fmt.Errorf("commit: %w", ErrQuotaExceeded), true},
		{"corruption", ErrCorruption, true},
		{"operation", &OperationError{Op: "x", Err: errors.New("boom")}, true},
		{"plain", errors.New("boom"), false},
		{"lifecycle", ErrStoreDetached, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDomainError(tt.err))
		})
	}
}

func TestHealthReport(t *testing.T) {
	r := &HealthReport{Issues: []HealthIssue{
		{Kind: IssueUnusedTag, EntityID: "old", Info: true},
		{Kind: IssueAlbumCount, EntityID: "a1", Repaired: true},
	}}
	assert.True(t, r.Healthy())
	assert.NoError(t, r.Err())

	r.Issues = append(r.Issues, HealthIssue{Kind: IssueDuplicateDateKey, EntityID: "a2"})
	assert.False(t, r.Healthy())
	assert.ErrorIs(t, r.Err(), ErrCorruption)
	assert.Len(t, r.Unresolved(), 1)
}
