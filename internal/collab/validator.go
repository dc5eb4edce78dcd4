// Package collab provides the basic import collaborators used by the CLI:
// a type and size allowlist, an image header reader and a thumbnailer that
// produces nothing.
package collab

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// DefaultMaxFileSize is the largest file accepted when no limit is configured.
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// DefaultAllowedTypes lists the MIME types accepted for import.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/tiff",
	"image/bmp",
}

// TypeValidator accepts files whose MIME type is on an allowlist and whose
// size does not exceed a limit.
type TypeValidator struct {
	allowed map[string]bool
	maxSize int64
}

// NewTypeValidator builds a validator. An empty allowlist means
// DefaultAllowedTypes; a maxSize of zero or less means DefaultMaxFileSize.
func NewTypeValidator(allowed []string, maxSize int64) *TypeValidator {
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	v := &TypeValidator{allowed: make(map[string]bool, len(allowed)), maxSize: maxSize}
	for _, t := range allowed {
		v.allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return v
}

// Validate implements types.FileValidator.
func (v *TypeValidator) Validate(file *types.RawFile) types.FileCheck {
	mimeType := MimeType(file)
	if !v.allowed[mimeType] {
		if mimeType == "" {
			return types.FileCheck{Reason: "unknown file type"}
		}
		return types.FileCheck{Reason: fmt.Sprintf("unsupported file type %s", mimeType)}
	}
	if file.Size > v.maxSize {
		return types.FileCheck{Reason: fmt.Sprintf("file exceeds maximum size of %d bytes", v.maxSize)}
	}
	if file.Size < 0 {
		return types.FileCheck{Reason: "negative file size"}
	}
	return types.FileCheck{OK: true}
}

// MimeType returns the declared type of file, or the type implied by its
// extension when none was declared. Parameters such as charset are dropped.
func MimeType(file *types.RawFile) string {
	declared := file.MimeType
	if declared == "" {
		name := file.Name
		if name == "" {
			name = file.Path
		}
		declared = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if declared == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return mediaType
}
