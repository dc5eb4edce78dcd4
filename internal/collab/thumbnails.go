package collab

import (
	"context"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// NoThumbnails is a ThumbnailGenerator that produces no reference. Photos
// imported with it carry an empty thumbnail.
type NoThumbnails struct{}

// Generate implements types.ThumbnailGenerator.
func (NoThumbnails) Generate(ctx context.Context, _ *types.RawFile, _, _ int) (string, error) {
	return "", ctx.Err()
}
