package collab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// ErrNoContent is returned when a file carries neither data nor a path.
var ErrNoContent = errors.New("file has no content to read")

// DimensionExtractor reads pixel dimensions from an image header. It never
// decodes pixel data and leaves every other metadata field unknown.
type DimensionExtractor struct{}

// Extract implements types.MetadataExtractor.
func (DimensionExtractor) Extract(ctx context.Context, file *types.RawFile) (*types.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r io.Reader
	switch {
	case len(file.Data) > 0:
		r = bytes.NewReader(file.Data)
	case file.Path != "":
		f, err := os.Open(file.Path)
		if err != nil {
			return nil, fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		r = f
	default:
		return nil, ErrNoContent
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	return &types.Metadata{Width: cfg.Width, Height: cfg.Height}, nil
}
