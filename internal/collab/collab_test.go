package collab

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func TestTypeValidator(t *testing.T) {
	v := NewTypeValidator(nil, 1000)

	tests := []struct {
		name   string
		file   *types.RawFile
		ok     bool
		reason string
	}{
		{"declared jpeg", &types.RawFile{Name: "a.jpg", MimeType: "image/jpeg", Size: 10}, true, ""},
		{"declared with params", &types.RawFile{Name: "a", MimeType: "Image/PNG; foo=bar", Size: 10}, true, ""},
		{"inferred from extension", &types.RawFile{Name: "b.PNG", Size: 10}, true, ""},
		{"inferred from path", &types.RawFile{Path: "/card/c.gif", Size: 10}, true, ""},
		{"unsupported", &types.RawFile{Name: "notes.txt", MimeType: "text/plain", Size: 10}, false, "unsupported file type text/plain"},
		{"unknown", &types.RawFile{Name: "README", Size: 10}, false, "unknown file type"},
		{"too large", &types.RawFile{Name: "big.jpg", MimeType: "image/jpeg", Size: 1001}, false, "maximum size"},
		{"at limit", &types.RawFile{Name: "big.jpg", MimeType: "image/jpeg", Size: 1000}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := v.Validate(tt.file)
			assert.Equal(t, tt.ok, check.OK)
			if tt.reason != "" {
				assert.Contains(t, check.Reason, tt.reason)
			}
		})
	}
}

func TestTypeValidator_CustomAllowlist(t *testing.T) {
	v := NewTypeValidator([]string{" IMAGE/JPEG "}, 0)
	assert.True(t, v.Validate(&types.RawFile{Name: "a.jpg", Size: DefaultMaxFileSize}).OK)
	assert.False(t, v.Validate(&types.RawFile{Name: "a.png", Size: 1}).OK)
}

func sample(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestDimensionExtractor_Formats(t *testing.T) {
	encoders := map[string]func(*bytes.Buffer, image.Image) error{
		"png":  func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) },
		"jpeg": func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) },
		"gif":  func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) },
		"bmp":  func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) },
		"tiff": func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) },
	}
	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf, sample(40, 30)))

			meta, err := DimensionExtractor{}.Extract(context.Background(), &types.RawFile{Name: "x." + name, Data: buf.Bytes()})
			require.NoError(t, err)
			assert.Equal(t, 40, meta.Width)
			assert.Equal(t, 30, meta.Height)
			assert.Nil(t, meta.DateTaken)
		})
	}
}

func TestDimensionExtractor_ReadsPath(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sample(7, 5)))
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	meta, err := DimensionExtractor{}.Extract(context.Background(), &types.RawFile{Name: "a.png", Path: path})
	require.NoError(t, err)
	assert.Equal(t, 7, meta.Width)
	assert.Equal(t, 5, meta.Height)
}

func TestDimensionExtractor_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := DimensionExtractor{}.Extract(ctx, &types.RawFile{Name: "empty.jpg"})
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = DimensionExtractor{}.Extract(ctx, &types.RawFile{Name: "a.jpg", Data: []byte("not an image")})
	assert.ErrorContains(t, err, "decode image header")

	_, err = DimensionExtractor{}.Extract(ctx, &types.RawFile{Path: filepath.Join(t.TempDir(), "missing.jpg")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = DimensionExtractor{}.Extract(cancelled, &types.RawFile{Data: []byte{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoThumbnails(t *testing.T) {
	ref, err := NoThumbnails{}.Generate(context.Background(), &types.RawFile{Name: "a.jpg"}, 320, 80)
	require.NoError(t, err)
	assert.Empty(t, ref)
}
