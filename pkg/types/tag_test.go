package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Beach", "beach"},
		{"  Summer   Holiday ", "summer holiday"},
		{"ÉTÉ", "été"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTagName(tt.in))
		})
	}
}

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{"Sunset", "beach", "BEACH", " ", "sunset"})
	assert.Equal(t, []string{"beach", "sunset"}, got)

	assert.NotNil(t, NormalizeTagNames(nil))
	assert.Empty(t, NormalizeTagNames(nil))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("Trip"), FoldName("trip"))
	assert.Equal(t, FoldName("Road  Trip"), FoldName("road trip"))
	assert.NotEqual(t, FoldName("Trip"), FoldName("Trips"))
}

func TestPhotoTagHelpers(t *testing.T) {
	p := &Photo{}
	p.SetTags([]string{"Beach", "sunset", "beach"})
	assert.Equal(t, []string{"beach", "sunset"}, p.Tags)
	assert.True(t, p.HasTag("BEACH"))
	assert.False(t, p.HasTag("forest"))

	p.AlbumIDs = []string{"a1"}
	clone := p.Clone()
	clone.Tags[0] = "changed"
	clone.AlbumIDs[0] = "a2"
	assert.Equal(t, "beach", p.Tags[0])
	assert.True(t, p.InAlbum("a1"))
}
