package consistency

import (
	"maps"
	"slices"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Change names the albums and tags whose relations a write touched. The
// maintainer recomputes every cache derived from them.
type Change struct {
	Albums          []string          // Albums whose membership changed.
	Tags            []string          // Normalized tag names whose photo set changed.
	TagsUsed        map[string]string // Tags newly applied: normalized name to display name.
	AlbumSetChanged bool              // Albums were created or deleted.
}

// Merge adds o to c.
func (c *Change) Merge(o Change) {
	c.Albums = append(c.Albums, o.Albums...)
	c.Tags = append(c.Tags, o.Tags...)
	if len(o.TagsUsed) > 0 {
		if c.TagsUsed == nil {
			c.TagsUsed = make(map[string]string, len(o.TagsUsed))
		}
		for name, display := range o.TagsUsed {
			if _, ok := c.TagsUsed[name]; !ok {
				c.TagsUsed[name] = display
			}
		}
	}
	c.AlbumSetChanged = c.AlbumSetChanged || o.AlbumSetChanged
}

// Empty reports whether the change touches nothing.
func (c Change) Empty() bool {
	return len(c.Albums) == 0 && len(c.Tags) == 0 && len(c.TagsUsed) == 0 && !c.AlbumSetChanged
}

// albums returns the touched album ids, sorted and unique.
func (c Change) albums() []string {
	return uniqueSorted(c.Albums)
}

// tags returns every touched tag name, sorted and unique.
func (c Change) tags() []string {
	names := slices.Collect(maps.Keys(c.TagsUsed))
	return uniqueSorted(append(names, c.Tags...))
}

// Diff returns the ids present only in after (added) and only in before
// (removed), each in first-seen order.
func Diff(before, after []string) (added, removed []string) {
	inBefore := make(map[string]bool, len(before))
	for _, id := range before {
		inBefore[id] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, id := range after {
		inAfter[id] = true
	}
	for _, id := range after {
		if !inBefore[id] && !slices.Contains(added, id) {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !inAfter[id] && !slices.Contains(removed, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// PhotoChange computes the change between two states of one photo. A nil
// before describes a creation and a nil after a deletion.
func PhotoChange(before, after *types.Photo) Change {
	var beforeAlbums, afterAlbums, beforeTags, afterTags []string
	if before != nil {
		beforeAlbums, beforeTags = before.AlbumIDs, before.Tags
	}
	if after != nil {
		afterAlbums, afterTags = after.AlbumIDs, after.Tags
	}

	var c Change
	addedAlbums, removedAlbums := Diff(beforeAlbums, afterAlbums)
	c.Albums = append(addedAlbums, removedAlbums...)

	addedTags, removedTags := Diff(types.NormalizeTagNames(beforeTags), types.NormalizeTagNames(afterTags))
	c.Tags = removedTags
	if len(addedTags) > 0 {
		c.TagsUsed = make(map[string]string, len(addedTags))
		for _, name := range addedTags {
			c.TagsUsed[name] = name
		}
	}
	return c
}

// TagUse maps the normalized form of each raw tag name to its display form.
// The first spelling of a name wins.
func TagUse(raw []string) map[string]string {
	out := make(map[string]string, len(raw))
	for _, r := range raw {
		name := types.NormalizeTagName(r)
		if name == "" {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = types.DisplayTagName(r)
		}
	}
	return out
}

func uniqueSorted(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
