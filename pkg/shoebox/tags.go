package shoebox

import (
	"context"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// CreateTag creates a tag ahead of its first use. A tag with the same
// normalized name returns ErrConflict.
func (s *Service) CreateTag(ctx context.Context, req types.NewTag) (*types.Tag, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	name := types.NormalizeTagName(req.Name)
	if name == "" {
		return nil, types.NewValidationError("name", "is required")
	}
	now := s.now()
	tag := &types.Tag{
		Name:         name,
		DisplayName:  types.DisplayTagName(req.Name),
		Color:        req.Color,
		DateCreated:  now,
		DateLastUsed: now,
	}
	err := s.update(ctx, "CreateTag", func(tx types.Tx) error {
		count, err := tx.CountTagPhotos(name)
		if err != nil {
			return err
		}
		tag.PhotoCount = count
		_, err = consistency.Put(tx, types.TagsTable, "", tag)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// GetTag returns a tag by id or name. Names are matched after normalization.
func (s *Service) GetTag(ctx context.Context, idOrName string) (*types.Tag, error) {
	var tag *types.Tag
	err := s.view(ctx, "GetTag", func(tx types.Tx) error {
		var err error
		tag, err = getTag(tx, idOrName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func getTag(tx types.Tx, idOrName string) (*types.Tag, error) {
	key := types.NormalizeTagName(idOrName)
	if key == "" {
		return nil, types.NewValidationError("tag", "is required")
	}
	return consistency.GetTag(tx, key)
}

// ListTags returns the tags matching q, by name unless q sorts otherwise.
func (s *Service) ListTags(ctx context.Context, q types.TagQuery) ([]*types.Tag, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	var tags []*types.Tag
	err := s.view(ctx, "ListTags", func(tx types.Tx) error {
		var err error
		tags, err = consistency.FetchTags(tx, q.Filter())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateTag changes a tag's display name or color. A display name that
// normalizes differently renames the tag on every photo carrying it;
// renaming onto an existing tag returns ErrConflict.
func (s *Service) UpdateTag(ctx context.Context, idOrName string, upd types.TagUpdate) (*types.Tag, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var tag *types.Tag
	err := s.update(ctx, "UpdateTag", func(tx types.Tx) error {
		t, err := getTag(tx, idOrName)
		if err != nil {
			return err
		}
		if upd.DisplayName != nil {
			name := types.NormalizeTagName(*upd.DisplayName)
			if name == "" {
				return types.NewValidationError("displayName", "is required")
			}
			t.Name = name
			t.DisplayName = types.DisplayTagName(*upd.DisplayName)
		}
		if upd.Color != nil {
			t.Color = *upd.Color
		}
		if _, err := consistency.Put(tx, types.TagsTable, t.TagID, t); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag deletes a tag and removes it from every photo.
func (s *Service) DeleteTag(ctx context.Context, idOrName string) error {
	return s.update(ctx, "DeleteTag", func(tx types.Tx) error {
		t, err := getTag(tx, idOrName)
		if err != nil {
			return err
		}
		return consistency.Remove(tx, types.TagsTable, t.TagID)
	})
}

// CleanupUnusedTags deletes every tag no photo carries and returns their
// names.
func (s *Service) CleanupUnusedTags(ctx context.Context) ([]string, error) {
	removed := []string{}
	err := s.update(ctx, "CleanupUnusedTags", func(tx types.Tx) error {
		tags, err := consistency.FetchTags(tx, nil)
		if err != nil {
			return err
		}
		for _, t := range tags {
			count, err := tx.CountTagPhotos(t.Name)
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := consistency.Remove(tx, types.TagsTable, t.TagID); err != nil {
				return err
			}
			removed = append(removed, t.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.log.InfoContext(ctx, "unused tags deleted", "count", len(removed))
	}
	return removed, nil
}
