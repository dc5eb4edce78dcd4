package shoebox

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// CreatePhoto stores a photo described directly by the caller. Its tags are
// created on first use and, when auto-organize is on, the photo is filed in
// its date album in the same update.
func (s *Service) CreatePhoto(ctx context.Context, req types.NewPhoto) (*types.Photo, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	now := s.now()
	p := &types.Photo{
		FileName:     req.FileName,
		FilePath:     req.FilePath,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
		Width:        req.Width,
		Height:       req.Height,
		DateTaken:    req.DateTaken,
		DateAdded:    now,
		DateModified: now,
		Camera:       req.Camera,
		Location:     req.Location,
		Caption:      req.Caption,
		Thumbnail:    req.Thumbnail,
	}
	if p.DateTaken.IsZero() {
		p.DateTaken = now
	}
	p.SetTags(req.Tags)
	if err := s.check(p); err != nil {
		return nil, err
	}

	var created *types.Photo
	err := s.update(ctx, "CreatePhoto", func(tx types.Tx) error {
		settings, err := consistency.LoadSettings(tx)
		if err != nil {
			return err
		}
		if err := s.insertPhotos(ctx, tx, []*types.Photo{p}, [][]string{req.Tags}, settings, nil); err != nil {
			return err
		}
		created, err = consistency.GetPhoto(tx, p.PhotoID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// insertPhotos writes new photos, reconciles their tags and, when settings
// ask for it, files them in date albums. rawTags[i] carries the tag
// spellings of photos[i] for display names. Organize results accumulate in
// result when it is non-nil.
func (s *Service) insertPhotos(ctx context.Context, tx types.Tx, photos []*types.Photo, rawTags [][]string,
	settings *types.Settings, result *types.OrganizeResult) error {
	var change consistency.Change
	for i, p := range photos {
		if _, err := consistency.Put(tx, types.PhotosTable, "", p); err != nil {
			return err
		}
		c := consistency.PhotoChange(nil, p)
		c.TagsUsed = displayNames(c.TagsUsed, rawTags[i])
		change.Merge(c)
	}
	s.maint.Apply(ctx, tx, change)

	if !settings.AutoOrganize {
		return nil
	}
	for _, p := range photos {
		attached, album, err := s.organizer.AttachPhoto(ctx, tx, p, settings.DateGranularity)
		if err != nil {
			return err
		}
		if result == nil {
			continue
		}
		result.Processed++
		if attached {
			result.Attached++
		}
		if album != nil {
			result.AlbumsCreated = append(result.AlbumsCreated, album.AlbumID)
		}
	}
	return nil
}

// displayNames replaces the display names in used with the spelling found
// in raw, where there is one.
func displayNames(used map[string]string, raw []string) map[string]string {
	if len(used) == 0 {
		return used
	}
	spelled := consistency.TagUse(raw)
	for name := range used {
		if d, ok := spelled[name]; ok {
			used[name] = d
		}
	}
	return used
}

// GetPhoto returns a photo with its tags and albums.
func (s *Service) GetPhoto(ctx context.Context, id string) (*types.Photo, error) {
	var photo *types.Photo
	err := s.view(ctx, "GetPhoto", func(tx types.Tx) error {
		var err error
		photo, err = consistency.GetPhoto(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// SearchPhotos returns one page of photos matching q. Criteria combine with
// AND. An empty TagMatch uses the library's configured default.
func (s *Service) SearchPhotos(ctx context.Context, q types.PhotoQuery) (*types.PhotoPage, error) {
	if err := s.check(q); err != nil {
		return nil, err
	}
	page := &types.PhotoPage{Offset: q.Offset, Limit: q.Limit}
	err := s.view(ctx, "SearchPhotos", func(tx types.Tx) error {
		if q.TagMatch == "" && len(q.Tags) > 0 {
			settings, err := consistency.LoadSettings(tx)
			if err != nil {
				return err
			}
			q.TagMatch = settings.TagMatch
		}
		filter := q.Filter()
		tbl, err := tx.Table(types.PhotosTable)
		if err != nil {
			return err
		}
		if page.Total, err = tbl.Count(filter); err != nil {
			return err
		}
		page.Photos, err = consistency.FetchPhotos(tx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// UpdatePhoto changes a photo's metadata. Replacing tags recounts both the
// old and new tags. A new capture date moves the photo to its new date
// album when auto-organize is on.
func (s *Service) UpdatePhoto(ctx context.Context, id string, upd types.PhotoUpdate) (*types.Photo, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	var updated *types.Photo
	err := s.update(ctx, "UpdatePhoto", func(tx types.Tx) error {
		before, err := consistency.GetPhoto(tx, id)
		if err != nil {
			return err
		}
		after := before.Clone()
		var rawTags []string
		if upd.Caption != nil {
			after.Caption = *upd.Caption
		}
		if upd.Tags != nil {
			rawTags = *upd.Tags
			after.SetTags(rawTags)
		}
		if upd.DateTaken != nil {
			after.DateTaken = upd.DateTaken.UTC()
		}
		if upd.Camera != nil {
			after.Camera = *upd.Camera
		}
		if upd.Location != nil {
			loc := *upd.Location
			after.Location = &loc
		}
		if upd.ClearLocation {
			after.Location = nil
		}
		if err := s.check(after); err != nil {
			return err
		}
		after.DateModified = s.now()
		if _, err := consistency.Put(tx, types.PhotosTable, id, after); err != nil {
			return err
		}
		c := consistency.PhotoChange(before, after)
		c.TagsUsed = displayNames(c.TagsUsed, rawTags)
		s.maint.Apply(ctx, tx, c)

		if !after.DateTaken.Equal(before.DateTaken) {
			settings, err := consistency.LoadSettings(tx)
			if err != nil {
				return err
			}
			if settings.AutoOrganize {
				if _, _, err := s.organizer.AttachPhoto(ctx, tx, after, settings.DateGranularity); err != nil {
					return err
				}
			}
		}
		updated, err = consistency.GetPhoto(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddTags adds tags to every listed photo. Tags are created on first use.
func (s *Service) AddTags(ctx context.Context, photoIDs, tags []string) error {
	if len(types.NormalizeTagNames(tags)) == 0 {
		return types.NewValidationError("tags", "must contain a non-empty name")
	}
	return s.update(ctx, "AddTags", func(tx types.Tx) error {
		return s.retag(ctx, tx, photoIDs, tags, func(p *types.Photo) {
			p.SetTags(append(slices.Clone(p.Tags), tags...))
		})
	})
}

// RemoveTags removes tags from every listed photo.
func (s *Service) RemoveTags(ctx context.Context, photoIDs, tags []string) error {
	drop := types.NormalizeTagNames(tags)
	if len(drop) == 0 {
		return types.NewValidationError("tags", "must contain a non-empty name")
	}
	return s.update(ctx, "RemoveTags", func(tx types.Tx) error {
		return s.retag(ctx, tx, photoIDs, nil, func(p *types.Photo) {
			p.Tags = slices.DeleteFunc(slices.Clone(p.Tags), func(t string) bool {
				return slices.Contains(drop, t)
			})
		})
	})
}

func (s *Service) retag(ctx context.Context, tx types.Tx, photoIDs, rawTags []string, edit func(*types.Photo)) error {
	var change consistency.Change
	now := s.now()
	for _, id := range photoIDs {
		before, err := consistency.GetPhoto(tx, id)
		if err != nil {
			return err
		}
		after := before.Clone()
		edit(after)
		if slices.Equal(before.Tags, after.Tags) {
			continue
		}
		if err := s.check(after); err != nil {
			return err
		}
		after.DateModified = now
		if _, err := consistency.Put(tx, types.PhotosTable, id, after); err != nil {
			return err
		}
		c := consistency.PhotoChange(before, after)
		c.TagsUsed = displayNames(c.TagsUsed, rawTags)
		change.Merge(c)
	}
	s.maint.Apply(ctx, tx, change)
	return nil
}

// DeletePhotos deletes photos with their album memberships and tag links.
// Albums and tags they touched are recounted and covers that pointed at
// them are reassigned. Any missing id fails the whole call with
// ErrNotFound.
func (s *Service) DeletePhotos(ctx context.Context, ids []string) error {
	err := s.update(ctx, "DeletePhotos", func(tx types.Tx) error {
		var change consistency.Change
		for _, id := range ids {
			p, err := consistency.GetPhoto(tx, id)
			if err != nil {
				return err
			}
			change.Merge(consistency.PhotoChange(p, nil))
			if err := consistency.Remove(tx, types.PhotosTable, id); err != nil {
				return err
			}
		}
		s.maint.Apply(ctx, tx, change)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "photos deleted", "count", len(ids))
	return nil
}

// FindDuplicatePhotos groups photos that share file size and pixel
// dimensions. This is a heuristic: photos in a group are likely, not
// certainly, the same image, and re-encoded copies are missed. Photos of
// unknown size are ignored. Groups are ordered by key, members by id.
func (s *Service) FindDuplicatePhotos(ctx context.Context) ([]types.DuplicateGroup, error) {
	var groups []types.DuplicateGroup
	err := s.view(ctx, "FindDuplicatePhotos", func(tx types.Tx) error {
		photos, err := consistency.FetchPhotos(tx, nil)
		if err != nil {
			return err
		}
		byKey := map[types.DuplicateKey][]string{}
		for _, p := range photos {
			if p.FileSize <= 0 {
				continue
			}
			key := types.DuplicateKey{FileSize: p.FileSize, Width: p.Width, Height: p.Height}
			byKey[key] = append(byKey[key], p.PhotoID)
		}
		groups = []types.DuplicateGroup{}
		for key, ids := range byKey {
			if len(ids) < 2 {
				continue
			}
			slices.Sort(ids)
			groups = append(groups, types.DuplicateGroup{Key: key, PhotoIDs: ids})
		}
		slices.SortFunc(groups, func(a, b types.DuplicateGroup) int {
			return cmp.Or(
				cmp.Compare(a.Key.FileSize, b.Key.FileSize),
				cmp.Compare(a.Key.Width, b.Key.Width),
				cmp.Compare(a.Key.Height, b.Key.Height),
			)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// OrganizeByDate files photos into date albums. With no ids every photo is
// organized. Cancellation is honored between batches.
func (s *Service) OrganizeByDate(ctx context.Context, photoIDs []string) (result *types.OrganizeResult, err error) {
	defer observe("OrganizeByDate", time.Now(), &err)
	if len(photoIDs) == 0 {
		result, err = s.organizer.OrganizeAll(ctx)
	} else {
		result, err = s.organizer.OrganizePhotos(ctx, photoIDs)
	}
	if err != nil {
		return result, wrap("OrganizeByDate", err)
	}
	return result, nil
}
