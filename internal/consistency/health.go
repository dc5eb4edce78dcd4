package consistency

import (
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Check scans the store for invariant violations. With repair set, derived
// caches (counts, covers, tag records, layouts) are corrected in tx and the
// matching issues are marked Repaired; the album/photo and photo/tag
// relations themselves are never changed. repair requires an Update.
func (m *Maintainer) Check(ctx context.Context, tx types.Tx, repair bool) (*types.HealthReport, error) {
	report := &types.HealthReport{CheckedAt: m.now(), Issues: []types.HealthIssue{}}

	photos, err := FetchPhotos(tx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading photos: %w", err)
	}
	albums, err := FetchAlbums(tx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading albums: %w", err)
	}
	tags, err := FetchTags(tx, nil)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	memberships, err := tx.Memberships()
	if err != nil {
		return nil, err
	}
	links, err := tx.TagLinks()
	if err != nil {
		return nil, err
	}
	report.Photos, report.Albums, report.Tags = len(photos), len(albums), len(tags)

	photoIDs := make(map[string]bool, len(photos))
	for _, p := range photos {
		photoIDs[p.PhotoID] = true
	}
	albumByID := make(map[string]*types.Album, len(albums))
	for _, a := range albums {
		albumByID[a.AlbumID] = a
	}

	add := func(issue types.HealthIssue) {
		report.Issues = append(report.Issues, issue)
	}

	// Relation rows pointing at missing entities.
	for _, ms := range memberships {
		if !photoIDs[ms.PhotoID] || albumByID[ms.AlbumID] == nil {
			add(types.HealthIssue{Kind: types.IssueDanglingMembership, EntityID: ms.AlbumID,
				Detail: fmt.Sprintf("membership of photo %s in album %s references a missing entity", ms.PhotoID, ms.AlbumID)})
		}
	}
	tagUse := map[string]int{}
	for _, l := range links {
		if !photoIDs[l.PhotoID] {
			add(types.HealthIssue{Kind: types.IssueDanglingTagLink, EntityID: l.PhotoID,
				Detail: fmt.Sprintf("tag %q is attached to missing photo %s", l.TagName, l.PhotoID)})
			continue
		}
		tagUse[l.TagName]++
	}

	// Uniqueness.
	dateKeys := map[types.DateKey]string{}
	customNames := map[string]string{}
	for _, a := range albums {
		if a.IsDate() {
			if other, ok := dateKeys[a.DateKey()]; ok {
				add(types.HealthIssue{Kind: types.IssueDuplicateDateKey, EntityID: a.AlbumID,
					Detail: fmt.Sprintf("date key %s also held by album %s", a.DateKey(), other)})
			}
			dateKeys[a.DateKey()] = a.AlbumID
			continue
		}
		key := types.FoldName(a.Name)
		if other, ok := customNames[key]; ok {
			add(types.HealthIssue{Kind: types.IssueDuplicateAlbumName, EntityID: a.AlbumID,
				Detail: fmt.Sprintf("name %q also held by album %s", a.Name, other)})
		}
		customNames[key] = a.AlbumID
	}

	// Album caches.
	for _, a := range albums {
		count, err := tx.CountAlbumPhotos(a.AlbumID)
		if err != nil {
			return nil, err
		}
		fixed := false
		if a.PhotoCount != count {
			add(types.HealthIssue{Kind: types.IssueAlbumCount, EntityID: a.AlbumID, Repaired: repair,
				Detail: fmt.Sprintf("photoCount %d, members %d", a.PhotoCount, count)})
			a.PhotoCount = count
			fixed = true
		}
		if a.CoverPhotoID != "" && !slices.Contains(a.PhotoIDs, a.CoverPhotoID) {
			add(types.HealthIssue{Kind: types.IssueDanglingCover, EntityID: a.AlbumID, Repaired: repair,
				Detail: fmt.Sprintf("cover %s is not a member", a.CoverPhotoID)})
			a.CoverPhotoID = fixCover(a.CoverPhotoID, a.PhotoIDs)
			fixed = true
		}
		if fixed && repair {
			a.DateModified = m.now()
			if _, err := Put(tx, types.AlbumsTable, a.AlbumID, a); err != nil {
				return nil, fmt.Errorf("repairing album %s: %w", a.AlbumID, err)
			}
		}
	}

	// Tag caches.
	known := map[string]bool{}
	for _, t := range tags {
		known[t.Name] = true
		count := tagUse[t.Name]
		if t.PhotoCount != count {
			add(types.HealthIssue{Kind: types.IssueTagCount, EntityID: t.TagID, Repaired: repair,
				Detail: fmt.Sprintf("tag %q photoCount %d, tagged photos %d", t.Name, t.PhotoCount, count)})
			if repair {
				t.PhotoCount = count
				if _, err := Put(tx, types.TagsTable, t.TagID, t); err != nil {
					return nil, fmt.Errorf("repairing tag %s: %w", t.Name, err)
				}
			}
		}
		if count == 0 {
			add(types.HealthIssue{Kind: types.IssueUnusedTag, EntityID: t.TagID, Info: true,
				Detail: fmt.Sprintf("tag %q has no photos", t.Name)})
		}
	}
	missing := make([]string, 0)
	for name := range tagUse {
		if !known[name] {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	for _, name := range missing {
		add(types.HealthIssue{Kind: types.IssueMissingTag, EntityID: name, Repaired: repair,
			Detail: fmt.Sprintf("tag %q is used by %d photo(s) but has no record", name, tagUse[name])})
		if repair {
			now := m.now()
			t := &types.Tag{Name: name, DisplayName: name, PhotoCount: tagUse[name], DateCreated: now, DateLastUsed: now}
			if _, err := Put(tx, types.TagsTable, "", t); err != nil {
				return nil, fmt.Errorf("repairing tag %s: %w", name, err)
			}
		}
	}

	if err := m.checkLayouts(tx, albumByID, repair, add); err != nil {
		return nil, err
	}

	for _, issue := range report.Issues {
		metrics.HealthIssues.WithLabelValues(issue.Kind).Inc()
		if !issue.Info {
			m.log.InfoContext(ctx, "health issue", "kind", issue.Kind, "entity", issue.EntityID,
				"detail", issue.Detail, "repaired", issue.Repaired)
		}
	}
	return report, nil
}

// checkLayouts reports layouts that list ids which no longer apply and photo
// layouts of deleted albums.
func (m *Maintainer) checkLayouts(tx types.Tx, albumByID map[string]*types.Album, repair bool, add func(types.HealthIssue)) error {
	main, err := fetch[*types.AlbumLayout](tx, types.AlbumLayoutsTable, nil)
	if err != nil {
		return err
	}
	for _, l := range main {
		for _, id := range l.AlbumIDs {
			if albumByID[id] == nil {
				add(types.HealthIssue{Kind: types.IssueLayoutReference, EntityID: l.LayoutID, Repaired: repair,
					Detail: fmt.Sprintf("album layout lists missing album %s", id)})
			}
		}
	}
	if repair && len(main) > 0 {
		if err := m.syncAlbumLayout(tx); err != nil {
			return err
		}
	}

	layouts, err := fetch[*types.PhotoLayout](tx, types.PhotoLayoutsTable, nil)
	if err != nil {
		return err
	}
	for _, l := range layouts {
		a := albumByID[l.AlbumID]
		if a == nil {
			add(types.HealthIssue{Kind: types.IssueOrphanPhotoLayout, EntityID: l.AlbumID, Repaired: repair,
				Detail: "photo layout of a deleted album"})
			if repair {
				if err := Remove(tx, types.PhotoLayoutsTable, l.AlbumID); err != nil {
					return err
				}
			}
			continue
		}
		stale := false
		for _, id := range l.PhotoIDs {
			if !a.Contains(id) {
				stale = true
				add(types.HealthIssue{Kind: types.IssueLayoutReference, EntityID: l.AlbumID, Repaired: repair,
					Detail: fmt.Sprintf("photo layout lists non-member %s", id)})
			}
		}
		if stale && repair {
			if err := m.syncPhotoLayout(tx, l.AlbumID, a.PhotoIDs); err != nil {
				return err
			}
		}
	}
	return nil
}
