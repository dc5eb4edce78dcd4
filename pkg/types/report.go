package types

import (
	"fmt"
	"time"
)

// Health issue kinds.
const (
	IssueAlbumCount         = "album_count"          // Album.PhotoCount differs from membership.
	IssueTagCount           = "tag_count"            // Tag.PhotoCount differs from tagged photos.
	IssueDanglingCover      = "dangling_cover"       // Cover photo is not a member.
	IssueDuplicateDateKey   = "duplicate_date_key"   // Two date albums share a key.
	IssueDuplicateAlbumName = "duplicate_album_name" // Two custom albums share a folded name.
	IssueDanglingMembership = "dangling_membership"  // Relation row references a missing photo or album.
	IssueDanglingTagLink    = "dangling_tag_link"    // Tag row references a missing photo.
	IssueMissingTag         = "missing_tag"          // Tag in use with no tag record.
	IssueLayoutReference    = "layout_reference"     // Layout lists an id that no longer applies.
	IssueOrphanPhotoLayout  = "orphan_photo_layout"  // PhotoLayout for a deleted album.
	IssueUnusedTag          = "unused_tag"           // Tag with zero photos; informational.
)

// HealthIssue is one finding of a health check.
type HealthIssue struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entityId"`
	Detail   string `json:"detail"`
	Info     bool   `json:"info,omitempty"`     // Informational; not an invariant violation.
	Repaired bool   `json:"repaired,omitempty"` // Corrected by a repairing check.
}

// HealthReport is the result of a health check.
type HealthReport struct {
	CheckedAt time.Time     `json:"checkedAt"`
	Photos    int           `json:"photos"`
	Albums    int           `json:"albums"`
	Tags      int           `json:"tags"`
	Issues    []HealthIssue `json:"issues"`
}

// Unresolved returns the issues that are neither informational nor repaired.
func (r *HealthReport) Unresolved() []HealthIssue {
	var out []HealthIssue
	for _, is := range r.Issues {
		if !is.Info && !is.Repaired {
			out = append(out, is)
		}
	}
	return out
}

// Healthy reports whether no unresolved issue remains.
func (r *HealthReport) Healthy() bool {
	return len(r.Unresolved()) == 0
}

// Err returns an error wrapping ErrCorruption when unresolved issues remain.
func (r *HealthReport) Err() error {
	if n := len(r.Unresolved()); n > 0 {
		return fmt.Errorf("%d unresolved issue(s), first %s on %s: %w",
			n, r.Unresolved()[0].Kind, r.Unresolved()[0].EntityID, ErrCorruption)
	}
	return nil
}

// AlbumStats summarizes one album.
type AlbumStats struct {
	AlbumID       string         `json:"albumId"`
	PhotoCount    int            `json:"photoCount"`
	TotalBytes    int64          `json:"totalBytes"`
	EarliestTaken *time.Time     `json:"earliestTaken,omitempty"`
	LatestTaken   *time.Time     `json:"latestTaken,omitempty"`
	MimeTypes     map[string]int `json:"mimeTypes"`
	TopTags       []TagCount     `json:"topTags"`
}

// TagCount pairs a tag with a count.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StorageStats summarizes the whole library.
type StorageStats struct {
	Photos       int   `json:"photos"`
	Albums       int   `json:"albums"`
	DateAlbums   int   `json:"dateAlbums"`
	CustomAlbums int   `json:"customAlbums"`
	Tags         int   `json:"tags"`
	PhotoBytes   int64 `json:"photoBytes"` // Sum of Photo.FileSize.
	Usage        Usage `json:"usage"`
}

// OrganizeResult reports an auto-organize run.
type OrganizeResult struct {
	Processed     int      `json:"processed"`
	Attached      int      `json:"attached"`
	AlbumsCreated []string `json:"albumsCreated"`
	Cancelled     bool     `json:"cancelled"`
}

// DuplicateKey is the heuristic identity used by duplicate detection.
type DuplicateKey struct {
	FileSize int64 `json:"fileSize"`
	Width    int   `json:"width"`
	Height   int   `json:"height"`
}

// DuplicateGroup is a set of photos sharing a DuplicateKey. Detection is
// best-effort: equal keys do not prove equal content.
type DuplicateGroup struct {
	Key      DuplicateKey `json:"key"`
	PhotoIDs []string     `json:"photoIds"`
}

// Rejection records a file that was not imported.
type Rejection struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// ImportResult reports an import run.
type ImportResult struct {
	Imported  []*Photo        `json:"imported"`
	Rejected  []Rejection     `json:"rejected"`
	Organized *OrganizeResult `json:"organized,omitempty"`
	Cancelled bool            `json:"cancelled"`
}

// RestoreSummary reports a restore run.
type RestoreSummary struct {
	Photos       int `json:"photos"`
	Albums       int `json:"albums"`
	Tags         int `json:"tags"`
	PhotoLayouts int `json:"photoLayouts"`
}
