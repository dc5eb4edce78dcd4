package shoebox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Backup stream format. The first line is a manifest; every following line
// is one record tagged with its kind. Records are written in a fixed order
// (settings, tags by name, photos by id, albums by position, the album
// layout, photo layouts by album id), so exporting an unchanged library
// twice yields identical bytes.
const (
	BackupFormat  = "shoebox-backup"
	BackupVersion = "1.0"

	maxBackupLine = 64 << 20
)

// Record kinds.
const (
	KindManifest    = "manifest"
	KindSettings    = "settings"
	KindTag         = "tag"
	KindPhoto       = "photo"
	KindAlbum       = "album"
	KindAlbumLayout = "album_layout"
	KindPhotoLayout = "photo_layout"
)

// Manifest describes a backup stream.
type Manifest struct {
	Kind    string       `json:"kind"`
	Format  string       `json:"format"`
	Version string       `json:"version"`
	Counts  BackupCounts `json:"counts"`
}

// BackupCounts lists the records of each kind in a backup.
type BackupCounts struct {
	Settings     int `json:"settings"`
	Tags         int `json:"tags"`
	Photos       int `json:"photos"`
	Albums       int `json:"albums"`
	AlbumLayouts int `json:"album_layouts"`
	PhotoLayouts int `json:"photo_layouts"`
}

type record struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// snapshot is the full library content, in export order.
type snapshot struct {
	settings     []*types.Settings
	tags         []*types.Tag
	photos       []*types.Photo
	albums       []*types.Album
	albumLayouts []*types.AlbumLayout
	photoLayouts []*types.PhotoLayout
}

func (sn *snapshot) counts() BackupCounts {
	return BackupCounts{
		Settings:     len(sn.settings),
		Tags:         len(sn.tags),
		Photos:       len(sn.photos),
		Albums:       len(sn.albums),
		AlbumLayouts: len(sn.albumLayouts),
		PhotoLayouts: len(sn.photoLayouts),
	}
}

// recordWriter writes one JSON record per line and counts them.
type recordWriter struct {
	enc   *json.Encoder
	count int
}

func (w *recordWriter) write(kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}
	if err := w.enc.Encode(record{Kind: kind, Data: data}); err != nil {
		return err
	}
	w.count++
	return nil
}

// Export writes the whole library to w as a backup stream.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	var sn snapshot
	if err := s.view(ctx, "Export", func(tx types.Tx) error {
		return sn.load(tx)
	}); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Manifest{Kind: KindManifest, Format: BackupFormat, Version: BackupVersion, Counts: sn.counts()}); err != nil {
		return wrap("Export", err)
	}
	rw := &recordWriter{enc: enc}
	if err := sn.write(rw); err != nil {
		return wrap("Export", err)
	}
	if err := bw.Flush(); err != nil {
		return wrap("Export", err)
	}
	s.log.InfoContext(ctx, "library exported", "records", rw.count)
	return nil
}

func (sn *snapshot) load(tx types.Tx) error {
	var err error
	if sn.settings, err = fetchAll[*types.Settings](tx, types.SettingsTable, nil); err != nil {
		return err
	}
	if sn.tags, err = consistency.FetchTags(tx, types.Filter{types.FilterSort: types.SortName}); err != nil {
		return err
	}
	if sn.photos, err = consistency.FetchPhotos(tx, nil); err != nil {
		return err
	}
	slices.SortFunc(sn.photos, func(a, b *types.Photo) int { return strings.Compare(a.PhotoID, b.PhotoID) })
	if sn.albums, err = consistency.FetchAlbums(tx, types.Filter{types.FilterSort: types.SortPosition}); err != nil {
		return err
	}
	if sn.albumLayouts, err = fetchAll[*types.AlbumLayout](tx, types.AlbumLayoutsTable, nil); err != nil {
		return err
	}
	sn.photoLayouts, err = fetchAll[*types.PhotoLayout](tx, types.PhotoLayoutsTable, nil)
	return err
}

func (sn *snapshot) write(rw *recordWriter) error {
	for _, v := range sn.settings {
		if err := rw.write(KindSettings, v); err != nil {
			return err
		}
	}
	for _, v := range sn.tags {
		if err := rw.write(KindTag, v); err != nil {
			return err
		}
	}
	for _, v := range sn.photos {
		if err := rw.write(KindPhoto, v); err != nil {
			return err
		}
	}
	for _, v := range sn.albums {
		if err := rw.write(KindAlbum, v); err != nil {
			return err
		}
	}
	for _, v := range sn.albumLayouts {
		if err := rw.write(KindAlbumLayout, v); err != nil {
			return err
		}
	}
	for _, v := range sn.photoLayouts {
		if err := rw.write(KindPhotoLayout, v); err != nil {
			return err
		}
	}
	return nil
}

func fetchAll[T any](tx types.Tx, name string, filter types.Filter) ([]T, error) {
	tbl, err := tx.Table(name)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Fetch(filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, ok := r.(T)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected %T: %w", name, r, types.ErrInvalidData)
		}
		out = append(out, v)
	}
	return out, nil
}

// Restore replaces the library with the content of a backup stream. The
// whole stream is read and checked first: a bad manifest, an unknown
// record kind, a malformed record or a broken cross-reference fails with
// ErrCorruption and leaves the library untouched. The replacement then
// happens in one update.
func (s *Service) Restore(ctx context.Context, r io.Reader) (*types.RestoreSummary, error) {
	sn, err := s.readBackup(r)
	if err != nil {
		return nil, err
	}
	if err := s.verify(sn); err != nil {
		return nil, err
	}

	err = s.update(ctx, "Restore", func(tx types.Tx) error {
		if err := tx.Clear(); err != nil {
			return err
		}
		return s.replay(ctx, tx, sn)
	})
	if err != nil {
		return nil, err
	}
	summary := &types.RestoreSummary{
		Photos:       len(sn.photos),
		Albums:       len(sn.albums),
		Tags:         len(sn.tags),
		PhotoLayouts: len(sn.photoLayouts),
	}
	s.log.InfoContext(ctx, "library restored",
		"photos", summary.Photos, "albums", summary.Albums, "tags", summary.Tags)
	return summary, nil
}

func corrupt(line int, format string, args ...any) error {
	return fmt.Errorf("backup line %d: %s: %w", line, fmt.Sprintf(format, args...), types.ErrCorruption)
}

func (s *Service) readBackup(r io.Reader) (*snapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxBackupLine)

	sn := &snapshot{}
	var manifest *Manifest
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if manifest == nil {
			manifest = &Manifest{}
			if err := json.Unmarshal(raw, manifest); err != nil || manifest.Kind != KindManifest {
				return nil, corrupt(line, "missing manifest")
			}
			if manifest.Format != BackupFormat {
				return nil, corrupt(line, "unknown format %q", manifest.Format)
			}
			if major, _, _ := strings.Cut(manifest.Version, "."); major != "1" {
				return nil, corrupt(line, "unsupported version %q", manifest.Version)
			}
			continue
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, corrupt(line, "malformed record")
		}
		if err := sn.add(rec); err != nil {
			return nil, corrupt(line, "%v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading backup: %v: %w", err, types.ErrCorruption)
	}
	if manifest == nil {
		return nil, fmt.Errorf("empty backup: %w", types.ErrCorruption)
	}
	if got := sn.counts(); got != manifest.Counts {
		return nil, fmt.Errorf("backup counts %+v do not match manifest %+v: %w", got, manifest.Counts, types.ErrCorruption)
	}
	return sn, nil
}

func (sn *snapshot) add(rec record) error {
	switch rec.Kind {
	case KindSettings:
		return decodeInto(rec, &sn.settings, types.DefaultSettings())
	case KindTag:
		return decodeInto(rec, &sn.tags, &types.Tag{})
	case KindPhoto:
		return decodeInto(rec, &sn.photos, &types.Photo{})
	case KindAlbum:
		return decodeInto(rec, &sn.albums, &types.Album{})
	case KindAlbumLayout:
		return decodeInto(rec, &sn.albumLayouts, &types.AlbumLayout{})
	case KindPhotoLayout:
		return decodeInto(rec, &sn.photoLayouts, &types.PhotoLayout{})
	default:
		return fmt.Errorf("unknown record kind %q", rec.Kind)
	}
}

func decodeInto[T any](rec record, into *[]T, v T) error {
	if len(rec.Data) == 0 {
		return fmt.Errorf("%s record without data", rec.Kind)
	}
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return fmt.Errorf("decoding %s: %v", rec.Kind, err)
	}
	*into = append(*into, v)
	return nil
}

// verify checks the snapshot's entities and cross-references.
func (s *Service) verify(sn *snapshot) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("backup: %s: %w", fmt.Sprintf(format, args...), types.ErrCorruption)
	}
	if len(sn.settings) > 1 {
		return bad("more than one settings record")
	}
	for _, st := range sn.settings {
		if err := s.check(st); err != nil {
			return bad("settings: %v", err)
		}
	}
	if len(sn.albumLayouts) > 1 {
		return bad("more than one album layout")
	}

	tagNames := map[string]bool{}
	for _, t := range sn.tags {
		name := types.NormalizeTagName(t.Name)
		if t.TagID == "" || name == "" || tagNames[name] {
			return bad("tag %q: missing id or duplicate name", t.Name)
		}
		tagNames[name] = true
	}

	photos := make(map[string]*types.Photo, len(sn.photos))
	for _, p := range sn.photos {
		if p.PhotoID == "" || photos[p.PhotoID] != nil {
			return bad("photo %q: missing or duplicate id", p.PhotoID)
		}
		if err := s.check(p); err != nil {
			return bad("photo %s: %v", p.PhotoID, err)
		}
		photos[p.PhotoID] = p
	}

	albums := make(map[string]*types.Album, len(sn.albums))
	dateKeys := map[types.DateKey]bool{}
	names := map[string]bool{}
	members := map[string]map[string]bool{}
	for _, a := range sn.albums {
		if a.AlbumID == "" || albums[a.AlbumID] != nil {
			return bad("album %q: missing or duplicate id", a.AlbumID)
		}
		switch a.Type {
		case types.AlbumTypeDate:
			if err := a.DateKey().Validate(); err != nil || dateKeys[a.DateKey()] {
				return bad("album %s: invalid or duplicate date key %s", a.AlbumID, a.DateKey())
			}
			dateKeys[a.DateKey()] = true
		case types.AlbumTypeCustom:
			key := types.FoldName(a.Name)
			if key == "" || names[key] {
				return bad("album %s: missing or duplicate name %q", a.AlbumID, a.Name)
			}
			names[key] = true
		default:
			return bad("album %s: unknown type %q", a.AlbumID, a.Type)
		}
		set := make(map[string]bool, len(a.PhotoIDs))
		for _, id := range a.PhotoIDs {
			p := photos[id]
			if p == nil || set[id] {
				return bad("album %s: missing or repeated photo %s", a.AlbumID, id)
			}
			if !p.InAlbum(a.AlbumID) {
				return bad("album %s lists photo %s, which does not list the album", a.AlbumID, id)
			}
			set[id] = true
		}
		if a.CoverPhotoID != "" && !set[a.CoverPhotoID] {
			return bad("album %s: cover %s is not a member", a.AlbumID, a.CoverPhotoID)
		}
		albums[a.AlbumID] = a
		members[a.AlbumID] = set
	}
	for _, p := range sn.photos {
		for _, id := range p.AlbumIDs {
			if !members[id][p.PhotoID] {
				return bad("photo %s lists album %s, which does not list the photo", p.PhotoID, id)
			}
		}
	}

	for _, l := range sn.albumLayouts {
		for _, id := range l.AlbumIDs {
			if albums[id] == nil {
				return bad("album layout lists missing album %s", id)
			}
		}
	}
	layouts := map[string]bool{}
	for _, l := range sn.photoLayouts {
		if albums[l.AlbumID] == nil || layouts[l.AlbumID] {
			return bad("photo layout for missing or repeated album %s", l.AlbumID)
		}
		layouts[l.AlbumID] = true
		for _, id := range l.PhotoIDs {
			if !members[l.AlbumID][id] {
				return bad("photo layout of album %s lists non-member %s", l.AlbumID, id)
			}
		}
	}
	return nil
}

// replay writes a verified snapshot into an empty store and recounts it.
func (s *Service) replay(ctx context.Context, tx types.Tx, sn *snapshot) error {
	for _, st := range sn.settings {
		if _, err := consistency.Put(tx, types.SettingsTable, types.SettingsID, st); err != nil {
			return err
		}
	}
	change := consistency.Change{AlbumSetChanged: true}
	for _, t := range sn.tags {
		if _, err := consistency.Put(tx, types.TagsTable, t.TagID, t); err != nil {
			return err
		}
		change.Tags = append(change.Tags, t.Name)
	}
	for _, p := range sn.photos {
		if _, err := consistency.Put(tx, types.PhotosTable, p.PhotoID, p); err != nil {
			return err
		}
		change.Tags = append(change.Tags, p.Tags...)
	}
	for _, a := range sn.albums {
		order := a.PhotoIDs
		if _, err := consistency.Put(tx, types.AlbumsTable, a.AlbumID, a); err != nil {
			return err
		}
		if err := tx.SetAlbumPhotos(a.AlbumID, order); err != nil {
			return err
		}
		change.Albums = append(change.Albums, a.AlbumID)
	}
	for _, l := range sn.albumLayouts {
		if _, err := consistency.Put(tx, types.AlbumLayoutsTable, types.MainLayoutID, l); err != nil {
			return err
		}
	}
	for _, l := range sn.photoLayouts {
		if _, err := consistency.Put(tx, types.PhotoLayoutsTable, l.AlbumID, l); err != nil {
			return err
		}
	}
	s.maint.Apply(ctx, tx, change)
	return nil
}
