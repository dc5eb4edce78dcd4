package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

var _ types.Table = (*photosTable)(nil)

const photoColumns = `p.photo_id, p.file_name, p.file_path, p.file_size, p.mime_type, p.width, p.height,
p.date_taken, p.date_added, p.date_modified, p.camera, p.latitude, p.longitude, p.caption, p.thumbnail`

// photosTable implements types.Table for photos. Tags are written to
// photo_tags on Set; AlbumIDs are read from album_photos and never written.
type photosTable struct {
	tx *tx
}

// Get retrieves a photo by ID with its tags and albums hydrated.
func (pt *photosTable) Get(id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := pt.tx.queryRow("SELECT "+photoColumns+" FROM photos p WHERE p.photo_id = ?", id)
	p, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("photo %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting photo %s: %w", id, err)
	}
	if err := pt.hydrate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Set creates or updates a photo. An empty id creates a photo with a new
// UUID v7. Zero timestamps are filled in; tags are normalized and replace
// the stored set.
func (pt *photosTable) Set(id string, data any) (string, error) {
	p, ok := data.(*types.Photo)
	if !ok || p == nil {
		return "", types.ErrInvalidData
	}
	if err := pt.tx.checkWritable(); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.FileName) == "" {
		return "", types.NewValidationError("fileName", "is required")
	}

	now := pt.tx.backend.now()
	if id == "" {
		id = generateUUID()
	}
	p.PhotoID = id
	if p.DateAdded.IsZero() {
		p.DateAdded = now
	}
	if p.DateModified.IsZero() {
		p.DateModified = p.DateAdded
	}
	if p.DateTaken.IsZero() {
		p.DateTaken = p.DateAdded
	}
	p.SetTags(p.Tags)

	var lat, lon sql.NullFloat64
	if p.Location != nil {
		lat = sql.NullFloat64{Float64: p.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: p.Location.Longitude, Valid: true}
	}
	search := lowerText(p.FileName + "\n" + p.Caption)

	exists, err := pt.tx.exists("SELECT 1 FROM photos WHERE photo_id = ?", id)
	if err != nil {
		return "", err
	}
	if exists {
		_, err = pt.tx.exec(`UPDATE photos SET file_name = ?, file_path = ?, file_size = ?, mime_type = ?,
width = ?, height = ?, date_taken = ?, date_added = ?, date_modified = ?, camera = ?,
latitude = ?, longitude = ?, caption = ?, thumbnail = ?, search_text = ? WHERE photo_id = ?`,
			p.FileName, p.FilePath, p.FileSize, p.MimeType, p.Width, p.Height,
			formatTime(p.DateTaken), formatTime(p.DateAdded), formatTime(p.DateModified), p.Camera,
			lat, lon, p.Caption, p.Thumbnail, search, id)
	} else {
		_, err = pt.tx.exec(`INSERT INTO photos (photo_id, file_name, file_path, file_size, mime_type,
width, height, date_taken, date_added, date_modified, camera, latitude, longitude, caption,
thumbnail, search_text) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.FileName, p.FilePath, p.FileSize, p.MimeType, p.Width, p.Height,
			formatTime(p.DateTaken), formatTime(p.DateAdded), formatTime(p.DateModified), p.Camera,
			lat, lon, p.Caption, p.Thumbnail, search)
	}
	if err != nil {
		return "", fmt.Errorf("persisting photo: %w", err)
	}

	if _, err := pt.tx.exec("DELETE FROM photo_tags WHERE photo_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing tags of photo %s: %w", id, err)
	}
	for _, name := range p.Tags {
		if _, err := pt.tx.exec("INSERT INTO photo_tags (photo_id, tag_name) VALUES (?, ?)", id, name); err != nil {
			return "", fmt.Errorf("tagging photo %s: %w", id, err)
		}
	}
	pt.tx.markDirty("photos", "photo_tags")

	albumIDs, err := pt.tx.PhotoAlbumIDs(id)
	if err != nil {
		return "", err
	}
	p.AlbumIDs = albumIDs
	return id, nil
}

// Delete removes a photo with its tag and album relation rows.
func (pt *photosTable) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if err := pt.tx.checkWritable(); err != nil {
		return err
	}
	exists, err := pt.tx.exists("SELECT 1 FROM photos WHERE photo_id = ?", id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("photo %s: %w", id, types.ErrNotFound)
	}

	if _, err := pt.tx.exec("DELETE FROM photo_tags WHERE photo_id = ?", id); err != nil {
		return fmt.Errorf("deleting photo tags: %w", err)
	}
	if _, err := pt.tx.exec("DELETE FROM album_photos WHERE photo_id = ?", id); err != nil {
		return fmt.Errorf("deleting photo memberships: %w", err)
	}
	if _, err := pt.tx.exec("DELETE FROM photos WHERE photo_id = ?", id); err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	pt.tx.markDirty("photos", "photo_tags", "album_photos")
	return nil
}

// Fetch returns photos matching the filter; see buildPhotoQuery.
func (pt *photosTable) Fetch(filter types.Filter) ([]any, error) {
	query, args, err := buildPhotoQuery(filter, false)
	if err != nil {
		return nil, err
	}
	rows, err := pt.tx.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching photos: %w", err)
	}

	var photos []*types.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("hydrating photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating photos: %w", err)
	}
	rows.Close()

	results := make([]any, 0, len(photos))
	for _, p := range photos {
		if err := pt.hydrate(p); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, nil
}

// Count returns the number of photos matching the filter.
func (pt *photosTable) Count(filter types.Filter) (int, error) {
	query, args, err := buildPhotoQuery(filter, true)
	if err != nil {
		return 0, err
	}
	return pt.tx.queryInt(query, args...)
}

// hydrate loads the photo's tags and albums.
func (pt *photosTable) hydrate(p *types.Photo) error {
	tags, err := pt.tx.queryStrings("SELECT tag_name FROM photo_tags WHERE photo_id = ? ORDER BY tag_name", p.PhotoID)
	if err != nil {
		return fmt.Errorf("hydrating tags for photo %s: %w", p.PhotoID, err)
	}
	albums, err := pt.tx.PhotoAlbumIDs(p.PhotoID)
	if err != nil {
		return fmt.Errorf("hydrating albums for photo %s: %w", p.PhotoID, err)
	}
	p.Tags = tags
	p.AlbumIDs = albums
	return nil
}

// scanPhoto reads one row selected with photoColumns.
func scanPhoto(row rowScanner) (*types.Photo, error) {
	var (
		p                      types.Photo
		taken, added, modified string
		lat, lon               sql.NullFloat64
	)
	if err := row.Scan(&p.PhotoID, &p.FileName, &p.FilePath, &p.FileSize, &p.MimeType,
		&p.Width, &p.Height, &taken, &added, &modified, &p.Camera, &lat, &lon,
		&p.Caption, &p.Thumbnail); err != nil {
		return nil, err
	}
	var err error
	if p.DateTaken, err = parseTime(taken); err != nil {
		return nil, err
	}
	if p.DateAdded, err = parseTime(added); err != nil {
		return nil, err
	}
	if p.DateModified, err = parseTime(modified); err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		p.Location = &types.GeoPoint{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return &p, nil
}
