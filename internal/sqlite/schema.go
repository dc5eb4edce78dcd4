package sqlite

// Schema DDL for all tables. Timestamps are fixed-width UTC TEXT (see
// timeLayout) so that lexical order is chronological order.
const (
	createPhotos = `CREATE TABLE photos (
    photo_id TEXT PRIMARY KEY,
    file_name TEXT NOT NULL,
    file_path TEXT NOT NULL DEFAULT '',
    file_size INTEGER NOT NULL DEFAULT 0,
    mime_type TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    date_taken TEXT NOT NULL,
    date_added TEXT NOT NULL,
    date_modified TEXT NOT NULL,
    camera TEXT NOT NULL DEFAULT '',
    latitude REAL,
    longitude REAL,
    caption TEXT NOT NULL DEFAULT '',
    thumbnail TEXT NOT NULL DEFAULT '',
    search_text TEXT NOT NULL DEFAULT ''
);`

	createAlbums = `CREATE TABLE albums (
    album_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    name_key TEXT NOT NULL,
    album_type TEXT NOT NULL,
    year INTEGER NOT NULL DEFAULT 0,
    month INTEGER NOT NULL DEFAULT 0,
    sort_key INTEGER NOT NULL DEFAULT 0,
    cover_photo_id TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    photo_count INTEGER NOT NULL DEFAULT 0,
    date_created TEXT NOT NULL,
    date_modified TEXT NOT NULL
);`

	createAlbumPhotos = `CREATE TABLE album_photos (
    album_id TEXT NOT NULL,
    photo_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (album_id, photo_id)
);`

	createTags = `CREATE TABLE tags (
    tag_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    photo_count INTEGER NOT NULL DEFAULT 0,
    date_created TEXT NOT NULL,
    date_last_used TEXT NOT NULL
);`

	createPhotoTags = `CREATE TABLE photo_tags (
    photo_id TEXT NOT NULL,
    tag_name TEXT NOT NULL,
    PRIMARY KEY (photo_id, tag_name)
);`

	createAlbumLayouts = `CREATE TABLE album_layouts (
    layout_id TEXT PRIMARY KEY,
    album_ids TEXT NOT NULL DEFAULT '[]',
    columns INTEGER NOT NULL,
    view_mode TEXT NOT NULL,
    sort_key TEXT NOT NULL DEFAULT '',
    sort_order TEXT NOT NULL DEFAULT '',
    date_modified TEXT NOT NULL
);`

	createPhotoLayouts = `CREATE TABLE photo_layouts (
    album_id TEXT PRIMARY KEY,
    photo_ids TEXT NOT NULL DEFAULT '[]',
    columns INTEGER NOT NULL,
    view_mode TEXT NOT NULL,
    sort_key TEXT NOT NULL DEFAULT '',
    sort_order TEXT NOT NULL DEFAULT '',
    date_modified TEXT NOT NULL
);`

	createSettings = `CREATE TABLE settings (
    settings_id TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`
)

// Index DDL. The two partial unique indexes back date-key uniqueness and
// case-insensitive custom album name uniqueness.
const (
	idxPhotosDateTaken  = `CREATE INDEX idx_photos_date_taken ON photos(date_taken, photo_id);`
	idxPhotosDateAdded  = `CREATE INDEX idx_photos_date_added ON photos(date_added, photo_id);`
	idxPhotosFileName   = `CREATE INDEX idx_photos_file_name ON photos(file_name, photo_id);`
	idxPhotosDuplicate  = `CREATE INDEX idx_photos_duplicate ON photos(file_size, width, height);`
	idxAlbumPhotosPhoto = `CREATE INDEX idx_album_photos_photo ON album_photos(photo_id);`
	idxAlbumPhotosOrder = `CREATE INDEX idx_album_photos_order ON album_photos(album_id, position);`
	idxPhotoTagsTag     = `CREATE INDEX idx_photo_tags_tag ON photo_tags(tag_name);`
	idxAlbumsType       = `CREATE INDEX idx_albums_type ON albums(album_type);`
	idxAlbumsPosition   = `CREATE INDEX idx_albums_position ON albums(position);`
	idxAlbumsDateKey    = `CREATE UNIQUE INDEX idx_albums_date_key ON albums(year, month) WHERE album_type = 'date';`
	idxAlbumsCustomName = `CREATE UNIQUE INDEX idx_albums_custom_name ON albums(name_key) WHERE album_type = 'custom';`
	idxTagsPhotoCount   = `CREATE INDEX idx_tags_photo_count ON tags(photo_count);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createPhotos,
	createAlbums,
	createAlbumPhotos,
	createTags,
	createPhotoTags,
	createAlbumLayouts,
	createPhotoLayouts,
	createSettings,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPhotosDateTaken,
	idxPhotosDateAdded,
	idxPhotosFileName,
	idxPhotosDuplicate,
	idxAlbumPhotosPhoto,
	idxAlbumPhotosOrder,
	idxPhotoTagsTag,
	idxAlbumsType,
	idxAlbumsPosition,
	idxAlbumsDateKey,
	idxAlbumsCustomName,
	idxTagsPhotoCount,
}
