// Unit tests for JSONL loading with forward compatibility.
package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func TestLoadJSONLUnknownFields(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		jsonl    string
		checkSQL string
		checkVal string
	}{
		{
			name:     "photos with unknown fields load",
			file:     photosJSONL,
			jsonl:    `{"photo_id":"p-001","file_name":"a.jpg","date_taken":"2024-06-01T00:00:00.000000000Z","date_added":"2024-06-02T00:00:00.000000000Z","date_modified":"2024-06-02T00:00:00.000000000Z","exif_blob":"ignored"}`,
			checkSQL: "SELECT file_name FROM photos WHERE photo_id = 'p-001'",
			checkVal: "a.jpg",
		},
		{
			name:     "albums with unknown fields load",
			file:     albumsJSONL,
			jsonl:    `{"album_id":"a-001","name":"Trip","name_key":"trip","album_type":"custom","date_created":"2024-06-02T00:00:00Z","date_modified":"2024-06-02T00:00:00Z","color":"blue"}`,
			checkSQL: "SELECT name FROM albums WHERE album_id = 'a-001'",
			checkVal: "Trip",
		},
		{
			name:     "tags with unknown fields load",
			file:     tagsJSONL,
			jsonl:    `{"tag_id":"t-001","name":"beach","display_name":"Beach","date_created":"2024-06-02T00:00:00Z","date_last_used":"2024-06-02T00:00:00Z","weight":1.5}`,
			checkSQL: "SELECT display_name FROM tags WHERE tag_id = 't-001'",
			checkVal: "Beach",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.jsonl+"\n"), 0o644))

			b := setupBackendWithConfig(t, types.Config{Backend: types.BackendSQLite, DataDir: dir})
			var got string
			require.NoError(t, b.db.QueryRow(tt.checkSQL).Scan(&got))
			assert.Equal(t, tt.checkVal, got)
		})
	}
}

func TestLoadJSONLSkipsBadRecords(t *testing.T) {
	dir := t.TempDir()
	lines := `{"tag_id":"t-1","name":"sun","display_name":"Sun","date_created":"2024-01-01T00:00:00Z","date_last_used":"2024-01-01T00:00:00Z"}
{"tag_id":"t-2","name":"sun","display_name":"Duplicate","date_created":"2024-01-01T00:00:00Z","date_last_used":"2024-01-01T00:00:00Z"}
{"tag_id":"t-3","display_name":"No name"}
garbage
{"tag_id":"t-4","name":"sea","display_name":"Sea","date_created":"2024-01-01T00:00:00Z","date_last_used":"2024-01-01T00:00:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, tagsJSONL), []byte(lines), 0o644))

	b := setupBackendWithConfig(t, types.Config{Backend: types.BackendSQLite, DataDir: dir})
	err := b.View(context.Background(), func(tx types.Tx) error {
		rows, err := table(t, tx, types.TagsTable).Fetch(nil)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "sea", rows[0].(*types.Tag).Name)
		assert.Equal(t, "sun", rows[1].(*types.Tag).Name)
		return nil
	})
	require.NoError(t, err)
}

func TestLoadJSONLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	update(t, b, func(tx types.Tx) error {
		id := addPhoto(t, tx, &types.Photo{FileName: "a.jpg", FileSize: 1234, Tags: []string{"one"}})
		album := addAlbum(t, tx, "Keep")
		if err := tx.SetAlbumPhotos(album, []string{id}); err != nil {
			return err
		}
		_, err := table(t, tx, types.SettingsTable).Set("", types.DefaultSettings())
		return err
	})
	first := snapshotFiles(t, dir)
	require.NoError(t, b.Detach())

	// Reattach and rewrite every table: the files must come out identical.
	b2 := setupBackendWithConfig(t, config)
	update(t, b2, func(utx types.Tx) error {
		utx.(*tx).markDirty("photos", "albums", "album_photos", "tags", "photo_tags",
			"album_layouts", "photo_layouts", "settings")
		return nil
	})
	assert.Equal(t, first, snapshotFiles(t, dir))
}

func TestColumnValue(t *testing.T) {
	assert.Equal(t, int64(42), columnValue(json.Number("42")))
	assert.Equal(t, 1.5, columnValue(json.Number("1.5")))
	assert.Equal(t, "x", columnValue("x"))
	assert.Nil(t, columnValue(nil))
	assert.Equal(t, `["a"]`, columnValue([]any{"a"}))
}

// snapshotFiles reads every non-empty data file in dir.
func snapshotFiles(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, m := range jsonlTableMapping {
		data, err := os.ReadFile(filepath.Join(dir, m.file))
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		if len(data) > 0 {
			out[m.file] = string(data)
		}
	}
	return out
}
