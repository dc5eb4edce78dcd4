// Tests for JSONL persistence in the SQLite backend.
package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

func TestReadJSONL(t *testing.T) {
	dir := t.TempDir()

	records, err := readJSONL(filepath.Join(dir, "missing.jsonl"))
	require.NoError(t, err)
	assert.Nil(t, records, "missing file yields no records")

	path := filepath.Join(dir, "mixed.jsonl")
	content := `{"a":1}

not json
{"b":2}
{"c":
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	records, err = readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))
	assert.JSONEq(t, `{"b":2}`, string(records[1]))
}

func TestWriteJSONLAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")

	require.NoError(t, writeJSONL(path, []byte("{\"v\":1}\n")))
	require.NoError(t, writeJSONL(path, []byte("{\"v\":2}\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"v\":2}\n", string(got))

	matches, _ := filepath.Glob(filepath.Join(dir, ".jsonl-*.tmp"))
	assert.Empty(t, matches)
}

func TestUpdatePersistsOnlyTouchedTables(t *testing.T) {
	b := setupBackend(t)
	update(t, b, func(tx types.Tx) error {
		addPhoto(t, tx, &types.Photo{FileName: "a.jpg", Tags: []string{"sun"}})
		return nil
	})

	for _, name := range []string{photosJSONL, photoTagsJSONL} {
		_, err := os.Stat(filepath.Join(b.dataDir, name))
		assert.NoError(t, err, "%s should be written", name)
	}
	for _, name := range []string{albumsJSONL, albumPhotosJSONL, settingsJSONL} {
		_, err := os.Stat(filepath.Join(b.dataDir, name))
		assert.True(t, os.IsNotExist(err), "%s should not be written", name)
	}
}

func TestPhotoPersistedToJSONL(t *testing.T) {
	b := setupBackend(t)
	var id string
	update(t, b, func(tx types.Tx) error {
		id = addPhoto(t, tx, &types.Photo{FileName: "Beach.JPG", Caption: "Sunset", Width: 10, Height: 20})
		return nil
	})

	data, err := os.ReadFile(filepath.Join(b.dataDir, photosJSONL))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"photo_id":"`+id+`"`)
	assert.Contains(t, lines[0], `"file_name":"Beach.JPG"`)
	assert.Contains(t, lines[0], `"search_text":"beach.jpg\nsunset"`)
}

func TestDumpTableIsDeterministic(t *testing.T) {
	b := setupBackend(t)
	update(t, b, func(tx types.Tx) error {
		for _, name := range []string{"c.jpg", "a.jpg", "b.jpg"} {
			addPhoto(t, tx, &types.Photo{FileName: name, Tags: []string{"z", "y"}})
		}
		return nil
	})

	dump := func() []byte {
		sqlTx, err := b.db.Begin()
		require.NoError(t, err)
		defer sqlTx.Rollback()
		m, ok := mappingFor("photo_tags")
		require.True(t, ok)
		out, err := dumpTable(sqlTx, m)
		require.NoError(t, err)
		return out
	}
	first := dump()
	assert.Equal(t, first, dump())
	assert.Equal(t, 6, strings.Count(string(first), "\n"))

	onDisk, err := os.ReadFile(filepath.Join(b.dataDir, photoTagsJSONL))
	require.NoError(t, err)
	assert.Equal(t, first, onDisk)
}
