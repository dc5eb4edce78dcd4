package sqlite

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 16 << 20

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped. A missing file yields no
// records.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// dumpTable renders every row of a mapped table as JSONL, one JSON object
// per row in primary key order. Keys are column names.
func dumpTable(tx *sql.Tx, m tableMapping) ([]byte, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(m.columns, ", "), m.table, m.orderBy)
	rows, err := tx.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s for JSONL: %w", m.table, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	for rows.Next() {
		values := make([]any, len(m.columns))
		valuePtrs := make([]any, len(m.columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", m.table, err)
		}
		rec := make(map[string]any, len(m.columns))
		for i, col := range m.columns {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s row: %w", m.table, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s for JSONL: %w", m.table, err)
	}
	return buf.Bytes(), nil
}

// stageJSONL writes data to a synced temp file next to path and returns the
// temp file name. The caller renames it into place or removes it.
func stageJSONL(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return "", classifyWriteError(fmt.Errorf("creating temp file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", classifyWriteError(fmt.Errorf("writing %s: %w", filepath.Base(path), err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", classifyWriteError(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", classifyWriteError(fmt.Errorf("closing temp file: %w", err))
	}
	return tmpName, nil
}

// writeJSONL atomically replaces path with data using the temp-file, fsync,
// rename pattern.
func writeJSONL(path string, data []byte) error {
	tmpName, err := stageJSONL(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// classifyWriteError maps out-of-space conditions to ErrQuotaExceeded.
func classifyWriteError(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", types.ErrQuotaExceeded, err)
	}
	return err
}
