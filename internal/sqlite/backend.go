// Package sqlite implements the shoebox store using SQLite as the query
// engine and JSONL files as the source of truth.
//
// On Attach the database file is recreated and every JSONL file is loaded
// into it. Each Update runs in one SQL transaction; at commit the tables it
// touched are dumped to staged JSONL files, the quota is checked, the SQL
// transaction commits and the staged files are renamed into place. A failed
// Update leaves both the database and the files untouched.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// dbFileName is the scratch database rebuilt from JSONL on every Attach.
const dbFileName = "shoebox.db"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	now      func() time.Time
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{now: func() time.Time { return time.Now().UTC() }}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds the SQLite schema and loads
// the JSONL files. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent. After Detach, View and Update
// return ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

// View runs fn in a read-only transaction.
func (b *Backend) View(ctx context.Context, fn func(tx types.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning view: %w", err)
	}
	defer sqlTx.Rollback()

	err = fn(newTx(ctx, b, sqlTx, false))
	result := metrics.ResultCommitted
	if err != nil {
		result = metrics.ResultError
	}
	metrics.Transactions.WithLabelValues(metrics.ModeView, result).Inc()
	return err
}

// Update runs fn in a serialized read-write transaction and persists the
// tables it touched.
func (b *Backend) Update(ctx context.Context, fn func(tx types.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning update: %w", err)
	}
	defer sqlTx.Rollback()

	tx := newTx(ctx, b, sqlTx, true)
	if err := fn(tx); err != nil {
		metrics.Transactions.WithLabelValues(metrics.ModeUpdate, metrics.ResultRolledBack).Inc()
		return err
	}

	staged, err := b.stage(sqlTx, tx.dirtyTables())
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, types.ErrQuotaExceeded) {
			result = metrics.ResultQuota
		}
		metrics.Transactions.WithLabelValues(metrics.ModeUpdate, result).Inc()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		staged.discard()
		metrics.Transactions.WithLabelValues(metrics.ModeUpdate, metrics.ResultError).Inc()
		return classifySQLError(fmt.Errorf("committing update: %w", err))
	}
	if err := staged.publish(); err != nil {
		metrics.Transactions.WithLabelValues(metrics.ModeUpdate, metrics.ResultError).Inc()
		return fmt.Errorf("publishing data files: %w", err)
	}

	metrics.Transactions.WithLabelValues(metrics.ModeUpdate, metrics.ResultCommitted).Inc()
	if staged.bytes > 0 {
		metrics.PersistedBytes.Observe(float64(staged.bytes))
	}
	return nil
}

// Usage reports the size of each data file.
func (b *Backend) Usage() (types.Usage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Usage{}, types.ErrStoreDetached
	}

	usage := types.Usage{
		Files:      make(map[string]int64, len(jsonlTableMapping)),
		QuotaBytes: b.config.QuotaBytes,
	}
	for _, m := range jsonlTableMapping {
		size, err := fileSize(filepath.Join(b.dataDir, m.file))
		if err != nil {
			return types.Usage{}, err
		}
		usage.Files[m.file] = size
		usage.TotalBytes += size
	}
	return usage, nil
}

// stagedFile is a temp file waiting to replace a data file.
type stagedFile struct {
	tmp  string
	path string
}

// stagedFiles is the persistence plan of one Update.
type stagedFiles struct {
	files []stagedFile
	bytes int64
}

// stage dumps the dirty tables inside the still-open transaction, checks the
// resulting footprint against the quota and writes temp files. Nothing is
// visible to readers of the data directory until publish.
func (b *Backend) stage(sqlTx *sql.Tx, dirty []string) (*stagedFiles, error) {
	plan := &stagedFiles{}
	if len(dirty) == 0 {
		return plan, nil
	}

	dirtySet := make(map[string]bool, len(dirty))
	for _, name := range dirty {
		dirtySet[name] = true
	}

	contents := make(map[string][]byte, len(dirty))
	var total int64
	for _, m := range jsonlTableMapping {
		if !dirtySet[m.table] {
			size, err := fileSize(filepath.Join(b.dataDir, m.file))
			if err != nil {
				return nil, err
			}
			total += size
			continue
		}
		data, err := dumpTable(sqlTx, m)
		if err != nil {
			return nil, err
		}
		contents[m.file] = data
		total += int64(len(data))
		plan.bytes += int64(len(data))
	}

	if quota := b.config.QuotaBytes; quota > 0 && total > quota {
		return nil, fmt.Errorf("persisting %d bytes exceeds quota of %d bytes: %w",
			total, quota, types.ErrQuotaExceeded)
	}

	for _, m := range jsonlTableMapping {
		data, ok := contents[m.file]
		if !ok {
			continue
		}
		path := filepath.Join(b.dataDir, m.file)
		tmp, err := stageJSONL(path, data)
		if err != nil {
			plan.discard()
			return nil, err
		}
		plan.files = append(plan.files, stagedFile{tmp: tmp, path: path})
	}
	return plan, nil
}

// publish renames every staged file into place.
func (s *stagedFiles) publish() error {
	var firstErr error
	for _, f := range s.files {
		if err := os.Rename(f.tmp, f.path); err != nil {
			os.Remove(f.tmp)
			if firstErr == nil {
				firstErr = fmt.Errorf("renaming %s: %w", filepath.Base(f.path), err)
			}
		}
	}
	return firstErr
}

// discard removes every staged file.
func (s *stagedFiles) discard() {
	for _, f := range s.files {
		os.Remove(f.tmp)
	}
	s.files = nil
}

// fileSize returns the size of path, or 0 if it does not exist.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	return info.Size(), nil
}

// classifySQLError maps SQLite constraint and capacity failures onto the
// error taxonomy.
func classifySQLError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", types.ErrConflict, err)
	case strings.Contains(msg, "database or disk is full"), strings.Contains(msg, "SQLITE_FULL"):
		return fmt.Errorf("%w: %v", types.ErrQuotaExceeded, err)
	}
	return err
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
