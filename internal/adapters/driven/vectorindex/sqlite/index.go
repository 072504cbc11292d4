package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex/sqlite/migrations"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex   = (*Index)(nil)
	_ driven.Resettable    = (*Index)(nil)
	_ driven.SourceRemover = (*Index)(nil)
)

// DBFile is the database file name inside the data directory.
const DBFile = "vectors.db"

// RowsPerTx bounds how many records one transaction writes.
const RowsPerTx = 100

const dimensionsKey = "dimensions"

// Index is a VectorIndex backed by SQLite.
type Index struct {
	db   *sql.DB
	path string
	dims int
}

// Open opens or creates the index at dataDir/vectors.db.
// If dataDir is empty, defaults to ~/.notesrag/data.
func Open(dataDir string, dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".notesrag", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:   db,
		path: dbPath,
		dims: dims,
	}

	// Run migrations
	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := idx.checkDimensions(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Dimensions returns the embedding length of stored records.
func (i *Index) Dimensions() int {
	return i.dims
}

// migration is one numbered schema step.
type migration struct {
	version int
	name    string
}

// pendingMigrations lists the NNN_name.up.sql files of fsys above current,
// ordered by version.
func pendingMigrations(fsys fs.FS, current int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var pending []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		version, err := strconv.Atoi(prefix)
		if !ok || err != nil || version <= 0 {
			return nil, fmt.Errorf("%w: migration file %q has no version prefix", domain.ErrCorruptStore, name)
		}
		if version > current {
			pending = append(pending, migration{version: version, name: name})
		}
	}
	sort.Slice(pending, func(a, b int) bool { return pending[a].version < pending[b].version })
	return pending, nil
}

// migrate applies each pending migration in its own transaction together
// with its schema_migrations row.
func (i *Index) migrate(fsys fs.FS) error {
	if _, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := i.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := i.applyMigration(fsys, m); err != nil {
			return err
		}
	}
	return nil
}

func (i *Index) applyMigration(fsys fs.FS, m migration) error {
	body, err := fs.ReadFile(fsys, m.name)
	if err != nil {
		return fmt.Errorf("reading migration %s: %w", m.name, err)
	}

	tx, err := i.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(string(body)); err != nil {
		return fmt.Errorf("applying migration %s: %w", m.name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("recording migration %s: %w", m.name, err)
	}
	return tx.Commit()
}

// checkDimensions records the dimension on first open and rejects a
// database written with a different one.
func (i *Index) checkDimensions() error {
	var stored string
	err := i.db.QueryRow(`SELECT value FROM index_meta WHERE key = ?`, dimensionsKey).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := i.db.Exec(`INSERT INTO index_meta (key, value) VALUES (?, ?)`,
			dimensionsKey, strconv.Itoa(i.dims)); err != nil {
			return fmt.Errorf("recording dimensions: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading dimensions: %w", err)
	}

	dims, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("%w: dimensions %q", domain.ErrCorruptStore, stored)
	}
	if dims != i.dims {
		return fmt.Errorf("%w: database has %d dimensions, embedder has %d",
			domain.ErrDimensionMismatch, dims, i.dims)
	}
	return nil
}

// Upsert writes records in transactions of RowsPerTx. On failure the
// records of earlier transactions stay committed and their count is returned
// with the error.
func (i *Index) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	for _, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
		}
		if len(r.Embedding) != i.dims {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), i.dims)
		}
	}

	stored := 0
	for start := 0; start < len(records); start += RowsPerTx {
		end := min(start+RowsPerTx, len(records))
		if err := i.upsertTx(ctx, records[start:end]); err != nil {
			return stored, err
		}
		stored += end - start
	}
	return stored, nil
}

func (i *Index) upsertTx(ctx context.Context, records []domain.VectorRecord) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, category, source, text, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			source = excluded.source,
			text = excluded.text,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Metadata.Category, r.Metadata.Source,
			r.Metadata.Text, float32SliceToBytes(r.Embedding), now); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Query scores the rows of the filtered categories by cosine similarity.
func (i *Index) Query(ctx context.Context, vector []float32, topK int, filter domain.CategoryFilter) ([]domain.QueryMatch, error) {
	if topK <= 0 || filter.IsEmpty() {
		return nil, nil
	}
	if len(vector) != i.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), i.dims)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Categories)), ",")
	args := make([]any, len(filter.Categories))
	for k, c := range filter.Categories {
		args[k] = c
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT text, source, category, embedding
		FROM records WHERE category IN (`+placeholders+`)
		ORDER BY rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var matches []domain.QueryMatch
	for rows.Next() {
		var m domain.QueryMatch
		var blob []byte
		if err := rows.Scan(&m.Text, &m.Source, &m.Category, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		embedding := bytesToFloat32Slice(blob)
		if len(embedding) != i.dims {
			return nil, fmt.Errorf("%w: stored embedding has %d dimensions", domain.ErrCorruptStore, len(embedding))
		}
		m.Score = vectorindex.Cosine(vector, embedding)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return vectorindex.TopK(matches, topK), nil
}

// Count returns the number of stored records.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Reset deletes every record. The recorded dimension is kept.
func (i *Index) Reset(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// RemoveSource deletes the records of source in category.
func (i *Index) RemoveSource(ctx context.Context, category, source string) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM records WHERE category = ? AND source = ?`,
		category, source); err != nil {
		return fmt.Errorf("deleting records of %s: %w", source, err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
