// Package local provides an in-process vector index with optional
// flat-file persistence.
//
// Records live in parallel slices guarded by a single mutex. When a data
// directory is configured every successful upsert rewrites three files in
// the same critical section:
//
//   - vectors.bin: header (magic, dimension, row count) then float32 rows
//   - passages.txt: one passage per line, in row order
//   - records.jsonl: id, source and category per line, in row order
//
// Open refuses files whose row counts disagree.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/notesrag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex = (*Index)(nil)
	_ driven.Resettable    = (*Index)(nil)
	_ driven.SourceRemover = (*Index)(nil)
)

// Index is a brute-force cosine similarity index.
type Index struct {
	mu sync.RWMutex

	dims     int
	ids      []string
	vectors  [][]float32
	metadata []domain.RecordMetadata
	byID     map[string]int

	dir string
}

// Option configures the index.
type Option func(*Index)

// WithPersistDir enables persistence to dir.
func WithPersistDir(dir string) Option {
	return func(i *Index) {
		i.dir = dir
	}
}

// New creates an empty index. A zero dims adopts the length of the first
// upserted vector.
func New(dims int, opts ...Option) *Index {
	i := &Index{
		dims: dims,
		byID: make(map[string]int),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Open creates a persistent index in dir, loading any existing files.
func Open(dims int, dir string) (*Index, error) {
	i := New(dims, WithPersistDir(dir))
	if err := i.load(); err != nil {
		return nil, err
	}
	return i, nil
}

// Upsert inserts or overwrites records by ID. All records are validated
// before any is applied, so the index never holds a partial upsert.
func (i *Index) Upsert(_ context.Context, records []domain.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	dims := i.dims
	if dims == 0 {
		dims = len(records[0].Embedding)
	}
	for _, r := range records {
		if r.ID == "" {
			return 0, fmt.Errorf("%w: record without id", domain.ErrInvalidInput)
		}
		if len(r.Embedding) != dims {
			return 0, fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), dims)
		}
	}

	ids := append([]string(nil), i.ids...)
	vectors := append([][]float32(nil), i.vectors...)
	metadata := append([]domain.RecordMetadata(nil), i.metadata...)
	byID := make(map[string]int, len(i.byID)+len(records))
	for k, v := range i.byID {
		byID[k] = v
	}

	for _, r := range records {
		vec := make([]float32, len(r.Embedding))
		copy(vec, r.Embedding)

		if row, ok := byID[r.ID]; ok {
			vectors[row] = vec
			metadata[row] = r.Metadata
			continue
		}
		byID[r.ID] = len(ids)
		ids = append(ids, r.ID)
		vectors = append(vectors, vec)
		metadata = append(metadata, r.Metadata)
	}

	if i.dir != "" {
		if err := writeFiles(i.dir, dims, ids, vectors, metadata); err != nil {
			return 0, err
		}
	}

	i.dims = dims
	i.ids, i.vectors, i.metadata, i.byID = ids, vectors, metadata, byID
	return len(records), nil
}

// Query scores every record in the filter's categories by cosine
// similarity and returns the best topK.
func (i *Index) Query(_ context.Context, vector []float32, topK int, filter domain.CategoryFilter) ([]domain.QueryMatch, error) {
	if topK <= 0 || filter.IsEmpty() {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.ids) == 0 {
		return nil, nil
	}
	if len(vector) != i.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(vector), i.dims)
	}

	var matches []domain.QueryMatch
	for row, meta := range i.metadata {
		if !filter.Matches(meta.Category) {
			continue
		}
		matches = append(matches, domain.QueryMatch{
			Score:    vectorindex.Cosine(vector, i.vectors[row]),
			Text:     meta.Text,
			Source:   meta.Source,
			Category: meta.Category,
		})
	}

	return vectorindex.TopK(matches, topK), nil
}

// Dimensions returns the vector size, or zero before the first upsert
// when created without one.
func (i *Index) Dimensions() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dims
}

// Count returns the number of stored records.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.ids), nil
}

// Reset drops every record, including persisted rows.
func (i *Index) Reset(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dir != "" {
		if err := writeFiles(i.dir, i.dims, nil, nil, nil); err != nil {
			return err
		}
	}
	i.ids, i.vectors, i.metadata = nil, nil, nil
	i.byID = make(map[string]int)
	return nil
}

// RemoveSource drops every record of source in category, rewriting the
// persisted files when anything was removed.
func (i *Index) RemoveSource(_ context.Context, category, source string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	ids := make([]string, 0, len(i.ids))
	vectors := make([][]float32, 0, len(i.vectors))
	metadata := make([]domain.RecordMetadata, 0, len(i.metadata))
	for row, meta := range i.metadata {
		if meta.Category == category && meta.Source == source {
			continue
		}
		ids = append(ids, i.ids[row])
		vectors = append(vectors, i.vectors[row])
		metadata = append(metadata, meta)
	}
	if len(ids) == len(i.ids) {
		return nil
	}

	if i.dir != "" {
		if err := writeFiles(i.dir, i.dims, ids, vectors, metadata); err != nil {
			return err
		}
	}

	byID := make(map[string]int, len(ids))
	for row, id := range ids {
		byID[id] = row
	}
	i.ids, i.vectors, i.metadata, i.byID = ids, vectors, metadata, byID
	return nil
}

// Close releases resources. Persisted files are always up to date.
func (i *Index) Close() error {
	return nil
}
