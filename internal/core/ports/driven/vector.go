package driven

import (
	"context"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// VectorIndex stores embedded passages partitioned by category and answers
// filtered similarity queries.
//
// Implementations batch upserts at their own ceiling. Each batch commits
// independently, so a failing batch leaves earlier ones in place.
type VectorIndex interface {
	// Upsert inserts or overwrites records by ID.
	// It returns the number of records committed, which is less than
	// len(records) when an error is also returned.
	Upsert(ctx context.Context, records []domain.VectorRecord) (int, error)

	// Query returns at most topK matches whose category passes the filter,
	// sorted by descending score.
	Query(ctx context.Context, vector []float32, topK int, filter domain.CategoryFilter) ([]domain.QueryMatch, error)

	// Dimensions returns the vector size the index was created with.
	Dimensions() int

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// Resettable is implemented by indexes that can drop every record.
type Resettable interface {
	Reset(ctx context.Context) error
}

// SourceRemover is implemented by indexes that can drop the records of one
// source within a category, so a re-ingested file replaces its old chunks.
type SourceRemover interface {
	RemoveSource(ctx context.Context, category, source string) error
}
