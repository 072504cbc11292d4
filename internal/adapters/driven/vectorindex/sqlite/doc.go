// Package sqlite provides a vector index stored in a local SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Embeddings are stored as little-endian
// float32 blobs next to their passage text and category. Similarity is computed
// in process over the rows of the requested categories.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The embedding dimension is recorded in index_meta on first open; reopening
// with a different dimension fails with domain.ErrDimensionMismatch.
//
// # Data Location
//
// The database is stored at <data_dir>/vectors.db.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
