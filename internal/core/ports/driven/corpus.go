package driven

import "github.com/custodia-labs/notesrag/internal/core/domain"

// CorpusStore holds the passages searched by the keyword engine.
// The corpus only shrinks through RemoveSource and Reset.
type CorpusStore interface {
	// Append adds chunks in order.
	Append(chunks ...domain.Chunk)

	// All returns a snapshot of every chunk in insertion order.
	All() []domain.Chunk

	// Len returns the number of stored chunks.
	Len() int

	// RemoveSource drops the chunks of source in category and returns
	// how many were removed. Order of the remaining chunks is kept.
	RemoveSource(category, source string) int

	// Reset drops every chunk.
	Reset()
}
