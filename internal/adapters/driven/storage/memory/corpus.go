package memory

import (
	"sync"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

// CorpusStore is an in-memory implementation of driven.CorpusStore.
// It backs the keyword engine and is lost on restart.
type CorpusStore struct {
	mu     sync.RWMutex
	chunks []domain.Chunk
}

// NewCorpusStore creates a new empty corpus.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{}
}

// Append adds chunks in order.
func (s *CorpusStore) Append(chunks ...domain.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

// All returns a snapshot of every chunk.
func (s *CorpusStore) All() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Len returns the number of chunks.
func (s *CorpusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// RemoveSource drops the chunks of source in category.
func (s *CorpusStore) RemoveSource(category, source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.Category == category && c.Source == source {
			continue
		}
		kept = append(kept, c)
	}
	removed := len(s.chunks) - len(kept)
	s.chunks = kept
	return removed
}

// Reset drops every chunk.
func (s *CorpusStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
}
