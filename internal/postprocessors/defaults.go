package postprocessors

import (
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/postprocessors/chunker"
)

// NewDefaultPipeline builds the ingestion pipeline for the given settings.
// Out-of-range values fall back to the chunker's defaults.
func NewDefaultPipeline(s domain.ChunkingSettings) *Pipeline {
	return NewPipeline(NewChunker(s))
}

// NewChunker creates the chunking processor described by s.
func NewChunker(s domain.ChunkingSettings) *chunker.Processor {
	return chunker.New(
		chunker.WithStrategy(s.Strategy),
		chunker.WithChunkSize(s.Size),
		chunker.WithOverlapWords(s.OverlapWords),
		chunker.WithMinLength(s.MinLength),
	)
}
