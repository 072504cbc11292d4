// Package chunker provides the text chunking processor.
//
// Two strategies are supported. The words strategy (default) accumulates
// whole words until the running length reaches the chunk size and seeds the
// next chunk with the previous chunk's trailing words. The fixed strategy
// cuts fixed-width character windows. Lengths are measured in runes.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// overlapCapPercent bounds the seeded overlap as a share of the chunk size,
// so every chunk makes forward progress.
const overlapCapPercent = 30

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	strategy     domain.ChunkStrategy
	chunkSize    int
	overlapWords int
	minLength    int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlapWords sets how many trailing words seed the next chunk.
func WithOverlapWords(words int) Option {
	return func(p *Processor) {
		if words >= 0 {
			p.overlapWords = words
		}
	}
}

// WithMinLength sets the shortest chunk worth keeping, in characters.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minLength = n
		}
	}
}

// WithStrategy selects the chunking strategy. Unknown strategies are ignored.
func WithStrategy(s domain.ChunkStrategy) Option {
	return func(p *Processor) {
		if s.IsValid() {
			p.strategy = s
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		strategy:     domain.ChunkStrategyWords,
		chunkSize:    domain.DefaultChunkSize,
		overlapWords: domain.DefaultOverlapWords,
		minLength:    domain.DefaultMinChunkLength,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	texts := p.Split(doc.Content)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			Text:     text,
			Source:   doc.Source,
			Category: doc.Category,
			Position: i,
		}
	}
	return chunks, nil
}

// Split returns the chunk texts for content. It never returns empty strings
// and is deterministic for a given configuration.
func (p *Processor) Split(content string) []string {
	words := strings.Fields(content)
	if len(words) == 0 {
		return nil
	}

	if p.strategy == domain.ChunkStrategyFixed {
		return p.splitFixed(strings.Join(words, " "))
	}
	return p.splitWords(words)
}

// splitFixed cuts rune-safe windows of chunkSize and drops short fragments.
func (p *Processor) splitFixed(text string) []string {
	runes := []rune(text)
	var out []string

	for start := 0; start < len(runes); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if utf8.RuneCountInString(piece) >= p.minLength {
			out = append(out, piece)
		}
	}

	return out
}

// splitWords accumulates whole words. A chunk is emitted once its length
// reaches chunkSize. The final remainder is emitted when it holds words not
// yet emitted and meets minLength; a shorter remainder is folded into the
// previous chunk so no word is lost.
func (p *Processor) splitWords(words []string) []string {
	var (
		out     []string
		current []string
		length  int
		emitted int // words[:emitted] are covered by out
	)

	for i, w := range words {
		if len(current) > 0 {
			length++
		}
		length += utf8.RuneCountInString(w)
		current = append(current, w)

		if length < p.chunkSize {
			continue
		}

		out = append(out, strings.Join(current, " "))
		emitted = i + 1
		current, length = p.overlap(current)
	}

	if emitted == len(words) {
		return out
	}

	switch {
	case length >= p.minLength:
		out = append(out, strings.Join(current, " "))
	case len(out) > 0:
		last := len(out) - 1
		out[last] += " " + strings.Join(words[emitted:], " ")
	}

	return out
}

// overlap returns the trailing words of chunk used to seed the next one,
// and their joined length. At most overlapWords words are taken, and their
// length never exceeds overlapCapPercent of the chunk size.
func (p *Processor) overlap(chunk []string) ([]string, int) {
	limit := p.chunkSize * overlapCapPercent / 100
	length := 0
	start := len(chunk)

	for start > 0 && len(chunk)-start < p.overlapWords {
		next := length + utf8.RuneCountInString(chunk[start-1])
		if start < len(chunk) {
			next++
		}
		if next > limit {
			break
		}
		length = next
		start--
	}

	seed := make([]string, len(chunk)-start)
	copy(seed, chunk[start:])
	return seed, length
}
