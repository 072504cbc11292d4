package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the extract, chunk, embed and upsert pipeline.
// In keyword mode chunks go to the corpus store and nothing is embedded.
type IngestService struct {
	extractor driven.Extractor
	pipeline  driven.PostProcessorPipeline
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	corpus    driven.CorpusStore

	backend      domain.IndexBackend
	batchSize    int
	embedTimeout time.Duration
	indexTimeout time.Duration
}

// NewIngestService creates a new ingestion service.
// The embedder and index may be nil in keyword mode. For a vector backend a
// nil index means the backend failed to connect, and Ingest returns
// domain.ErrBackendUnavailable.
func NewIngestService(
	extractor driven.Extractor,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	corpus driven.CorpusStore,
	settings *domain.Settings,
) *IngestService {
	batch := settings.Index.UpsertBatchSize
	if batch <= 0 {
		batch = domain.DefaultUpsertBatchSize
	}
	return &IngestService{
		extractor:    extractor,
		pipeline:     pipeline,
		embedder:     embedder,
		index:        index,
		corpus:       corpus,
		backend:      settings.Index.Backend,
		batchSize:    batch,
		embedTimeout: settings.Embedding.Timeout(),
		indexTimeout: settings.Index.Timeout(),
	}
}

// Ingest extracts, chunks and stores one file.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestResult, error) {
	logger.Section("Ingest")

	category, err := domain.ResolveCategory(req.Session, req.Global)
	if err != nil {
		return domain.IngestResult{}, err
	}
	result := domain.IngestResult{Source: domain.SourceName(req.Path), Category: category}
	logger.Debug("File: %s, category: %s, backend: %s", req.Path, category, s.backend)

	keyword := !s.backend.RequiresEmbedding()
	if keyword && s.corpus == nil || !keyword && (s.index == nil || s.embedder == nil) {
		logger.Warn("Ingest unavailable: backend %s not connected", s.backend)
		return result, domain.ErrBackendUnavailable
	}

	doc := &domain.Document{
		Source:   result.Source,
		Category: category,
		Content:  s.extractor.Extract(ctx, req.Path),
	}
	if doc.IsBlank() {
		logger.Warn("%s: %v, skipping", result.Source, domain.ErrExtractionEmpty)
		result.Skipped = true
		return result, nil
	}
	logger.Debug("Extracted %d characters", len(doc.Content))

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("chunk %s: %w", result.Source, err)
	}
	result.Chunks = len(chunks)
	logger.Info("Created %d chunks from %s", len(chunks), result.Source)
	if len(chunks) == 0 {
		return result, nil
	}

	if keyword {
		if req.Replace {
			if n := s.corpus.RemoveSource(category, result.Source); n > 0 {
				logger.Debug("Replaced %d earlier chunks of %s", n, result.Source)
			}
		}
		s.corpus.Append(chunks...)
		result.Stored = len(chunks)
		logger.Info("Total chunks in memory: %d", s.corpus.Len())
		return result, nil
	}

	// Embedding and upsert failures are logged per item and per batch. The
	// call completes with whatever was stored, possibly nothing.
	records, embedErr := s.embed(ctx, chunks)
	if len(records) == 0 {
		logger.Warn("%s: no chunks embedded, nothing stored: %v", result.Source, embedErr)
		return result, nil
	}
	if req.Replace {
		s.removeSource(ctx, category, result.Source)
	}

	stored, upsertErr := s.upsert(ctx, records)
	result.Stored = stored
	logger.Info("Stored %d of %d chunks from %s", stored, len(chunks), result.Source)
	if stored == 0 {
		logger.Warn("%s: every upsert batch failed, nothing stored: %v", result.Source, upsertErr)
	}

	return result, nil
}

// Reset drops the keyword corpus and, when supported, every indexed record.
func (s *IngestService) Reset(ctx context.Context) error {
	if s.corpus != nil {
		s.corpus.Reset()
	}
	if r, ok := s.index.(driven.Resettable); ok {
		if err := r.Reset(ctx); err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
	}
	logger.Info("Store reset")
	return nil
}

// removeSource drops earlier records of source when the index supports it.
// A failure is logged and the new chunks are stored alongside the old ones.
func (s *IngestService) removeSource(ctx context.Context, category, source string) {
	r, ok := s.index.(driven.SourceRemover)
	if !ok {
		logger.Debug("Index cannot remove by source, keeping earlier records of %s", source)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()
	if err := r.RemoveSource(ctx, category, source); err != nil {
		logger.Warn("%s: removing earlier records: %v", source, domain.TimeoutError("remove source", err))
	}
}

// embed converts chunks to records. A failed batch call falls back to one
// call per chunk so a single bad input only loses itself. The returned
// error is the last per-item failure, if any.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([]domain.VectorRecord, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedBatch(ctx, texts)
	if err != nil {
		logger.Warn("Batch embedding failed, embedding %d chunks one at a time: %v", len(texts), err)
		vectors = make([][]float32, len(texts))
		for i, text := range texts {
			vec, itemErr := s.embedOne(ctx, text)
			if itemErr != nil {
				err = &domain.EmbeddingError{Index: i, Err: itemErr}
				logger.Warn("Skipping chunk: %v", err)
				continue
			}
			vectors[i] = vec
		}
	} else {
		err = nil
	}

	dims := s.index.Dimensions()
	records := make([]domain.VectorRecord, 0, len(chunks))
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		if dims > 0 && len(vec) != dims {
			err = &domain.EmbeddingError{Index: i, Err: fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(vec), dims)}
			logger.Warn("Skipping chunk: %v", err)
			continue
		}
		c := chunks[i]
		records = append(records, domain.VectorRecord{
			ID:        recordID(c.Category, i),
			Embedding: vec,
			Metadata: domain.RecordMetadata{
				Text:     c.Text,
				Source:   c.Source,
				Category: c.Category,
			},
		})
	}

	if err == nil && len(records) == 0 {
		err = errors.New("no embeddings produced")
	}
	return records, err
}

func (s *IngestService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, domain.TimeoutError("embed batch", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed batch: got %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

func (s *IngestService) embedOne(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, domain.TimeoutError("embed", err)
	}
	return vec, nil
}

// upsert writes records in batches. A failed batch is logged and skipped;
// later batches still run. The returned error is the last batch failure.
func (s *IngestService) upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	stored := 0
	var lastErr error

	for batch, start := 0, 0; start < len(records); batch, start = batch+1, start+s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}

		n, err := s.upsertBatch(ctx, records[start:end])
		stored += n
		if err != nil {
			lastErr = &domain.UpsertBatchError{Batch: batch, Stored: n, Err: err}
			logger.Error("%v", lastErr)
			continue
		}
		logger.Debug("Upserted batch %d: %d records", batch, n)
	}

	return stored, lastErr
}

func (s *IngestService) upsertBatch(ctx context.Context, records []domain.VectorRecord) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()

	n, err := s.index.Upsert(ctx, records)
	return n, domain.TimeoutError("upsert", err)
}
