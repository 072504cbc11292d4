package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables the service.
	AIProviderNone AIProvider = ""

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI API or any compatible endpoint (Groq, LM Studio).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderNone, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderNone:
		return "Disabled"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the retrieval backend.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendKeyword is the degraded token-overlap engine. No embeddings.
	IndexBackendKeyword IndexBackend = "keyword"

	// IndexBackendLocal keeps vectors in memory with optional flat-file persistence.
	IndexBackendLocal IndexBackend = "local"

	// IndexBackendSQLite stores vectors in a local SQLite database.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendQdrant uses a managed Qdrant collection.
	IndexBackendQdrant IndexBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendKeyword, IndexBackendLocal, IndexBackendSQLite, IndexBackendQdrant:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if the backend stores vectors.
func (b IndexBackend) RequiresEmbedding() bool {
	return b != IndexBackendKeyword
}

// Description returns a human-readable description of the backend.
func (b IndexBackend) Description() string {
	switch b {
	case IndexBackendKeyword:
		return "Keyword (token overlap, no embeddings)"
	case IndexBackendLocal:
		return "Local (in-memory vectors, flat files)"
	case IndexBackendSQLite:
		return "SQLite (on-disk vectors)"
	case IndexBackendQdrant:
		return "Qdrant (managed vector database)"
	default:
		return unknownDescription
	}
}

// ChunkStrategy selects how text is split into passages.
type ChunkStrategy string

// Available chunk strategies.
const (
	// ChunkStrategyFixed cuts fixed-width character windows.
	ChunkStrategyFixed ChunkStrategy = "fixed"

	// ChunkStrategyWords accumulates whole words with a trailing-word overlap.
	ChunkStrategyWords ChunkStrategy = "words"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	return s == ChunkStrategyFixed || s == ChunkStrategyWords
}

// Default configuration values.
const (
	DefaultChunkSize         = 500
	DefaultOverlapWords      = 50
	DefaultMinChunkLength    = 20
	DefaultEmbeddingTimeout  = 30
	DefaultGenerationTimeout = 30
	DefaultIndexTimeout      = 15
	DefaultUpsertBatchSize   = 50
	DefaultGlobalTopK        = 3
	DefaultSessionTopK       = 3
	DefaultResultLimit       = 4
	DefaultCollection        = "study-notes"
	DefaultTemperature       = 0.4
	DefaultMaxTokens         = 500
)

// NotesSettings configures the notes directory loaded at startup.
type NotesSettings struct {
	// Dir holds pre-existing notes ingested into the global partition.
	Dir string `toml:"dir" yaml:"dir" envconfig:"DIR"`

	// DataDir holds index files for the local and sqlite backends.
	DataDir string `toml:"data_dir" yaml:"data_dir" envconfig:"DATA_DIR"`
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	Strategy     ChunkStrategy `toml:"strategy" yaml:"strategy" envconfig:"STRATEGY"`
	Size         int           `toml:"size" yaml:"size" envconfig:"SIZE"`

	// OverlapWords seeds each chunk with the previous chunk's trailing words.
	// Negative disables overlap; zero selects the default.
	OverlapWords int           `toml:"overlap_words" yaml:"overlap_words" envconfig:"OVERLAP_WORDS"`
	MinLength    int           `toml:"min_length" yaml:"min_length" envconfig:"MIN_LENGTH"`
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider       AIProvider `toml:"provider" yaml:"provider" envconfig:"PROVIDER"`
	Model          string     `toml:"model" yaml:"model" envconfig:"MODEL"`
	BaseURL        string     `toml:"base_url" yaml:"base_url" envconfig:"BASE_URL"`
	APIKey         string     `toml:"api_key" yaml:"api_key" envconfig:"API_KEY"`
	Dimensions     int        `toml:"dimensions" yaml:"dimensions" envconfig:"DIMENSIONS"`
	TimeoutSeconds int        `toml:"timeout_seconds" yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`

	// QueryPrefix is prepended to query texts (task-type hint, e.g. "search_query: ").
	QueryPrefix string `toml:"query_prefix" yaml:"query_prefix" envconfig:"QUERY_PREFIX"`

	// DocumentPrefix is prepended to passage texts (e.g. "search_document: ").
	DocumentPrefix string `toml:"document_prefix" yaml:"document_prefix" envconfig:"DOCUMENT_PREFIX"`

	// RequestsPerSecond throttles outbound embedding calls. Zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int     `toml:"burst" yaml:"burst" envconfig:"BURST"`
}

// IsConfigured returns true if an embedding provider is selected.
func (s *EmbeddingSettings) IsConfigured() bool {
	return s.Provider != AIProviderNone
}

// Timeout returns the per-call budget.
func (s *EmbeddingSettings) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds, DefaultEmbeddingTimeout)
}

// IndexSettings configures the vector index backend.
type IndexSettings struct {
	Backend         IndexBackend `toml:"backend" yaml:"backend" envconfig:"BACKEND"`
	Persist         bool         `toml:"persist" yaml:"persist" envconfig:"PERSIST"`
	UpsertBatchSize int          `toml:"upsert_batch_size" yaml:"upsert_batch_size" envconfig:"UPSERT_BATCH_SIZE"`
	TimeoutSeconds  int          `toml:"timeout_seconds" yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	QdrantURL       string       `toml:"qdrant_url" yaml:"qdrant_url" envconfig:"QDRANT_URL"`
	QdrantAPIKey    string       `toml:"qdrant_api_key" yaml:"qdrant_api_key" envconfig:"QDRANT_API_KEY"`
	Collection      string       `toml:"collection" yaml:"collection" envconfig:"COLLECTION"`
}

// Timeout returns the per-call budget.
func (s *IndexSettings) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds, DefaultIndexTimeout)
}

// RetrievalSettings configures query fanout and result bounds.
type RetrievalSettings struct {
	GlobalTopK  int `toml:"global_top_k" yaml:"global_top_k" envconfig:"GLOBAL_TOP_K"`
	SessionTopK int `toml:"session_top_k" yaml:"session_top_k" envconfig:"SESSION_TOP_K"`
	ResultLimit int `toml:"result_limit" yaml:"result_limit" envconfig:"RESULT_LIMIT"`

	// ScoreThreshold drops vector matches below this score. Nil disables it.
	ScoreThreshold *float64 `toml:"score_threshold,omitempty" yaml:"score_threshold,omitempty" envconfig:"SCORE_THRESHOLD"`
}

// GenerationSettings configures the answer generator.
type GenerationSettings struct {
	Provider       AIProvider `toml:"provider" yaml:"provider" envconfig:"PROVIDER"`
	Model          string     `toml:"model" yaml:"model" envconfig:"MODEL"`
	BaseURL        string     `toml:"base_url" yaml:"base_url" envconfig:"BASE_URL"`
	APIKey         string     `toml:"api_key" yaml:"api_key" envconfig:"API_KEY"`
	TimeoutSeconds int        `toml:"timeout_seconds" yaml:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	Temperature    float64    `toml:"temperature" yaml:"temperature" envconfig:"TEMPERATURE"`
	MaxTokens      int        `toml:"max_tokens" yaml:"max_tokens" envconfig:"MAX_TOKENS"`
}

// IsConfigured returns true if a generation provider is selected.
func (s *GenerationSettings) IsConfigured() bool {
	return s.Provider != AIProviderNone
}

// Timeout returns the per-call budget.
func (s *GenerationSettings) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds, DefaultGenerationTimeout)
}

// Settings is the root application configuration.
type Settings struct {
	Notes      NotesSettings      `toml:"notes" yaml:"notes"`
	Chunking   ChunkingSettings   `toml:"chunking" yaml:"chunking"`
	Embedding  EmbeddingSettings  `toml:"embedding" yaml:"embedding"`
	Index      IndexSettings      `toml:"index" yaml:"index"`
	Retrieval  RetrievalSettings  `toml:"retrieval" yaml:"retrieval"`
	Generation GenerationSettings `toml:"generation" yaml:"generation"`
}

// DefaultSettings returns settings for a keyword-only setup with no
// external services.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills zero values with defaults. Explicit values are kept.
func (s *Settings) ApplyDefaults() {
	if s.Chunking.Strategy == "" {
		s.Chunking.Strategy = ChunkStrategyWords
	}
	if s.Chunking.Size <= 0 {
		s.Chunking.Size = DefaultChunkSize
	}
	if s.Chunking.OverlapWords < 0 {
		s.Chunking.OverlapWords = 0
	} else if s.Chunking.OverlapWords == 0 {
		s.Chunking.OverlapWords = DefaultOverlapWords
	}
	if s.Chunking.MinLength <= 0 {
		s.Chunking.MinLength = DefaultMinChunkLength
	}
	if s.Index.Backend == "" {
		if s.Embedding.IsConfigured() {
			s.Index.Backend = IndexBackendLocal
		} else {
			s.Index.Backend = IndexBackendKeyword
		}
	}
	if s.Index.UpsertBatchSize <= 0 {
		s.Index.UpsertBatchSize = DefaultUpsertBatchSize
	}
	if s.Index.Collection == "" {
		s.Index.Collection = DefaultCollection
	}
	if s.Retrieval.GlobalTopK <= 0 {
		s.Retrieval.GlobalTopK = DefaultGlobalTopK
	}
	if s.Retrieval.SessionTopK <= 0 {
		s.Retrieval.SessionTopK = DefaultSessionTopK
	}
	if s.Retrieval.ResultLimit <= 0 {
		s.Retrieval.ResultLimit = DefaultResultLimit
	}
	if s.Generation.Temperature == 0 {
		s.Generation.Temperature = DefaultTemperature
	}
	if s.Generation.MaxTokens <= 0 {
		s.Generation.MaxTokens = DefaultMaxTokens
	}
}

// Validate checks that the settings describe a usable configuration.
func (s *Settings) Validate() error {
	if !s.Chunking.Strategy.IsValid() {
		return fmt.Errorf("%w: chunking strategy %q", ErrUnsupportedType, s.Chunking.Strategy)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: index backend %q", ErrUnsupportedType, s.Index.Backend)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if !s.Generation.Provider.IsValid() {
		return fmt.Errorf("%w: generation provider %q", ErrUnsupportedType, s.Generation.Provider)
	}
	if s.Index.Backend.RequiresEmbedding() && !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: index backend %q requires an embedding provider", ErrInvalidInput, s.Index.Backend)
	}
	if s.Index.Backend == IndexBackendQdrant && s.Index.QdrantURL == "" {
		return fmt.Errorf("%w: qdrant backend requires qdrant_url", ErrInvalidInput)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return fmt.Errorf("%w: embedding provider %q requires an API key", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Generation.Provider.RequiresAPIKey() && s.Generation.APIKey == "" {
		return fmt.Errorf("%w: generation provider %q requires an API key", ErrInvalidInput, s.Generation.Provider)
	}
	return nil
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// AllAIProviders returns the selectable AI providers, disabled last.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderNone}
}

// AllIndexBackends returns the selectable index backends.
func AllIndexBackends() []IndexBackend {
	return []IndexBackend{IndexBackendKeyword, IndexBackendLocal, IndexBackendSQLite, IndexBackendQdrant}
}

// DefaultEmbeddingModels returns the default embedding model per provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultGenerationModels returns the default generation model per provider.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "llama3.2",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}
