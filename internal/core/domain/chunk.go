package domain

// Chunk is a contiguous span of source text produced during ingestion.
// Chunks are transient: they are created by the chunker, embedded, and
// turned into VectorRecords. They are never mutated after creation.
type Chunk struct {
	// Text is the passage content. Never empty.
	Text string

	// Source is the originating document (usually a filename).
	Source string

	// Category is the partition key the chunk will be stored under.
	Category string

	// Position is the ordinal position within the source document.
	Position int
}

// RecordMetadata is the payload stored alongside each embedding.
type RecordMetadata struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// VectorRecord is the persisted unit of a vector index.
// All records in one index share the same embedding length.
type VectorRecord struct {
	// ID is globally unique. Reusing an ID overwrites the record.
	ID string

	// Embedding is the fixed-length vector representation of Metadata.Text.
	Embedding []float32

	// Metadata carries the passage text and its partition.
	Metadata RecordMetadata
}

// QueryMatch is a single result of a similarity query.
type QueryMatch struct {
	// Score is the backend similarity measure. Higher is more relevant.
	Score float64

	Text     string
	Source   string
	Category string
}
