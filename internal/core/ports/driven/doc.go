// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns an uploaded file into plain text
//   - PostProcessor: Splits extracted text into passages (the chunker)
//   - CorpusStore: In-memory passages for the keyword engine
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, only keyword retrieval is available.
//   - VectorIndex: Partitioned vector storage. Nil while the configured backend is unreachable.
//   - LLMService: Answer generation. Without it, only retrieval is available.
//   - Watcher: Notes directory change notifications.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
