// Package domain defines the core business entities for notesrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Extracted text of one uploaded file
//   - Chunk: A bounded passage of source text prepared for retrieval
//   - VectorRecord: The persisted (id, embedding, metadata) unit
//   - QueryMatch: A scored passage returned by a similarity query
//   - Context: The ranked, deduplicated passages handed to generation
//   - Settings: Typed application configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
