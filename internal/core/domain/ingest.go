package domain

// IngestRequest describes one uploaded file.
type IngestRequest struct {
	// Path is the file on local disk.
	Path string

	// Session owns private uploads. Ignored when Global is set.
	Session string

	// Global stores the document in the shared partition.
	Global bool

	// Replace drops earlier records of the same source and category
	// before the new chunks are stored.
	Replace bool
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	Source   string
	Category string

	// Chunks is how many passages the chunker produced.
	Chunks int

	// Stored is how many passages reached the index or corpus.
	// It may be less than Chunks when items or batches fail.
	Stored int

	// Skipped is set when extraction produced no text.
	Skipped bool
}

// BootstrapResult summarises ingestion of a notes directory.
type BootstrapResult struct {
	Files   int
	Skipped int
	Failed  int
	Stored  int
}

// Answer is a generated reply with the context it was grounded on.
type Answer struct {
	Text    string
	Context Context
}
