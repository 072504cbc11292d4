package driven

import "context"

// Extractor turns an uploaded file into plain text.
// It never fails: unreadable or unsupported files yield "".
type Extractor interface {
	Extract(ctx context.Context, path string) string
}

// FormatExtractor extracts text from one family of file formats.
// Unlike Extractor it reports errors; the registry logs and swallows them.
type FormatExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns lower-case extensions including the dot.
	SupportedExtensions() []string

	// Extract reads path and returns its text.
	Extract(ctx context.Context, path string) (string, error)
}

// CommandRunner executes external commands.
// Abstracted so extractors that shell out can be tested without the binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
