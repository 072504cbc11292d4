package domain

import (
	"path/filepath"
	"strings"
)

// Document is the extracted text of one uploaded file, ready for chunking.
type Document struct {
	// Source is the display name of the file (its base name).
	Source string

	// Category is the partition the document's chunks are stored under.
	Category string

	// Content is the full extracted text before chunking.
	Content string
}

// SourceName returns the display name recorded for a file path.
func SourceName(path string) string {
	return filepath.Base(path)
}

// IsBlank reports whether the document has no usable text.
func (d *Document) IsBlank() bool {
	return strings.TrimSpace(d.Content) == ""
}
