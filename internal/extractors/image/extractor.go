// Package image accepts image uploads without extracting text from them.
package image

import (
	"context"

	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// Extractor recognises image files. OCR is not available, so it always
// yields empty text and the upload is reported as skipped.
type Extractor struct{}

// New creates a new image extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "image"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png"}
}

// Extract returns "".
func (e *Extractor) Extract(_ context.Context, _ string) (string, error) {
	return "", nil
}
