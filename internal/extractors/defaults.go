package extractors

import (
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/extractors/html"
	"github.com/custodia-labs/notesrag/internal/extractors/image"
	"github.com/custodia-labs/notesrag/internal/extractors/markdown"
	"github.com/custodia-labs/notesrag/internal/extractors/pdf"
	"github.com/custodia-labs/notesrag/internal/extractors/plaintext"
)

// NewDefaultRegistry registers every built-in extractor. A nil runner
// selects the system pdftotext.
func NewDefaultRegistry(runner driven.CommandRunner) *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(image.New())
	if runner == nil {
		r.Register(pdf.New())
	} else {
		r.Register(pdf.NewWithRunner(runner))
	}
	return r
}
