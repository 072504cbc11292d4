// Package pdf extracts text from PDF files using the pdftotext command.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// Tool is the external command used for extraction.
const Tool = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// execRunner runs commands with os/exec.
type execRunner struct{}

// Run executes name and returns its standard output.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents.
type Extractor struct {
	runner   driven.CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF extractor that runs the system pdftotext.
func New() *Extractor {
	return &Extractor{
		runner:   execRunner{},
		lookPath: exec.LookPath,
	}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
// The runner is trusted to provide pdftotext.
func NewWithRunner(runner driven.CommandRunner) *Extractor {
	return &Extractor{
		runner:   runner,
		lookPath: func(name string) (string, error) { return name, nil },
	}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "pdf"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract runs pdftotext on path and returns the text of every page.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	tool, err := e.lookPath(Tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPDFToolNotFound, InstallInstructions())
	}

	// -layout keeps columns readable; "-" writes to stdout
	out, err := e.runner.Run(ctx, tool, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}
	return plaintext.Normalise(string(out)), nil
}

// InstallInstructions returns a hint for installing pdftotext.
func InstallInstructions() string {
	return "install poppler-utils (apt install poppler-utils, brew install poppler) to get pdftotext"
}
