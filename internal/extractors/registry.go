package extractors

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry dispatches to format extractors by file extension.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.FormatExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]driven.FormatExtractor)}
}

// Register adds an extractor for each of its extensions. A later
// registration for the same extension replaces the earlier one.
func (r *Registry) Register(e driven.FormatExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// Lookup returns the extractor for path, if any.
func (r *Registry) Lookup(path string) (driven.FormatExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the text of path, or "" when the extension is unknown or
// extraction fails.
func (r *Registry) Extract(ctx context.Context, path string) string {
	e, ok := r.Lookup(path)
	if !ok {
		logger.Debug("No extractor for %s", filepath.Base(path))
		return ""
	}

	text, err := e.Extract(ctx, path)
	if err != nil {
		logger.Warn("%s extractor failed on %s: %v", e.Name(), filepath.Base(path), err)
		return ""
	}
	return text
}
