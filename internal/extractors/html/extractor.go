// Package html extracts readable text from saved web pages.
package html

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor.
func (e *Extractor) Name() string {
	return "html"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

// Extract reads path and returns its visible text.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	text, err := visibleText(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return text, nil
}

// hidden elements contribute no text.
var hidden = map[string]bool{
	"head": true, "script": true, "style": true,
	"noscript": true, "svg": true, "template": true,
}

// block elements start and end a line.
var block = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true, "article": true,
}

// Strip returns the readable text of an HTML fragment, one block per line.
func Strip(content string) string {
	text, _ := visibleText(strings.NewReader(content))
	return text
}

func visibleText(r io.Reader) (string, error) {
	var (
		b     strings.Builder
		depth int // open hidden elements
	)

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return tidy(b.String()), nil
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if hidden[tag] {
				switch tt {
				case html.StartTagToken:
					depth++
				case html.EndTagToken:
					if depth > 0 {
						depth--
					}
				}
				continue
			}
			if block[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

// tidy collapses runs of whitespace within lines and drops blank lines.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
