package domain

import "strings"

// Sentinel context strings returned to callers in place of passages.
const (
	// NoNotesMessage is returned when nothing has been ingested yet.
	NoNotesMessage = "no notes uploaded yet"

	// NoMatchesMessage is returned when both partitions yielded nothing.
	NoMatchesMessage = "no relevant notes found"

	// BackendUnavailableMessage is returned when no index is connected.
	BackendUnavailableMessage = "database error: backend not connected"
)

// PassageSeparator joins passages in the rendered context.
const PassageSeparator = "\n\n"

// ContextStatus describes how a Context was produced.
type ContextStatus string

const (
	// ContextOK means Passages holds at least one passage.
	ContextOK ContextStatus = "ok"

	// ContextNoNotes means the corpus or index is empty.
	ContextNoNotes ContextStatus = "no_notes"

	// ContextNoMatches means nothing relevant was found.
	ContextNoMatches ContextStatus = "no_matches"
)

// Passage is one entry of a Context.
type Passage struct {
	Text     string
	Source   string
	Category string
	Score    float64
}

// Context is the ordered list of unique passages produced for one query.
type Context struct {
	Status   ContextStatus
	Passages []Passage
}

// NoNotesContext returns the "nothing ingested" context.
func NoNotesContext() Context {
	return Context{Status: ContextNoNotes}
}

// NoMatchesContext returns the "nothing relevant" context.
func NoMatchesContext() Context {
	return Context{Status: ContextNoMatches}
}

// HasPassages reports whether the context carries real passages.
func (c Context) HasPassages() bool {
	return c.Status == ContextOK && len(c.Passages) > 0
}

// Texts returns the passage texts in rank order.
func (c Context) Texts() []string {
	texts := make([]string, len(c.Passages))
	for i := range c.Passages {
		texts[i] = c.Passages[i].Text
	}
	return texts
}

// String renders the context for the generator: passages separated by a
// blank line, or the sentinel message for the status.
func (c Context) String() string {
	switch c.Status {
	case ContextNoNotes:
		return NoNotesMessage
	case ContextNoMatches:
		return NoMatchesMessage
	}
	if len(c.Passages) == 0 {
		return NoMatchesMessage
	}
	return strings.Join(c.Texts(), PassageSeparator)
}
