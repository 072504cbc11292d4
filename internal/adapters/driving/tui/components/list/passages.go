// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// PassageList displays the context passages behind the last answer.
type PassageList struct {
	passages []domain.Passage
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates a new passage list component.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (p *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (p *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			p.MoveUp()
		case tea.KeyDown:
			p.MoveDown()
		default:
		}
	}
	return p, nil
}

// View renders the passage list.
func (p *PassageList) View() string {
	if len(p.passages) == 0 {
		return p.styles.Muted.Render("No passages")
	}

	lines := make([]string, 0, len(p.passages)+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Passages (%d)", len(p.passages))), "")

	// Each passage renders as two lines.
	visible := (p.height - 2) / 2
	if visible < 1 {
		visible = 1
	}

	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := start + visible
	if end > len(p.passages) {
		end = len(p.passages)
	}

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPassage(i, &p.passages[i]))
	}

	return strings.Join(lines, "\n")
}

func (p *PassageList) renderPassage(index int, passage *domain.Passage) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	label := passage.Source
	if label == "" {
		label = "(unknown source)"
	}
	if passage.Category != "" {
		label = fmt.Sprintf("%s [%s]", label, passage.Category)
	}
	label = truncate(label, p.width-16)

	score := fmt.Sprintf("%.2f", passage.Score)

	var header string
	if index == p.selected {
		header = p.styles.Selected.Render(indicator+label) + "  " + p.styles.Score(passage.Score).Render(score)
	} else {
		header = p.styles.Source.Render(indicator+label) + "  " + p.styles.Score(passage.Score).Render(score)
	}

	preview := strings.Join(strings.Fields(passage.Text), " ")
	preview = truncate(preview, p.width-6)

	return header + "\n" + p.styles.Muted.Render("    "+preview)
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if limit < 10 {
		limit = 10
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetPassages replaces the displayed passages and resets the selection.
func (p *PassageList) SetPassages(passages []domain.Passage) {
	p.passages = passages
	p.selected = 0
}

// Passages returns the current passages.
func (p *PassageList) Passages() []domain.Passage {
	return p.passages
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SetSelected sets the selected index.
func (p *PassageList) SetSelected(index int) {
	if index >= 0 && index < len(p.passages) {
		p.selected = index
	}
}

// SelectedPassage returns the currently selected passage, or nil if none.
func (p *PassageList) SelectedPassage() *domain.Passage {
	if len(p.passages) == 0 {
		return nil
	}
	return &p.passages[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.passages)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the current width.
func (p *PassageList) Width() int {
	return p.width
}

// Height returns the current height.
func (p *PassageList) Height() int {
	return p.height
}

// Count returns the number of passages.
func (p *PassageList) Count() int {
	return len(p.passages)
}

// IsEmpty returns whether the list is empty.
func (p *PassageList) IsEmpty() bool {
	return len(p.passages) == 0
}
