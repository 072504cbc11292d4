package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.PassageCount())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilDependencies(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestBar_Setters(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateThinking)
	bar.SetMessage("hello")
	bar.SetMode("ask")
	bar.SetPassageCount(3)
	bar.SetWidth(120)

	assert.Equal(t, StateThinking, bar.State())
	assert.Equal(t, "hello", bar.Message())
	assert.Equal(t, "ask", bar.Mode())
	assert.Equal(t, 3, bar.PassageCount())
	assert.Equal(t, 120, bar.Width())
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetPassageCount(2)
	bar.SetMode("retrieve")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 0, bar.PassageCount())
	assert.Equal(t, "retrieve", bar.Mode())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    string
	}{
		{"ready", StateReady, "", 0, "Ready"},
		{"thinking", StateThinking, "", 0, "Thinking..."},
		{"error without message", StateError, "", 0, "Error"},
		{"error with message", StateError, "index offline", 0, "Error: index offline"},
		{"help", StateHelp, "", 0, "Help"},
		{"one passage", StateAnswered, "", 1, "1 passage"},
		{"many passages", StateAnswered, "", 4, "4 passages"},
		{"answered notice", StateAnswered, "No notes indexed", 0, "No notes indexed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetPassageCount(tt.count)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_View_Mode(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetMode("retrieve")

	assert.Contains(t, bar.View(), "[retrieve]")
}

func TestBar_View_Keybindings(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)

	assert.Contains(t, bar.View(), "quit")
	assert.NotContains(t, bar.View(), "next passage")

	bar.SetState(StateAnswered)
	bar.SetPassageCount(2)
	assert.Contains(t, bar.View(), "next passage")
}

func TestState_Constants(t *testing.T) {
	assert.Equal(t, State("ready"), StateReady)
	assert.Equal(t, State("thinking"), StateThinking)
	assert.Equal(t, State("error"), StateError)
	assert.Equal(t, State("help"), StateHelp)
	assert.Equal(t, State("answered"), StateAnswered)
}
