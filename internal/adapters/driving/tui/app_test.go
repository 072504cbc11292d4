package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func typeInto(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, chat.ModeRetrieve, app.Chat().Mode())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingQueryService)

	_, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrInvalidPorts)
}

func TestApp_WithContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	var seen context.Context
	query := &MockQueryService{QueryFunc: func(ctx context.Context, _, _ string) (domain.Context, error) {
		seen = ctx
		return domain.NoMatchesContext(), nil
	}}
	app := newTestApp(t, NewPorts(query, nil))
	assert.Equal(t, app, app.WithContext(ctx))

	typeInto(app, "q")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	require.NotNil(t, seen)
	assert.Equal(t, "marker", seen.Value(key{}))
}

func TestApp_Init(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))
	require.NoError(t, err)

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, model.(*App).Ready())
	assert.True(t, app.Chat().Ready())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, nil))
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, NewPorts(&MockQueryService{}, nil))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_LetterQDoesNotQuit(t *testing.T) {
	app := newTestApp(t, NewPorts(&MockQueryService{}, nil))

	typeInto(app, "q")

	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, NewPorts(&MockQueryService{}, nil))

	app.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "toggle mode")

	// Keys other than back are swallowed by the help view.
	typeInto(app, "x")
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_ViewChanged(t *testing.T) {
	app := newTestApp(t, NewPorts(&MockQueryService{}, nil))

	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	assert.Equal(t, messages.ViewHelp, app.CurrentView())
}

func TestApp_AskFlow(t *testing.T) {
	answer := &MockAnswerService{AskFunc: func(_ context.Context, question, session string) (domain.Answer, error) {
		assert.Equal(t, "what is osmosis", question)
		assert.Equal(t, "week3", session)
		return domain.Answer{
			Text: "Diffusion of water across a membrane.",
			Context: domain.Context{
				Status:   domain.ContextOK,
				Passages: []domain.Passage{{Text: "Osmosis moves water.", Source: "bio.md"}},
			},
		}, nil
	}}
	ports := NewPorts(&MockQueryService{}, answer)
	ports.Session = "week3"
	app := newTestApp(t, ports)

	typeInto(app, "what is osmosis")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.NoError(t, app.Err())
	require.Len(t, app.Chat().Turns(), 1)
	assert.Equal(t, "Diffusion of water across a membrane.", app.Chat().Turns()[0].Reply)
	assert.Contains(t, app.View(), "bio.md")
}

func TestApp_QueryError(t *testing.T) {
	query := &MockQueryService{QueryFunc: func(context.Context, string, string) (domain.Context, error) {
		return domain.Context{}, domain.ErrBackendUnavailable
	}}
	app := newTestApp(t, NewPorts(query, nil))

	typeInto(app, "q")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrBackendUnavailable)
	assert.Contains(t, app.View(), domain.BackendUnavailableMessage)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, NewPorts(&MockQueryService{}, nil))
	err := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: err})

	assert.ErrorIs(t, app.Err(), err)
}

func TestApp_SessionScopeInHelp(t *testing.T) {
	global := newTestApp(t, NewPorts(&MockQueryService{}, nil))
	assert.Equal(t, "notesrag - Study Notes", global.windowTitle())

	ports := NewPorts(&MockQueryService{}, nil)
	ports.Session = "week3"
	scoped := newTestApp(t, ports)
	assert.Equal(t, "notesrag - week3", scoped.windowTitle())

	scoped.Update(messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, scoped.View(), `session "week3"`)
}
