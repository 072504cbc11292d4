package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/views/chat"
)

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// App is the root Bubbletea model. It owns the chat view and overlays
// the help screen on top of it.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	chatView    *chat.View
	currentView messages.ViewType

	// err is the error carried by the most recent completion.
	err error

	width  int
	height int
	ready  bool
}

// NewApp creates the TUI over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrInvalidPorts)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        h,
		chatView:    chat.NewView(s, km, ports.Query, ports.Answer).WithSession(ports.Session),
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle(a.windowTitle()),
		a.chatView.Init(),
	)
}

func (a *App) windowTitle() string {
	if a.ports.Session == "" {
		return "notesrag - Study Notes"
	}
	return "notesrag - " + a.ports.Session
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(msg)
	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil
	case messages.Quit:
		return a, tea.Quit
	case messages.ErrorOccurred:
		a.err = msg.Err
	case messages.AnswerCompleted:
		a.err = msg.Err
	case messages.ContextCompleted:
		a.err = msg.Err
	}
	return a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit
	case a.currentView == messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			a.currentView = messages.ViewChat
		}
		return a, nil
	case keymap.Matches(k, a.keymap.Help):
		a.currentView = messages.ViewHelp
		return a, nil
	}
	return a.forward(msg)
}

func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewHelp {
		return a.viewHelp()
	}
	return a.chatView.View()
}

func (a *App) viewHelp() string {
	scope := "Questions search your global notes."
	if a.ports.Session != "" {
		scope = fmt.Sprintf("Questions search your global notes and the notes of session %q.", a.ports.Session)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.styles.Title.Render("Help"),
		"",
		a.help.View(a.keymap),
		"",
		a.styles.Muted.Render(scope),
		a.styles.Muted.Render("[esc] back to chat"),
	)
}

// Run starts the program and blocks until it exits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Chat returns the chat view.
func (a *App) Chat() *chat.View {
	return a.chatView
}

// Err returns the error from the most recent completion, if any.
func (a *App) Err() error {
	return a.err
}

// Ready reports whether a window size has been received.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.chatView.SetDimensions(width, height)
}
