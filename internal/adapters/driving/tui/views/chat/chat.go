// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

// ErrNoQueryService is returned when a question is submitted without a query service.
var ErrNoQueryService = errors.New("chat: query service not available")

// Mode labels shown in the status bar.
const (
	ModeAsk      = "ask"
	ModeRetrieve = "retrieve"
)

// Heights reserved for the header, input, passages and status bar.
const (
	chromeHeight  = 8
	passageHeight = 10
)

// Turn is one exchange in the transcript.
type Turn struct {
	Question string
	Reply    string
	// Notice marks replies that are status messages rather than answers.
	Notice  bool
	Pending bool
}

// View is the chat view: a scrolling transcript, the passages behind the
// latest reply, a question input and a status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	list       *list.PassageList
	statusbar  *status.Bar
	transcript viewport.Model

	query   driving.QueryService
	answer  driving.AnswerService
	session string
	ctx     context.Context

	turns        []Turn
	width        int
	height       int
	ready        bool
	pending      bool
	retrieveOnly bool
}

// NewView creates a new chat view. A nil answer service puts the view in
// retrieve mode permanently.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	query driving.QueryService,
	answer driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewPassageList(s),
		statusbar:    status.NewBar(s, km),
		transcript:   viewport.New(80, 24-chromeHeight-passageHeight),
		query:        query,
		answer:       answer,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		retrieveOnly: answer == nil,
	}
	v.syncMode()
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithSession scopes questions to a session corpus.
func (v *View) WithSession(session string) *View {
	v.session = session
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		return v, v.handleAnswerCompleted(msg)

	case messages.ContextCompleted:
		v.handleContextCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.finishTurn(domain.UserMessage(msg.Err), true)
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Submit):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.pending {
			return v, nil
		}
		v.input.Reset()
		return v, v.submit(question)

	case keymap.Matches(keyStr, v.keymap.ToggleMode):
		if v.answer != nil {
			v.retrieveOnly = !v.retrieveOnly
			v.syncMode()
		}
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Clear):
		if !v.pending {
			v.turns = nil
			v.list.SetPassages(nil)
			v.statusbar.Clear()
			v.refreshTranscript()
		}
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		v.list, _ = v.list.Update(msg)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.ScrollUp), keymap.Matches(keyStr, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit records a pending turn and starts the service call.
func (v *View) submit(question string) tea.Cmd {
	v.pending = true
	v.turns = append(v.turns, Turn{Question: question, Pending: true})
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateThinking)
	v.refreshTranscript()

	if v.retrieveOnly {
		return v.performQuery(question)
	}
	return v.performAsk(question)
}

func (v *View) performAsk(question string) tea.Cmd {
	answer, ctx, session := v.answer, v.ctx, v.session
	return func() tea.Msg {
		result, err := answer.Ask(ctx, question, session)
		return messages.AnswerCompleted{Question: question, Answer: result, Err: err}
	}
}

func (v *View) performQuery(question string) tea.Cmd {
	query, ctx, session := v.query, v.ctx, v.session
	return func() tea.Msg {
		if query == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		retrieved, err := query.Query(ctx, question, session)
		return messages.ContextCompleted{Question: question, Context: retrieved, Err: err}
	}
}

// handleAnswerCompleted records the reply. When generation turns out to be
// unavailable the view drops to retrieve mode and re-runs the question.
func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) tea.Cmd {
	if errors.Is(msg.Err, domain.ErrGeneratorUnavailable) {
		v.answer = nil
		v.retrieveOnly = true
		v.syncMode()
		return v.performQuery(msg.Question)
	}
	if msg.Err != nil {
		v.list.SetPassages(msg.Answer.Context.Passages)
		v.finishTurn(domain.UserMessage(msg.Err), true)
		v.setError(msg.Err)
		return nil
	}

	v.showContext(msg.Answer.Context)
	v.finishTurn(msg.Answer.Text, false)
	return nil
}

func (v *View) handleContextCompleted(msg messages.ContextCompleted) {
	if msg.Err != nil {
		v.list.SetPassages(nil)
		v.finishTurn(domain.UserMessage(msg.Err), true)
		v.setError(msg.Err)
		return
	}

	v.showContext(msg.Context)
	if msg.Context.HasPassages() {
		v.finishTurn(msg.Context.String(), false)
		return
	}
	v.finishTurn(msg.Context.String(), true)
}

// showContext fills the passage list and reports sentinel statuses.
func (v *View) showContext(c domain.Context) {
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateAnswered)
	if c.HasPassages() {
		v.list.SetPassages(c.Passages)
		v.statusbar.SetPassageCount(len(c.Passages))
		return
	}
	v.list.SetPassages(nil)
	v.statusbar.SetMessage(c.String())
}

func (v *View) setError(err error) {
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(domain.UserMessage(err))
}

// finishTurn completes the pending turn, if any.
func (v *View) finishTurn(reply string, notice bool) {
	v.pending = false
	if n := len(v.turns); n > 0 && v.turns[n-1].Pending {
		v.turns[n-1].Reply = reply
		v.turns[n-1].Notice = notice
		v.turns[n-1].Pending = false
	}
	v.refreshTranscript()
}

func (v *View) syncMode() {
	if v.retrieveOnly {
		v.statusbar.SetMode(ModeRetrieve)
		v.input.SetLabel("Find: ")
		return
	}
	v.statusbar.SetMode(ModeAsk)
	v.input.SetLabel("Ask: ")
}

func (v *View) refreshTranscript() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question about your notes.")
	}

	wrap := v.width - 4
	if wrap < 20 {
		wrap = 20
	}

	blocks := make([]string, 0, len(v.turns))
	for _, turn := range v.turns {
		q := v.styles.Question.Render("> " + turn.Question)
		var reply string
		switch {
		case turn.Pending:
			reply = v.styles.Muted.Render("  ...")
		case turn.Notice:
			reply = v.styles.Warning.PaddingLeft(2).Width(wrap).Render(turn.Reply)
		default:
			reply = v.styles.Answer.Width(wrap).Render(turn.Reply)
		}
		blocks = append(blocks, q+"\n"+reply)
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("notesrag"),
		v.transcript.View(),
		"",
		v.list.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions and lays out the components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.list.SetDimensions(width, passageHeight)

	transcriptHeight := height - chromeHeight - passageHeight
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.Width = width
	v.transcript.Height = transcriptHeight
	v.refreshTranscript()
}

// Turns returns the transcript so far.
func (v *View) Turns() []Turn {
	return v.turns
}

// Pending reports whether a question is awaiting its reply.
func (v *View) Pending() bool {
	return v.pending
}

// Mode returns the current mode label.
func (v *View) Mode() string {
	return v.statusbar.Mode()
}

// Passages returns the passages behind the latest reply.
func (v *View) Passages() []domain.Passage {
	return v.list.Passages()
}

// StatusBar exposes the status bar for the parent model.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Ready reports whether the view has received its dimensions.
func (v *View) Ready() bool {
	return v.ready
}
