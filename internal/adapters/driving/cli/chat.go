package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
)

// ErrNotTerminal is returned when chat runs without an interactive terminal.
var ErrNotTerminal = errors.New("chat needs an interactive terminal; use 'notesrag ask' or 'notesrag query' instead")

// isTerminal reports whether stdin is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runTUI runs the chat program. Replaced in tests.
var runTUI = func(app *tui.App) error {
	return app.Run()
}

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat interface",
	Long: `Launch an interactive terminal session for asking questions about
your notes.

Answers are generated when a generation provider is configured; otherwise
the retrieved passages are shown.

Controls:
  Enter     - Ask
  Tab       - Toggle answering / passages only
  ↑/↓       - Browse passages
  PgUp/PgDn - Scroll the transcript
  F1        - Help
  Ctrl+C    - Quit`,
	Annotations: requires(needsServices),
	RunE:        runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "also use this session's notes")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	if queryService == nil {
		return ErrNotConfigured
	}
	if !isTerminal() {
		return ErrNotTerminal
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	ports := tui.NewPorts(queryService, chatAnswerService())
	ports.Session = chatSession

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runTUI(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// chatAnswerService returns the answer service only when generation is configured.
func chatAnswerService() driving.AnswerService {
	if answerService == nil {
		return nil
	}
	if appSettings != nil && !appSettings.Generation.IsConfigured() {
		return nil
	}
	return answerService
}
