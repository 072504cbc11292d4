package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

var (
	askSession     string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from your notes",
	Long: `Retrieves the passages relevant to the question and asks the
configured generation model to answer from them.

Requires a generation provider; see 'notesrag settings'.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: requires(needsServices),
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "also use this session's notes")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the passages behind the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return fmt.Errorf("%w: %s", domain.ErrGeneratorUnavailable, domain.UserMessage(domain.ErrGeneratorUnavailable))
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Ask(cmd.Context(), question, askSession)
	if err != nil {
		return fmt.Errorf("ask failed: %s: %w", domain.UserMessage(err), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)

	if askShowContext {
		fmt.Fprintln(out)
		fmt.Fprintln(out, mutedColor.Sprint("Context:"))
		printContext(cmd, answer.Context)
	}
	return nil
}
