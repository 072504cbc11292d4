package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

var (
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	sourceColor  = color.New(color.FgCyan)
	mutedColor   = color.New(color.Faint)
)

// printWarning writes a yellow notice to stderr.
func printWarning(cmd *cobra.Command, msg string) {
	cmd.PrintErrln(warnColor.Sprint("warning: " + msg))
}

// printFailure writes the user-facing form of err to stderr.
func printFailure(cmd *cobra.Command, prefix string, err error) {
	cmd.PrintErrln(errorColor.Sprintf("%s: %s", prefix, domain.UserMessage(err)))
}

// printContext renders retrieved passages, or the sentinel message when there are none.
func printContext(cmd *cobra.Command, c domain.Context) {
	out := cmd.OutOrStdout()
	if !c.HasPassages() {
		fmt.Fprintln(out, warnColor.Sprint(c.String()))
		return
	}
	for i, p := range c.Passages {
		source := p.Source
		if source == "" {
			source = "(unknown source)"
		}
		fmt.Fprintf(out, "[%d] %s %s\n", i+1, sourceColor.Sprint(source),
			mutedColor.Sprintf("(%s, %.2f)", p.Category, p.Score))
		fmt.Fprintln(out, p.Text)
		fmt.Fprintln(out)
	}
}

// maskAPIKey hides all but the ends of a secret.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
