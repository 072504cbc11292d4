package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

var (
	ingestSession string
	ingestGlobal  bool
	ingestReplace bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Upload note files",
	Long: `Extracts text from each file, splits it into passages and stores them.

Supported formats: plain text, Markdown, HTML, PDF (needs pdftotext).
Images are accepted but contribute no text.

Files go to the session partition given by --session, or to the shared
global partition with --global. With --replace, passages stored earlier
from a file of the same name in that partition are dropped first.`,
	Example: `  notesrag ingest --global biology.pdf chemistry.md
  notesrag ingest --session exam-week lecture-07.txt
  notesrag ingest --global --replace biology.pdf`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: requires(needsServices),
	RunE:        runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSession, "session", "s", "", "session that owns the uploads")
	ingestCmd.Flags().BoolVarP(&ingestGlobal, "global", "g", false, "store in the global partition")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "drop passages stored earlier from the same file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return ErrNotConfigured
	}
	if !ingestGlobal && ingestSession == "" {
		return fmt.Errorf("%w: pass --session or --global", domain.ErrMissingSession)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		res, err := ingestService.Ingest(cmd.Context(), domain.IngestRequest{
			Path:    path,
			Session: ingestSession,
			Global:  ingestGlobal,
			Replace: ingestReplace,
		})
		switch {
		case err != nil:
			failed++
			printFailure(cmd, path, err)
		case res.Skipped:
			printWarning(cmd, fmt.Sprintf("%s: no text extracted, skipped", res.Source))
		default:
			fmt.Fprintf(out, "%s %s: %d/%d passages stored (%s)\n",
				successColor.Sprint("ingested"), res.Source, res.Stored, res.Chunks, res.Category)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
