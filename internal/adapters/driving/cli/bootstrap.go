package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// ErrNoNotesDir is returned when no directory is given and notes.dir is unset.
var ErrNoNotesDir = errors.New("no notes directory: pass one or set notes.dir")

var watchSkipBootstrap bool

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap [dir]",
	Short: "Ingest every file in a notes directory",
	Long: `Ingests each regular file in the directory into the global partition.
The directory is created when missing. Defaults to notes.dir from the config.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: requires(needsServices),
	RunE:        runBootstrap,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest the notes directory and keep watching it",
	Long: `Bootstraps the notes directory, then ingests files created or
written there until interrupted.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: requires(needsServices),
	RunE:        runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipBootstrap, "skip-bootstrap", false, "only ingest files changed from now on")
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(watchCmd)
}

func notesDir(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if appSettings != nil && appSettings.Notes.Dir != "" {
		return appSettings.Notes.Dir, nil
	}
	return "", ErrNoNotesDir
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if bootstrapService == nil {
		return ErrNotConfigured
	}
	dir, err := notesDir(args)
	if err != nil {
		return err
	}

	res, err := bootstrapService.Bootstrap(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("bootstrap %s: %w", dir, err)
	}
	printBootstrapResult(cmd, dir, res)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	if bootstrapService == nil {
		return ErrNotConfigured
	}
	dir, err := notesDir(args)
	if err != nil {
		return err
	}

	if !watchSkipBootstrap {
		res, err := bootstrapService.Bootstrap(cmd.Context(), dir)
		if err != nil {
			return fmt.Errorf("bootstrap %s: %w", dir, err)
		}
		printBootstrapResult(cmd, dir, res)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (ctrl+c to stop)\n", dir)
	return bootstrapService.Watch(cmd.Context(), dir)
}

func printBootstrapResult(cmd *cobra.Command, dir string, res domain.BootstrapResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d files, %d passages stored, %d skipped, %d failed\n",
		successColor.Sprint("bootstrapped"), dir, res.Files, res.Stored, res.Skipped, res.Failed)
	if res.Failed > 0 {
		printWarning(cmd, fmt.Sprintf("%d files failed, rerun with --verbose for details", res.Failed))
	}
}
