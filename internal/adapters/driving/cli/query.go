package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

var (
	querySession string
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve passages relevant to a question",
	Long: `Searches the global partition and, with --session, that session's
partition, and prints the merged passages in rank order.

Prints "no notes uploaded yet" when nothing has been ingested and
"no relevant notes found" when nothing matches.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: requires(needsServices),
	RunE:        runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&querySession, "session", "s", "", "also search this session's notes")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the context as JSON")
	rootCmd.AddCommand(queryCmd)
}

// passageJSON is the JSON shape of one passage.
type passageJSON struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// contextJSON is the JSON shape of a retrieved context.
type contextJSON struct {
	Status   domain.ContextStatus `json:"status"`
	Context  string               `json:"context"`
	Passages []passageJSON        `json:"passages"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return ErrNotConfigured
	}

	question := strings.Join(args, " ")
	retrieved, err := queryService.Query(cmd.Context(), question, querySession)
	if err != nil {
		return fmt.Errorf("query failed: %s: %w", domain.UserMessage(err), err)
	}

	if queryJSON {
		return outputContextJSON(cmd, retrieved)
	}
	printContext(cmd, retrieved)
	return nil
}

func outputContextJSON(cmd *cobra.Command, c domain.Context) error {
	payload := contextJSON{
		Status:   c.Status,
		Context:  c.String(),
		Passages: make([]passageJSON, 0, len(c.Passages)),
	}
	for _, p := range c.Passages {
		payload.Passages = append(payload.Passages, passageJSON(p))
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
