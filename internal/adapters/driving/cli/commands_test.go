package cli

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notesrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/notesrag/internal/core/domain"
)

func TestIngestCmd_Global(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("ingest", "--global", "notes/biology.md", "notes/chem.txt")

	require.NoError(t, err)
	require.Len(t, ts.ingest.requests, 2)
	assert.True(t, ts.ingest.requests[0].Global)
	assert.Equal(t, "notes/chem.txt", ts.ingest.requests[1].Path)
	assert.Contains(t, stdout, "biology.md: 3/3 passages stored (global)")
}

func TestIngestCmd_Replace(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ingest", "--global", "--replace", "notes/biology.md")

	require.NoError(t, err)
	require.Len(t, ts.ingest.requests, 1)
	assert.True(t, ts.ingest.requests[0].Replace)
}

func TestIngestCmd_Session(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("ingest", "-s", "s1", "week3.txt")

	require.NoError(t, err)
	require.Len(t, ts.ingest.requests, 1)
	assert.Equal(t, "s1", ts.ingest.requests[0].Session)
	assert.False(t, ts.ingest.requests[0].Global)
	assert.False(t, ts.ingest.requests[0].Replace)
	assert.Contains(t, stdout, "(s1)")
}

func TestIngestCmd_RequiresPartition(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ingest", "week3.txt")

	assert.ErrorIs(t, err, domain.ErrMissingSession)
	assert.Empty(t, ts.ingest.requests)
}

func TestIngestCmd_RequiresFiles(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("ingest", "--global")

	assert.Error(t, err)
}

func TestIngestCmd_PartialFailure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.errs["broken.pdf"] = domain.ErrBackendUnavailable
	ts.ingest.skipped["scan.png"] = true

	stdout, stderr, err := execute("ingest", "--global", "ok.md", "broken.pdf", "scan.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, stdout, "ok.md")
	assert.Contains(t, stderr, "broken.pdf: "+domain.BackendUnavailableMessage)
	assert.Contains(t, stderr, "scan.png: no text extracted, skipped")
}

func TestQueryCmd_Passages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("query", "--session", "s1", "where", "is", "ATP", "made")

	require.NoError(t, err)
	assert.Equal(t, "where is ATP made", ts.query.question)
	assert.Equal(t, "s1", ts.query.session)
	assert.Contains(t, stdout, "[1] biology.md (global, 0.91)")
	assert.Contains(t, stdout, "Mitochondria produce ATP.")
	assert.Contains(t, stdout, "[2] week3.txt (s1, 0.72)")
}

func TestQueryCmd_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		ctx  domain.Context
		want string
	}{
		{"no notes", domain.NoNotesContext(), domain.NoNotesMessage},
		{"no matches", domain.NoMatchesContext(), domain.NoMatchesMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()
			ts.query.result = tt.ctx

			stdout, _, err := execute("query", "anything")

			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestQueryCmd_JSON(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("query", "--json", "ATP")
	require.NoError(t, err)

	var payload contextJSON
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, domain.ContextOK, payload.Status)
	require.Len(t, payload.Passages, 2)
	assert.Equal(t, "biology.md", payload.Passages[0].Source)
	assert.Contains(t, payload.Context, "Mitochondria produce ATP.")
}

func TestQueryCmd_JSON_EmptyPassages(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.result = domain.NoNotesContext()

	stdout, _, err := execute("query", "--json", "ATP")

	require.NoError(t, err)
	assert.Contains(t, stdout, `"passages": []`)
	assert.Contains(t, stdout, domain.NoNotesMessage)
}

func TestQueryCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.query.err = domain.ErrBackendUnavailable

	_, _, err := execute("query", "ATP")

	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), domain.BackendUnavailableMessage)
}

func TestAskCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("ask", "-s", "s1", "--show-context", "where", "is", "ATP", "made?")

	require.NoError(t, err)
	assert.Equal(t, "where is ATP made?", ts.answer.question)
	assert.Equal(t, "s1", ts.answer.session)
	assert.Contains(t, stdout, "ATP comes from mitochondria.")
	assert.Contains(t, stdout, "Context:")
	assert.Contains(t, stdout, "biology.md")
}

func TestAskCmd_WithoutContext(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("ask", "q")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "Context:")
}

func TestAskCmd_GeneratorUnavailable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.err = domain.ErrGeneratorUnavailable

	_, _, err := execute("ask", "q")

	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestAskCmd_RateLimited(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.answer.err = domain.ErrRateLimited

	_, _, err := execute("ask", "q")

	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.UserMessage(domain.ErrRateLimited))
}

func TestBootstrapCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("bootstrap", "/tmp/notes")

	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/notes"}, ts.bootstrap.dirs)
	assert.Contains(t, stdout, "2 files, 5 passages stored, 0 skipped, 0 failed")
}

func TestBootstrapCmd_DefaultsToConfiguredDir(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.Notes.Dir = "/srv/notes"

	_, _, err := execute("bootstrap")

	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/notes"}, ts.bootstrap.dirs)
}

func TestBootstrapCmd_NoDir(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("bootstrap")

	assert.ErrorIs(t, err, ErrNoNotesDir)
}

func TestBootstrapCmd_ReportsFailures(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.bootstrap.result = domain.BootstrapResult{Files: 3, Failed: 2}

	_, stderr, err := execute("bootstrap", "/tmp/notes")

	require.NoError(t, err)
	assert.Contains(t, stderr, "2 files failed")
}

func TestBootstrapCmd_Error(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.bootstrap.err = errors.New("permission denied")

	_, _, err := execute("bootstrap", "/root/notes")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestWatchCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	stdout, _, err := execute("watch", "/tmp/notes")

	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/notes"}, ts.bootstrap.dirs)
	assert.Equal(t, "/tmp/notes", ts.bootstrap.watched)
	assert.Contains(t, stdout, "Watching /tmp/notes")
}

func TestWatchCmd_SkipBootstrap(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := execute("watch", "--skip-bootstrap", "/tmp/notes")

	require.NoError(t, err)
	assert.Empty(t, ts.bootstrap.dirs)
	assert.Equal(t, 1, ts.bootstrap.watchCalls)
}

func TestChatCmd_RequiresTerminal(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	original := isTerminal
	isTerminal = func() bool { return false }
	defer func() { isTerminal = original }()

	_, _, err := execute("chat")

	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestChatCmd_RunsApp(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	origTerminal, origRun := isTerminal, runTUI
	defer func() { isTerminal, runTUI = origTerminal, origRun }()
	isTerminal = func() bool { return true }

	var ran *tui.App
	runTUI = func(app *tui.App) error {
		ran = app
		return nil
	}

	_, _, err := execute("chat", "--session", "s1")

	require.NoError(t, err)
	require.NotNil(t, ran)
	// Generation is not configured in the default settings.
	assert.Equal(t, "retrieve", ran.Chat().Mode())
}

func TestChatCmd_RunError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	origTerminal, origRun := isTerminal, runTUI
	defer func() { isTerminal, runTUI = origTerminal, origRun }()
	isTerminal = func() bool { return true }
	runTUI = func(*tui.App) error { return errors.New("no tty") }

	_, _, err := execute("chat")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TUI error")
}

func TestChatAnswerService(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	assert.Nil(t, chatAnswerService())

	ts.settings.Generation.Provider = domain.AIProviderOllama
	assert.Equal(t, ts.answer, chatAnswerService())

	SetServices(nil)
	assert.Nil(t, chatAnswerService())
}

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
	assert.Equal(t, needsServices, mcpServeCmd.Annotations[annotationNeeds])
}
