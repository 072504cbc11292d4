package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/notesrag/internal/core/domain"
)

// settingsInput is where the wizard reads answers from. Replaced in tests.
var settingsInput io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the index backend, embedding and generation providers.

Settings are read from the config file, then .env files, then NOTESRAG_*
environment variables.`,
	Annotations: requires(needsConfig),
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: requires(needsConfig),
	RunE:        runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file path",
	Annotations: requires(needsConfig),
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return ErrNotConfigured
		}
		fmt.Fprintln(cmd.OutOrStdout(), configStore.Path())
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:         "check",
	Short:       "Validate settings and ping configured providers",
	Annotations: requires(needsConfig),
	RunE:        runSettingsCheck,
}

var settingsInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the default settings to the config file",
	Annotations: requires(needsConfig),
	RunE:        runSettingsInit,
}

var settingsWizardCmd = &cobra.Command{
	Use:         "wizard",
	Short:       "Interactive setup wizard",
	Long:        `Run an interactive wizard to choose the index backend and AI providers.`,
	Annotations: requires(needsConfig),
	RunE:        runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return ErrNotConfigured
	}

	settings, err := configStore.Load()
	if err != nil {
		cmd.PrintErrln(errorColor.Sprintf("invalid configuration: %v", err))
		cmd.PrintErrln("Run 'notesrag settings wizard' to fix configuration issues.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Current Settings")
	fmt.Fprintln(out, "================")
	fmt.Fprintf(out, "File: %s\n\n", configStore.Path())

	fmt.Fprintln(out, "[Notes]")
	fmt.Fprintf(out, "  Directory: %s\n", valueOr(settings.Notes.Dir, "(not set)"))
	fmt.Fprintf(out, "  Data directory: %s\n\n", valueOr(settings.Notes.DataDir, "(default)"))

	fmt.Fprintln(out, "[Chunking]")
	fmt.Fprintf(out, "  Strategy: %s\n", settings.Chunking.Strategy)
	fmt.Fprintf(out, "  Size: %d\n", settings.Chunking.Size)
	fmt.Fprintf(out, "  Overlap words: %d\n\n", settings.Chunking.OverlapWords)

	fmt.Fprintln(out, "[Index]")
	fmt.Fprintf(out, "  Backend: %s\n", settings.Index.Backend.Description())
	if settings.Index.Backend == domain.IndexBackendQdrant {
		fmt.Fprintf(out, "  Qdrant URL: %s\n", settings.Index.QdrantURL)
		fmt.Fprintf(out, "  Collection: %s\n", settings.Index.Collection)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Embedding]")
	printProvider(out, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey)
	if settings.Embedding.Dimensions > 0 {
		fmt.Fprintf(out, "  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Generation]")
	printProvider(out, settings.Generation.Provider, settings.Generation.Model,
		settings.Generation.BaseURL, settings.Generation.APIKey)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[Retrieval]")
	fmt.Fprintf(out, "  Global top-k: %d\n", settings.Retrieval.GlobalTopK)
	fmt.Fprintf(out, "  Session top-k: %d\n", settings.Retrieval.SessionTopK)
	fmt.Fprintf(out, "  Result limit: %d\n", settings.Retrieval.ResultLimit)

	return nil
}

func printProvider(out io.Writer, provider domain.AIProvider, model, baseURL, apiKey string) {
	fmt.Fprintf(out, "  Provider: %s\n", provider.Description())
	if provider == domain.AIProviderNone {
		return
	}
	fmt.Fprintf(out, "  Model: %s\n", valueOr(model, "(default)"))
	if baseURL != "" {
		fmt.Fprintf(out, "  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			fmt.Fprintf(out, "  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			fmt.Fprintln(out, "  API Key: (not set)")
		}
	}
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return ErrNotConfigured
	}

	out := cmd.OutOrStdout()
	settings, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(out, successColor.Sprint("Configuration is valid."))

	if configValidator == nil {
		return nil
	}

	var failed bool
	if settings.Embedding.IsConfigured() {
		fmt.Fprint(out, "Embedding provider... ")
		if err := configValidator.ValidateEmbedding(&settings.Embedding); err != nil {
			fmt.Fprintln(out, errorColor.Sprintf("FAILED: %v", err))
			failed = true
		} else {
			fmt.Fprintln(out, successColor.Sprint("OK"))
		}
	}
	if settings.Generation.IsConfigured() {
		fmt.Fprint(out, "Generation provider... ")
		if err := configValidator.ValidateLLM(&settings.Generation); err != nil {
			fmt.Fprintln(out, errorColor.Sprintf("FAILED: %v", err))
			failed = true
		} else {
			fmt.Fprintln(out, successColor.Sprint("OK"))
		}
	}

	if failed {
		return errors.New("provider check failed")
	}
	return nil
}

func runSettingsInit(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return ErrNotConfigured
	}
	if _, err := os.Stat(configStore.Path()); err == nil {
		return fmt.Errorf("%s already exists", configStore.Path())
	}
	if err := configStore.Save(domain.DefaultSettings()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default settings to %s\n", configStore.Path())
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return ErrNotConfigured
	}

	settings, err := configStore.Load()
	if err != nil {
		printWarning(cmd, fmt.Sprintf("starting from defaults: %v", err))
		settings = domain.DefaultSettings()
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(settingsInput)

	fmt.Fprintln(out, "notesrag Settings Wizard")
	fmt.Fprintln(out, "========================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 1: Select Index Backend")
	backends := domain.AllIndexBackends()
	for i, b := range backends {
		fmt.Fprintf(out, "  %d. %s\n", i+1, b.Description())
	}
	fmt.Fprint(out, "\nEnter choice [1]: ")
	settings.Index.Backend = backends[parseChoice(readLine(reader), len(backends), 1)-1]
	if settings.Index.Backend == domain.IndexBackendQdrant {
		fmt.Fprintf(out, "Qdrant URL [%s]: ", settings.Index.QdrantURL)
		settings.Index.QdrantURL = valueOr(readLine(reader), settings.Index.QdrantURL)
		fmt.Fprint(out, "Qdrant API key (empty for none): ")
		settings.Index.QdrantAPIKey = readSecret(reader)
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 2: Embedding Provider")
	provider, model, apiKey, err := chooseProvider(out, reader, domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.APIKey = provider, model, apiKey
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 3: Generation Provider")
	provider, model, apiKey, err = chooseProvider(out, reader, domain.DefaultGenerationModels())
	if err != nil {
		return err
	}
	settings.Generation.Provider, settings.Generation.Model, settings.Generation.APIKey = provider, model, apiKey
	fmt.Fprintln(out)

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("settings not saved: %w", err)
	}
	if err := configStore.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintln(out, "Configuration Complete!")
	fmt.Fprintf(out, "Saved to %s. Run 'notesrag settings check' to test the providers.\n", configStore.Path())
	return nil
}

// chooseProvider prompts for a provider, its model and, when required, an API key.
func chooseProvider(
	out io.Writer, reader *bufio.Reader, defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	providers := domain.AllAIProviders()
	for i, p := range providers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p.Description())
	}
	fmt.Fprint(out, "\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]
	if provider == domain.AIProviderNone {
		return provider, "", "", nil
	}

	defaultModel := defaults[provider]
	fmt.Fprintf(out, "Enter model name [%s]: ", defaultModel)
	model := valueOr(readLine(reader), defaultModel)

	var apiKey string
	if provider.RequiresAPIKey() {
		fmt.Fprint(out, "Enter API key: ")
		apiKey = readSecret(reader)
		fmt.Fprintln(out)
		if apiKey == "" {
			return provider, model, "", errors.New("API key is required for this provider")
		}
	}
	return provider, model, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo when stdin is a terminal.
func readSecret(reader *bufio.Reader) string {
	if settingsInput == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
