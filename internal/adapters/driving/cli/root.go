// Package cli provides the notesrag command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
	"github.com/custodia-labs/notesrag/internal/core/ports/driving"
	"github.com/custodia-labs/notesrag/internal/logger"
)

// version can be overridden at build time via:
// go build -ldflags "-X github.com/custodia-labs/notesrag/internal/adapters/driving/cli.version=1.2.3"
var version = "dev"

const logo = "\n" +
	"             _                         \n" +
	"  _ __   ___ | |_ ___  ___ _ __ __ _  __ _ \n" +
	" | '_ \\ / _ \\| __/ _ \\/ __| '__/ _` |/ _` |\n" +
	" | | | | (_) | ||  __/\\__ \\ | | (_| | (_| |\n" +
	" |_| |_|\\___/ \\__\\___||___/_|  \\__,_|\\__, |\n" +
	"                                     |___/ \n"

// ErrNotConfigured is returned when a command runs before its dependencies are wired.
var ErrNotConfigured = errors.New("cli: services not configured")

// Annotation keys declaring what a command needs before it runs.
const (
	annotationNeeds = "notesrag/needs"
	needsConfig     = "config"
	needsServices   = "services"
)

// Services holds the driving ports and shared state used by commands.
type Services struct {
	Ingest    driving.IngestService
	Query     driving.QueryService
	Answer    driving.AnswerService
	Bootstrap driving.BootstrapService
	Settings  *domain.Settings

	// IndexReason explains why the vector index is not connected.
	IndexReason string
	// Warnings are non-fatal startup issues shown before the command runs.
	Warnings []string
}

// ConfigStoreFactory opens the config store for a path. Empty means the default location.
type ConfigStoreFactory func(path string) (driven.ConfigStore, error)

// ServiceFactory builds the services from a config store. The returned func
// releases backend resources.
type ServiceFactory func(ctx context.Context, store driven.ConfigStore) (*Services, func(), error)

var (
	verbose    bool
	configPath string
)

var (
	configStoreFactory ConfigStoreFactory
	serviceFactory     ServiceFactory
	releaseServices    func()

	configStore     driven.ConfigStore
	configValidator driven.AIConfigValidator

	ingestService    driving.IngestService
	queryService     driving.QueryService
	answerService    driving.AnswerService
	bootstrapService driving.BootstrapService
	appSettings      *domain.Settings
	indexReason      string
)

var rootCmd = &cobra.Command{
	Use:   "notesrag",
	Short: "Study notes retrieval and answering",
	Long: color.GreenString(logo) + `
Upload study notes, retrieve the passages relevant to a question and
optionally answer it with a language model grounded in those passages.

Notes are stored in a global partition shared by every session, or in a
session partition visible only to that session.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.notesrag/config.toml, .yaml/.yml selects YAML)")
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer Shutdown()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetConfigStoreFactory sets how commands open the config store.
func SetConfigStoreFactory(f ConfigStoreFactory) {
	configStoreFactory = f
}

// SetServiceFactory sets how commands build services on first use.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetConfigStore injects a config store directly.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetConfigValidator sets the validator used by settings commands.
func SetConfigValidator(v driven.AIConfigValidator) {
	configValidator = v
}

// SetServices injects services directly. A nil argument clears them.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	queryService = s.Query
	answerService = s.Answer
	bootstrapService = s.Bootstrap
	appSettings = s.Settings
	indexReason = s.IndexReason
}

// Shutdown releases services built by the service factory.
func Shutdown() {
	if releaseServices != nil {
		releaseServices()
		releaseServices = nil
	}
}

// requires annotates a command with the dependencies prepare must wire.
func requires(needs string) map[string]string {
	return map[string]string{annotationNeeds: needs}
}

// prepare applies global flags and lazily wires what the command declares it needs.
func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	needs := cmd.Annotations[annotationNeeds]
	if needs == "" {
		return nil
	}

	if configStore == nil {
		if configStoreFactory == nil {
			return ErrNotConfigured
		}
		store, err := configStoreFactory(configPath)
		if err != nil {
			return fmt.Errorf("opening config: %w", err)
		}
		configStore = store
	}
	if needs == needsConfig || queryService != nil {
		return nil
	}

	if serviceFactory == nil {
		return ErrNotConfigured
	}
	s, release, err := serviceFactory(cmd.Context(), configStore)
	if err != nil {
		return err
	}
	SetServices(s)
	releaseServices = release

	for _, w := range s.Warnings {
		printWarning(cmd, w)
	}
	if s.IndexReason != "" {
		printWarning(cmd, "vector index not connected: "+s.IndexReason)
	}
	return nil
}
