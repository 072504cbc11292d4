package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/notesrag/internal/core/domain"
	"github.com/custodia-labs/notesrag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix prefixes every environment override, e.g. NOTESRAG_INDEX_BACKEND.
const EnvPrefix = "NOTESRAG"

// DefaultFileName is the configuration file created in the default directory.
const DefaultFileName = "config.toml"

// ConfigStore is a file-based implementation of driven.ConfigStore.
// The file format follows the extension: .yaml/.yml is YAML, anything else TOML.
// Values from .env files and NOTESRAG_* variables override the file.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
	envFiles []string
}

// Option configures a ConfigStore.
type Option func(*ConfigStore)

// WithEnvFiles replaces the .env files read before environment overrides.
func WithEnvFiles(paths ...string) Option {
	return func(s *ConfigStore) {
		s.envFiles = paths
	}
}

// NewConfigStore creates a config store for the file at path.
// If path is empty, defaults to ~/.notesrag/config.toml.
func NewConfigStore(path string, opts ...Option) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".notesrag", DefaultFileName)
	}

	s := &ConfigStore{
		filePath: path,
		envFiles: []string{".env", filepath.Join(filepath.Dir(path), ".env")},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the file, applies .env and NOTESRAG_* overrides, fills defaults
// and validates the result. A missing file yields the defaults.
func (s *ConfigStore) Load() (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := &domain.Settings{}

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No config file yet - that's fine, start from defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := s.unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", s.filePath, err)
		}
	}

	if err := s.loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := applyEnv(settings); err != nil {
		return nil, err
	}

	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save persists settings to the configuration file.
func (s *ConfigStore) Save(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func (s *ConfigStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.filePath))
	return ext == ".yaml" || ext == ".yml"
}

func (s *ConfigStore) unmarshal(data []byte, settings *domain.Settings) error {
	if s.isYAML() {
		return yaml.Unmarshal(data, settings)
	}
	return toml.Unmarshal(data, settings)
}

func (s *ConfigStore) marshal(settings *domain.Settings) ([]byte, error) {
	if s.isYAML() {
		return yaml.Marshal(settings)
	}
	return toml.Marshal(settings)
}

// loadEnvFiles reads .env files into the process environment. Variables
// already set are kept. Missing files are skipped.
func (s *ConfigStore) loadEnvFiles() error {
	seen := make(map[string]bool)
	for _, path := range s.envFiles {
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnv overrides each settings group from NOTESRAG_<GROUP>_<FIELD>.
func applyEnv(settings *domain.Settings) error {
	groups := []struct {
		prefix string
		target any
	}{
		{"NOTES", &settings.Notes},
		{"CHUNKING", &settings.Chunking},
		{"EMBEDDING", &settings.Embedding},
		{"INDEX", &settings.Index},
		{"RETRIEVAL", &settings.Retrieval},
		{"GENERATION", &settings.Generation},
	}
	for _, g := range groups {
		if err := envconfig.Process(EnvPrefix+"_"+g.prefix, g.target); err != nil {
			return fmt.Errorf("%w: environment overrides: %w", domain.ErrInvalidInput, err)
		}
	}
	return nil
}
