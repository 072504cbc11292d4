package driven

import "github.com/custodia-labs/notesrag/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (TOML or YAML files) and environment overrides.
type ConfigStore interface {
	// Load reads configuration, applies overrides and defaults, and validates it.
	Load() (*domain.Settings, error)

	// Save persists settings to the configuration file.
	Save(settings *domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
