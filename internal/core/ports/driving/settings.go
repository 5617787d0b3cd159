package driving

import "github.com/custodia-labs/handbook-search/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, filling defaults.
	Get() (*domain.AppSettings, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Keys returns every supported configuration key.
	Keys() []string

	// Value returns the effective value of a key as text.
	Value(key string) (string, error)

	// Set parses and stores the value of a supported key.
	Set(key, value string) error
}
