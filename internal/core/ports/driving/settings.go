package driving

import "github.com/custodia-labs/filmsync/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Set updates a single setting by key and persists it.
	Set(key string, value any) error

	// Reset removes a stored setting so its default applies again.
	Reset(key string) error

	// Keys lists the keys Set and Reset accept.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
