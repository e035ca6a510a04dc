package backend

import (
	"fmt"
	"path/filepath"

	"bjt/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	// A bare file name is kept in the data directory.
	persist := appConfig.MemoryPersistFile
	if persist != "" && appConfig.DataDirectory != "" && filepath.Base(persist) == persist {
		persist = filepath.Join(appConfig.DataDirectory, persist)
	}

	return Config{
		Type:              backendType,
		MemoryPersistFile: persist,
		SQLiteDBPath:      appConfig.SQLiteDBPath,
		PostgresURL:       appConfig.PostgresURL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("PostgreSQL URL is required for postgres backend")
		}
	case MemoryBackend:
		// nothing required
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
