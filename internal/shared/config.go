package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Cache       CacheConfig       `toml:"cache"`
	UI          UIConfig          `toml:"ui"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials for the PKCE flow.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
}

// GeminiConfig contains recommendation service credentials.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// CacheConfig contains cache persistence locations.
type CacheConfig struct {
	Path     string `toml:"path"`
	CoverDir string `toml:"cover_dir"`
}

// UIConfig contains display preferences.
type UIConfig struct {
	ShowCovers      bool `toml:"show_covers"`
	SidebarFontSize int  `toml:"sidebar_font_size"`
	TableFontSize   int  `toml:"table_font_size"`
	CoverSize       int  `toml:"cover_size"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig serializes the config back to the given path.
func SaveConfig(path string, config *Config) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer w.Close()

	if err := toml.NewEncoder(w).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CachePath resolves the persisted cache file location, falling back to
// ~/.spindle/cache.json when unset.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.json"), nil
}

// CoverDir resolves the cover asset directory, falling back to
// ~/.spindle/covers when unset.
func (c *Config) CoverDir() (string, error) {
	if c.Cache.CoverDir != "" {
		return c.Cache.CoverDir, nil
	}
	dir, err := UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "covers"), nil
}
