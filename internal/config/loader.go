package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configDir  = ".sqldesk"
	configFile = "config"
	configType = "yaml"

	// dirEnv overrides the config directory, mainly for tests and
	// portable installs.
	dirEnv = "SQLDESK_CONFIG_DIR"
)

// Load reads the configuration from the config directory, or returns
// an empty config when no file exists yet.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetDefault("preferences.theme", "default")

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back to the config directory, creating
// it on first use.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)
	v.Set("history", cfg.History)

	return v.WriteConfigAs(filepath.Join(dir, configFile+"."+configType))
}

// DefaultConnection returns the preferred connection profile, falling
// back to the first saved one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}
	if cfg.Preferences.DefaultConnection != "" {
		for i := range cfg.Connections {
			if cfg.Connections[i].Name == cfg.Preferences.DefaultConnection {
				return &cfg.Connections[i]
			}
		}
	}
	return &cfg.Connections[0]
}

// Dir returns the config directory, honoring the SQLDESK_CONFIG_DIR
// override.
func Dir() (string, error) {
	if dir := os.Getenv(dirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

// CacheDir returns the schema snapshot cache directory under the
// config dir.
func CacheDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}
