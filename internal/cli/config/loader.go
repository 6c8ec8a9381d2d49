package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/scriptloader-go/internal/infra/confloader"
)

// EnvPrefix is the environment prefix for CLI settings.
const EnvPrefix = "SCRIPTLOADER_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "scriptloader", "cli.yaml")
}

// Load reads the CLI configuration. An empty path reads the default file
// if it exists; an explicit path must exist.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithEnvPrefix(EnvPrefix),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, or the default path when empty. The file may
// hold credentials in headers, so it is only readable by the owner.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
