package config

import (
	"fmt"

	"github.com/yndnr/scriptloader-go/internal/infra/confloader"
)

// Load reads the configuration from path (optional), SCRIPTLOADER_
// environment variables and overrides on top of Default, then verifies it.
func Load(path string, overrides map[string]any) (*ServerConfig, error) {
	return LoadWith(confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	))
}

// LoadWith loads through an existing loader. The watcher reuses the loader
// it started with.
func LoadWith(l *confloader.Loader) (*ServerConfig, error) {
	cfg := Default()
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
