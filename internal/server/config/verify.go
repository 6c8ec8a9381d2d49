package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyPage(&cfg.Page)...)
	errs = append(errs, verifyCache(&cfg.Cache)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("server.http: %w", err))
		}
	}
	if cfg.RateLimit.Enabled && (cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("server.rate_limit: rps must be positive and burst at least 1"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyPage(cfg *PageSection) []error {
	var errs []error
	if cfg.MaxScriptBytes <= 0 {
		errs = append(errs, errors.New("page.max_script_bytes must be positive"))
	}
	if cfg.FetchTimeout < 0 {
		errs = append(errs, errors.New("page.fetch_timeout must not be negative"))
	}
	if cfg.FetchRate < 0 {
		errs = append(errs, errors.New("page.fetch_rate must not be negative"))
	}
	if cfg.FetchRate > 0 && cfg.FetchBurst < 1 {
		errs = append(errs, errors.New("page.fetch_burst must be at least 1 when fetch_rate is set"))
	}
	if cfg.TLSCAFile != "" {
		if _, err := os.Stat(cfg.TLSCAFile); err != nil {
			errs = append(errs, fmt.Errorf("page.tls_ca_file: %w", err))
		}
	}
	return errs
}

func verifyCache(cfg *CacheSection) []error {
	if !cfg.Enabled {
		return nil
	}
	var errs []error
	if !cfg.InMemory {
		if cfg.Dir == "" {
			errs = append(errs, errors.New("cache.dir is required unless cache.in_memory is set"))
		} else if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			errs = append(errs, fmt.Errorf("cache.dir: %w", err))
		}
	}
	if cfg.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if cfg.GCInterval < 0 {
		errs = append(errs, errors.New("cache.gc_interval must not be negative"))
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", cfg.Level))
	}
	switch cfg.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Format))
	}
	return errs
}
