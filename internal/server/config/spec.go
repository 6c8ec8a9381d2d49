package config

import (
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/host/page"
)

// ServerConfig is the root configuration for scriptloader-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" json:"server" yaml:"server"`
	Loader  LoaderSection  `koanf:"loader" json:"loader" yaml:"loader"`
	Page    PageSection    `koanf:"page" json:"page" yaml:"page"`
	Cache   CacheSection   `koanf:"cache" json:"cache" yaml:"cache"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig      `koanf:"http" json:"http" yaml:"http"`
	RateLimit       RateLimitConfig `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	ShutdownTimeout time.Duration   `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr         string        `koanf:"addr" json:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" json:"idle_timeout" yaml:"idle_timeout"`
	TLSCertFile  string        `koanf:"tls_cert_file" json:"tls_cert_file,omitempty" yaml:"tls_cert_file,omitempty"`
	TLSKeyFile   string        `koanf:"tls_key_file" json:"tls_key_file,omitempty" yaml:"tls_key_file,omitempty"`
}

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled" json:"enabled" yaml:"enabled"`
	RPS     float64 `koanf:"rps" json:"rps" yaml:"rps"`
	Burst   int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// LoaderSection is the instance layer of the load configuration. Unset keys
// fall back to library defaults.
type LoaderSection struct {
	Async     *bool `koanf:"async" json:"async,omitempty" yaml:"async,omitempty"`
	SkipError *bool `koanf:"skip_error" json:"skip_error,omitempty" yaml:"skip_error,omitempty"`
	SkipAbort *bool `koanf:"skip_abort" json:"skip_abort,omitempty" yaml:"skip_abort,omitempty"`
}

// PageSection configures script fetching.
type PageSection struct {
	UserAgent      string            `koanf:"user_agent" json:"user_agent" yaml:"user_agent"`
	FetchTimeout   time.Duration     `koanf:"fetch_timeout" json:"fetch_timeout" yaml:"fetch_timeout"`
	MaxScriptBytes int64             `koanf:"max_script_bytes" json:"max_script_bytes" yaml:"max_script_bytes"`
	FetchRate      float64           `koanf:"fetch_rate" json:"fetch_rate" yaml:"fetch_rate"`
	FetchBurst     int               `koanf:"fetch_burst" json:"fetch_burst" yaml:"fetch_burst"`
	TLSCAFile      string            `koanf:"tls_ca_file" json:"tls_ca_file,omitempty" yaml:"tls_ca_file,omitempty"`
	Headers        map[string]string `koanf:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
}

// CacheSection configures the persistent script content cache.
type CacheSection struct {
	Enabled    bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Dir        string        `koanf:"dir" json:"dir" yaml:"dir"`
	InMemory   bool          `koanf:"in_memory" json:"in_memory" yaml:"in_memory"`
	TTL        time.Duration `koanf:"ttl" json:"ttl" yaml:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
}

// LoaderOptions returns the instance option layer.
func (c *ServerConfig) LoaderOptions() domain.Options {
	return domain.Options{
		Async:     c.Loader.Async,
		SkipError: c.Loader.SkipError,
		SkipAbort: c.Loader.SkipAbort,
	}
}

// PageConfig returns the page configuration.
func (c *ServerConfig) PageConfig() page.Config {
	headers := make(map[string]string, len(c.Page.Headers))
	for k, v := range c.Page.Headers {
		headers[k] = v
	}
	return page.Config{
		UserAgent:      c.Page.UserAgent,
		FetchTimeout:   c.Page.FetchTimeout,
		MaxScriptBytes: c.Page.MaxScriptBytes,
		FetchRate:      c.Page.FetchRate,
		FetchBurst:     c.Page.FetchBurst,
		Headers:        headers,
	}
}
