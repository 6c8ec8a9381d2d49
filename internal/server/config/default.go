package config

import (
	"time"

	"github.com/yndnr/scriptloader-go/internal/host/page"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultRateLimitRPS    = 50
	DefaultRateLimitBurst  = 100
	DefaultCacheDir        = "/var/lib/scriptloader-server/cache"
	DefaultCacheTTL        = 24 * time.Hour
	DefaultCacheGCInterval = 10 * time.Minute
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Default returns the default server configuration. Loader keys are left
// unset so library defaults apply.
func Default() *ServerConfig {
	pc := page.DefaultConfig()
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				IdleTimeout:  DefaultIdleTimeout,
			},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimitRPS,
				Burst:   DefaultRateLimitBurst,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Page: PageSection{
			UserAgent:      pc.UserAgent,
			FetchTimeout:   pc.FetchTimeout,
			MaxScriptBytes: pc.MaxScriptBytes,
			FetchRate:      pc.FetchRate,
			FetchBurst:     pc.FetchBurst,
		},
		Cache: CacheSection{
			Enabled:    false,
			Dir:        DefaultCacheDir,
			TTL:        DefaultCacheTTL,
			GCInterval: DefaultCacheGCInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}
