package config

import (
	"strings"

	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if len(cfg.Page.Headers) > 0 {
		headers := make(map[string]string, len(cfg.Page.Headers))
		for k, v := range cfg.Page.Headers {
			if logger.IsSensitiveKey(k) {
				v = maskSecret(v)
			}
			headers[k] = v
		}
		sanitized.Page.Headers = headers
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
