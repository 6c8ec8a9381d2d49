package config

import (
	"fmt"
	"time"

	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

// CLIConfig is the configuration for scriptloader-cli.
type CLIConfig struct {
	Server  string            `koanf:"server" yaml:"server"`
	Output  string            `koanf:"output" yaml:"output"`
	Timeout time.Duration     `koanf:"timeout" yaml:"timeout"`
	CAFile  string            `koanf:"ca_file" yaml:"ca_file,omitempty"`
	Headers map[string]string `koanf:"headers" yaml:"headers,omitempty"`

	Profiles       map[string]Profile `koanf:"profiles" yaml:"profiles,omitempty"`
	CurrentProfile string             `koanf:"current_profile" yaml:"current_profile,omitempty"`
}

// Profile is a saved server connection. Empty fields fall back to the
// top-level settings.
type Profile struct {
	Server  string            `koanf:"server" yaml:"server"`
	CAFile  string            `koanf:"ca_file" yaml:"ca_file,omitempty"`
	Headers map[string]string `koanf:"headers" yaml:"headers,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   "http://127.0.0.1:5080",
		Output:   "table",
		Timeout:  30 * time.Second,
		Profiles: make(map[string]Profile),
	}
}

// Active returns the connection settings of the named profile, the current
// profile when name is empty, or the top-level settings when there is no
// current profile.
func (c *CLIConfig) Active(name string) (Profile, error) {
	base := Profile{Server: c.Server, CAFile: c.CAFile, Headers: c.Headers}

	if name == "" {
		name = c.CurrentProfile
	}
	if name == "" {
		return base, nil
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	if p.Server == "" {
		p.Server = base.Server
	}
	if p.CAFile == "" {
		p.CAFile = base.CAFile
	}
	if len(p.Headers) == 0 {
		p.Headers = base.Headers
	}
	return p, nil
}

// Sanitized returns a copy with credential-like header values masked.
func (c *CLIConfig) Sanitized() *CLIConfig {
	out := *c
	out.Headers = maskHeaders(c.Headers)
	if len(c.Profiles) > 0 {
		out.Profiles = make(map[string]Profile, len(c.Profiles))
		for name, p := range c.Profiles {
			p.Headers = maskHeaders(p.Headers)
			out.Profiles[name] = p
		}
	}
	return &out
}

func maskHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return headers
	}
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		if logger.IsSensitiveKey(k) {
			v = "****"
		}
		masked[k] = v
	}
	return masked
}
