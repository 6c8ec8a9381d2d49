// Package config defines the scriptloader-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: masking for logs and `config show`
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// SCRIPTLOADER_ environment variables and flags.
package config
