// Package domain defines the core domain models for the script loader.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - ScriptRef: a named remote script plus per-request options
//   - Outcome: the terminal, immutable result of one load attempt
//   - LoadConfig / Options: the three-layer load configuration
//   - Event: the terminal page events (load, abort, error)
//   - Errors: domain-specific error definitions
package domain
