// Package logger provides structured logging for the script loader.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, construction, dynamic level
//   - context.go: context propagation of the logger, request and load IDs
//   - redact.go: masking of credentials in script URLs and sensitive keys
//
// JSON output is the default; "text" selects the slog text handler.
package logger
