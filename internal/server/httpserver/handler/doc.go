// Package handler provides HTTP request handlers for scriptloader-server.
//
//   - script.go: load, batch load and registry queries
//   - health.go: health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate request
//   - Call the script service
//   - Format and return response in the standard envelope
//   - Map domain error codes to HTTP status codes
package handler
