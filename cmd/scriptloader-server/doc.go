// Package main provides the entry point for scriptloader-server.
//
// The server loads scripts by name into a headless page on request and
// serves the outcomes over an HTTP API.
//
// Usage:
//
//	scriptloader-server [flags]
//	scriptloader-server --config /etc/scriptloader/server.yaml
//	scriptloader-server --set loader.skip_error=true --set page.fetch_rate=5
//
// Configuration is read from the file, then SCRIPTLOADER_ environment
// variables, then flags. SIGHUP or an edit of the file reloads the loader
// options and the log level.
package main
