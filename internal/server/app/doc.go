// Package app assembles scriptloader-server from its configuration: the
// page, the script cache, the loader, the HTTP API and the configuration
// watcher, and runs them until shutdown.
package app
