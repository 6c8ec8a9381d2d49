// Package command defines the scriptloader-cli commands.
//
// Commands resolve their connection settings from flags, environment
// variables and the CLI config file, call the server over HTTP and print
// the result with the selected output format.
package command
