// Package main provides the entry point for scriptloader-cli, the
// command-line client of scriptloader-server.
//
// Usage:
//
//	scriptloader-cli script load jquery https://code.jquery.com/jquery-3.7.1.min.js
//	scriptloader-cli -o json script list
//	scriptloader-cli config server validate /etc/scriptloader/server.yaml
package main
