// Package config holds the scriptloader-cli settings file.
//
// The file lives at $XDG_CONFIG_HOME/scriptloader/cli.yaml by default and
// may be overridden by SCRIPTLOADER_CLI_ environment variables. Named
// profiles keep the address, CA file and headers of several servers.
package config
