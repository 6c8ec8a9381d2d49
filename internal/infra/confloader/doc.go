// Package confloader loads configuration with koanf and watches the config
// file with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Values passed with LoadMap (command-line flags)
//  2. Environment variables (SCRIPTLOADER_ prefix)
//  3. The YAML configuration file
//  4. Defaults already present in the target struct
//
// Environment keys separate nesting levels with a double underscore so that
// keys containing underscores survive:
//
//	SCRIPTLOADER_LOADER__SKIP_ERROR=false  ->  loader.skip_error
//	SCRIPTLOADER_SERVER__HTTP__ADDRESS=:8080  ->  server.http.address
package confloader
