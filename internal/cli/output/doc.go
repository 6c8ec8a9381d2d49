// Package output renders command results for scriptloader-cli.
//
// Results are written as an aligned table (the default), JSON or YAML.
// Table columns come from struct fields; a `table:"-"` tag hides a field
// and `table:"wide"` shows it only with --wide.
package output
