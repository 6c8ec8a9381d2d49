// Package memory provides the in-memory load registry.
//
// Registry maps script names to outcomes and tracks the flight of every
// name being loaded. Outcomes live in a sharded map; the flight table has
// its own mutex, which also serializes the check-then-create step of Begin
// with the write of Finish.
//
// A registry belongs to one Loader and lives as long as it does.
package memory
