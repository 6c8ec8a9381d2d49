// Package storage provides the persistent script content cache.
//
// The cache keeps fetched script bodies with their HTTP validators (ETag,
// Last-Modified) so a restarted page can revalidate instead of downloading
// again. It is layered as:
//
//   - KVEngine: embedded key-value store abstraction (kv.go)
//   - BadgerEngine: Badger v3 implementation with background value-log GC
//     and size metrics (badger.go)
//   - ScriptCache: msgpack-encoded cache entries keyed by script URL
//     (scriptcache.go)
//
// The load registry itself is not persisted; it lives in package memory.
package storage
