// Package cmap provides a string-keyed concurrent map split into shards.
//
// Keys are spread over shards with murmur3; each shard has its own RWMutex,
// so readers of different names rarely contend.
//
// Usage:
//
//	m := cmap.New[*domain.Outcome]()
//	m.Set("jquery", outcome)
//	val, ok := m.Get("jquery")
//
// All operations are safe for concurrent use. Range holds one shard's read
// lock at a time, so it does not observe a consistent snapshot.
package cmap
