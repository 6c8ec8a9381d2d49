package storage

import (
	"context"
	"time"
)

// KVEngine is an embedded key-value store.
//
// Implementations must be safe for concurrent use.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist or expired.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair. A positive ttl expires the key.
	Set(ctx context.Context, key, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key []byte) error

	// Scan iterates over keys with a given prefix.
	// Callback returns false to stop iteration.
	Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error

	// GC reclaims space from stale values. Returns the number of value-log
	// rewrites performed.
	GC(ctx context.Context) (int, error)

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close gracefully shuts down the engine.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// TotalSize is the total disk usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size.
	LSMSize uint64

	// ValueLogSize is the value log size.
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64

	// GCRewrites is the total number of value-log files rewritten by GC.
	GCRewrites uint64
}

// KVConfig configures an embedded KV engine.
type KVConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory. Used by tests and by a cache
	// that should not survive restarts.
	InMemory bool

	Badger BadgerConfig
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic GC runs.
	// Zero disables the GC loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC (0.0-1.0).
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	NumMemtables int

	// SyncWrites fsyncs after each write. Cached scripts can be fetched
	// again, so this is off by default.
	SyncWrites bool
}

// DefaultKVConfig returns the default KV configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        32 << 20, // 32MB
		ValueLogFileSize: 256 << 20,
		NumMemtables:     2,
		SyncWrites:       false,
	}
}
