package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const scriptKeyPrefix = "script/"

// CacheEntry is one cached script response.
type CacheEntry struct {
	URL          string    `msgpack:"url"`
	ETag         string    `msgpack:"etag,omitempty"`
	LastModified string    `msgpack:"last_modified,omitempty"`
	ContentType  string    `msgpack:"content_type,omitempty"`
	Body         []byte    `msgpack:"body"`
	FetchedAt    time.Time `msgpack:"fetched_at"`
}

// Revalidatable reports whether the entry carries a validator the origin
// can answer 304 to.
func (e *CacheEntry) Revalidatable() bool {
	return e.ETag != "" || e.LastModified != ""
}

// ScriptCache stores fetched script bodies keyed by URL.
type ScriptCache struct {
	kv  KVEngine
	ttl time.Duration
}

// NewScriptCache creates a cache over kv. Entries expire after ttl; zero
// keeps them until overwritten or deleted.
func NewScriptCache(kv KVEngine, ttl time.Duration) *ScriptCache {
	return &ScriptCache{kv: kv, ttl: ttl}
}

func scriptKey(url string) []byte {
	return []byte(scriptKeyPrefix + url)
}

// Get returns the entry cached for url. ok is false on a miss.
func (c *ScriptCache) Get(ctx context.Context, url string) (entry *CacheEntry, ok bool, err error) {
	raw, err := c.kv.Get(ctx, scriptKey(url))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("script cache: get %s: %w", url, err)
	}

	entry = &CacheEntry{}
	if err := msgpack.Unmarshal(raw, entry); err != nil {
		return nil, false, fmt.Errorf("script cache: decode %s: %w", url, err)
	}
	return entry, true, nil
}

// Put stores entry under entry.URL.
func (c *ScriptCache) Put(ctx context.Context, entry *CacheEntry) error {
	if entry.URL == "" {
		return fmt.Errorf("script cache: entry without url")
	}
	raw, err := msgpack.Marshal(entry)
	if err != nil {
		return fmt.Errorf("script cache: encode %s: %w", entry.URL, err)
	}
	if err := c.kv.Set(ctx, scriptKey(entry.URL), raw, c.ttl); err != nil {
		return fmt.Errorf("script cache: put %s: %w", entry.URL, err)
	}
	return nil
}

// Touch refreshes FetchedAt and the expiry of an entry after a successful
// revalidation.
func (c *ScriptCache) Touch(ctx context.Context, entry *CacheEntry, now time.Time) error {
	updated := *entry
	updated.FetchedAt = now
	return c.Put(ctx, &updated)
}

// Delete removes the entry for url.
func (c *ScriptCache) Delete(ctx context.Context, url string) error {
	if err := c.kv.Delete(ctx, scriptKey(url)); err != nil {
		return fmt.Errorf("script cache: delete %s: %w", url, err)
	}
	return nil
}

// URLs returns the URL of every cached entry.
func (c *ScriptCache) URLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := c.kv.Scan(ctx, []byte(scriptKeyPrefix), func(key, _ []byte) bool {
		urls = append(urls, string(key[len(scriptKeyPrefix):]))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("script cache: scan: %w", err)
	}
	return urls, nil
}
