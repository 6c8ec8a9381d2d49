package page

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/internal/storage"
)

// Cache lookup results.
const (
	cacheHit         = "hit"
	cacheRevalidated = "revalidated"
	cacheMiss        = "miss"
)

// StatusError is a non-2xx fetch response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// fetch downloads el.Src, consulting the cache, and checks integrity.
func (p *Page) fetch(ctx context.Context, el *service.Element) (*Module, error) {
	cached := p.lookup(ctx, el.Src)
	if cached != nil && !cached.Revalidatable() {
		p.metrics.ObserveCache(cacheHit)
		return p.module(el, cached, true)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: wait for rate limiter: %w", el.Src, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, el.Src, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", el.Src, err)
	}
	req.Header.Set("Accept", "application/javascript, text/javascript, */*;q=0.1")
	// Setting Accept-Encoding turns off the transport's transparent gzip,
	// so decodeBody sees the raw encoding.
	req.Header.Set("Accept-Encoding", AcceptEncoding)
	for k, v := range p.cfg.Headers {
		req.Header.Set(k, v)
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	if cached != nil {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.ObserveFetch(0, 0)
		return nil, fmt.Errorf("fetch %s: %w", el.Src, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		p.metrics.ObserveFetch(resp.StatusCode, 0)
		p.metrics.ObserveCache(cacheRevalidated)
		if err := p.cache.Touch(ctx, cached, p.now()); err != nil {
			p.logger.Warn("script cache touch failed", "src", el.Src, "error", err)
		}
		return p.module(el, cached, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.metrics.ObserveFetch(resp.StatusCode, 0)
		return nil, &StatusError{URL: el.Src, StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"), p.cfg.MaxScriptBytes)
	p.metrics.ObserveFetch(resp.StatusCode, len(body))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", el.Src, err)
	}
	if p.cache != nil {
		p.metrics.ObserveCache(cacheMiss)
	}

	entry := &storage.CacheEntry{
		URL:          el.Src,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentType:  resp.Header.Get("Content-Type"),
		Body:         body,
		FetchedAt:    p.now(),
	}

	module, err := p.module(el, entry, false)
	if err != nil {
		return nil, err
	}
	p.store(ctx, entry)
	return module, nil
}

// module verifies entry against the element's integrity metadata and wraps
// it for registration.
func (p *Page) module(el *service.Element, entry *storage.CacheEntry, fromCache bool) (*Module, error) {
	if err := verifyIntegrity(entry.Body, el.Integrity); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", el.Src, err)
	}
	return &Module{
		Name:        el.ID,
		URL:         el.Src,
		ContentType: entry.ContentType,
		Size:        len(entry.Body),
		Integrity:   Integrity(entry.Body),
		FetchedAt:   entry.FetchedAt,
		FromCache:   fromCache,
		Body:        entry.Body,
	}, nil
}

func (p *Page) lookup(ctx context.Context, src string) *storage.CacheEntry {
	if p.cache == nil {
		return nil
	}
	entry, ok, err := p.cache.Get(ctx, src)
	if err != nil {
		p.logger.Warn("script cache read failed", "src", src, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return entry
}

func (p *Page) store(ctx context.Context, entry *storage.CacheEntry) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Put(ctx, entry); err != nil {
		p.logger.Warn("script cache write failed", "src", entry.URL, "error", err)
	}
}
