package page

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/domain"
	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/internal/storage"
	"github.com/yndnr/scriptloader-go/internal/storage/memory"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

const scriptBody = "window.analytics = { track: function () {} };"

type firedEvent struct {
	kind   domain.EventKind
	reason error
}

// attach attaches a script element for src and returns a channel receiving
// its terminal event.
func attach(t *testing.T, p *Page, id, src, integrity string) <-chan firedEvent {
	t.Helper()
	ch := make(chan firedEvent, 3)
	el, err := p.CreateElement("script")
	if err != nil {
		t.Fatal(err)
	}
	el.ID = id
	el.Src = src
	el.Integrity = integrity
	el.OnLoad = func() { ch <- firedEvent{kind: domain.EventLoad} }
	el.OnAbort = func(err error) { ch <- firedEvent{kind: domain.EventAbort, reason: err} }
	el.OnError = func(err error) { ch <- firedEvent{kind: domain.EventError, reason: err} }

	if _, err := p.Attach(el); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	return ch
}

func await(t *testing.T, ch <-chan firedEvent) firedEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal event")
		return firedEvent{}
	}
}

func newTestPage(t *testing.T, cfg Config, opts ...Option) *Page {
	t.Helper()
	p := New(cfg, append([]Option{WithLogger(logger.Nop())}, opts...)...)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPage_LoadRegistersModule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer cdn-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(scriptBody))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.UserAgent = "test-agent"
	cfg.Headers = map[string]string{"Authorization": "Bearer cdn-token"}
	p := newTestPage(t, cfg)

	ev := await(t, attach(t, p, "analytics", srv.URL+"/a.js", ""))
	if ev.kind != domain.EventLoad {
		t.Fatalf("event = %v (%v), want load", ev.kind, ev.reason)
	}

	got, ok := p.Resolve("analytics")
	if !ok {
		t.Fatal("Resolve(analytics) found nothing")
	}
	m := got.(*Module)
	if string(m.Body) != scriptBody || m.Size != len(scriptBody) || m.ContentType != "application/javascript" {
		t.Errorf("module = %+v", m)
	}
	if m.Integrity != Integrity([]byte(scriptBody)) {
		t.Errorf("module integrity = %q", m.Integrity)
	}
	if _, ok := p.Resolve("other"); ok {
		t.Error("Resolve(other) found a module")
	}
	if p.Attached() != 1 || len(p.Modules()) != 1 {
		t.Errorf("Attached() = %d, Modules() = %d", p.Attached(), len(p.Modules()))
	}
}

func TestPage_ErrorEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.js":
			http.NotFound(w, r)
		case "/huge.js":
			w.Write(bytes.Repeat([]byte("x"), 2048))
		case "/weird.js":
			w.Header().Set("Content-Encoding", "compress")
			w.Write([]byte("x"))
		default:
			w.Write([]byte(scriptBody))
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxScriptBytes = 1024
	p := newTestPage(t, cfg)

	tests := []struct {
		name      string
		path      string
		integrity string
		check     func(error) bool
	}{
		{"not found", "/missing.js", "", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
		}},
		{"too large", "/huge.js", "", func(err error) bool { return errors.Is(err, ErrTooLarge) }},
		{"unsupported encoding", "/weird.js", "", func(err error) bool {
			return strings.Contains(err.Error(), "unsupported Content-Encoding")
		}},
		{"integrity mismatch", "/ok.js", Integrity([]byte("something else")), func(err error) bool {
			return errors.Is(err, ErrIntegrity)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := await(t, attach(t, p, tt.name, srv.URL+tt.path, tt.integrity))
			if ev.kind != domain.EventError {
				t.Fatalf("event = %v, want error", ev.kind)
			}
			if !tt.check(ev.reason) {
				t.Errorf("reason = %v", ev.reason)
			}
			if _, ok := p.Resolve(tt.name); ok {
				t.Error("failed script registered a module")
			}
		})
	}
}

func TestPage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/a.js"
	srv.Close()

	p := newTestPage(t, DefaultConfig())
	if ev := await(t, attach(t, p, "a", url, "")); ev.kind != domain.EventError {
		t.Errorf("event = %v, want error", ev.kind)
	}
}

func TestPage_IntegrityMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(scriptBody))
	}))
	defer srv.Close()

	p := newTestPage(t, DefaultConfig())
	ev := await(t, attach(t, p, "a", srv.URL, Integrity([]byte(scriptBody))))
	if ev.kind != domain.EventLoad {
		t.Errorf("event = %v (%v), want load", ev.kind, ev.reason)
	}
}

func TestPage_CloseAborts(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := New(DefaultConfig(), WithLogger(logger.Nop()))
	ch := attach(t, p, "slow", srv.URL, "")
	<-started

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	ev := await(t, ch)
	if ev.kind != domain.EventAbort || !errors.Is(ev.reason, ErrClosed) {
		t.Errorf("event = %v (%v), want abort with ErrClosed", ev.kind, ev.reason)
	}

	el, _ := p.CreateElement("script")
	el.Src = srv.URL
	if _, err := p.Attach(el); !errors.Is(err, ErrClosed) {
		t.Errorf("Attach after Close = %v, want ErrClosed", err)
	}
}

func TestPage_TimeoutIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.FetchTimeout = 50 * time.Millisecond
	p := newTestPage(t, cfg)

	ev := await(t, attach(t, p, "slow", srv.URL, ""))
	if ev.kind != domain.EventError || !errors.Is(ev.reason, context.DeadlineExceeded) {
		t.Errorf("event = %v (%v), want error with deadline", ev.kind, ev.reason)
	}
}

func TestPage_CreateElement(t *testing.T) {
	p := newTestPage(t, DefaultConfig())
	if _, err := p.CreateElement("div"); err == nil {
		t.Error("CreateElement(div) succeeded")
	}
	if _, err := p.Attach(&service.Element{Tag: "script"}); err == nil {
		t.Error("Attach without src succeeded")
	}
}

func TestPage_CacheRevalidation(t *testing.T) {
	var full, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		full.Add(1)
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(scriptBody))
	}))
	defer srv.Close()

	engine, err := storage.NewBadgerEngine(storage.KVConfig{InMemory: true, Badger: storage.DefaultBadgerConfig()}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	cache := storage.NewScriptCache(engine, 0)

	first := newTestPage(t, DefaultConfig(), WithCache(cache))
	if ev := await(t, attach(t, first, "a", srv.URL, "")); ev.kind != domain.EventLoad {
		t.Fatalf("first event = %v (%v)", ev.kind, ev.reason)
	}

	second := newTestPage(t, DefaultConfig(), WithCache(cache))
	if ev := await(t, attach(t, second, "a", srv.URL, "")); ev.kind != domain.EventLoad {
		t.Fatalf("second event = %v (%v)", ev.kind, ev.reason)
	}

	if full.Load() != 1 || notModified.Load() != 1 {
		t.Errorf("full=%d notModified=%d, want 1 and 1", full.Load(), notModified.Load())
	}
	got, _ := second.Resolve("a")
	if m := got.(*Module); !m.FromCache || string(m.Body) != scriptBody {
		t.Errorf("revalidated module = %+v", m)
	}
}

func TestPage_CacheWithoutValidators(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(scriptBody))
	}))
	defer srv.Close()

	engine, err := storage.NewBadgerEngine(storage.KVConfig{InMemory: true, Badger: storage.DefaultBadgerConfig()}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	cache := storage.NewScriptCache(engine, time.Hour)

	for i := 0; i < 2; i++ {
		p := newTestPage(t, DefaultConfig(), WithCache(cache))
		if ev := await(t, attach(t, p, "a", srv.URL, "")); ev.kind != domain.EventLoad {
			t.Fatalf("event %d = %v (%v)", i, ev.kind, ev.reason)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("origin hits = %d, want 1", hits.Load())
	}
}

func TestPage_WithLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.js" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(scriptBody))
	}))
	defer srv.Close()

	p := newTestPage(t, DefaultConfig())
	l := service.NewLoader(p, memory.NewRegistry(), service.WithModuleResolver(p.Resolve))
	ctx := context.Background()

	outcome, err := l.LoadScript(ctx, domain.ScriptRef{Name: "analytics", Src: srv.URL + "/a.js"})
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if m, ok := outcome.Module.(*Module); !ok || m.Name != "analytics" {
		t.Errorf("outcome module = %#v", outcome.Module)
	}

	_, err = l.LoadScript(ctx, domain.ScriptRef{
		Name: "broken", Src: srv.URL + "/broken.js",
		Options: domain.Options{SkipError: domain.Bool(false)},
	})
	var se *StatusError
	if !errors.Is(err, domain.ErrScriptFailed) || !errors.As(err, &se) {
		t.Errorf("error = %v, want ErrScriptFailed wrapping a StatusError", err)
	}
}
