package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/scriptloader-go/internal/core/service"
	"github.com/yndnr/scriptloader-go/internal/storage/memory"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
	"github.com/yndnr/scriptloader-go/internal/telemetry/metric"
)

type loadingDocument struct{}

func (loadingDocument) CreateElement(tag string) (*service.Element, error) {
	return &service.Element{Tag: tag}, nil
}

func (loadingDocument) Attach(el *service.Element) (*service.Element, error) {
	go el.OnLoad()
	return el, nil
}

func testRouter(t *testing.T, mutate func(*RouterConfig)) http.Handler {
	t.Helper()
	reg := metric.NewRegistry()
	loader := service.NewLoader(loadingDocument{}, memory.NewRegistry(),
		service.WithLogger(logger.Nop()),
		service.WithMetrics(reg.Loader),
	)

	cfg := DefaultRouterConfig()
	cfg.Scripts = loader
	cfg.Metrics = reg.Handler()
	cfg.Logger = logger.Nop()
	if mutate != nil {
		mutate(cfg)
	}
	return NewRouter(cfg)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0", ReadTimeout: time.Second}, testRouter(t, nil))

	ln, err := s.Listen()
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	errChan := make(chan error, 1)
	go func() { errChan <- s.Serve(ln) }()

	resp, err := http.Get("http://" + s.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("X-Request-ID") == "" {
		t.Errorf("status = %d, headers = %v", resp.StatusCode, resp.Header)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Serve() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for Serve to return")
	}
}

func TestServer_ListenError(t *testing.T) {
	s := New(Config{Addr: "not-an-address"}, http.NotFoundHandler())
	if err := s.ListenAndServe(); err == nil {
		t.Error("ListenAndServe() should fail for a bad address")
	}
	if s.Addr() != nil {
		t.Error("Addr() should be nil when Listen failed")
	}
}

func TestRouter_Routes(t *testing.T) {
	srv := httptest.NewServer(testRouter(t, nil))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/scripts/load", "application/json",
		strings.NewReader(`{"name":"jquery","src":"https://cdn.example.com/jquery.js"}`))
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Code string `json:"code"`
		Data struct {
			Loaded bool `json:"loaded"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !body.Data.Loaded {
		t.Fatalf("load status = %d, body = %+v", resp.StatusCode, body)
	}

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/ready", http.StatusOK},
		{"GET", "/scripts", http.StatusOK},
		{"GET", "/scripts/jquery", http.StatusOK},
		{"GET", "/scripts/jquery/status", http.StatusOK},
		{"GET", "/scripts/missing", http.StatusNotFound},
		{"DELETE", "/scripts/jquery", http.StatusMethodNotAllowed},
		{"GET", "/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(metrics), `scriptloader_loader_loads_total{result="loaded"} 1`) {
		t.Errorf("/metrics missing load counter:\n%s", metrics)
	}
}

func TestRouter_ProbesSkipRateLimit(t *testing.T) {
	h := testRouter(t, func(c *RouterConfig) {
		c.RateLimitRPS = 1
		c.RateLimitBurst = 1
	})

	get := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "10.1.1.1:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := get("/scripts"); code != http.StatusOK {
		t.Errorf("first /scripts = %d", code)
	}
	if code := get("/scripts"); code != http.StatusTooManyRequests {
		t.Errorf("second /scripts = %d, want 429", code)
	}
	for i := 0; i < 3; i++ {
		if code := get("/health"); code != http.StatusOK {
			t.Errorf("/health = %d, probes must not be limited", code)
		}
	}
}

func TestRouter_NoMetrics(t *testing.T) {
	h := testRouter(t, func(c *RouterConfig) { c.Metrics = nil })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/metrics = %d, want 404 when disabled", rec.Code)
	}
}

func TestRouter_NotReady(t *testing.T) {
	h := testRouter(t, func(c *RouterConfig) {
		c.Ready = func() error { return errors.New("page closed") }
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready = %d, want 503", rec.Code)
	}
}
