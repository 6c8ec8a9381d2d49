package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/scriptloader-go/internal/infra/confloader"
	"github.com/yndnr/scriptloader-go/internal/server/config"
	"github.com/yndnr/scriptloader-go/internal/telemetry/logger"
)

func origin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jq.js" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte("window.jQuery = {};"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *config.ServerConfig {
	cfg := config.Default()
	cfg.Server.HTTP.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Cache.Enabled = true
	cfg.Cache.InMemory = true
	cfg.Cache.GCInterval = 0
	return cfg
}

// start runs a on a background goroutine and returns its base URL and a
// function that stops it and returns the Run error.
func start(t *testing.T, a *App) (string, func() error) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	stop := func() error {
		a.Stop()
		select {
		case err := <-errCh:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("Run did not return after Stop")
			return nil
		}
	}
	return "http://" + a.Addr().String(), stop
}

type envelope struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func call(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp.StatusCode, env
}

func TestApp_LoadAndShutdown(t *testing.T) {
	src := origin(t).URL + "/jq.js"

	a, err := New(confloader.NewLoader(), testConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base, stop := start(t, a)

	status, env := call(t, http.MethodPost, base+"/scripts/load", map[string]string{"name": "jquery", "src": src})
	if status != http.StatusOK {
		t.Fatalf("load status = %d, code %s", status, env.Code)
	}
	var outcome struct {
		Name    string `json:"name"`
		Fetched bool   `json:"fetched"`
		Loaded  bool   `json:"loaded"`
	}
	json.Unmarshal(env.Data, &outcome)
	if outcome.Name != "jquery" || !outcome.Fetched || !outcome.Loaded {
		t.Errorf("outcome = %+v", outcome)
	}

	if !a.Loader().IsLoaded("jquery") {
		t.Error("loader does not report jquery as loaded")
	}

	_, env = call(t, http.MethodGet, base+"/scripts/jquery/status", nil)
	if !strings.Contains(string(env.Data), `"state":"resolved"`) {
		t.Errorf("status data = %s", env.Data)
	}

	if status, _ := call(t, http.MethodGet, base+"/ready", nil); status != http.StatusOK {
		t.Errorf("ready status = %d", status)
	}

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	metrics, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, name := range []string{"scriptloader_loader_loads_total", "scriptloader_registry_entries"} {
		if !strings.Contains(string(metrics), name) {
			t.Errorf("metrics missing %s", name)
		}
	}

	if err := stop(); err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if err := a.ready(); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("ready() after stop = %v, want ErrShuttingDown", err)
	}
}

func TestApp_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	cfg.Cache.Enabled = false

	a, err := New(confloader.NewLoader(), cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	base, stop := start(t, a)
	defer stop()

	if status, _ := call(t, http.MethodGet, base+"/metrics", nil); status != http.StatusNotFound && status != http.StatusMethodNotAllowed {
		t.Errorf("GET /metrics status = %d, want not found", status)
	}
}

func TestApp_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Server.HTTP.Addr = "256.0.0.1:99999"

	if _, err := New(confloader.NewLoader(), cfg, nil); err == nil || !strings.Contains(err.Error(), "listen") {
		t.Errorf("New() error = %v, want listen error", err)
	}
}

func TestApp_BadCAFile(t *testing.T) {
	cfg := testConfig()
	cfg.Page.TLSCAFile = filepath.Join(t.TempDir(), "missing.pem")

	if _, err := New(confloader.NewLoader(), cfg, nil); err == nil {
		t.Error("New() error = nil for a missing CA file")
	}
}

func TestApp_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http:\n    addr: 127.0.0.1:0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	conf := confloader.NewLoader(confloader.WithConfigFile(path))
	cfg, err := config.LoadWith(conf)
	if err != nil {
		t.Fatalf("LoadWith() error = %v", err)
	}

	a, err := New(conf, cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		a.listener.Close()
		if a.watcher != nil {
			a.watcher.Stop()
		}
		a.page.Close()
		a.closeStorage()
	})

	if a.Loader().InstanceOptions().SkipError != nil {
		t.Fatal("skip_error set before reload")
	}

	if err := os.WriteFile(path, []byte("server:\n  http:\n    addr: 127.0.0.1:0\nloader:\n  skip_error: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := a.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := a.Loader().InstanceOptions().SkipError; got == nil || !*got {
		t.Errorf("SkipError after reload = %v, want true", got)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := a.Reload(); err == nil {
		t.Error("Reload() accepted an invalid configuration")
	}
	if got := a.Loader().InstanceOptions().SkipError; got == nil || !*got {
		t.Error("a failed reload changed the loader options")
	}
}
