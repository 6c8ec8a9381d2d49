package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// mockServer serves canned envelope responses keyed by "METHOD /path".
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
	bodies   [][]byte
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{handlers: make(map[string]http.HandlerFunc)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		m.mu.Lock()
		m.requests = append(m.requests, r)
		m.bodies = append(m.bodies, body.Bytes())
		handler, ok := m.handlers[r.Method+" "+r.URL.Path]
		m.mu.Unlock()

		if !ok {
			errorResponse(w, http.StatusNotFound, "SL-SYS-4040", "no route")
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) handle(route string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[route] = handler
}

// respond registers a route answering with data in a success envelope.
func (m *mockServer) respond(route string, data any) {
	m.handle(route, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, data)
	})
}

// lastBody decodes the body of the last request into v.
func (m *mockServer) lastBody(t *testing.T, v any) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		t.Fatal("no request received")
	}
	if err := json.Unmarshal(m.bodies[len(m.bodies)-1], v); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
}

func (m *mockServer) lastRequest(t *testing.T) *http.Request {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatal("no request received")
	}
	return m.requests[len(m.requests)-1]
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       "OK",
		"message":    "Success",
		"request_id": "req-test",
		"data":       data,
	})
}

func errorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"code":       code,
		"message":    message,
		"request_id": "req-test",
	})
}

// runApp runs the CLI against server and returns what it printed. The CLI
// config lookup is pointed at an empty directory.
func runApp(t *testing.T, server *mockServer, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, errOut bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = &errOut

	full := []string{"scriptloader-cli"}
	if server != nil {
		full = append(full, "--server", server.URL)
	}
	full = append(full, args...)

	err := app.Run(full)
	return out.String(), err
}
