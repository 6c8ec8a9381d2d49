package command

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/scriptloader-go/internal/infra/buildinfo"
)

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "scriptloader-cli" {
		t.Errorf("Name = %q, want scriptloader-cli", app.Name)
	}
	if !strings.HasPrefix(app.Version, buildinfo.Version) {
		t.Errorf("Version = %q, want prefix %q", app.Version, buildinfo.Version)
	}

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"script", "system", "config"} {
		if !commands[name] {
			t.Errorf("missing command %q", name)
		}
	}

	flags := make(map[string]bool)
	for _, f := range app.Flags {
		flags[f.Names()[0]] = true
	}
	for _, name := range []string{"config", "profile", "server", "ca-file", "header", "timeout", "output", "wide", "quiet"} {
		if !flags[name] {
			t.Errorf("missing global flag %q", name)
		}
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{"Authorization: Bearer abc", "Authorization", "Bearer abc", false},
		{"X-Tenant=blue", "X-Tenant", "blue", false},
		{"X-Range=a:b", "X-Range", "a:b", false},
		{"X-Empty:", "X-Empty", "", false},
		{"no-separator", "", "", true},
		{": value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value, err := parseHeader(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeader(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("parseHeader(%q) = %q, %q", tt.in, name, value)
			}
		})
	}
}

func TestGlobalFlags_HeadersSent(t *testing.T) {
	server := newMockServer(t)
	server.respond("GET /health", map[string]string{"status": "healthy"})

	if _, err := runApp(t, server, "-H", "Authorization: Bearer abc", "-H", "X-Tenant=blue", "system", "health"); err != nil {
		t.Fatalf("run: %v", err)
	}

	req := server.lastRequest(t)
	if got := req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Header.Get("X-Tenant"); got != "blue" {
		t.Errorf("X-Tenant = %q", got)
	}
}

func TestGlobalFlags_ConfigProfile(t *testing.T) {
	server := newMockServer(t)
	server.respond("GET /health", map[string]string{"status": "healthy"})

	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "output: json\nprofiles:\n  local:\n    server: " + server.URL + "\n    headers:\n      X-Profile: local\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, nil, "--config", path, "--profile", "local", "system", "health")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["status"] != "healthy" {
		t.Errorf("status = %q", got["status"])
	}
	if h := server.lastRequest(t).Header.Get("X-Profile"); h != "local" {
		t.Errorf("X-Profile = %q, want local", h)
	}
}

func TestGlobalFlags_Errors(t *testing.T) {
	server := newMockServer(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown profile", []string{"--profile", "nope", "system", "health"}, "unknown profile"},
		{"bad output", []string{"-o", "xml", "system", "health"}, "unknown output format"},
		{"bad header", []string{"-H", "broken", "system", "health"}, "invalid header"},
		{"missing ca file", []string{"--ca-file", "/nonexistent/ca.pem", "system", "health"}, "load ca file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, server, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
