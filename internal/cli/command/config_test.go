package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigCommand(t *testing.T) {
	cmd := ConfigCommand()
	subs := make(map[string][]string)
	for _, group := range cmd.Subcommands {
		for _, sub := range group.Subcommands {
			subs[group.Name] = append(subs[group.Name], sub.Name)
		}
	}
	if got := strings.Join(subs["cli"], ","); got != "show,validate" {
		t.Errorf("cli subcommands = %q", got)
	}
	if got := strings.Join(subs["server"], ","); got != "show,validate,defaults" {
		t.Errorf("server subcommands = %q", got)
	}
}

func TestConfigServerValidate(t *testing.T) {
	valid := writeTemp(t, "server.yaml", "server:\n  http:\n    addr: 0.0.0.0:8080\nloader:\n  skip_error: true\n")
	invalid := writeTemp(t, "bad.yaml", "server:\n  http:\n    addr: nope\nlog:\n  level: loud\n")

	out, err := runApp(t, nil, "config", "server", "validate", valid)
	if err != nil {
		t.Fatalf("validate valid: %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("output = %q", out)
	}

	_, err = runApp(t, nil, "config", "server", "validate", invalid)
	if err == nil {
		t.Fatal("validate invalid: expected error")
	}
	for _, want := range []string{"server.http.addr", "log"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}

	if _, err := runApp(t, nil, "config", "server", "validate"); err == nil {
		t.Error("validate without a file: expected error")
	}
}

func TestConfigServerShow_MasksHeaders(t *testing.T) {
	path := writeTemp(t, "server.yaml", "page:\n  headers:\n    Authorization: Bearer secret-token\n    X-Tenant: blue\n")

	out, err := runApp(t, nil, "config", "server", "show", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("secret leaked:\n%s", out)
	}
	for _, want := range []string{"X-Tenant: blue", "shutdown_timeout: 30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigServerDefaults(t *testing.T) {
	out, err := runApp(t, nil, "config", "server", "defaults")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "addr: 127.0.0.1:5080") {
		t.Errorf("output =\n%s", out)
	}

	out, err = runApp(t, nil, "-o", "json", "config", "server", "defaults")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, `"addr": "127.0.0.1:5080"`) {
		t.Errorf("json output =\n%s", out)
	}
}

func TestConfigCLI(t *testing.T) {
	path := writeTemp(t, "cli.yaml", "server: https://loader.internal\nheaders:\n  Authorization: Bearer secret-token\n")

	out, err := runApp(t, nil, "--config", path, "config", "cli", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "secret-token") {
		t.Errorf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "server: https://loader.internal") {
		t.Errorf("output =\n%s", out)
	}

	out, err = runApp(t, nil, "--config", path, "config", "cli", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}

	bad := writeTemp(t, "bad.yaml", "output: xml\n")
	if _, err := runApp(t, nil, "--config", bad, "config", "cli", "validate"); err == nil {
		t.Error("validate bad output format: expected error")
	}
}
