package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bookplate/internal/config"
)

// writeTestConfig produces a config file rooted under a per-test temp
// directory so commands never touch the real registry.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Publisher.Name = "Test Press"
	cfg.Publisher.Prefix = "978"
	cfg.Publisher.PublisherCode = "123456"
	cfg.Locking.TimeoutSeconds = 2
	cfg.Locking.RetryMillis = 10
	cfg.Audit.Path = filepath.Join(base, "data", "audit.db")

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI executes the command tree in-process with a fresh root so state
// never leaks between invocations.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := newRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
