package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	configPath := writeTestConfig(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	// a second init without --overwrite refuses to clobber
	out, err = runCLI(t, configPath, "config", "init", "--path", target)
	if err == nil {
		t.Fatalf("expected error for existing file, got:\n%s", out)
	}
}

func TestConfigShowRendersTOML(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	requireContains(t, out, "[publisher]")
	requireContains(t, out, "prefix = '978'")
}
