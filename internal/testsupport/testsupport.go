// Package testsupport provides shared helpers for package tests: temp-dir
// configs, stores, and silent loggers.
package testsupport

import (
	"log/slog"
	"path/filepath"
	"testing"

	"bookplate/internal/config"
	"bookplate/internal/store"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The default publisher identity matches the small three-slot block used
// throughout the tests.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
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

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithAuditEnabled switches the optional mutation log on.
func WithAuditEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Audit.Enabled = true
	}
}

// WithDefaultBlock pins the allocation block id.
func WithDefaultBlock(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Publisher.DefaultBlock = id
	}
}

// MustOpenStore builds a store over the test config.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.New(cfg, Logger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

// Logger returns a logger that drops all output.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
