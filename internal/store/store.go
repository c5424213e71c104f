// Package store persists the registry aggregate as a single JSON document
// with atomic replacement and advisory single-writer locking.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bookplate/internal/config"
	"bookplate/internal/fileutil"
	"bookplate/internal/registry"
	"bookplate/internal/services"
)

// Store reads and writes the registry document. Mutations go through
// WithLock, which serializes writers system-wide via an advisory lock on
// the store's companion lock file plus a per-path mutex within the
// process.
type Store struct {
	path       string
	lockPath   string
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

// New constructs a store rooted at the configured data directory.
func New(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store requires config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "init", "", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		path:       cfg.StorePath(),
		lockPath:   cfg.LockPath(),
		timeout:    time.Duration(cfg.Locking.TimeoutSeconds) * time.Second,
		retryDelay: time.Duration(cfg.Locking.RetryMillis) * time.Millisecond,
		logger:     logger.With("component", "store"),
	}, nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Load reads and deserializes the registry. A missing file initializes an
// empty registry; a corrupt file is an I/O error — better to fail loudly
// than guess.
func (s *Store) Load() (*registry.Registry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return registry.New(), nil
		}
		return nil, services.Wrap(services.ErrIO, "store", "load", s.path, err)
	}

	reg := registry.New()
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "load",
			fmt.Sprintf("%s is corrupt", s.path), err)
	}
	if reg.SchemaVersion > registry.SchemaVersion {
		return nil, services.Wrap(services.ErrIO, "store", "load",
			fmt.Sprintf("%s has schema version %d, newer than supported %d", s.path, reg.SchemaVersion, registry.SchemaVersion), nil)
	}
	reg.SchemaVersion = registry.SchemaVersion
	return reg, nil
}

// Save writes the registry to a temporary file in the store directory and
// atomically renames it over the real path. Concurrent readers observe
// either the old or the new complete document.
func (s *Store) Save(reg *registry.Registry) error {
	if reg == nil {
		return services.Wrap(services.ErrIO, "store", "save", "registry is nil", nil)
	}
	reg.SchemaVersion = registry.SchemaVersion
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrIO, "store", "save", "", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "store", "save", s.path, err)
	}
	return nil
}

// Snapshot returns a consistent read of the registry without taking the
// writer lock. Atomic replacement in Save guarantees the read sees a
// complete document even while a writer is active.
func (s *Store) Snapshot() (*registry.Registry, error) {
	return s.Load()
}

// WithLock acquires the advisory lock, runs fn against the freshly loaded
// registry, and saves on success. The save is skipped entirely when fn
// returns an error, so a failed operation never leaves a partial write.
func (s *Store) WithLock(ctx context.Context, fn func(*registry.Registry) error) error {
	mu := pathMutex(s.lockPath)
	mu.Lock()
	defer mu.Unlock()

	lock := flock.New(s.lockPath)
	lockCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	ok, err := lock.TryLockContext(lockCtx, s.retryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrIO, "store", "lock", s.lockPath, err)
	}
	if !ok {
		return services.Wrap(services.ErrLockTimeout, "store", "lock",
			fmt.Sprintf("%s not acquired within %s", s.lockPath, s.timeout), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			s.logger.Warn("release store lock", "path", s.lockPath, "error", unlockErr)
		}
	}()
	if wait := time.Since(started); wait > s.retryDelay {
		s.logger.Debug("store lock acquired after wait", "wait", wait)
	}

	reg, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(reg); err != nil {
		return err
	}
	return s.Save(reg)
}

var (
	pathMutexesMu sync.Mutex
	pathMutexes   = map[string]*sync.Mutex{}
)

// pathMutex serializes goroutines within this process that share a lock
// path. flock alone is not reliable across goroutines reusing one file
// description.
func pathMutex(path string) *sync.Mutex {
	pathMutexesMu.Lock()
	defer pathMutexesMu.Unlock()
	mu, ok := pathMutexes[path]
	if !ok {
		mu = &sync.Mutex{}
		pathMutexes[path] = mu
	}
	return mu
}
