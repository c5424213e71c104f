package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"bookplate/internal/registry"
	"bookplate/internal/services"
	"bookplate/internal/testsupport"
)

func TestLoadMissingFileReturnsEmptyRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	reg, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reg.SchemaVersion != registry.SchemaVersion {
		t.Fatalf("unexpected schema version %d", reg.SchemaVersion)
	}
	if len(reg.Blocks) != 0 || len(reg.Assignments) != 0 {
		t.Fatalf("expected empty registry, got %+v", reg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	reg := registry.New()
	if _, err := reg.AddBlock(registry.Block{Prefix: "978", PublisherCode: "123456", RangeStart: 100, RangeEnd: 102}); err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	reg.Upsert(registry.Assignment{ISBN: "9781234561000", BookID: "bk-1", Title: "First", Status: registry.StatusScheduled, CreatedAt: now, UpdatedAt: now})

	if err := s.Save(reg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Blocks) != 1 || loaded.Blocks[0].ID != "978-123456-100" {
		t.Fatalf("blocks did not survive round trip: %+v", loaded.Blocks)
	}
	got := loaded.Assignment("9781234561000")
	if got == nil || got.BookID != "bk-1" || got.Status != registry.StatusScheduled {
		t.Fatalf("assignment did not survive round trip: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created_at drifted: %v != %v", got.CreatedAt, now)
	}
}

func TestLoadCorruptFileFailsLoudly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	if err := os.WriteFile(cfg.StorePath(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error for corrupt store, got %v", err)
	}
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	doc := fmt.Sprintf(`{"schema_version": %d, "blocks": [], "assignments": []}`, registry.SchemaVersion+1)
	if err := os.WriteFile(cfg.StorePath(), []byte(doc), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io error for newer schema, got %v", err)
	}
}

func TestWithLockSkipsSaveOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	boom := errors.New("boom")
	err := s.WithLock(context.Background(), func(reg *registry.Registry) error {
		if _, addErr := reg.AddBlock(registry.Block{Prefix: "978", PublisherCode: "123456", RangeStart: 0, RangeEnd: 9}); addErr != nil {
			return addErr
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	reg, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reg.Blocks) != 0 {
		t.Fatalf("failed operation must not persist, got %+v", reg.Blocks)
	}
}

func TestWithLockTimesOutWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Locking.TimeoutSeconds = 1
	s := testsupport.MustOpenStore(t, cfg)

	holder := flock.New(cfg.LockPath())
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("seed lock holder: locked=%v err=%v", locked, err)
	}
	defer func() {
		if err := holder.Unlock(); err != nil {
			t.Fatalf("release lock holder: %v", err)
		}
	}()

	start := time.Now()
	err = s.WithLock(context.Background(), func(reg *registry.Registry) error {
		t.Fatal("fn must not run while the lock is held elsewhere")
		return nil
	})
	if !errors.Is(err, services.ErrLockTimeout) {
		t.Fatalf("expected lock timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
}

func TestWithLockSerializesWriters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)

	if err := s.WithLock(context.Background(), func(reg *registry.Registry) error {
		_, err := reg.AddBlock(registry.Block{Prefix: "978", PublisherCode: "123456", RangeStart: 0, RangeEnd: 99})
		return err
	}); err != nil {
		t.Fatalf("seed block: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.WithLock(context.Background(), func(reg *registry.Registry) error {
				next, err := reg.NextAvailable("978-123456-0")
				if err != nil {
					return err
				}
				now := time.Now().UTC()
				reg.Upsert(registry.Assignment{
					ISBN:      next,
					BookID:    fmt.Sprintf("bk-%d", i),
					Status:    registry.StatusAssigned,
					CreatedAt: now,
					UpdatedAt: now,
				})
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d failed: %v", i, err)
		}
	}

	reg, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	seen := map[string]string{}
	for _, a := range reg.Assignments {
		if !a.Active() {
			continue
		}
		if other, dup := seen[a.ISBN]; dup {
			t.Fatalf("identifier %s assigned to both %s and %s", a.ISBN, other, a.BookID)
		}
		seen[a.ISBN] = a.BookID
	}
	if len(seen) != writers {
		t.Fatalf("expected %d distinct identifiers, got %d", writers, len(seen))
	}
}
