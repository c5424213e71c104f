package registry_test

import (
	"errors"
	"testing"
	"time"

	"bookplate/internal/isbn"
	"bookplate/internal/registry"
	"bookplate/internal/services"
)

func testBlock() registry.Block {
	return registry.Block{
		Prefix:        "978",
		PublisherCode: "123456",
		RangeStart:    100,
		RangeEnd:      102,
	}
}

func TestAddBlockAssignsID(t *testing.T) {
	reg := registry.New()
	added, err := reg.AddBlock(testBlock())
	if err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	if added.ID != "978-123456-100" {
		t.Fatalf("unexpected block id %q", added.ID)
	}
	if added.Capacity() != 3 {
		t.Fatalf("unexpected capacity %d", added.Capacity())
	}
}

func TestAddBlockRejectsOverlapSamePublisher(t *testing.T) {
	reg := registry.New()
	if _, err := reg.AddBlock(testBlock()); err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}

	overlapping := testBlock()
	overlapping.RangeStart = 102
	overlapping.RangeEnd = 110
	if _, err := reg.AddBlock(overlapping); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict for overlapping range, got %v", err)
	}

	// same range under another publisher code is fine
	other := testBlock()
	other.PublisherCode = "654321"
	if _, err := reg.AddBlock(other); err != nil {
		t.Fatalf("AddBlock for other publisher failed: %v", err)
	}
}

func TestAddBlockValidation(t *testing.T) {
	reg := registry.New()
	cases := []struct {
		name  string
		block registry.Block
	}{
		{"short prefix", registry.Block{Prefix: "97", PublisherCode: "123456", RangeStart: 0, RangeEnd: 1}},
		{"non-numeric code", registry.Block{Prefix: "978", PublisherCode: "12a456", RangeStart: 0, RangeEnd: 1}},
		{"inverted range", registry.Block{Prefix: "978", PublisherCode: "123456", RangeStart: 5, RangeEnd: 1}},
		{"range too wide", registry.Block{Prefix: "978", PublisherCode: "123456", RangeStart: 0, RangeEnd: 1000}},
		{"no sequence digits", registry.Block{Prefix: "978", PublisherCode: "123456789", RangeStart: 0, RangeEnd: 0}},
	}
	for _, tc := range cases {
		if _, err := reg.AddBlock(tc.block); !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestISBNForProducesValidIdentifiers(t *testing.T) {
	block := testBlock()
	for n := block.RangeStart; n <= block.RangeEnd; n++ {
		id, ok := block.ISBNFor(n)
		if !ok {
			t.Fatalf("ISBNFor(%d) rejected in-range sequence", n)
		}
		if !isbn.IsValid(id) {
			t.Fatalf("ISBNFor(%d) = %q fails checksum", n, id)
		}
		if !block.Contains(id) {
			t.Fatalf("block does not contain its own identifier %q", id)
		}
	}
	if _, ok := block.ISBNFor(103); ok {
		t.Fatal("ISBNFor accepted out-of-range sequence")
	}
}

func TestNextAvailableSkipsActive(t *testing.T) {
	reg := registry.New()
	block, err := reg.AddBlock(testBlock())
	if err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}

	first, err := reg.NextAvailable(block.ID)
	if err != nil {
		t.Fatalf("NextAvailable failed: %v", err)
	}
	if first != "9781234561000" {
		t.Fatalf("expected lowest identifier first, got %q", first)
	}

	now := time.Now().UTC()
	reg.Upsert(registry.Assignment{ISBN: first, BookID: "bk-1", Status: registry.StatusScheduled, CreatedAt: now, UpdatedAt: now})

	second, err := reg.NextAvailable(block.ID)
	if err != nil {
		t.Fatalf("NextAvailable failed: %v", err)
	}
	if second == first {
		t.Fatalf("NextAvailable returned an active identifier %q", second)
	}

	// a released record frees its identifier again
	record := reg.Assignment(first)
	record.Release(now)
	again, err := reg.NextAvailable(block.ID)
	if err != nil {
		t.Fatalf("NextAvailable failed: %v", err)
	}
	if again != first {
		t.Fatalf("expected released identifier %q to come back first, got %q", first, again)
	}
}

func TestNextAvailableCapacity(t *testing.T) {
	reg := registry.New()
	block, err := reg.AddBlock(testBlock())
	if err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	now := time.Now().UTC()
	for n := block.RangeStart; n <= block.RangeEnd; n++ {
		id, _ := block.ISBNFor(n)
		reg.Upsert(registry.Assignment{ISBN: id, BookID: "bk", Status: registry.StatusAssigned, CreatedAt: now, UpdatedAt: now})
	}
	if _, err := reg.NextAvailable(block.ID); !errors.Is(err, services.ErrCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestUtilizationCounts(t *testing.T) {
	reg := registry.New()
	block, err := reg.AddBlock(testBlock())
	if err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}
	now := time.Now().UTC()
	first, _ := block.ISBNFor(100)
	second, _ := block.ISBNFor(101)
	reg.Upsert(registry.Assignment{ISBN: first, BookID: "bk-1", Status: registry.StatusAssigned, CreatedAt: now, UpdatedAt: now})
	reg.Upsert(registry.Assignment{ISBN: second, Status: registry.StatusReserved, CreatedAt: now, UpdatedAt: now})
	// an external identifier must not count against the block
	reg.Upsert(registry.Assignment{ISBN: "9780306406157", BookID: "bk-2", Status: registry.StatusAssigned, External: true, CreatedAt: now, UpdatedAt: now})

	u, err := reg.Utilization(block.ID)
	if err != nil {
		t.Fatalf("Utilization failed: %v", err)
	}
	want := registry.Utilization{Assigned: 1, Reserved: 1, Available: 1}
	if u != want {
		t.Fatalf("unexpected utilization %+v, want %+v", u, want)
	}
}

func TestActiveByBookID(t *testing.T) {
	reg := registry.New()
	now := time.Now().UTC()
	reg.Upsert(registry.Assignment{ISBN: "9781234561000", BookID: "bk-1", Status: registry.StatusScheduled, CreatedAt: now, UpdatedAt: now})
	reg.Upsert(registry.Assignment{ISBN: "9781234561017", BookID: "bk-2", Status: registry.StatusAvailable, CreatedAt: now, UpdatedAt: now})

	if a := reg.ActiveByBookID("bk-1"); a == nil || a.ISBN != "9781234561000" {
		t.Fatalf("unexpected lookup result %+v", a)
	}
	if a := reg.ActiveByBookID("bk-2"); a != nil {
		t.Fatalf("available record must not resolve by book key, got %+v", a)
	}
	if a := reg.ActiveByBookID(""); a != nil {
		t.Fatalf("empty book key must not resolve, got %+v", a)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := registry.ParseStatus(" Scheduled "); !ok || status != registry.StatusScheduled {
		t.Fatalf("ParseStatus failed: %v %v", status, ok)
	}
	if _, ok := registry.ParseStatus("printed"); ok {
		t.Fatal("ParseStatus accepted unknown status")
	}
}
