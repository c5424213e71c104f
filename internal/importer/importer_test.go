package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bookplate/internal/allocator"
	"bookplate/internal/importer"
	"bookplate/internal/registry"
	"bookplate/internal/store"
	"bookplate/internal/testsupport"
)

func newImporter(t *testing.T) (*importer.Importer, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	al, err := allocator.New(st, cfg, nil, testsupport.Logger())
	if err != nil {
		t.Fatalf("new allocator: %v", err)
	}
	if _, err := al.AddBlock(context.Background(), registry.Block{
		Prefix: "978", PublisherCode: "123456", RangeStart: 100, RangeEnd: 199,
	}); err != nil {
		t.Fatalf("add block: %v", err)
	}
	im, err := importer.New(al, testsupport.Logger())
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	return im, st
}

func TestImportPartialSuccess(t *testing.T) {
	im, st := newImporter(t)

	rows := []importer.Row{
		{Title: "Book One", BookID: "bk-1"},
		{Title: "Book Two", BookID: "bk-2", ISBN: "not-an-isbn"},
		{Title: "Book Three", BookID: "bk-3", ISBN: "9780306406157"},
		{Title: "Book Four", BookID: "bk-4", ISBN: "9780306406158"},
		{Title: "Book Five", BookID: "bk-5"},
	}

	result, err := im.Import(context.Background(), rows)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Processed != 3 {
		t.Fatalf("expected processed=3, got %d", result.Processed)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %+v", result.Errors)
	}
	if result.Errors[0].Row != 2 || result.Errors[1].Row != 4 {
		t.Fatalf("wrong rows flagged: %+v", result.Errors)
	}
	if result.AssignedAuto != 2 || result.AssignedManual != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	reg, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	for _, bookID := range []string{"bk-1", "bk-3", "bk-5"} {
		if a := reg.ActiveByBookID(bookID); a == nil {
			t.Errorf("%s missing from registry", bookID)
		}
	}
	for _, bookID := range []string{"bk-2", "bk-4"} {
		if a := reg.ActiveByBookID(bookID); a != nil {
			t.Errorf("failed row %s must not be present, got %+v", bookID, a)
		}
	}
}

func TestImportCountsUpdates(t *testing.T) {
	im, _ := newImporter(t)

	ctx := context.Background()
	first, err := im.Import(ctx, []importer.Row{{Title: "Book One", BookID: "bk-1"}})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if first.AssignedAuto != 1 || first.Updated != 0 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := im.Import(ctx, []importer.Row{{Title: "Book One (rev)", BookID: "bk-1", ScheduledDate: "2026-12-01"}})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if second.Updated != 1 || second.AssignedAuto != 0 {
		t.Fatalf("re-import must count as update, got %+v", second)
	}
	if second.Processed != 1 {
		t.Fatalf("updates still count as processed, got %+v", second)
	}
}

func TestImportFileCSV(t *testing.T) {
	im, st := newImporter(t)

	path := filepath.Join(t.TempDir(), "schedule.csv")
	content := "title,book_id,scheduled_date,isbn,imprint,publisher,format,priority,notes\n" +
		"Winter Novel,bk-10,2026-11-01,,North Imprint,Test Press,trade paperback,2,launch title\n" +
		"Spring Poems,bk-11,,9780306406157,,,hardcover,,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	result, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Processed != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	reg, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	a := reg.ActiveByBookID("bk-10")
	if a == nil || a.ScheduledDate != "2026-11-01" || a.Priority != 2 {
		t.Fatalf("csv fields lost: %+v", a)
	}
	if a.Format != "Trade Paperback" {
		t.Fatalf("format not normalized: %q", a.Format)
	}
	if b := reg.ActiveByBookID("bk-11"); b == nil || b.ISBN != "9780306406157" {
		t.Fatalf("manual isbn row lost: %+v", b)
	}
}

func TestImportFileJSONMatchesCSVBehavior(t *testing.T) {
	im, st := newImporter(t)

	path := filepath.Join(t.TempDir(), "schedule.json")
	content := `[
  {"title": "Winter Novel", "book_id": "bk-10", "scheduled_date": "2026-11-01", "priority": 2},
  {"title": "Spring Poems", "book_id": "bk-11", "isbn": "9780306406157"}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	result, err := im.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if result.Processed != 2 || result.AssignedManual != 1 || result.AssignedAuto != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	reg, err := st.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if a := reg.ActiveByBookID("bk-10"); a == nil || a.Priority != 2 {
		t.Fatalf("json fields lost: %+v", a)
	}
}

func TestReadFileRejectsMalformed(t *testing.T) {
	dir := t.TempDir()

	badJSON := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badJSON, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := importer.ReadFile(badJSON); err == nil {
		t.Fatal("expected error for malformed json")
	}

	noTitle := filepath.Join(dir, "noheader.csv")
	if err := os.WriteFile(noTitle, []byte("a,b,c\n1,2,3\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := importer.ReadFile(noTitle); err == nil {
		t.Fatal("expected error for csv without title column")
	}

	if _, err := importer.ReadFile(filepath.Join(dir, "absent.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
