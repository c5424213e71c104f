// Package importer ingests schedule rows from CSV or JSON files and feeds
// them through the allocator one row at a time. Row-level failures are
// collected, not fatal: a batch never aborts because one row is bad.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookplate/internal/allocator"
	"bookplate/internal/services"
)

// Row is one schedule entry. CSV and JSON inputs both deserialize to this
// type, so import behavior is identical regardless of source format.
type Row struct {
	Title         string `json:"title"`
	BookID        string `json:"book_id"`
	ScheduledDate string `json:"scheduled_date"`
	ISBN          string `json:"isbn"`
	Imprint       string `json:"imprint"`
	Publisher     string `json:"publisher"`
	Format        string `json:"format"`
	Priority      int    `json:"priority"`
	Notes         string `json:"notes"`
}

// RowError records one failed row with enough context to fix the input.
type RowError struct {
	Row     int    `json:"row"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes a batch. Processed counts rows that succeeded;
// updates of already-booked titles appear in Updated, not in the
// assigned counts.
type ImportResult struct {
	Processed      int        `json:"processed"`
	AssignedManual int        `json:"assigned_manual"`
	AssignedAuto   int        `json:"assigned_auto"`
	Updated        int        `json:"updated"`
	Errors         []RowError `json:"errors,omitempty"`
}

// Importer drives batch ingestion through the allocator.
type Importer struct {
	alloc  *allocator.Allocator
	logger *slog.Logger
}

// New constructs an importer.
func New(alloc *allocator.Allocator, logger *slog.Logger) (*Importer, error) {
	if alloc == nil {
		return nil, errors.New("importer requires allocator")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{alloc: alloc, logger: logger.With("component", "importer")}, nil
}

var formatCaser = cases.Title(language.Und)

// Import processes rows sequentially, one allocator call (and one lock
// cycle) per row. Validation, conflict, and capacity failures are
// appended to the result and processing continues; lock timeouts and I/O
// failures abort the batch since the store can no longer be trusted.
func (im *Importer) Import(ctx context.Context, rows []Row) (ImportResult, error) {
	var result ImportResult
	for i, row := range rows {
		req := allocator.Request{
			BookID:    strings.TrimSpace(row.BookID),
			Title:     strings.TrimSpace(row.Title),
			Date:      strings.TrimSpace(row.ScheduledDate),
			ISBN:      strings.TrimSpace(row.ISBN),
			Imprint:   strings.TrimSpace(row.Imprint),
			Publisher: strings.TrimSpace(row.Publisher),
			Format:    normalizeFormat(row.Format),
			Priority:  row.Priority,
			Notes:     strings.TrimSpace(row.Notes),
		}

		_, outcome, err := im.alloc.Schedule(ctx, req)
		if err != nil {
			if !services.RowLocal(err) {
				return result, err
			}
			result.Errors = append(result.Errors, RowError{
				Row:     i + 1,
				Title:   req.Title,
				Message: err.Error(),
			})
			im.logger.Warn("row rejected", "row", i+1, "title", req.Title, "error", err)
			continue
		}

		result.Processed++
		switch outcome {
		case allocator.OutcomeAssignedManual:
			result.AssignedManual++
		case allocator.OutcomeAssignedAuto:
			result.AssignedAuto++
		case allocator.OutcomeUpdated:
			result.Updated++
		}
	}

	im.logger.Info("import finished",
		"rows", len(rows),
		"processed", result.Processed,
		"errors", len(result.Errors))
	return result, nil
}

// ImportFile reads rows from path and imports them. The format is chosen
// by extension, falling back to content sniffing.
func (im *Importer) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return ImportResult{}, err
	}
	return im.Import(ctx, rows)
}

// ReadFile loads schedule rows from a CSV or JSON file.
func ReadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "importer", "read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(path, data)
	case ".csv":
		return parseCSV(path, data)
	}
	if looksLikeJSON(data) {
		return parseJSON(path, data)
	}
	return parseCSV(path, data)
}

func looksLikeJSON(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")
}

func parseJSON(path string, data []byte) ([]Row, error) {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, services.Wrap(services.ErrValidation, "importer", "parse",
			fmt.Sprintf("%s is not a JSON array of schedule rows", path), err)
	}
	return rows, nil
}

func parseCSV(path string, data []byte) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrValidation, "importer", "parse", path, err)
	}

	index := map[string]int{}
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["title"]; !ok {
		return nil, services.Wrap(services.ErrValidation, "importer", "parse",
			fmt.Sprintf("%s is missing the title column", path), nil)
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "importer", "parse", path, err)
		}
		row := Row{
			Title:         field(record, "title"),
			BookID:        field(record, "book_id"),
			ScheduledDate: field(record, "scheduled_date"),
			ISBN:          field(record, "isbn"),
			Imprint:       field(record, "imprint"),
			Publisher:     field(record, "publisher"),
			Format:        field(record, "format"),
			Notes:         field(record, "notes"),
		}
		if raw := field(record, "priority"); raw != "" {
			if priority, convErr := strconv.Atoi(raw); convErr == nil {
				row.Priority = priority
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeFormat canonicalizes free-form format labels ("trade paperback"
// becomes "Trade Paperback") so listings sort and group cleanly.
func normalizeFormat(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return formatCaser.String(strings.ToLower(value))
}
