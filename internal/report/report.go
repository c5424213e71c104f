// Package report derives read-only views over a registry snapshot:
// per-block availability, status totals, and full-table export.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"bookplate/internal/registry"
	"bookplate/internal/services"
)

// BlockReport is one block's identity plus its on-demand utilization.
type BlockReport struct {
	BlockID       string               `json:"block_id"`
	Prefix        string               `json:"prefix"`
	PublisherCode string               `json:"publisher_code"`
	RangeStart    int64                `json:"range_start"`
	RangeEnd      int64                `json:"range_end"`
	Capacity      int64                `json:"capacity"`
	Utilization   registry.Utilization `json:"utilization"`
}

// Totals aggregates assignment counts across blocks and external
// identifiers.
type Totals struct {
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Scheduled int `json:"scheduled"`
	Assigned  int `json:"assigned"`
	External  int `json:"external"`
}

// AvailabilityReport is the full availability view.
type AvailabilityReport struct {
	PerBlock []BlockReport `json:"per_block"`
	Totals   Totals        `json:"totals"`
}

// Availability derives the report from a snapshot. Pure; callers pass a
// registry obtained from store.Snapshot.
func Availability(reg *registry.Registry) (AvailabilityReport, error) {
	var out AvailabilityReport
	for _, block := range reg.Blocks {
		u, err := reg.Utilization(block.ID)
		if err != nil {
			return AvailabilityReport{}, err
		}
		out.PerBlock = append(out.PerBlock, BlockReport{
			BlockID:       block.ID,
			Prefix:        block.Prefix,
			PublisherCode: block.PublisherCode,
			RangeStart:    block.RangeStart,
			RangeEnd:      block.RangeEnd,
			Capacity:      block.Capacity(),
			Utilization:   u,
		})
		out.Totals.Available += int(u.Available)
	}
	for _, a := range reg.Assignments {
		switch a.Status {
		case registry.StatusAvailable:
			// block availability above already covers in-block records;
			// released external identifiers live outside every block
			if a.External {
				out.Totals.Available++
			}
		case registry.StatusReserved:
			out.Totals.Reserved++
		case registry.StatusScheduled:
			out.Totals.Scheduled++
		case registry.StatusAssigned:
			out.Totals.Assigned++
		}
		if a.External && a.Active() {
			out.Totals.External++
		}
	}
	return out, nil
}

var availabilityHeader = []string{
	"block_id", "prefix", "publisher_code", "range_start", "range_end",
	"capacity", "available", "reserved", "scheduled", "assigned",
}

// AvailabilityCSV serializes the per-block portion of an availability
// report.
func AvailabilityCSV(rep AvailabilityReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(availabilityHeader); err != nil {
		return nil, services.Wrap(services.ErrIO, "report", "availability", "", err)
	}
	for _, b := range rep.PerBlock {
		record := []string{
			b.BlockID,
			b.Prefix,
			b.PublisherCode,
			strconv.FormatInt(b.RangeStart, 10),
			strconv.FormatInt(b.RangeEnd, 10),
			strconv.FormatInt(b.Capacity, 10),
			strconv.FormatInt(b.Utilization.Available, 10),
			strconv.FormatInt(b.Utilization.Reserved, 10),
			strconv.FormatInt(b.Utilization.Scheduled, 10),
			strconv.FormatInt(b.Utilization.Assigned, 10),
		}
		if err := w.Write(record); err != nil {
			return nil, services.Wrap(services.ErrIO, "report", "availability", "", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, services.Wrap(services.ErrIO, "report", "availability", "", err)
	}
	return buf.Bytes(), nil
}

var exportHeader = []string{
	"isbn", "book_id", "title", "imprint", "publisher", "format",
	"status", "scheduled_date", "assigned_date", "priority", "external", "notes",
}

// Export serializes the full assignment table as CSV or JSON bytes,
// ordered by identifier.
func Export(reg *registry.Registry, format string) ([]byte, error) {
	assignments := make([]registry.Assignment, len(reg.Assignments))
	copy(assignments, reg.Assignments)
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].ISBN < assignments[j].ISBN
	})

	switch format {
	case "json":
		data, err := json.MarshalIndent(assignments, "", "  ")
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "report", "export", "", err)
		}
		return append(data, '\n'), nil
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(exportHeader); err != nil {
			return nil, services.Wrap(services.ErrIO, "report", "export", "", err)
		}
		for _, a := range assignments {
			record := []string{
				a.ISBN,
				a.BookID,
				a.Title,
				a.Imprint,
				a.Publisher,
				a.Format,
				string(a.Status),
				a.ScheduledDate,
				a.AssignedDate,
				strconv.Itoa(a.Priority),
				strconv.FormatBool(a.External),
				a.Notes,
			}
			if err := w.Write(record); err != nil {
				return nil, services.Wrap(services.ErrIO, "report", "export", "", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, services.Wrap(services.ErrIO, "report", "export", "", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, services.Wrap(services.ErrValidation, "report", "export",
			fmt.Sprintf("unsupported format %q (want csv or json)", format), nil)
	}
}
