package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookplate/internal/audit"
	"bookplate/internal/config"
	"bookplate/internal/isbn"
	"bookplate/internal/registry"
	"bookplate/internal/services"
	"bookplate/internal/store"
)

// dateLayout is the calendar-day format used for scheduled and assigned dates.
const dateLayout = "2006-01-02"

// Outcome classifies how a schedule or get-or-assign call resolved. The
// importer aggregates these into its result counts.
type Outcome string

const (
	OutcomeAssignedManual Outcome = "assigned_manual"
	OutcomeAssignedAuto   Outcome = "assigned_auto"
	OutcomeUpdated        Outcome = "updated"
)

// Request carries the caller-supplied fields for schedule and
// get-or-assign operations. ISBN and Block are optional; an empty ISBN
// selects the auto-allocation path.
type Request struct {
	BookID    string
	Title     string
	Date      string
	ISBN      string
	Block     string
	Imprint   string
	Publisher string
	Format    string
	Priority  int
	Notes     string
}

// Allocator composes the registry, store, and audit log under the store
// lock. It is the only component permitted to mutate assignments.
type Allocator struct {
	store  *store.Store
	cfg    *config.Config
	audit  *audit.Log
	logger *slog.Logger
}

// New constructs an allocator. The audit log may be nil.
func New(st *store.Store, cfg *config.Config, auditLog *audit.Log, logger *slog.Logger) (*Allocator, error) {
	if st == nil || cfg == nil {
		return nil, errors.New("allocator requires store and config")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Allocator{
		store:  st,
		cfg:    cfg,
		audit:  auditLog,
		logger: logger.With("component", "allocator"),
	}, nil
}

// Schedule books an identifier for a title: the manual path validates and
// conflict-checks a caller-supplied ISBN, the auto path takes the lowest
// available identifier from the chosen block. A book key that already has
// an active assignment updates that record in place.
func (al *Allocator) Schedule(ctx context.Context, req Request) (registry.Assignment, Outcome, error) {
	return al.place(ctx, req, registry.StatusScheduled)
}

// GetOrAssign is the idempotent entry point used by rebuilds and external
// collaborators: an existing active assignment for the book key is
// returned with its identifier unchanged, otherwise the request is placed
// directly in Assigned status.
func (al *Allocator) GetOrAssign(ctx context.Context, req Request) (registry.Assignment, Outcome, error) {
	return al.place(ctx, req, registry.StatusAssigned)
}

func (al *Allocator) place(ctx context.Context, req Request, target registry.Status) (registry.Assignment, Outcome, error) {
	var (
		result  registry.Assignment
		outcome Outcome
	)

	req.BookID = strings.TrimSpace(req.BookID)
	req.Title = strings.TrimSpace(req.Title)
	if req.BookID == "" {
		return result, "", services.Wrap(services.ErrValidation, "allocator", opName(target), "book id is required", nil)
	}
	if err := validateDate(req.Date); err != nil {
		return result, "", err
	}

	manual := ""
	if strings.TrimSpace(req.ISBN) != "" {
		canonical, ok := isbn.Canonicalize(req.ISBN)
		if !ok || !isbn.IsValid(canonical) {
			return result, "", services.Wrap(services.ErrValidation, "allocator", opName(target),
				fmt.Sprintf("isbn %q is not a valid ISBN-13", req.ISBN), nil)
		}
		manual = canonical
	}

	err := al.store.WithLock(ctx, func(reg *registry.Registry) error {
		now := time.Now().UTC()

		if existing := reg.ActiveByBookID(req.BookID); existing != nil {
			if manual != "" && manual != existing.ISBN {
				return services.Wrap(services.ErrConflict, "allocator", opName(target),
					fmt.Sprintf("book %s is already bound to isbn %s; release it before rebinding to %s", req.BookID, existing.ISBN, manual), nil)
			}
			applyMetadata(existing, req, now)
			if target == registry.StatusAssigned {
				promote(existing, now)
			}
			result = *existing
			outcome = OutcomeUpdated
			return nil
		}

		var (
			chosen   string
			external bool
		)
		if manual != "" {
			if occupant := reg.Assignment(manual); occupant.Active() {
				return services.Wrap(services.ErrConflict, "allocator", opName(target),
					fmt.Sprintf("isbn %s is already %s to book %s", manual, occupant.Status, occupant.BookID), nil)
			}
			chosen = manual
			external = reg.BlockFor(manual) == nil
			outcome = OutcomeAssignedManual
		} else {
			block := reg.DefaultBlock(al.cfg.Publisher.Prefix, al.cfg.Publisher.PublisherCode, firstNonEmpty(req.Block, al.cfg.Publisher.DefaultBlock))
			if block == nil {
				return services.Wrap(services.ErrValidation, "allocator", opName(target),
					"no allocation block: add one with add-block or set publisher.default_block", nil)
			}
			next, err := reg.NextAvailable(block.ID)
			if err != nil {
				return err
			}
			chosen = next
			outcome = OutcomeAssignedAuto
		}

		record := registry.Assignment{
			ISBN:      chosen,
			External:  external,
			CreatedAt: now,
		}
		if prior := reg.Assignment(chosen); prior != nil {
			record.CreatedAt = prior.CreatedAt
		}
		record.Status = target
		applyMetadata(&record, req, now)
		if target == registry.StatusAssigned {
			record.AssignedDate = now.Format(dateLayout)
		}
		result = *reg.Upsert(record)
		return nil
	})
	if err != nil {
		return registry.Assignment{}, "", err
	}

	al.record(ctx, string(outcome)+"/"+opName(target), result.ISBN, result.BookID, result.Title)
	al.logger.Info(opName(target), "isbn", result.ISBN, "book_id", result.BookID, "outcome", string(outcome))
	return result, outcome, nil
}

// AddBlock registers a purchased range under the store lock.
func (al *Allocator) AddBlock(ctx context.Context, block registry.Block) (registry.Block, error) {
	var result registry.Block
	err := al.store.WithLock(ctx, func(reg *registry.Registry) error {
		added, err := reg.AddBlock(block)
		if err != nil {
			return err
		}
		result = *added
		return nil
	})
	if err != nil {
		return registry.Block{}, err
	}

	al.record(ctx, "add-block", "", "", fmt.Sprintf("block %s range %d..%d", result.ID, result.RangeStart, result.RangeEnd))
	al.logger.Info("add-block", "block", result.ID, "capacity", result.Capacity())
	return result, nil
}

// Assign confirms a previously scheduled or reserved identifier as final.
// The key may be an identifier or a book key.
func (al *Allocator) Assign(ctx context.Context, key string) (registry.Assignment, error) {
	var result registry.Assignment
	key = strings.TrimSpace(key)
	if key == "" {
		return result, services.Wrap(services.ErrValidation, "allocator", "assign", "isbn or book id is required", nil)
	}

	err := al.store.WithLock(ctx, func(reg *registry.Registry) error {
		record, err := resolveActive(reg, key, "assign")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		promote(record, now)
		result = *record
		return nil
	})
	if err != nil {
		return registry.Assignment{}, err
	}

	al.record(ctx, "assign", result.ISBN, result.BookID, "")
	al.logger.Info("assign", "isbn", result.ISBN, "book_id", result.BookID)
	return result, nil
}

// Reserve protects an identifier for a future, not-yet-named project.
func (al *Allocator) Reserve(ctx context.Context, isbnValue string) (registry.Assignment, error) {
	var result registry.Assignment
	canonical, ok := isbn.Canonicalize(isbnValue)
	if !ok || !isbn.IsValid(canonical) {
		return result, services.Wrap(services.ErrValidation, "allocator", "reserve",
			fmt.Sprintf("isbn %q is not a valid ISBN-13", isbnValue), nil)
	}

	err := al.store.WithLock(ctx, func(reg *registry.Registry) error {
		now := time.Now().UTC()
		prior := reg.Assignment(canonical)
		if prior.Active() {
			return services.Wrap(services.ErrConflict, "allocator", "reserve",
				fmt.Sprintf("isbn %s is already %s", canonical, prior.Status), nil)
		}
		record := registry.Assignment{
			ISBN:      canonical,
			Status:    registry.StatusReserved,
			External:  reg.BlockFor(canonical) == nil,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if prior != nil {
			record.CreatedAt = prior.CreatedAt
			record.Notes = prior.Notes
		}
		result = *reg.Upsert(record)
		return nil
	})
	if err != nil {
		return registry.Assignment{}, err
	}

	al.record(ctx, "reserve", result.ISBN, "", "")
	al.logger.Info("reserve", "isbn", result.ISBN)
	return result, nil
}

// Release returns an identifier to the Available pool, clearing its book
// binding and dates. The record is retained, so the identifier surfaces
// again as the lowest available in its block.
func (al *Allocator) Release(ctx context.Context, isbnValue string) error {
	canonical, ok := isbn.Canonicalize(isbnValue)
	if !ok {
		return services.Wrap(services.ErrValidation, "allocator", "release",
			fmt.Sprintf("isbn %q is malformed", isbnValue), nil)
	}

	var bookID string
	err := al.store.WithLock(ctx, func(reg *registry.Registry) error {
		record := reg.Assignment(canonical)
		if record == nil {
			return services.Wrap(services.ErrConflict, "allocator", "release",
				fmt.Sprintf("isbn %s has no assignment record", canonical), nil)
		}
		if !record.Active() {
			return services.Wrap(services.ErrConflict, "allocator", "release",
				fmt.Sprintf("isbn %s is already available", canonical), nil)
		}
		bookID = record.BookID
		record.Release(time.Now().UTC())
		return nil
	})
	if err != nil {
		return err
	}

	al.record(ctx, "release", canonical, bookID, "")
	al.logger.Info("release", "isbn", canonical, "book_id", bookID)
	return nil
}

// Lookup returns the active assignment for a book key from a snapshot
// read; no lock is taken.
func (al *Allocator) Lookup(bookID string) (registry.Assignment, bool, error) {
	reg, err := al.store.Snapshot()
	if err != nil {
		return registry.Assignment{}, false, err
	}
	record := reg.ActiveByBookID(strings.TrimSpace(bookID))
	if record == nil {
		return registry.Assignment{}, false, nil
	}
	return *record, true, nil
}

func (al *Allocator) record(ctx context.Context, operation, isbnValue, bookID, detail string) {
	if err := al.audit.Record(ctx, operation, isbnValue, bookID, detail); err != nil {
		al.logger.Warn("audit record failed", "operation", operation, "error", err)
	}
}

// resolveActive finds the active record for an identifier or book key.
func resolveActive(reg *registry.Registry, key, operation string) (*registry.Assignment, error) {
	if canonical, ok := isbn.Canonicalize(key); ok {
		record := reg.Assignment(canonical)
		if record == nil || !record.Active() {
			return nil, services.Wrap(services.ErrConflict, "allocator", operation,
				fmt.Sprintf("isbn %s has no active assignment", canonical), nil)
		}
		return record, nil
	}
	record := reg.ActiveByBookID(key)
	if record == nil {
		return nil, services.Wrap(services.ErrConflict, "allocator", operation,
			fmt.Sprintf("book %s has no active assignment", key), nil)
	}
	return record, nil
}

// promote moves a scheduled or reserved record to Assigned, stamping the
// assigned date once.
func promote(record *registry.Assignment, now time.Time) {
	record.Status = registry.StatusAssigned
	if record.AssignedDate == "" {
		record.AssignedDate = now.Format(dateLayout)
	}
	record.UpdatedAt = now
}

func applyMetadata(record *registry.Assignment, req Request, now time.Time) {
	record.BookID = req.BookID
	if req.Title != "" {
		record.Title = req.Title
	}
	if req.Imprint != "" {
		record.Imprint = req.Imprint
	}
	if req.Publisher != "" {
		record.Publisher = req.Publisher
	}
	if req.Format != "" {
		record.Format = req.Format
	}
	if req.Date != "" {
		record.ScheduledDate = req.Date
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}
	if req.Priority != 0 {
		record.Priority = req.Priority
	}
	record.UpdatedAt = now
}

func validateDate(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return services.Wrap(services.ErrValidation, "allocator", "schedule",
			fmt.Sprintf("date %q is not in YYYY-MM-DD form", value), nil)
	}
	return nil
}

func opName(target registry.Status) string {
	if target == registry.StatusAssigned {
		return "get-or-assign"
	}
	return "schedule"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
