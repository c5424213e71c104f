package registry

import (
	"strings"
	"time"
)

// SchemaVersion is the current persisted document version.
const SchemaVersion = 1

// Status represents the lifecycle of an identifier.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusScheduled Status = "scheduled"
	StatusAssigned  Status = "assigned"
)

var allStatuses = []Status{
	StatusAvailable,
	StatusReserved,
	StatusScheduled,
	StatusAssigned,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Active reports whether the status occupies its identifier. Every status
// except Available is active.
func (s Status) Active() bool {
	return s != "" && s != StatusAvailable
}

// Assignment binds one identifier to its lifecycle state and, when active,
// to one book.
type Assignment struct {
	ISBN          string    `json:"isbn"`
	BookID        string    `json:"book_id,omitempty"`
	Title         string    `json:"title,omitempty"`
	Imprint       string    `json:"imprint,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	Format        string    `json:"format,omitempty"`
	Status        Status    `json:"status"`
	ScheduledDate string    `json:"scheduled_date,omitempty"`
	AssignedDate  string    `json:"assigned_date,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Priority      int       `json:"priority,omitempty"`
	External      bool      `json:"external,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Active reports whether the assignment currently occupies its identifier.
func (a *Assignment) Active() bool {
	return a != nil && a.Status.Active()
}

// Release returns the assignment to the Available pool, clearing the book
// binding and both dates. The row itself is retained.
func (a *Assignment) Release(now time.Time) {
	a.Status = StatusAvailable
	a.BookID = ""
	a.ScheduledDate = ""
	a.AssignedDate = ""
	a.UpdatedAt = now
}

// Registry is the aggregate root: every block and assignment known to the
// engine plus the document schema version. It is the unit of atomic
// persistence.
type Registry struct {
	SchemaVersion int          `json:"schema_version"`
	Blocks        []Block      `json:"blocks"`
	Assignments   []Assignment `json:"assignments"`
}

// New returns an empty registry at the current schema version.
func New() *Registry {
	return &Registry{SchemaVersion: SchemaVersion}
}

// Assignment returns the record for an identifier, or nil when the
// identifier has never been touched.
func (r *Registry) Assignment(isbn string) *Assignment {
	for i := range r.Assignments {
		if r.Assignments[i].ISBN == isbn {
			return &r.Assignments[i]
		}
	}
	return nil
}

// ActiveByBookID returns the active assignment for a book key, or nil.
// At most one active record exists per book key.
func (r *Registry) ActiveByBookID(bookID string) *Assignment {
	if strings.TrimSpace(bookID) == "" {
		return nil
	}
	for i := range r.Assignments {
		if r.Assignments[i].BookID == bookID && r.Assignments[i].Active() {
			return &r.Assignments[i]
		}
	}
	return nil
}

// Upsert replaces the record matching the assignment's identifier or
// appends a new one, returning a pointer to the stored record.
func (r *Registry) Upsert(a Assignment) *Assignment {
	for i := range r.Assignments {
		if r.Assignments[i].ISBN == a.ISBN {
			r.Assignments[i] = a
			return &r.Assignments[i]
		}
	}
	r.Assignments = append(r.Assignments, a)
	return &r.Assignments[len(r.Assignments)-1]
}
