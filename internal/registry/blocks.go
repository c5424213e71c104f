package registry

import (
	"fmt"
	"strconv"
	"strings"

	"bookplate/internal/isbn"
	"bookplate/internal/services"
)

// Block is a contiguous range of identifiers purchased from a registration
// authority and owned by one publisher. The block covers 12-digit stems
// Prefix+PublisherCode+pad(n) for n in [RangeStart, RangeEnd]; the ISBN for
// a sequence number is its stem plus the computed check digit.
type Block struct {
	ID               string `json:"id"`
	Prefix           string `json:"prefix"`
	PublisherCode    string `json:"publisher_code"`
	RangeStart       int64  `json:"range_start"`
	RangeEnd         int64  `json:"range_end"`
	OwnerPublisherID string `json:"owner_publisher_id,omitempty"`
}

// Utilization holds on-demand counts for one block. Counts are derived by
// cross-referencing the assignment table, never cached.
type Utilization struct {
	Assigned  int64 `json:"assigned"`
	Scheduled int64 `json:"scheduled"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

// SequenceWidth returns the digit count of the title sequence portion of
// the stem.
func (b Block) SequenceWidth() int {
	return 12 - len(b.Prefix) - len(b.PublisherCode)
}

// Capacity returns the number of identifiers the block covers.
func (b Block) Capacity() int64 {
	return b.RangeEnd - b.RangeStart + 1
}

// StemFor returns the zero-padded 12-digit stem for a sequence number.
func (b Block) StemFor(n int64) string {
	return fmt.Sprintf("%s%s%0*d", b.Prefix, b.PublisherCode, b.SequenceWidth(), n)
}

// ISBNFor returns the full identifier for a sequence number within the
// block, or false when n falls outside the range.
func (b Block) ISBNFor(n int64) (string, bool) {
	if n < b.RangeStart || n > b.RangeEnd {
		return "", false
	}
	return isbn.Complete(b.StemFor(n))
}

// Contains reports whether a canonical identifier falls inside the block.
func (b Block) Contains(canonical string) bool {
	if len(canonical) != 13 {
		return false
	}
	stem := canonical[:12]
	head := b.Prefix + b.PublisherCode
	if !strings.HasPrefix(stem, head) {
		return false
	}
	n, err := strconv.ParseInt(stem[len(head):], 10, 64)
	if err != nil {
		return false
	}
	return n >= b.RangeStart && n <= b.RangeEnd
}

// Validate checks structural invariants on the block definition.
func (b Block) Validate() error {
	if len(b.Prefix) != 3 {
		return services.Wrap(services.ErrValidation, "registry", "add-block",
			fmt.Sprintf("prefix %q must be 3 digits", b.Prefix), nil)
	}
	if !allDigits(b.Prefix) || !allDigits(b.PublisherCode) {
		return services.Wrap(services.ErrValidation, "registry", "add-block",
			fmt.Sprintf("prefix %q and publisher code %q must be numeric", b.Prefix, b.PublisherCode), nil)
	}
	if b.PublisherCode == "" {
		return services.Wrap(services.ErrValidation, "registry", "add-block", "publisher code is required", nil)
	}
	width := b.SequenceWidth()
	if width < 1 {
		return services.Wrap(services.ErrValidation, "registry", "add-block",
			fmt.Sprintf("prefix plus publisher code %q%s leaves no sequence digits", b.Prefix, b.PublisherCode), nil)
	}
	if b.RangeStart < 0 || b.RangeStart > b.RangeEnd {
		return services.Wrap(services.ErrValidation, "registry", "add-block",
			fmt.Sprintf("range %d..%d is not a valid inclusive range", b.RangeStart, b.RangeEnd), nil)
	}
	limit := int64(1)
	for i := 0; i < width; i++ {
		limit *= 10
	}
	if b.RangeEnd >= limit {
		return services.Wrap(services.ErrValidation, "registry", "add-block",
			fmt.Sprintf("range end %d exceeds the %d-digit sequence space", b.RangeEnd, width), nil)
	}
	return nil
}

func (b Block) overlaps(other Block) bool {
	if b.Prefix != other.Prefix || b.PublisherCode != other.PublisherCode {
		return false
	}
	return b.RangeStart <= other.RangeEnd && other.RangeStart <= b.RangeEnd
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Block returns the block with the given id, or nil.
func (r *Registry) Block(id string) *Block {
	for i := range r.Blocks {
		if r.Blocks[i].ID == id {
			return &r.Blocks[i]
		}
	}
	return nil
}

// BlockFor returns the block containing a canonical identifier, or nil
// when the identifier is externally sourced.
func (r *Registry) BlockFor(canonical string) *Block {
	for i := range r.Blocks {
		if r.Blocks[i].Contains(canonical) {
			return &r.Blocks[i]
		}
	}
	return nil
}

// DefaultBlock picks the allocation block: the preferred id when set,
// otherwise the first block matching the publisher identity, otherwise the
// only block when exactly one exists.
func (r *Registry) DefaultBlock(prefix, publisherCode, preferredID string) *Block {
	if preferredID != "" {
		return r.Block(preferredID)
	}
	if prefix != "" && publisherCode != "" {
		for i := range r.Blocks {
			if r.Blocks[i].Prefix == prefix && r.Blocks[i].PublisherCode == publisherCode {
				return &r.Blocks[i]
			}
		}
	}
	if len(r.Blocks) == 1 {
		return &r.Blocks[0]
	}
	return nil
}

// AddBlock registers a purchased range. Blocks for the same publisher must
// not overlap; blocks are never deleted, only exhausted.
func (r *Registry) AddBlock(b Block) (*Block, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = fmt.Sprintf("%s-%s-%d", b.Prefix, b.PublisherCode, b.RangeStart)
	}
	for i := range r.Blocks {
		if r.Blocks[i].ID == b.ID {
			return nil, services.Wrap(services.ErrConflict, "registry", "add-block",
				fmt.Sprintf("block %s already exists", b.ID), nil)
		}
		if r.Blocks[i].overlaps(b) {
			return nil, services.Wrap(services.ErrConflict, "registry", "add-block",
				fmt.Sprintf("range %d..%d overlaps block %s", b.RangeStart, b.RangeEnd, r.Blocks[i].ID), nil)
		}
	}
	r.Blocks = append(r.Blocks, b)
	return &r.Blocks[len(r.Blocks)-1], nil
}

// NextAvailable scans forward from the block's range start and returns the
// lowest identifier with no active assignment. Exhaustion is a capacity
// error naming the block.
func (r *Registry) NextAvailable(blockID string) (string, error) {
	block := r.Block(blockID)
	if block == nil {
		return "", services.Wrap(services.ErrValidation, "registry", "next-available",
			fmt.Sprintf("unknown block %s", blockID), nil)
	}
	for n := block.RangeStart; n <= block.RangeEnd; n++ {
		candidate, ok := block.ISBNFor(n)
		if !ok {
			continue
		}
		if a := r.Assignment(candidate); a.Active() {
			continue
		}
		return candidate, nil
	}
	return "", services.Wrap(services.ErrCapacity, "registry", "next-available",
		fmt.Sprintf("block %s has no available identifiers", blockID), nil)
}

// Utilization counts the block's identifiers by status.
func (r *Registry) Utilization(blockID string) (Utilization, error) {
	block := r.Block(blockID)
	if block == nil {
		return Utilization{}, services.Wrap(services.ErrValidation, "registry", "utilization",
			fmt.Sprintf("unknown block %s", blockID), nil)
	}
	var u Utilization
	u.Available = block.Capacity()
	for i := range r.Assignments {
		a := &r.Assignments[i]
		if !block.Contains(a.ISBN) {
			continue
		}
		switch a.Status {
		case StatusAssigned:
			u.Assigned++
			u.Available--
		case StatusScheduled:
			u.Scheduled++
			u.Available--
		case StatusReserved:
			u.Reserved++
			u.Available--
		}
	}
	return u, nil
}
