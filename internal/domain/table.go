package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Table represents a physical seating resource
type Table struct {
	ID            string
	Number        string
	Capacity      int
	Status        TableStatus
	MergedMembers []string
	MergedInto    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTable creates an available table stamped at now
func NewTable(number string, capacity int, now time.Time) (*Table, error) {
	t := &Table{
		ID:        uuid.NewString(),
		Number:    number,
		Capacity:  capacity,
		Status:    TableAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Table) Validate() error {
	if t.Number == "" {
		return fmt.Errorf("%w: table number is required", ErrInvalidTable)
	}
	if t.Capacity < 1 || t.Capacity > 50 {
		return fmt.Errorf("%w: table capacity must be 1-50", ErrInvalidTable)
	}
	return nil
}

// IsMergeTarget reports whether other tables were absorbed into this one
func (t *Table) IsMergeTarget() bool {
	return len(t.MergedMembers) > 0
}

// IsAbsorbed reports whether this table was merged into another one
func (t *Table) IsAbsorbed() bool {
	return t.MergedInto != ""
}

// CanJoin reports whether the table may take part in a merge
func (t *Table) CanJoin() bool {
	if t.IsMergeTarget() || t.IsAbsorbed() {
		return false
	}
	return t.Status == TableAvailable || t.Status == TableReserved
}

// AcceptsOrders reports whether a table order may reference this table
func (t *Table) AcceptsOrders() bool {
	if t.IsAbsorbed() {
		return false
	}
	return t.Status != TableMaintenance
}

// EffectiveCapacity sums the capacity of the table and its merge members.
// It is derived on read and never stored.
func (t *Table) EffectiveCapacity(members []*Table) int {
	total := t.Capacity
	for _, m := range members {
		total += m.Capacity
	}
	return total
}

func (t *Table) Clone() *Table {
	c := *t
	c.MergedMembers = append([]string(nil), t.MergedMembers...)
	return &c
}
