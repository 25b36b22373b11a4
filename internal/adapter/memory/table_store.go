package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

// TableEventSink receives a change event after every table write
type TableEventSink interface {
	PublishTable(ctx context.Context, evt events.TableChanged)
}

type tableStore struct {
	mu     sync.RWMutex
	tables map[string]*domain.Table
	sink   TableEventSink
	now    func() time.Time
}

func NewTableStore(sink TableEventSink) interfaces.TableStore {
	return &tableStore{
		tables: make(map[string]*domain.Table),
		sink:   sink,
		now:    time.Now,
	}
}

func (s *tableStore) Create(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if !table.Status.Valid() {
		return fmt.Errorf("failed to create table: %w: unknown status %q", domain.ErrInvalidTable, table.Status)
	}

	s.mu.Lock()
	if _, exists := s.tables[table.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("failed to create table: %w: duplicate id %s", domain.ErrInvalidTable, table.ID)
	}
	stored := table.Clone()
	s.tables[stored.ID] = stored
	out := stored.Clone()
	s.mu.Unlock()

	s.emit(ctx, out, "", "created")
	return nil
}

func (s *tableStore) Update(ctx context.Context, table *domain.Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}

	s.mu.Lock()
	stored, ok := s.tables[table.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table.ID)
	}
	stored.Number = table.Number
	stored.Capacity = table.Capacity
	stored.UpdatedAt = s.now()
	out := stored.Clone()
	s.mu.Unlock()

	s.emit(ctx, out, out.Status, "updated")
	return nil
}

func (s *tableStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	t, ok := s.tables[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, id)
	}
	delete(s.tables, id)
	out := t.Clone()
	out.UpdatedAt = s.now()
	s.mu.Unlock()

	s.emit(ctx, out, out.Status, events.ReasonTableDeleted)
	return nil
}

func (s *tableStore) Get(ctx context.Context, id string) (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, id)
	}
	return t.Clone(), nil
}

func (s *tableStore) List(ctx context.Context) ([]*domain.Table, error) {
	s.mu.RLock()
	out := make([]*domain.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Number == out[j].Number {
			return out[i].ID < out[j].ID
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (s *tableStore) SetStatus(ctx context.Context, id string, status domain.TableStatus, reason string) (*domain.Table, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown table status %q", status)
	}

	s.mu.Lock()
	t, ok := s.tables[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, id)
	}
	old := t.Status
	t.Status = status
	t.UpdatedAt = s.now()
	out := t.Clone()
	s.mu.Unlock()

	if old != status {
		s.emit(ctx, out, old, reason)
	}
	return out, nil
}

func (s *tableStore) SetMergeRelation(ctx context.Context, principalID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return fmt.Errorf("%w: no members given", domain.ErrInvalidMerge)
	}

	s.mu.Lock()
	principal, ok := s.tables[principalID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, principalID)
	}
	if principal.IsMergeTarget() || principal.IsAbsorbed() {
		s.mu.Unlock()
		return fmt.Errorf("%w: table %s already belongs to a group", domain.ErrInvalidMerge, principal.Number)
	}

	members := make([]*domain.Table, 0, len(memberIDs))
	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup {
			s.mu.Unlock()
			return fmt.Errorf("%w: table %s listed twice", domain.ErrInvalidMerge, id)
		}
		seen[id] = struct{}{}

		m, ok := s.tables[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", domain.ErrTableNotFound, id)
		}
		if id == principalID || m.IsMergeTarget() || m.IsAbsorbed() {
			s.mu.Unlock()
			return fmt.Errorf("%w: table %s cannot be absorbed", domain.ErrInvalidMerge, m.Number)
		}
		members = append(members, m)
	}

	now := s.now()
	type change struct {
		table *domain.Table
		old   domain.TableStatus
	}
	changes := make([]change, 0, len(members)+1)

	changes = append(changes, change{old: principal.Status})
	principal.Status = domain.TableCombined
	principal.MergedMembers = append([]string(nil), memberIDs...)
	principal.UpdatedAt = now
	changes[0].table = principal.Clone()

	for _, m := range members {
		old := m.Status
		m.Status = domain.TableCombined
		m.MergedInto = principalID
		m.UpdatedAt = now
		changes = append(changes, change{table: m.Clone(), old: old})
	}
	s.mu.Unlock()

	for _, c := range changes {
		s.emit(ctx, c.table, c.old, "merged")
	}
	return nil
}

func (s *tableStore) ClearMergeRelation(ctx context.Context, principalID string) ([]string, error) {
	s.mu.Lock()
	principal, ok := s.tables[principalID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, principalID)
	}
	if !principal.IsMergeTarget() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrNotCombined, principal.Number)
	}

	now := s.now()
	memberIDs := principal.MergedMembers
	released := []*domain.Table{principal}
	for _, id := range memberIDs {
		if m, ok := s.tables[id]; ok && m.MergedInto == principalID {
			released = append(released, m)
		}
	}

	olds := make([]domain.TableStatus, len(released))
	outs := make([]*domain.Table, len(released))
	for i, t := range released {
		olds[i] = t.Status
		t.Status = domain.TableAvailable
		t.MergedMembers = nil
		t.MergedInto = ""
		t.UpdatedAt = now
		outs[i] = t.Clone()
	}
	s.mu.Unlock()

	for i, t := range outs {
		s.emit(ctx, t, olds[i], "split")
	}
	return append([]string(nil), memberIDs...), nil
}

func (s *tableStore) emit(ctx context.Context, t *domain.Table, old domain.TableStatus, reason string) {
	if s.sink == nil {
		return
	}
	s.sink.PublishTable(ctx, events.TableChanged{
		TableID:       t.ID,
		Number:        t.Number,
		Capacity:      t.Capacity,
		OldStatus:     old,
		NewStatus:     t.Status,
		MergedMembers: t.MergedMembers,
		MergedInto:    t.MergedInto,
		Reason:        reason,
		OccurredAt:    t.UpdatedAt,
	})
}
