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

// OrderEventSink receives a status-changed event after every successful write
type OrderEventSink interface {
	PublishOrder(ctx context.Context, evt events.OrderStatusChanged)
}

type TableReader interface {
	Get(ctx context.Context, id string) (*domain.Table, error)
}

type orderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	daySeq map[string]int
	tables TableReader
	sink   OrderEventSink
}

// OrderStore is the in-memory order store. Restore is used on boot to load
// previously persisted orders without emitting events.
type OrderStore interface {
	interfaces.OrderStore
	Restore(order *domain.Order)
}

func NewOrderStore(tables TableReader, sink OrderEventSink) OrderStore {
	return &orderStore{
		orders: make(map[string]*domain.Order),
		daySeq: make(map[string]int),
		tables: tables,
		sink:   sink,
	}
}

func (s *orderStore) Create(ctx context.Context, order *domain.Order, changedBy string) (*domain.Order, error) {
	if order.ServiceType == domain.ServiceTable {
		if order.TableRef == "" {
			return nil, fmt.Errorf("%w: table reference required for table orders", domain.ErrInvalidOrder)
		}
		table, err := s.tables.Get(ctx, order.TableRef)
		if err != nil {
			return nil, err
		}
		if !table.AcceptsOrders() {
			return nil, fmt.Errorf("%w: table %s cannot take orders while %s", domain.ErrTableUnavailable, table.Number, describeTable(table))
		}
	}

	s.mu.Lock()
	if _, exists := s.orders[order.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: duplicate order id %s", domain.ErrInvalidOrder, order.ID)
	}
	stored := order.Clone()
	stored.Number = s.nextNumber(stored.CreatedAt)
	stored.LastScheduledTransition = stored.Status
	s.orders[stored.ID] = stored
	out := stored.Clone()
	s.mu.Unlock()

	s.emit(ctx, out, "", changedBy, out.CreatedAt)

	return out, nil
}

func (s *orderStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return o.Clone(), nil
}

func (s *orderStore) ListActive(ctx context.Context) ([]*domain.Order, error) {
	return s.list(func(o *domain.Order) bool { return o.IsActive() }), nil
}

func (s *orderStore) ListActiveByTable(ctx context.Context, tableID string) ([]*domain.Order, error) {
	return s.list(func(o *domain.Order) bool {
		return o.IsActive() && o.ServiceType == domain.ServiceTable && o.TableRef == tableID
	}), nil
}

func (s *orderStore) SetStatus(ctx context.Context, id string, newStatus domain.Status, at time.Time, changedBy string) (*domain.Order, error) {
	return s.mutate(ctx, id, changedBy, at, func(o *domain.Order) error {
		return o.TransitionTo(newStatus, at)
	})
}

func (s *orderStore) ForceComplete(ctx context.Context, id string, at time.Time, changedBy string) (*domain.Order, error) {
	return s.mutate(ctx, id, changedBy, at, func(o *domain.Order) error {
		return o.ForceComplete(at)
	})
}

func (s *orderStore) ClaimTransition(ctx context.Context, id string, from, target domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	if o.Status != from || o.LastScheduledTransition == target {
		return false, nil
	}

	o.LastScheduledTransition = target
	return true, nil
}

func (s *orderStore) ReleaseTransition(ctx context.Context, id string, target domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	if o.LastScheduledTransition == target && o.Status != target {
		o.LastScheduledTransition = o.Status
	}
	return nil
}

func (s *orderStore) Restore(order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := order.Clone()
	if stored.LastScheduledTransition == "" {
		stored.LastScheduledTransition = stored.Status
	}
	s.orders[stored.ID] = stored

	day := stored.CreatedAt.UTC().Format("20060102")
	var n int
	if _, err := fmt.Sscanf(stored.Number, "ORD_"+day+"_%d", &n); err == nil && n > s.daySeq[day] {
		s.daySeq[day] = n
	}
}

// mutate applies fn under the store lock and emits the resulting event once
// the lock is released, so synchronous handlers may read the store.
func (s *orderStore) mutate(ctx context.Context, id, changedBy string, at time.Time, fn func(*domain.Order) error) (*domain.Order, error) {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	oldStatus := o.Status
	working := o.Clone()
	if err := fn(working); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	working.LastScheduledTransition = working.Status
	s.orders[id] = working
	out := working.Clone()
	s.mu.Unlock()

	s.emit(ctx, out, oldStatus, changedBy, at)

	return out, nil
}

func (s *orderStore) emit(ctx context.Context, o *domain.Order, oldStatus domain.Status, changedBy string, at time.Time) {
	if s.sink == nil {
		return
	}
	s.sink.PublishOrder(ctx, events.OrderStatusChanged{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		ServiceType: o.ServiceType,
		TableRef:    o.TableRef,
		OldStatus:   oldStatus,
		NewStatus:   o.Status,
		ChangedBy:   changedBy,
		Total:       o.Total,
		OccurredAt:  at,
	})
}

func (s *orderStore) list(keep func(*domain.Order) bool) []*domain.Order {
	s.mu.RLock()
	out := make([]*domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number < out[j].Number
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// nextNumber generates ORD_YYYYMMDD_NNN, numbered per day. Caller holds mu.
func (s *orderStore) nextNumber(createdAt time.Time) string {
	day := createdAt.UTC().Format("20060102")
	s.daySeq[day]++
	return fmt.Sprintf("ORD_%s_%03d", day, s.daySeq[day])
}

func describeTable(t *domain.Table) string {
	if t.IsAbsorbed() {
		return "merged into another table"
	}
	return string(t.Status)
}
