package projection

import (
	"context"
	"sync"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
)

type mockPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (m *mockPublisher) PublishEvent(ctx context.Context, evt events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) Close() error {
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type statusEntry struct {
	orderID   string
	status    domain.Status
	changedBy string
}

type mockOrderRepository struct {
	mu     sync.Mutex
	saved  map[string]*domain.Order
	logged []statusEntry
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{saved: make(map[string]*domain.Order)}
}

func (m *mockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[order.ID] = order
	return nil
}

func (m *mockOrderRepository) LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logged = append(m.logged, statusEntry{orderID: orderID, status: status, changedBy: changedBy})
	return nil
}

func (m *mockOrderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	return nil, nil
}

func (m *mockOrderRepository) LoadAll(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepository) entries() []statusEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]statusEntry(nil), m.logged...)
}

type mockTableRepository struct {
	mu      sync.Mutex
	saved   map[string]*domain.Table
	deleted []string
}

func newMockTableRepository() *mockTableRepository {
	return &mockTableRepository{saved: make(map[string]*domain.Table)}
}

func (m *mockTableRepository) Save(ctx context.Context, table *domain.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[table.ID] = table
	return nil
}

func (m *mockTableRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTableRepository) LoadAll(ctx context.Context) ([]*domain.Table, error) {
	return nil, nil
}

func (m *mockTableRepository) get(id string) (*domain.Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.saved[id]
	return t, ok
}
