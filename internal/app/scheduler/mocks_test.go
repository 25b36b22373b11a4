package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

// failingStore fails the next failures status writes
type failingStore struct {
	interfaces.OrderStore

	mu       sync.Mutex
	failures int
	writes   int
}

func (s *failingStore) SetStatus(ctx context.Context, id string, newStatus domain.Status, at time.Time, changedBy string) (*domain.Order, error) {
	s.mu.Lock()
	s.writes++
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return nil, domain.ErrStoreUnavailable
	}
	s.mu.Unlock()
	return s.OrderStore.SetStatus(ctx, id, newStatus, at, changedBy)
}

// slowStore holds the first status write until gate is closed and counts
// every write per order and target status
type slowStore struct {
	interfaces.OrderStore

	entered chan struct{}
	gate    chan struct{}

	mu     sync.Mutex
	held   bool
	writes map[string]int
}

func newSlowStore(store interfaces.OrderStore) *slowStore {
	return &slowStore{
		OrderStore: store,
		entered:    make(chan struct{}, 1),
		gate:       make(chan struct{}),
		writes:     make(map[string]int),
	}
}

func (s *slowStore) SetStatus(ctx context.Context, id string, newStatus domain.Status, at time.Time, changedBy string) (*domain.Order, error) {
	s.mu.Lock()
	s.writes[id+"/"+string(newStatus)]++
	hold := !s.held
	s.held = true
	s.mu.Unlock()

	if hold {
		s.entered <- struct{}{}
		<-s.gate
	}
	return s.OrderStore.SetStatus(ctx, id, newStatus, at, changedBy)
}

func (s *slowStore) writeCount(id string, status domain.Status) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[id+"/"+string(status)]
}

// countingGuard records which tables were locked
type countingGuard struct {
	mu     sync.Mutex
	locked []string
}

func (g *countingGuard) WithTable(ctx context.Context, tableID string, fn func() error) error {
	g.mu.Lock()
	g.locked = append(g.locked, tableID)
	g.mu.Unlock()
	return fn()
}

func (g *countingGuard) WithTables(ctx context.Context, tableIDs []string, fn func() error) error {
	g.mu.Lock()
	g.locked = append(g.locked, tableIDs...)
	g.mu.Unlock()
	return fn()
}
