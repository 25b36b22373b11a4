package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/adapter/memory"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	orders memory.OrderStore
	tables interfaces.TableStore
	clock  *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tables := memory.NewTableStore(nil)
	return &fixture{
		orders: memory.NewOrderStore(tables, nil),
		tables: tables,
		clock:  clock.NewFake(t0),
	}
}

func (f *fixture) service(history interfaces.OrderRepository) *Service {
	return NewService(f.orders, f.tables, history, domain.DefaultTransitionPolicy(), f.clock, logger.NewNop())
}

func (f *fixture) place(t *testing.T, serviceType domain.ServiceType, tableRef string) *domain.Order {
	t.Helper()
	items := []domain.OrderItem{{Name: "Cake", Quantity: 1, Price: decimal.NewFromInt(5)}}
	o, err := domain.NewOrder(serviceType, tableRef, items, decimal.NewFromInt(5), "cash", f.clock.Now())
	if err != nil {
		t.Fatalf("NewOrder() error = %v", err)
	}
	created, err := f.orders.Create(context.Background(), o, "test")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return created
}

func TestGetOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.service(nil)

	o := f.place(t, domain.ServiceCounter, "")

	resp, err := s.GetOrderStatus(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetOrderStatus() error = %v", err)
	}
	if resp.CurrentStatus != domain.StatusPending || resp.OrderNumber != o.Number {
		t.Errorf("response = %+v", resp)
	}
	if resp.EstimatedReady == nil || !resp.EstimatedReady.Equal(t0.Add(5*time.Minute)) {
		t.Errorf("estimated ready = %v, want %v", resp.EstimatedReady, t0.Add(5*time.Minute))
	}

	moved := t0.Add(2 * time.Minute)
	if _, err := f.orders.SetStatus(ctx, o.ID, domain.StatusPreparing, moved, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	resp, _ = s.GetOrderStatus(ctx, o.ID)
	if resp.EstimatedReady == nil || !resp.EstimatedReady.Equal(moved.Add(4*time.Minute)) {
		t.Errorf("estimated ready = %v, want %v", resp.EstimatedReady, moved.Add(4*time.Minute))
	}

	if _, err := f.orders.SetStatus(ctx, o.ID, domain.StatusReady, moved.Add(time.Minute), "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	resp, _ = s.GetOrderStatus(ctx, o.ID)
	if resp.EstimatedReady != nil {
		t.Errorf("estimated ready = %v, want nil once ready", resp.EstimatedReady)
	}

	if _, err := s.GetOrderStatus(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("error = %v, want ErrOrderNotFound", err)
	}
}

func TestGetOrderHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.place(t, domain.ServiceCounter, "")
	if _, err := f.orders.SetStatus(ctx, o.ID, domain.StatusPreparing, t0.Add(time.Minute), "scheduler"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	persisted := []*domain.StatusLog{
		{OrderID: o.ID, Status: domain.StatusPending, ChangedBy: "waiter", ChangedAt: t0},
		{OrderID: o.ID, Status: domain.StatusPreparing, ChangedBy: "scheduler", ChangedAt: t0.Add(time.Minute)},
	}

	tests := []struct {
		name          string
		history       interfaces.OrderRepository
		wantChangedBy string
	}{
		{name: "derivedWithoutRepository", history: nil},
		{name: "persistedWhenComplete", history: &mockOrderRepository{logs: persisted}, wantChangedBy: "waiter"},
		{name: "derivedWhenRepositoryBehind", history: &mockOrderRepository{logs: persisted[:1]}},
		{name: "derivedWhenRepositoryFails", history: &mockOrderRepository{err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := f.service(tt.history).GetOrderHistory(ctx, o.ID)
			if err != nil {
				t.Fatalf("GetOrderHistory() error = %v", err)
			}
			if len(logs) != 2 {
				t.Fatalf("history = %d entries, want 2", len(logs))
			}
			if logs[0].Status != domain.StatusPending || logs[1].Status != domain.StatusPreparing {
				t.Errorf("history order = %s, %s", logs[0].Status, logs[1].Status)
			}
			if tt.wantChangedBy != "" && logs[0].ChangedBy != tt.wantChangedBy {
				t.Errorf("changed by = %q, want %q", logs[0].ChangedBy, tt.wantChangedBy)
			}
		})
	}
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t1, _ := domain.NewTable("T1", 4, t0)
	t2, _ := domain.NewTable("T2", 4, t0)
	_ = f.tables.Create(ctx, t1)
	_ = f.tables.Create(ctx, t2)
	if _, err := f.tables.SetStatus(ctx, t2.ID, domain.TableReserved, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	f.place(t, domain.ServiceTable, t1.ID)
	f.place(t, domain.ServiceTable, t1.ID)
	f.place(t, domain.ServiceCounter, "")
	done := f.place(t, domain.ServiceDelivery, "")
	if _, err := f.orders.ForceComplete(ctx, done.ID, t0.Add(time.Second), "test"); err != nil {
		t.Fatalf("ForceComplete() error = %v", err)
	}

	f.clock.Advance(time.Minute)
	resp, err := f.service(nil).Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}

	if resp.OrdersByStatus[domain.StatusPending] != 3 || resp.OrdersByStatus[domain.StatusCompleted] != 0 {
		t.Errorf("orders by status = %v", resp.OrdersByStatus)
	}
	if resp.TablesByStatus[domain.TableAvailable] != 1 || resp.TablesByStatus[domain.TableReserved] != 1 {
		t.Errorf("tables by status = %v", resp.TablesByStatus)
	}
	if resp.OccupiedTables != 1 {
		t.Errorf("occupied tables = %d, want 1", resp.OccupiedTables)
	}
	if !resp.GeneratedAt.Equal(f.clock.Now()) {
		t.Errorf("generated at %v, want %v", resp.GeneratedAt, f.clock.Now())
	}
}
