package tablesync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/adapter/memory"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	orders memory.OrderStore
	tables interfaces.TableStore
	sync   *Synchronizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := events.NewBus(logger.NewNop())
	tables := memory.NewTableStore(bus)
	orders := memory.NewOrderStore(tables, bus)
	s := New(orders, tables, logger.NewNop())
	bus.HandleOrders(s.OnOrderStatusChanged)
	return &fixture{orders: orders, tables: tables, sync: s}
}

func (f *fixture) table(t *testing.T, number string) *domain.Table {
	t.Helper()
	table, err := domain.NewTable(number, 4, t0)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if err := f.tables.Create(context.Background(), table); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return table
}

func (f *fixture) place(t *testing.T, tableID string) *domain.Order {
	t.Helper()
	o, err := f.tryPlace(tableID)
	if err != nil {
		t.Fatalf("place() error = %v", err)
	}
	return o
}

func (f *fixture) tryPlace(tableID string) (*domain.Order, error) {
	items := []domain.OrderItem{{Name: "Salad", Quantity: 1, Price: decimal.NewFromInt(9)}}
	o, err := domain.NewOrder(domain.ServiceTable, tableID, items, decimal.NewFromInt(9), "card", t0)
	if err != nil {
		return nil, err
	}

	var created *domain.Order
	err = f.sync.WithTable(context.Background(), tableID, func() error {
		created, err = f.orders.Create(context.Background(), o, "test")
		return err
	})
	return created, err
}

func (f *fixture) complete(t *testing.T, o *domain.Order) {
	t.Helper()
	if err := f.tryComplete(o); err != nil {
		t.Fatalf("ForceComplete() error = %v", err)
	}
}

func (f *fixture) tryComplete(o *domain.Order) error {
	return f.sync.WithTable(context.Background(), o.TableRef, func() error {
		_, err := f.orders.ForceComplete(context.Background(), o.ID, t0.Add(time.Minute), "test")
		return err
	})
}

func (f *fixture) status(t *testing.T, tableID string) domain.TableStatus {
	t.Helper()
	table, err := f.tables.Get(context.Background(), tableID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return table.Status
}

func TestOccupancyFollowsOrders(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1")

	first := f.place(t, table.ID)
	if got := f.status(t, table.ID); got != domain.TableOccupied {
		t.Fatalf("after first order status = %s, want occupied", got)
	}

	second := f.place(t, table.ID)
	f.complete(t, first)
	if got := f.status(t, table.ID); got != domain.TableOccupied {
		t.Errorf("with one order left status = %s, want occupied", got)
	}

	f.complete(t, second)
	if got := f.status(t, table.ID); got != domain.TableAvailable {
		t.Errorf("after last order status = %s, want available", got)
	}
}

func TestReservedTableBecomesOccupied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.table(t, "T1")

	if _, err := f.tables.SetStatus(ctx, table.ID, domain.TableReserved, "reserved"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	o := f.place(t, table.ID)
	if got := f.status(t, table.ID); got != domain.TableOccupied {
		t.Errorf("status = %s, want occupied", got)
	}

	f.complete(t, o)
	if got := f.status(t, table.ID); got != domain.TableAvailable {
		t.Errorf("status = %s, want available", got)
	}
}

func TestCombinedTableKeepsStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	principal := f.table(t, "T1")
	member := f.table(t, "T2")

	if err := f.tables.SetMergeRelation(ctx, principal.ID, []string{member.ID}); err != nil {
		t.Fatalf("SetMergeRelation() error = %v", err)
	}

	o := f.place(t, principal.ID)
	if got := f.status(t, principal.ID); got != domain.TableCombined {
		t.Errorf("status = %s, want combined", got)
	}

	f.complete(t, o)
	if got := f.status(t, principal.ID); got != domain.TableCombined {
		t.Errorf("after completion status = %s, want combined", got)
	}
}

func TestIgnoresNonTableOrders(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1")

	f.sync.OnOrderStatusChanged(context.Background(), events.OrderStatusChanged{
		OrderID:     "o-1",
		ServiceType: domain.ServiceCounter,
		TableRef:    table.ID,
		NewStatus:   domain.StatusPending,
	})

	if got := f.status(t, table.ID); got != domain.TableAvailable {
		t.Errorf("status = %s, want available", got)
	}
}

func TestConcurrentOrdersKeepOccupancy(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T1")

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := f.tryPlace(table.ID)
			if err != nil {
				t.Errorf("tryPlace() error = %v", err)
				return
			}
			if err := f.tryComplete(o); err != nil {
				t.Errorf("tryComplete() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.status(t, table.ID); got != domain.TableAvailable {
		t.Errorf("status = %s, want available with no active orders", got)
	}

	// one order left open must keep the table occupied
	var open []*domain.Order
	for i := 0; i < 10; i++ {
		open = append(open, f.place(t, table.ID))
	}

	for _, o := range open[1:] {
		wg.Add(1)
		go func(o *domain.Order) {
			defer wg.Done()
			if err := f.tryComplete(o); err != nil {
				t.Errorf("tryComplete() error = %v", err)
			}
		}(o)
	}
	wg.Wait()

	if got := f.status(t, table.ID); got != domain.TableOccupied {
		t.Errorf("status = %s, want occupied while one order is active", got)
	}
}

func TestReleaseIfIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	table := f.table(t, "T1")

	if _, err := f.tables.SetStatus(ctx, table.ID, domain.TableOccupied, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	released, err := f.sync.ReleaseIfIdle(ctx, table.ID)
	if err != nil || !released {
		t.Fatalf("ReleaseIfIdle() = %v, %v; want true, nil", released, err)
	}

	released, err = f.sync.ReleaseIfIdle(ctx, table.ID)
	if err != nil || released {
		t.Errorf("second ReleaseIfIdle() = %v, %v; want false, nil", released, err)
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stale := f.table(t, "T1")
	busy := f.table(t, "T2")
	reserved := f.table(t, "T3")
	broken := f.table(t, "T4")

	if _, err := f.tables.SetStatus(ctx, stale.ID, domain.TableOccupied, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if _, err := f.tables.SetStatus(ctx, reserved.ID, domain.TableReserved, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if _, err := f.tables.SetStatus(ctx, broken.ID, domain.TableMaintenance, "test"); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	items := []domain.OrderItem{{Name: "Tea", Quantity: 1, Price: decimal.NewFromInt(2)}}
	for _, id := range []string{busy.ID, reserved.ID} {
		o, err := domain.NewOrder(domain.ServiceTable, id, items, decimal.NewFromInt(2), "cash", t0)
		if err != nil {
			t.Fatalf("NewOrder() error = %v", err)
		}
		f.orders.Restore(o)
	}

	if err := f.sync.Reconcile(ctx); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	tests := []struct {
		name  string
		table string
		want  domain.TableStatus
	}{
		{name: "occupiedWithoutOrders", table: stale.ID, want: domain.TableAvailable},
		{name: "availableWithOrders", table: busy.ID, want: domain.TableOccupied},
		{name: "reservedWithOrders", table: reserved.ID, want: domain.TableOccupied},
		{name: "maintenanceUntouched", table: broken.ID, want: domain.TableMaintenance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.status(t, tt.table); got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}
