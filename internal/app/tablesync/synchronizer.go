// Package tablesync keeps table occupancy consistent with the orders that
// reference each table.
//
// Every writer of a table order's status, and every writer of a table's
// status, runs inside WithTable (or WithTables) for the tables it touches.
// The order store publishes its status-changed event synchronously, in the
// writer's goroutine, so the synchronizer's "any active orders left?" check
// and the following table write happen under the same per-table lock as the
// order write that triggered them.
package tablesync

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/YelzhanWeb/tableside/internal/lockset"
)

const (
	ReasonOrderCreated    = "order_created"
	ReasonOrdersCompleted = "orders_completed"
	ReasonReconciled      = "reconciled"
)

type Synchronizer struct {
	orders interfaces.OrderStore
	tables interfaces.TableStore
	locks  *lockset.Set
	logger logger.Logger
}

func New(orders interfaces.OrderStore, tables interfaces.TableStore, logger logger.Logger) *Synchronizer {
	return &Synchronizer{
		orders: orders,
		tables: tables,
		locks:  lockset.New(),
		logger: logger,
	}
}

func (s *Synchronizer) WithTable(ctx context.Context, tableID string, fn func() error) error {
	unlock := s.locks.Lock(tableID)
	defer unlock()
	return fn()
}

func (s *Synchronizer) WithTables(ctx context.Context, tableIDs []string, fn func() error) error {
	unlock := s.locks.Lock(tableIDs...)
	defer unlock()
	return fn()
}

// OnOrderStatusChanged is registered as a synchronous bus handler.
func (s *Synchronizer) OnOrderStatusChanged(ctx context.Context, evt events.OrderStatusChanged) {
	if evt.ServiceType != domain.ServiceTable || evt.TableRef == "" {
		return
	}

	var err error
	switch {
	case evt.IsCreation():
		err = s.occupy(ctx, evt.TableRef)
	case evt.NewStatus == domain.StatusCompleted:
		_, err = s.ReleaseIfIdle(ctx, evt.TableRef)
	}

	if err != nil {
		s.logger.Error("table_sync_failed", "Failed to synchronize table status", evt.OrderID, map[string]interface{}{
			"table_id":   evt.TableRef,
			"order_id":   evt.OrderID,
			"new_status": evt.NewStatus,
		}, err)
	}
}

// occupy marks the table Occupied. A merge target keeps its Combined status;
// its occupancy is derived from its active orders.
func (s *Synchronizer) occupy(ctx context.Context, tableID string) error {
	table, err := s.tables.Get(ctx, tableID)
	if err != nil {
		return err
	}

	if table.Status == domain.TableCombined || table.Status == domain.TableOccupied {
		return nil
	}

	if _, err := s.tables.SetStatus(ctx, tableID, domain.TableOccupied, ReasonOrderCreated); err != nil {
		return fmt.Errorf("failed to occupy table: %w", err)
	}

	s.logger.Debug("table_occupied", fmt.Sprintf("Table %s occupied", table.Number), "", map[string]interface{}{
		"table_id":        tableID,
		"previous_status": table.Status,
	})
	return nil
}

// ReleaseIfIdle frees an Occupied table once no active table order references
// it. It reports whether the table was released. The caller holds the table's
// lock.
func (s *Synchronizer) ReleaseIfIdle(ctx context.Context, tableID string) (bool, error) {
	active, err := s.orders.ListActiveByTable(ctx, tableID)
	if err != nil {
		return false, fmt.Errorf("failed to list active orders: %w", err)
	}
	if len(active) > 0 {
		return false, nil
	}

	table, err := s.tables.Get(ctx, tableID)
	if err != nil {
		return false, err
	}
	if table.Status != domain.TableOccupied {
		return false, nil
	}

	if _, err := s.tables.SetStatus(ctx, tableID, domain.TableAvailable, ReasonOrdersCompleted); err != nil {
		return false, fmt.Errorf("failed to release table: %w", err)
	}

	s.logger.Debug("table_released", fmt.Sprintf("Table %s released", table.Number), "", map[string]interface{}{
		"table_id": tableID,
	})
	return true, nil
}

// Reconcile realigns every table with its active orders. It runs on boot after
// state has been restored.
func (s *Synchronizer) Reconcile(ctx context.Context) error {
	tables, err := s.tables.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, t := range tables {
		err := s.WithTable(ctx, t.ID, func() error {
			active, err := s.orders.ListActiveByTable(ctx, t.ID)
			if err != nil {
				return err
			}

			current, err := s.tables.Get(ctx, t.ID)
			if err != nil {
				return err
			}

			switch {
			case len(active) > 0 && (current.Status == domain.TableAvailable || current.Status == domain.TableReserved):
				_, err = s.tables.SetStatus(ctx, t.ID, domain.TableOccupied, ReasonReconciled)
			case len(active) == 0 && current.Status == domain.TableOccupied:
				_, err = s.tables.SetStatus(ctx, t.ID, domain.TableAvailable, ReasonReconciled)
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to reconcile table %s: %w", t.Number, err)
		}
	}

	return nil
}
