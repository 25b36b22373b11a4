// Package tables covers table administration and the reservation writes.
// Every status write runs under the table's lock so it cannot race the
// occupancy synchronizer or a merge.
package tables

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const (
	reasonReserved    = "reserved"
	reasonReleased    = "reservation_released"
	reasonMaintenance = "maintenance"
)

type Service struct {
	orders interfaces.OrderStore
	tables interfaces.TableStore
	guard  interfaces.TableGuard
	clock  clock.Clock
	logger logger.Logger
}

func NewService(orders interfaces.OrderStore, tables interfaces.TableStore, guard interfaces.TableGuard, clk clock.Clock, logger logger.Logger) *Service {
	return &Service{
		orders: orders,
		tables: tables,
		guard:  guard,
		clock:  clk,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, number string, capacity int) (*interfaces.TableView, error) {
	t, err := domain.NewTable(number, capacity, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.tables.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Debug("table_created", fmt.Sprintf("Table %s created", t.Number), "", map[string]interface{}{
		"table_id": t.ID,
		"capacity": t.Capacity,
	})
	return s.Get(ctx, t.ID)
}

func (s *Service) Update(ctx context.Context, id, number string, capacity int) (*interfaces.TableView, error) {
	err := s.guard.WithTable(ctx, id, func() error {
		t, err := s.tables.Get(ctx, id)
		if err != nil {
			return err
		}
		t.Number = number
		t.Capacity = capacity
		return s.tables.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.guard.WithTable(ctx, id, func() error {
		t, err := s.tables.Get(ctx, id)
		if err != nil {
			return err
		}
		if t.IsMergeTarget() || t.IsAbsorbed() || t.Status == domain.TableCombined {
			return fmt.Errorf("%w: table %s belongs to a group", domain.ErrTableUnavailable, t.Number)
		}

		active, err := s.orders.ListActiveByTable(ctx, id)
		if err != nil {
			return err
		}
		if len(active) > 0 || t.Status == domain.TableOccupied {
			return fmt.Errorf("%w: table %s", domain.ErrTableOccupied, t.Number)
		}

		if err := s.tables.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Debug("table_deleted", fmt.Sprintf("Table %s deleted", t.Number), "", map[string]interface{}{
			"table_id": id,
		})
		return nil
	})
}

func (s *Service) Get(ctx context.Context, id string) (*interfaces.TableView, error) {
	t, err := s.tables.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, t)
}

func (s *Service) List(ctx context.Context) ([]*interfaces.TableView, error) {
	all, err := s.tables.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*interfaces.TableView, 0, len(all))
	for _, t := range all {
		v, err := s.view(ctx, t)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Reserve holds an Available table for a future booking
func (s *Service) Reserve(ctx context.Context, id string) (*interfaces.TableView, error) {
	return s.transition(ctx, id, domain.TableReserved, reasonReserved, domain.TableAvailable)
}

// Release cancels a reservation
func (s *Service) Release(ctx context.Context, id string) (*interfaces.TableView, error) {
	return s.transition(ctx, id, domain.TableAvailable, reasonReleased, domain.TableReserved)
}

func (s *Service) SetMaintenance(ctx context.Context, id string, on bool) (*interfaces.TableView, error) {
	if on {
		return s.transition(ctx, id, domain.TableMaintenance, reasonMaintenance, domain.TableAvailable, domain.TableReserved)
	}
	return s.transition(ctx, id, domain.TableAvailable, reasonMaintenance, domain.TableMaintenance)
}

// transition moves the table to target when its current status is one of
// from. Asking for the status the table already has is a no-op.
func (s *Service) transition(ctx context.Context, id string, target domain.TableStatus, reason string, from ...domain.TableStatus) (*interfaces.TableView, error) {
	err := s.guard.WithTable(ctx, id, func() error {
		t, err := s.tables.Get(ctx, id)
		if err != nil {
			return err
		}
		if t.Status == target && !t.IsAbsorbed() {
			return nil
		}

		allowed := false
		for _, st := range from {
			if t.Status == st {
				allowed = true
				break
			}
		}
		if !allowed || t.IsMergeTarget() || t.IsAbsorbed() {
			return fmt.Errorf("%w: table %s is %s", domain.ErrTableUnavailable, t.Number, t.Status)
		}

		_, err = s.tables.SetStatus(ctx, id, target, reason)
		return err
	})
	if err != nil {
		s.logger.Error("table_status_rejected", "Failed to change table status", "", map[string]interface{}{
			"table_id": id,
			"target":   target,
		}, err)
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) view(ctx context.Context, t *domain.Table) (*interfaces.TableView, error) {
	members := make([]*domain.Table, 0, len(t.MergedMembers))
	for _, id := range t.MergedMembers {
		m, err := s.tables.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	active, err := s.orders.ListActiveByTable(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	return &interfaces.TableView{
		Table:             t,
		EffectiveCapacity: t.EffectiveCapacity(members),
		ActiveOrders:      len(active),
		Occupied:          len(active) > 0,
	}, nil
}
