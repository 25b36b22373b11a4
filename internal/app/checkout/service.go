package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/shopspring/decimal"
)

const changedBy = "checkout"

// Releaser frees a table once nothing references it
type Releaser interface {
	ReleaseIfIdle(ctx context.Context, tableID string) (bool, error)
}

type Service struct {
	orders   interfaces.OrderStore
	tables   interfaces.TableStore
	guard    interfaces.TableGuard
	releaser Releaser
	clock    clock.Clock
	logger   logger.Logger
}

func NewService(
	orders interfaces.OrderStore,
	tables interfaces.TableStore,
	guard interfaces.TableGuard,
	releaser Releaser,
	clk clock.Clock,
	logger logger.Logger,
) *Service {
	return &Service{
		orders:   orders,
		tables:   tables,
		guard:    guard,
		releaser: releaser,
		clock:    clk,
		logger:   logger,
	}
}

// CloseAccount completes every active order of the table, whatever its
// preparation state, and frees the table. Closing a table with no active
// orders succeeds with an empty receipt.
func (s *Service) CloseAccount(ctx context.Context, tableID string) (*interfaces.Receipt, error) {
	receipt := &interfaces.Receipt{
		TableID: tableID,
		Total:   decimal.Zero,
	}

	err := s.guard.WithTable(ctx, tableID, func() error {
		before, err := s.tables.Get(ctx, tableID)
		if err != nil {
			return err
		}

		active, err := s.orders.ListActiveByTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to list active orders: %w", err)
		}

		now := s.clock.Now()
		receipt.ClosedAt = now

		for _, o := range active {
			completed, err := s.complete(ctx, o, now)
			if err != nil {
				return fmt.Errorf("failed to complete order %s: %w", o.Number, err)
			}
			receipt.Orders = append(receipt.Orders, completed)
			receipt.Total = receipt.Total.Add(completed.Total)
		}

		// Completion events already released the table when the last order
		// closed. This covers a table left Occupied with nothing on it.
		if _, err := s.releaser.ReleaseIfIdle(ctx, tableID); err != nil {
			return err
		}

		after, err := s.tables.Get(ctx, tableID)
		if err != nil {
			return err
		}
		receipt.Released = before.Status == domain.TableOccupied && after.Status == domain.TableAvailable
		return nil
	})
	if err != nil {
		s.logger.Error("close_account_failed", "Failed to close account", "", map[string]interface{}{
			"table_id":         tableID,
			"orders_completed": len(receipt.Orders),
		}, err)
		return nil, err
	}

	s.logger.Info("account_closed", fmt.Sprintf("Account closed for table %s", tableID), "", map[string]interface{}{
		"table_id":         tableID,
		"orders_completed": len(receipt.Orders),
		"total":            receipt.Total.StringFixed(2),
		"released":         receipt.Released,
	})

	return receipt, nil
}

func (s *Service) complete(ctx context.Context, o *domain.Order, now time.Time) (*domain.Order, error) {
	if o.CanTransitionTo(domain.StatusCompleted) {
		return s.orders.SetStatus(ctx, o.ID, domain.StatusCompleted, now, changedBy)
	}
	return s.orders.ForceComplete(ctx, o.ID, now, changedBy)
}
