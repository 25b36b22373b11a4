package kitchen

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const changedBy = "kitchen"

// Service backs the kitchen display: the queue of active orders and the
// manual "mark ready" override.
type Service struct {
	orders interfaces.OrderStore
	guard  interfaces.TableGuard
	clock  clock.Clock
	logger logger.Logger
}

func NewService(orders interfaces.OrderStore, guard interfaces.TableGuard, clk clock.Clock, logger logger.Logger) *Service {
	return &Service{
		orders: orders,
		guard:  guard,
		clock:  clk,
		logger: logger,
	}
}

// Queue lists active orders, oldest first, optionally narrowed to one status.
func (s *Service) Queue(ctx context.Context, statusFilter domain.Status) ([]*domain.Order, error) {
	if statusFilter != "" && (!statusFilter.Valid() || statusFilter.IsTerminal()) {
		return nil, fmt.Errorf("%w: cannot filter active orders by %q", domain.ErrInvalidOrder, statusFilter)
	}

	active, err := s.orders.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if statusFilter == "" {
		return active, nil
	}

	filtered := make([]*domain.Order, 0, len(active))
	for _, o := range active {
		if o.Status == statusFilter {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// MarkReady forces Preparing -> Ready ahead of the timer. The transition is
// claimed first so the scheduler treats it as already applied.
func (s *Service) MarkReady(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// 1. Idempotency bookkeeping shared with the scheduler. A false result
	// means a scheduled write is already in flight; the store decides which
	// of the two lands.
	claimed, err := s.orders.ClaimTransition(ctx, orderID, domain.StatusPreparing, domain.StatusReady)
	if err != nil {
		return nil, err
	}

	// 2. Write through the same validation as every other transition
	var updated *domain.Order
	write := func() error {
		updated, err = s.orders.SetStatus(ctx, orderID, domain.StatusReady, s.clock.Now(), changedBy)
		return err
	}

	if order.ServiceType == domain.ServiceTable {
		err = s.guard.WithTable(ctx, order.TableRef, write)
	} else {
		err = write()
	}
	if err != nil {
		if claimed && !errors.Is(err, domain.ErrInvalidTransition) {
			if relErr := s.orders.ReleaseTransition(ctx, orderID, domain.StatusReady); relErr != nil {
				err = errors.Join(err, relErr)
			}
		}
		s.logger.Error("mark_ready_failed", "Failed to mark order ready", orderID, map[string]interface{}{
			"order_number": order.Number,
			"status":       order.Status,
		}, err)
		return nil, err
	}

	s.logger.Debug("order_marked_ready", fmt.Sprintf("Order %s marked ready", updated.Number), orderID, nil)
	return updated, nil
}
