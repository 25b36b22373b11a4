package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const changedBy = "scheduler"

// Scheduler periodically moves active orders forward according to the
// transition policy. Every transition is claimed on the order record before
// its write is issued, so overlapping ticks never fire it twice.
type Scheduler struct {
	orders interfaces.OrderStore
	guard  interfaces.TableGuard
	policy domain.TransitionPolicy
	clock  clock.Clock
	period time.Duration
	logger logger.Logger
}

func New(
	orders interfaces.OrderStore,
	guard interfaces.TableGuard,
	policy domain.TransitionPolicy,
	clk clock.Clock,
	period time.Duration,
	logger logger.Logger,
) *Scheduler {
	return &Scheduler{
		orders: orders,
		guard:  guard,
		policy: policy,
		clock:  clk,
		period: period,
		logger: logger,
	}
}

// Run ticks until ctx is cancelled. A failed tick is abandoned and the next
// period retries whatever it did not apply.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.logger.Info("scheduler_started", "Transition scheduler started", "", map[string]interface{}{
		"period_ms": s.period.Milliseconds(),
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped", "Transition scheduler stopped", "", nil)
			return nil
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, s.period)
			_, _ = s.Tick(tickCtx)
			cancel()
		}
	}
}

// Tick evaluates a snapshot of the active orders once and returns how many
// transitions it applied. Orders created during the tick wait for the next one.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	snapshot, err := s.orders.ListActive(ctx)
	if err != nil {
		s.logger.Error("scheduler_tick_abandoned", "Failed to list active orders", "", nil, err)
		return 0, fmt.Errorf("failed to list active orders: %w", err)
	}

	now := s.clock.Now()
	applied := 0

	for _, order := range snapshot {
		if err := ctx.Err(); err != nil {
			s.logger.Error("scheduler_tick_abandoned", "Tick ran out of time", "", map[string]interface{}{
				"applied": applied,
			}, err)
			return applied, err
		}

		target, due := s.policy.Due(order, now)
		if !due {
			continue
		}

		ok, err := s.advance(ctx, order, target, now)
		if err != nil {
			s.logger.Error("scheduler_tick_abandoned", "Failed to apply transition", order.ID, map[string]interface{}{
				"order_number": order.Number,
				"from":         order.Status,
				"to":           target,
				"applied":      applied,
			}, err)
			return applied, err
		}
		if ok {
			applied++
		}
	}

	return applied, nil
}

func (s *Scheduler) advance(ctx context.Context, order *domain.Order, target domain.Status, now time.Time) (bool, error) {
	claimed, err := s.orders.ClaimTransition(ctx, order.ID, order.Status, target)
	if err != nil {
		return false, err
	}
	if !claimed {
		s.logger.Debug("transition_skipped", "Transition already initiated", order.ID, map[string]interface{}{
			"order_number": order.Number,
			"to":           target,
		})
		return false, nil
	}

	write := func() error {
		_, err := s.orders.SetStatus(ctx, order.ID, target, now, changedBy)
		return err
	}

	if order.ServiceType == domain.ServiceTable {
		err = s.guard.WithTable(ctx, order.TableRef, write)
	} else {
		err = write()
	}

	if err != nil {
		// a manual override got there first
		if errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Debug("transition_superseded", "Order already moved past this transition", order.ID, map[string]interface{}{
				"order_number": order.Number,
				"to":           target,
			})
			return false, nil
		}

		if relErr := s.orders.ReleaseTransition(ctx, order.ID, target); relErr != nil {
			return false, errors.Join(err, relErr)
		}
		return false, err
	}

	s.logger.Info("order_status_advanced", fmt.Sprintf("Order %s moved to %s", order.Number, target), order.ID, map[string]interface{}{
		"order_number": order.Number,
		"service_type": order.ServiceType,
		"from":         order.Status,
		"to":           target,
	})
	return true, nil
}
