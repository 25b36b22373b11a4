// Package projection carries lifecycle events out of the process: to the
// configured brokers and to the postgres projection. It consumes the bus
// asynchronously, so none of this work happens under a store or table lock.
package projection

import (
	"context"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const subscriberName = "projection"

type Subscriber interface {
	Subscribe(name string, buffer int) (<-chan events.Event, func())
}

type Service struct {
	bus        Subscriber
	orders     interfaces.OrderStore
	orderRepo  interfaces.OrderRepository
	tableRepo  interfaces.TableRepository
	publishers []interfaces.EventPublisher
	buffer     int
	logger     logger.Logger

	mu     sync.Mutex
	feed   <-chan events.Event
	cancel func()
}

// NewService wires the projection. Repositories may be nil when persistence is
// disabled; publishers may be empty when no broker is configured.
func NewService(
	bus Subscriber,
	orders interfaces.OrderStore,
	orderRepo interfaces.OrderRepository,
	tableRepo interfaces.TableRepository,
	publishers []interfaces.EventPublisher,
	buffer int,
	logger logger.Logger,
) *Service {
	return &Service{
		bus:        bus,
		orders:     orders,
		orderRepo:  orderRepo,
		tableRepo:  tableRepo,
		publishers: publishers,
		buffer:     buffer,
		logger:     logger,
	}
}

// Attach subscribes to the bus. Events published after Attach are projected
// once Run starts; Run attaches on its own when Attach was not called.
func (s *Service) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feed == nil {
		s.feed, s.cancel = s.bus.Subscribe(subscriberName, s.buffer)
	}
}

// Run consumes events until ctx is cancelled
func (s *Service) Run(ctx context.Context) error {
	s.Attach()

	s.mu.Lock()
	ch, cancel := s.feed, s.cancel
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("projection_started", "Event projection started", "", map[string]interface{}{
		"publishers":  len(s.publishers),
		"persistence": s.orderRepo != nil,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			s.Handle(ctx, evt)
		}
	}
}

// Handle projects one event. Failures are logged; the event is not retried.
func (s *Service) Handle(ctx context.Context, evt events.Event) {
	for _, p := range s.publishers {
		if err := p.PublishEvent(ctx, evt); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish event", "", map[string]interface{}{
				"event_type": evt.Type,
			}, err)
		}
	}

	var err error
	switch {
	case evt.Order != nil && s.orderRepo != nil:
		err = s.persistOrder(ctx, evt.Order)
	case evt.Table != nil && s.tableRepo != nil:
		err = s.persistTable(ctx, evt.Table)
	}
	if err != nil {
		s.logger.Error("projection_failed", "Failed to persist event", "", map[string]interface{}{
			"event_type": evt.Type,
		}, err)
	}
}

func (s *Service) persistOrder(ctx context.Context, evt *events.OrderStatusChanged) error {
	order, err := s.orders.Get(ctx, evt.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", evt.OrderID, err)
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return err
	}

	return s.orderRepo.LogStatus(ctx, evt.OrderID, evt.NewStatus, evt.ChangedBy, evt.OccurredAt)
}

func (s *Service) persistTable(ctx context.Context, evt *events.TableChanged) error {
	if evt.Reason == events.ReasonTableDeleted {
		return s.tableRepo.Delete(ctx, evt.TableID)
	}

	return s.tableRepo.Save(ctx, &domain.Table{
		ID:            evt.TableID,
		Number:        evt.Number,
		Capacity:      evt.Capacity,
		Status:        evt.NewStatus,
		MergedMembers: evt.MergedMembers,
		MergedInto:    evt.MergedInto,
		UpdatedAt:     evt.OccurredAt,
	})
}
