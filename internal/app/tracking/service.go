package tracking

import (
	"context"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

type Service struct {
	orders  interfaces.OrderStore
	tables  interfaces.TableStore
	history interfaces.OrderRepository
	policy  domain.TransitionPolicy
	clock   clock.Clock
	logger  logger.Logger
}

// NewService builds the dashboard read side. history may be nil when no
// persistence is configured; status history is then derived from the order.
func NewService(
	orders interfaces.OrderStore,
	tables interfaces.TableStore,
	history interfaces.OrderRepository,
	policy domain.TransitionPolicy,
	clk clock.Clock,
	logger logger.Logger,
) *Service {
	return &Service{
		orders:  orders,
		tables:  tables,
		history: history,
		policy:  policy,
		clock:   clk,
		logger:  logger,
	}
}

func (s *Service) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		ServiceType:   order.ServiceType,
		TableRef:      order.TableRef,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
	}

	if est, ok := s.policy.EstimatedReady(order); ok {
		resp.EstimatedReady = &est
	}

	return resp, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		logs, err := s.history.GetStatusHistory(ctx, order.ID)
		if err != nil {
			s.logger.Error("history_lookup_failed", "Falling back to in-memory status history", orderID, nil, err)
		} else if len(logs) == len(order.StatusTimestamps) {
			return logs, nil
		}
	}

	derived := order.History()
	out := make([]*domain.StatusLog, len(derived))
	for i := range derived {
		out[i] = &derived[i]
	}
	return out, nil
}

func (s *Service) Overview(ctx context.Context) (*interfaces.OverviewResponse, error) {
	active, err := s.orders.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	tables, err := s.tables.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.OverviewResponse{
		OrdersByStatus: make(map[domain.Status]int),
		TablesByStatus: make(map[domain.TableStatus]int),
		GeneratedAt:    s.clock.Now(),
	}

	occupied := make(map[string]struct{})
	for _, o := range active {
		resp.OrdersByStatus[o.Status]++
		if o.ServiceType == domain.ServiceTable {
			occupied[o.TableRef] = struct{}{}
		}
	}

	for _, t := range tables {
		resp.TablesByStatus[t.Status]++
	}
	resp.OccupiedTables = len(occupied)

	return resp, nil
}
