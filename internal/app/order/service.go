package order

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/clock"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

const defaultSource = "order-service"

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

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	// 1. Map the command onto domain items
	items := make([]domain.OrderItem, len(cmd.Items))
	for i, item := range cmd.Items {
		items[i] = domain.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	source := cmd.Source
	if source == "" {
		source = defaultSource
	}

	// 2. Build the pending order (validation happens here)
	order, err := domain.NewOrder(domain.ServiceType(cmd.ServiceType), cmd.TableRef, items, cmd.Total, cmd.PaymentMethod, s.clock.Now())
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}

	// 3. Store it. Table orders hold the table's lock so the occupancy write
	// cannot interleave with a concurrent release of the same table.
	var created *domain.Order
	store := func() error {
		created, err = s.orders.Create(ctx, order, source)
		return err
	}

	if order.ServiceType == domain.ServiceTable {
		err = s.guard.WithTable(ctx, order.TableRef, store)
	} else {
		err = store()
	}
	if err != nil {
		s.logger.Error("order_create_failed", "Failed to create order", "", map[string]interface{}{
			"service_type": order.ServiceType,
			"table_ref":    order.TableRef,
		}, err)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Debug("order_received", "Order created", created.ID, map[string]interface{}{
		"order_number": created.Number,
		"service_type": created.ServiceType,
		"table_ref":    created.TableRef,
		"source":       source,
	})

	return created, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListActive(ctx)
}
