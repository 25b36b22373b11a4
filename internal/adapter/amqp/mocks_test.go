package amqp

import (
	"context"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

// MockOrderService is a mock implementation of interfaces.OrderService
type MockOrderService struct {
	CreateOrderFunc func(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, cmd)
	}
	return &domain.Order{ID: "o-1"}, nil
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderService) ListActive(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}
