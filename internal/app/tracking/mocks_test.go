package tracking

import (
	"context"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
)

type mockOrderRepository struct {
	logs []*domain.StatusLog
	err  error
}

func (m *mockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return nil
}

func (m *mockOrderRepository) LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, at time.Time) error {
	return nil
}

func (m *mockOrderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	return m.logs, m.err
}

func (m *mockOrderRepository) LoadAll(ctx context.Context) ([]*domain.Order, error) {
	return nil, nil
}
