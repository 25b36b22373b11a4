package http

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/events"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
)

// MockOrderService is a mock implementation of interfaces.OrderService
type MockOrderService struct {
	CreateOrderFunc func(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error)
	GetOrderFunc    func(ctx context.Context, id string) (*domain.Order, error)
	ListActiveFunc  func(ctx context.Context) ([]*domain.Order, error)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, cmd)
	}
	return nil, nil
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, id)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderService) ListActive(ctx context.Context) ([]*domain.Order, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

// MockKitchenService is a mock implementation of interfaces.KitchenService
type MockKitchenService struct {
	QueueFunc     func(ctx context.Context, statusFilter domain.Status) ([]*domain.Order, error)
	MarkReadyFunc func(ctx context.Context, orderID string) (*domain.Order, error)
}

func (m *MockKitchenService) Queue(ctx context.Context, statusFilter domain.Status) ([]*domain.Order, error) {
	if m.QueueFunc != nil {
		return m.QueueFunc(ctx, statusFilter)
	}
	return nil, nil
}

func (m *MockKitchenService) MarkReady(ctx context.Context, orderID string) (*domain.Order, error) {
	if m.MarkReadyFunc != nil {
		return m.MarkReadyFunc(ctx, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

// MockTrackingService is a mock implementation of interfaces.TrackingService
type MockTrackingService struct {
	GetOrderStatusFunc  func(ctx context.Context, orderID string) (*interfaces.TrackingOrderResponse, error)
	GetOrderHistoryFunc func(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
	OverviewFunc        func(ctx context.Context) (*interfaces.OverviewResponse, error)
}

func (m *MockTrackingService) GetOrderStatus(ctx context.Context, orderID string) (*interfaces.TrackingOrderResponse, error) {
	if m.GetOrderStatusFunc != nil {
		return m.GetOrderStatusFunc(ctx, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockTrackingService) GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	if m.GetOrderHistoryFunc != nil {
		return m.GetOrderHistoryFunc(ctx, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockTrackingService) Overview(ctx context.Context) (*interfaces.OverviewResponse, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return &interfaces.OverviewResponse{}, nil
}

// MockTableService is a mock implementation of interfaces.TableService
type MockTableService struct {
	CreateFunc         func(ctx context.Context, number string, capacity int) (*interfaces.TableView, error)
	UpdateFunc         func(ctx context.Context, id, number string, capacity int) (*interfaces.TableView, error)
	DeleteFunc         func(ctx context.Context, id string) error
	GetFunc            func(ctx context.Context, id string) (*interfaces.TableView, error)
	ListFunc           func(ctx context.Context) ([]*interfaces.TableView, error)
	ReserveFunc        func(ctx context.Context, id string) (*interfaces.TableView, error)
	ReleaseFunc        func(ctx context.Context, id string) (*interfaces.TableView, error)
	SetMaintenanceFunc func(ctx context.Context, id string, on bool) (*interfaces.TableView, error)
}

func (m *MockTableService) Create(ctx context.Context, number string, capacity int) (*interfaces.TableView, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, number, capacity)
	}
	return nil, nil
}

func (m *MockTableService) Update(ctx context.Context, id, number string, capacity int) (*interfaces.TableView, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, number, capacity)
	}
	return nil, domain.ErrTableNotFound
}

func (m *MockTableService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTableService) Get(ctx context.Context, id string) (*interfaces.TableView, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrTableNotFound
}

func (m *MockTableService) List(ctx context.Context) ([]*interfaces.TableView, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockTableService) Reserve(ctx context.Context, id string) (*interfaces.TableView, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, id)
	}
	return nil, domain.ErrTableNotFound
}

func (m *MockTableService) Release(ctx context.Context, id string) (*interfaces.TableView, error) {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, id)
	}
	return nil, domain.ErrTableNotFound
}

func (m *MockTableService) SetMaintenance(ctx context.Context, id string, on bool) (*interfaces.TableView, error) {
	if m.SetMaintenanceFunc != nil {
		return m.SetMaintenanceFunc(ctx, id, on)
	}
	return nil, domain.ErrTableNotFound
}

// MockTopologyService is a mock implementation of interfaces.TopologyService
type MockTopologyService struct {
	MergeFunc func(ctx context.Context, principalID string, memberIDs []string) (*domain.Table, error)
	SplitFunc func(ctx context.Context, principalID string) ([]*domain.Table, error)
}

func (m *MockTopologyService) Merge(ctx context.Context, principalID string, memberIDs []string) (*domain.Table, error) {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, principalID, memberIDs)
	}
	return nil, nil
}

func (m *MockTopologyService) Split(ctx context.Context, principalID string) ([]*domain.Table, error) {
	if m.SplitFunc != nil {
		return m.SplitFunc(ctx, principalID)
	}
	return nil, nil
}

// MockCheckoutService is a mock implementation of interfaces.CheckoutService
type MockCheckoutService struct {
	CloseAccountFunc func(ctx context.Context, tableID string) (*interfaces.Receipt, error)
}

func (m *MockCheckoutService) CloseAccount(ctx context.Context, tableID string) (*interfaces.Receipt, error) {
	if m.CloseAccountFunc != nil {
		return m.CloseAccountFunc(ctx, tableID)
	}
	return &interfaces.Receipt{TableID: tableID}, nil
}

// MockEventSource hands out one channel per subscription
type MockEventSource struct {
	mu      sync.Mutex
	subs    []chan events.Event
	removed int
	ready   chan struct{}
}

func NewMockEventSource() *MockEventSource {
	return &MockEventSource{ready: make(chan struct{}, 8)}
}

func (m *MockEventSource) Subscribe(name string, buffer int) (<-chan events.Event, func()) {
	ch := make(chan events.Event, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	m.ready <- struct{}{}

	return ch, func() {
		m.mu.Lock()
		m.removed++
		m.mu.Unlock()
	}
}

func (m *MockEventSource) Send(evt events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- evt
	}
}

func (m *MockEventSource) Removed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removed
}
