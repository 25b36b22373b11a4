package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/shopspring/decimal"
)

// Service interfaces (Business Logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListActive(ctx context.Context) ([]*domain.Order, error)
}

type KitchenService interface {
	Queue(ctx context.Context, statusFilter domain.Status) ([]*domain.Order, error)
	MarkReady(ctx context.Context, orderID string) (*domain.Order, error)
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderID string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
	Overview(ctx context.Context) (*OverviewResponse, error)
}

type TableService interface {
	Create(ctx context.Context, number string, capacity int) (*TableView, error)
	Update(ctx context.Context, id, number string, capacity int) (*TableView, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*TableView, error)
	List(ctx context.Context) ([]*TableView, error)
	Reserve(ctx context.Context, id string) (*TableView, error)
	Release(ctx context.Context, id string) (*TableView, error)
	SetMaintenance(ctx context.Context, id string, on bool) (*TableView, error)
}

type TopologyService interface {
	Merge(ctx context.Context, principalID string, memberIDs []string) (*domain.Table, error)
	Split(ctx context.Context, principalID string) ([]*domain.Table, error)
}

type CheckoutService interface {
	CloseAccount(ctx context.Context, tableID string) (*Receipt, error)
}

// TableGuard serializes every writer of a table's status
type TableGuard interface {
	WithTable(ctx context.Context, tableID string, fn func() error) error
	WithTables(ctx context.Context, tableIDs []string, fn func() error) error
}

// TableView is a table with its derived occupancy figures
type TableView struct {
	Table             *domain.Table
	EffectiveCapacity int
	ActiveOrders      int
	Occupied          bool
}

// Receipt is the outcome of closing a table's account
type Receipt struct {
	TableID  string
	Orders   []*domain.Order
	Total    decimal.Decimal
	ClosedAt time.Time
	Released bool
}

// Tracking responses
type TrackingOrderResponse struct {
	OrderID        string
	OrderNumber    string
	ServiceType    domain.ServiceType
	TableRef       string
	CurrentStatus  domain.Status
	UpdatedAt      time.Time
	EstimatedReady *time.Time
}

type OverviewResponse struct {
	OrdersByStatus map[domain.Status]int
	TablesByStatus map[domain.TableStatus]int
	OccupiedTables int
	GeneratedAt    time.Time
}
