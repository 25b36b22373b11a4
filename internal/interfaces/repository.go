package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
)

// Store ports. Implementations hand out copies; mutating a returned entity
// never changes the store.

type OrderStore interface {
	// Create stores a new pending order. Table orders must reference an
	// existing table that accepts orders.
	Create(ctx context.Context, order *domain.Order, changedBy string) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListActive(ctx context.Context) ([]*domain.Order, error)
	ListActiveByTable(ctx context.Context, tableID string) ([]*domain.Order, error)
	// SetStatus moves an order to the immediate successor of its current
	// status, entered at the given instant.
	SetStatus(ctx context.Context, id string, newStatus domain.Status, at time.Time, changedBy string) (*domain.Order, error)
	// ForceComplete moves an active order straight to Completed.
	ForceComplete(ctx context.Context, id string, at time.Time, changedBy string) (*domain.Order, error)
	// ClaimTransition records that the from -> target transition was
	// initiated. It returns false when the order is no longer in from or the
	// transition was already claimed.
	ClaimTransition(ctx context.Context, id string, from, target domain.Status) (bool, error)
	// ReleaseTransition drops a claim whose write failed so it can be retried.
	ReleaseTransition(ctx context.Context, id string, target domain.Status) error
}

type TableStore interface {
	Create(ctx context.Context, table *domain.Table) error
	Update(ctx context.Context, table *domain.Table) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Table, error)
	List(ctx context.Context) ([]*domain.Table, error)
	// SetStatus writes the status without validation beyond existence.
	SetStatus(ctx context.Context, id string, status domain.TableStatus, reason string) (*domain.Table, error)
	// SetMergeRelation records members as absorbed into principal and marks
	// every participant Combined.
	SetMergeRelation(ctx context.Context, principalID string, memberIDs []string) error
	// ClearMergeRelation dissolves the group led by principal, restores every
	// participant to Available and returns the former member ids.
	ClearMergeRelation(ctx context.Context, principalID string) ([]string, error)
}

// Projection ports (Adapter/Postgres). Written outside any lock.

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	LogStatus(ctx context.Context, orderID string, status domain.Status, changedBy string, at time.Time) error
	GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
	LoadAll(ctx context.Context) ([]*domain.Order, error)
}

type TableRepository interface {
	Save(ctx context.Context, table *domain.Table) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]*domain.Table, error)
}
