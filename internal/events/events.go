package events

import (
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// EventOrderStatusChanged identifies an order lifecycle step, including creation.
	EventOrderStatusChanged = "order.status.changed"
	// EventTableStatusChanged identifies a table status or topology change.
	EventTableStatusChanged = "table.status.changed"

	// ReasonTableDeleted marks the change event of a removed table.
	ReasonTableDeleted = "deleted"
)

// OrderStatusChanged is emitted by the order store on every successful write.
// OldStatus is empty for the creation write.
type OrderStatusChanged struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	ServiceType domain.ServiceType `json:"service_type"`
	TableRef    string             `json:"table_ref,omitempty"`
	OldStatus   domain.Status      `json:"old_status,omitempty"`
	NewStatus   domain.Status      `json:"new_status"`
	ChangedBy   string             `json:"changed_by"`
	Total       decimal.Decimal    `json:"total"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// IsCreation reports whether the event records the order's first write
func (e OrderStatusChanged) IsCreation() bool {
	return e.OldStatus == "" && e.NewStatus == domain.StatusPending
}

// TableChanged is emitted by the table store on every status or merge
// relation write.
type TableChanged struct {
	TableID       string             `json:"table_id"`
	Number        string             `json:"number"`
	Capacity      int                `json:"capacity"`
	OldStatus     domain.TableStatus `json:"old_status,omitempty"`
	NewStatus     domain.TableStatus `json:"new_status"`
	MergedMembers []string           `json:"merged_members,omitempty"`
	MergedInto    string             `json:"merged_into,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// Event is the envelope delivered to asynchronous subscribers
type Event struct {
	Type  string              `json:"event_type"`
	Order *OrderStatusChanged `json:"order,omitempty"`
	Table *TableChanged       `json:"table,omitempty"`
}
