package http

import (
	"time"

	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/shopspring/decimal"
)

type OrderResponse struct {
	ID               string               `json:"id"`
	OrderNumber      string               `json:"order_number"`
	ServiceType      domain.ServiceType   `json:"service_type"`
	TableRef         string               `json:"table_ref,omitempty"`
	Status           domain.Status        `json:"status"`
	StatusTimestamps map[string]time.Time `json:"status_timestamps"`
	Items            []OrderItemResponse  `json:"items"`
	Total            decimal.Decimal      `json:"total"`
	PaymentMethod    string               `json:"payment_method"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type OrderItemResponse struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type TableResponse struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	Capacity          int                `json:"capacity"`
	EffectiveCapacity int                `json:"effective_capacity"`
	Status            domain.TableStatus `json:"status"`
	MergedMembers     []string           `json:"merged_members,omitempty"`
	MergedInto        string             `json:"merged_into,omitempty"`
	ActiveOrders      int                `json:"active_orders"`
	Occupied          bool               `json:"occupied"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type StatusLogResponse struct {
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ChangedBy string        `json:"changed_by"`
}

type ReceiptResponse struct {
	TableID  string          `json:"table_id"`
	Orders   []OrderResponse `json:"orders"`
	Total    decimal.Decimal `json:"total"`
	ClosedAt time.Time       `json:"closed_at"`
	Released bool            `json:"released"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	stamps := make(map[string]time.Time, len(o.StatusTimestamps))
	for s, ts := range o.StatusTimestamps {
		stamps[string(s)] = ts
	}

	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{Name: item.Name, Quantity: item.Quantity, Price: item.Price}
	}

	return OrderResponse{
		ID:               o.ID,
		OrderNumber:      o.Number,
		ServiceType:      o.ServiceType,
		TableRef:         o.TableRef,
		Status:           o.Status,
		StatusTimestamps: stamps,
		Items:            items,
		Total:            o.Total,
		PaymentMethod:    o.PaymentMethod,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func toTableResponse(v *interfaces.TableView) TableResponse {
	return TableResponse{
		ID:                v.Table.ID,
		Number:            v.Table.Number,
		Capacity:          v.Table.Capacity,
		EffectiveCapacity: v.EffectiveCapacity,
		Status:            v.Table.Status,
		MergedMembers:     v.Table.MergedMembers,
		MergedInto:        v.Table.MergedInto,
		ActiveOrders:      v.ActiveOrders,
		Occupied:          v.Occupied,
		UpdatedAt:         v.Table.UpdatedAt,
	}
}

// toBareTableResponse renders a table without derived occupancy figures
func toBareTableResponse(t *domain.Table) TableResponse {
	return TableResponse{
		ID:                t.ID,
		Number:            t.Number,
		Capacity:          t.Capacity,
		EffectiveCapacity: t.Capacity,
		Status:            t.Status,
		MergedMembers:     t.MergedMembers,
		MergedInto:        t.MergedInto,
		UpdatedAt:         t.UpdatedAt,
	}
}
