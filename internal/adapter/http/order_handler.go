package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListActive)
	r.Get("/orders/{id}", h.GetOrder)
}

type CreateOrderRequest struct {
	ServiceType   string             `json:"service_type"`
	TableRef      string             `json:"table_ref,omitempty"`
	Items         []OrderItemRequest `json:"items"`
	Total         *decimal.Decimal   `json:"total,omitempty"`
	PaymentMethod string             `json:"payment_method"`
}

type OrderItemRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	var req CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if validationErrors := validateCreateOrderRequest(req); len(validationErrors) > 0 {
		h.logger.Error("validation_failed", "Order validation failed", reqID, map[string]interface{}{
			"errors": validationErrors,
		}, fmt.Errorf("validation failed"))

		respondError(w, "Validation failed", http.StatusBadRequest, validationErrors)
		return
	}

	cmd := interfaces.CreateOrderCommand{
		ServiceType:   req.ServiceType,
		TableRef:      strings.TrimSpace(req.TableRef),
		Items:         convertItemsToCommand(req.Items),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	}
	if req.Total != nil {
		cmd.Total = *req.Total
	} else {
		cmd.Total = sumItems(req.Items)
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", reqID, nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("orders_list_failed", "Failed to list active orders", requestID(r), nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func validateCreateOrderRequest(req CreateOrderRequest) []ValidationError {
	var errors []ValidationError

	serviceType := domain.ServiceType(req.ServiceType)
	if !serviceType.Valid() {
		errors = append(errors, ValidationError{
			Field:   "service_type",
			Message: "service type must be one of: counter, delivery, table",
		})
	}

	tableRef := strings.TrimSpace(req.TableRef)
	switch {
	case serviceType == domain.ServiceTable && tableRef == "":
		errors = append(errors, ValidationError{
			Field:   "table_ref",
			Message: "table reference is required for table orders",
		})
	case serviceType != domain.ServiceTable && tableRef != "":
		errors = append(errors, ValidationError{
			Field:   "table_ref",
			Message: "table reference must not be present for counter or delivery orders",
		})
	}

	if len(req.Items) < 1 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must contain at least 1 item",
		})
	} else if len(req.Items) > 20 {
		errors = append(errors, ValidationError{
			Field:   "items",
			Message: "order must not contain more than 20 items",
		})
	}

	for i, item := range req.Items {
		itemPrefix := fmt.Sprintf("items[%d]", i)

		itemName := strings.TrimSpace(item.Name)
		if itemName == "" {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".name",
				Message: "item name is required",
			})
		} else if len(itemName) > 50 {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".name",
				Message: "item name must not exceed 50 characters",
			})
		}

		if item.Quantity < 1 || item.Quantity > 10 {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".quantity",
				Message: "item quantity must be between 1 and 10",
			})
		}

		if item.Price.IsNegative() {
			errors = append(errors, ValidationError{
				Field:   itemPrefix + ".price",
				Message: "item price must not be negative",
			})
		}
	}

	if req.Total != nil && req.Total.IsNegative() {
		errors = append(errors, ValidationError{
			Field:   "total",
			Message: "total must not be negative",
		})
	}

	if strings.TrimSpace(req.PaymentMethod) == "" {
		errors = append(errors, ValidationError{
			Field:   "payment_method",
			Message: "payment method is required",
		})
	}

	return errors
}

func convertItemsToCommand(items []OrderItemRequest) []interfaces.CreateOrderItemCommand {
	result := make([]interfaces.CreateOrderItemCommand, len(items))
	for i, item := range items {
		result[i] = interfaces.CreateOrderItemCommand{
			Name:     strings.TrimSpace(item.Name),
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}
	return result
}

func sumItems(items []OrderItemRequest) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
