package http

import (
	"net/http"
	"time"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/go-chi/chi/v5"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/{id}/status", h.GetOrderStatus)
	r.Get("/orders/{id}/history", h.GetOrderHistory)
	r.Get("/overview", h.Overview)
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := map[string]interface{}{
		"order_id":        result.OrderID,
		"order_number":    result.OrderNumber,
		"service_type":    result.ServiceType,
		"current_status":  result.CurrentStatus,
		"updated_at":      result.UpdatedAt,
		"estimated_ready": result.EstimatedReady,
	}
	if result.TableRef != "" {
		resp["table_ref"] = result.TableRef
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]StatusLogResponse, len(history))
	for i, log := range history {
		resp[i] = StatusLogResponse{
			Status:    log.Status,
			Timestamp: log.ChangedAt,
			ChangedBy: log.ChangedBy,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.logger.Error("overview_failed", "Failed to build overview", requestID(r), nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OrdersByStatus interface{} `json:"orders_by_status"`
		TablesByStatus interface{} `json:"tables_by_status"`
		OccupiedTables int         `json:"occupied_tables"`
		GeneratedAt    time.Time   `json:"generated_at"`
	}{
		OrdersByStatus: overview.OrdersByStatus,
		TablesByStatus: overview.TablesByStatus,
		OccupiedTables: overview.OccupiedTables,
		GeneratedAt:    overview.GeneratedAt,
	})
}
