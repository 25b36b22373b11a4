package http

import (
	"net/http"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/domain"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/go-chi/chi/v5"
)

type KitchenHandler struct {
	service interfaces.KitchenService
	logger  logger.Logger
}

func NewKitchenHandler(service interfaces.KitchenService, logger logger.Logger) *KitchenHandler {
	return &KitchenHandler{
		service: service,
		logger:  logger,
	}
}

func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Route("/kitchen/orders", func(r chi.Router) {
		r.Get("/", h.Queue)
		r.Post("/{id}/ready", h.MarkReady)
	})
}

// Queue lists active orders, optionally narrowed with ?status=
func (h *KitchenHandler) Queue(w http.ResponseWriter, r *http.Request) {
	filter := domain.Status(r.URL.Query().Get("status"))

	orders, err := h.service.Queue(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *KitchenHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.service.MarkReady(r.Context(), id)
	if err != nil {
		h.logger.Error("mark_ready_failed", "Failed to mark order ready", requestID(r), map[string]interface{}{
			"order_id": id,
		}, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}
