package http

import (
	"context"
	"net/http"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/YelzhanWeb/tableside/internal/interfaces"
	"github.com/go-chi/chi/v5"
)

type TableHandler struct {
	tables   interfaces.TableService
	topology interfaces.TopologyService
	checkout interfaces.CheckoutService
	logger   logger.Logger
}

func NewTableHandler(
	tables interfaces.TableService,
	topology interfaces.TopologyService,
	checkout interfaces.CheckoutService,
	logger logger.Logger,
) *TableHandler {
	return &TableHandler{
		tables:   tables,
		topology: topology,
		checkout: checkout,
		logger:   logger,
	}
}

func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/reserve", h.Reserve)
		r.Post("/{id}/release", h.Release)
		r.Put("/{id}/maintenance", h.SetMaintenance)
		r.Post("/{id}/merge", h.Merge)
		r.Post("/{id}/split", h.Split)
		r.Post("/{id}/close", h.CloseAccount)
	})
}

type TableRequest struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
}

type MaintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

type MergeRequest struct {
	Members []string `json:"members"`
}

func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	view, err := h.tables.Create(r.Context(), req.Number, req.Capacity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTableResponse(view))
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.tables.List(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]TableResponse, len(views))
	for i, v := range views {
		resp[i] = toTableResponse(v)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.tables.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTableResponse(view))
}

func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	view, err := h.tables.Update(r.Context(), chi.URLParam(r, "id"), req.Number, req.Capacity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTableResponse(view))
}

func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tables.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TableHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, h.tables.Reserve)
}

func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.respondView(w, r, h.tables.Release)
}

func (h *TableHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	var req MaintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	view, err := h.tables.SetMaintenance(r.Context(), chi.URLParam(r, "id"), req.Enabled)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTableResponse(view))
}

func (h *TableHandler) Merge(w http.ResponseWriter, r *http.Request) {
	principalID := chi.URLParam(r, "id")

	var req MergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if _, err := h.topology.Merge(r.Context(), principalID, req.Members); err != nil {
		h.logger.Error("merge_failed", "Failed to merge tables", requestID(r), map[string]interface{}{
			"principal": principalID,
			"members":   req.Members,
		}, err)
		respondDomainError(w, err)
		return
	}

	view, err := h.tables.Get(r.Context(), principalID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTableResponse(view))
}

func (h *TableHandler) Split(w http.ResponseWriter, r *http.Request) {
	released, err := h.topology.Split(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]TableResponse, len(released))
	for i, t := range released {
		resp[i] = toBareTableResponse(t)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.checkout.CloseAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("close_account_failed", "Failed to close account", requestID(r), map[string]interface{}{
			"table_id": chi.URLParam(r, "id"),
		}, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ReceiptResponse{
		TableID:  receipt.TableID,
		Orders:   toOrderResponses(receipt.Orders),
		Total:    receipt.Total,
		ClosedAt: receipt.ClosedAt,
		Released: receipt.Released,
	})
}

func (h *TableHandler) respondView(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) (*interfaces.TableView, error)) {
	view, err := op(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toTableResponse(view))
}
