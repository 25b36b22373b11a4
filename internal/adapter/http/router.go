package http

import (
	"net/http"

	"github.com/YelzhanWeb/tableside/internal/adapter/logger"
	"github.com/go-chi/chi/v5"
)

type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter mounts every handler behind the request id, recovery and logging
// middleware. The event stream is served at /events.
func NewRouter(lgr logger.Logger, stream http.Handler, handlers ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(lgr))
	r.Use(LoggingMiddleware(lgr))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, h := range handlers {
		h.RegisterRoutes(r)
	}

	if stream != nil {
		r.Method(http.MethodGet, "/events", stream)
	}

	return r
}
