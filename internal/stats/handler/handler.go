// Package handler exposes the admin statistics endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studbook/internal/platform/middleware"
	"studbook/internal/stats"
	"studbook/internal/transport/http/shared"
)

// Service defines the aggregation the HTTP layer needs.
type Service interface {
	Overview(ctx context.Context) (*stats.Overview, error)
}

type Handler struct {
	logger       *slog.Logger
	stats        Service
	jwtValidator middleware.JWTValidator
}

func New(statsService Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, stats: statsService, jwtValidator: jwtValidator}
}

// Register registers the statistics route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireAdmin(h.logger))

		r.Get("/admin/statistics", h.handleOverview)
	})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	overview, err := h.stats.Overview(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to aggregate statistics",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, overview)
}
