// Package handler receives membership webhooks from the external platform.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studbook/internal/platform/middleware"
	"studbook/internal/reconcile"
	"studbook/internal/transport/http/shared"
)

// Engine processes one membership event.
type Engine interface {
	Process(ctx context.Context, event reconcile.Event) error
}

// Handler handles the membership webhook endpoint.
type Handler struct {
	logger *slog.Logger
	engine Engine
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, engine: engine}
}

// Register registers the webhook route with the chi router. The route is
// unauthenticated; the membership platform cannot send bearer tokens.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/membership", h.handleWebhook)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event reconcile.Event
	if err := shared.Decode(r, &event); err != nil {
		h.logger.WarnContext(ctx, "undecodable membership webhook",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	if err := h.engine.Process(ctx, event); err != nil {
		// Non-2xx tells the platform to redeliver; processing is idempotent
		// so retries are safe.
		h.logger.ErrorContext(ctx, "membership event failed",
			"request_id", middleware.GetRequestID(ctx),
			"action", event.Parameters.Action,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, map[string]string{"status": "processed"})
}
