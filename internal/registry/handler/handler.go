// Package handler exposes the horse registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studbook/internal/platform/middleware"
	"studbook/internal/registry"
	"studbook/internal/transport/http/shared"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
)

// Service defines the registry operations the HTTP layer needs.
type Service interface {
	Submit(ctx context.Context, ownerID id.MemberID, input registry.SubmitInput) (*registry.Horse, error)
	Decide(ctx context.Context, horseID id.HorseID, decision registry.ApprovalStatus, newName string) (*registry.Horse, error)
	ProposeChange(ctx context.Context, horseID id.HorseID, actorID id.MemberID, field, value string) (*registry.Horse, error)
	ResolveChange(ctx context.Context, horseID id.HorseID, field, decision string) (*registry.Horse, error)
	Get(ctx context.Context, horseID id.HorseID) (*registry.Horse, error)
	List(ctx context.Context, filter registry.Filter, page pagination.Page) (int, []*registry.Horse, error)
	AdminCreate(ctx context.Context, ownerID id.MemberID, input registry.SubmitInput) (*registry.Horse, error)
	Update(ctx context.Context, horseID id.HorseID, patch registry.UpdatePatch) (*registry.Horse, error)
	Delete(ctx context.Context, horseID id.HorseID) error
}

// Handler handles horse registry endpoints.
type Handler struct {
	logger       *slog.Logger
	horses       Service
	jwtValidator middleware.JWTValidator
}

func New(horses Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, horses: horses, jwtValidator: jwtValidator}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/horses", h.handleSubmit)
		r.Get("/horses", h.handleList)
		r.Get("/horses/{id}", h.handleGet)
		r.Post("/horses/{id}/changes", h.handleProposeChange)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))

			r.Post("/admin/horses", h.handleAdminCreate)
			r.Post("/horses/{id}/decision", h.handleDecide)
			r.Post("/horses/{id}/changes/{field}/resolution", h.handleResolveChange)
			r.Put("/horses/{id}", h.handleUpdate)
			r.Delete("/horses/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input registry.SubmitInput
	if err := shared.Decode(r, &input); err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.Submit(ctx, middleware.GetMemberID(ctx), input)
	if err != nil {
		h.logger.WarnContext(ctx, "horse submission failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, horse)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := registry.Filter{Search: query.Get("search")}
	if v := query.Get("approvalStatus"); v != "" {
		status := registry.ApprovalStatus(v)
		if !status.Valid() {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid approval status"))
			return
		}
		filter.ApprovalStatus = &status
	}
	if v := query.Get("owner"); v != "" {
		ownerID, err := id.ParseMemberID(v)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.OwnerID = &ownerID
	}
	page := pagination.Parse(query)

	total, horses, err := h.horses.List(ctx, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list horses",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list horses"))
		return
	}
	shared.WriteList(w, horses, pagination.MetaFor(page, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.Get(ctx, horseID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}

type proposeChangeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *Handler) handleProposeChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req proposeChangeRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.ProposeChange(ctx, horseID, middleware.GetMemberID(ctx), req.Field, req.Value)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}

type adminCreateRequest struct {
	Owner int64 `json:"owner"`
	registry.SubmitInput
}

func (h *Handler) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminCreateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.Owner <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "owner is required"))
		return
	}

	horse, err := h.horses.AdminCreate(ctx, id.MemberID(req.Owner), req.SubmitInput)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, horse)
}

type decisionRequest struct {
	Decision string `json:"decision"`
	NewName  string `json:"newName"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req decisionRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.Decide(ctx, horseID, registry.ApprovalStatus(req.Decision), req.NewName)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}

type resolveChangeRequest struct {
	Decision string `json:"decision"`
}

func (h *Handler) handleResolveChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req resolveChangeRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.ResolveChange(ctx, horseID, chi.URLParam(r, "field"), req.Decision)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var patch registry.UpdatePatch
	if err := shared.Decode(r, &patch); err != nil {
		shared.WriteError(w, err)
		return
	}

	horse, err := h.horses.Update(ctx, horseID, patch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	horseID, err := id.ParseHorseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.horses.Delete(ctx, horseID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
