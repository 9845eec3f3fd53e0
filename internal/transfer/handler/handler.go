// Package handler exposes the ownership-transfer protocol over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studbook/internal/platform/middleware"
	"studbook/internal/registry"
	"studbook/internal/transfer"
	"studbook/internal/transport/http/shared"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
)

// Service defines the transfer operations the HTTP layer needs.
type Service interface {
	Request(ctx context.Context, actorID id.MemberID, horseID id.HorseID, newOwnerID id.MemberID) (*transfer.Request, error)
	Resolve(ctx context.Context, requestID id.TransferID, status transfer.Status) (*transfer.Request, error)
	AdminTransfer(ctx context.Context, horseID id.HorseID, newOwnerID id.MemberID) (*registry.Horse, error)
	Get(ctx context.Context, requestID id.TransferID) (*transfer.Request, error)
	List(ctx context.Context, filter transfer.Filter, page pagination.Page) (int, []*transfer.Request, error)
}

// Handler handles ownership-transfer endpoints.
type Handler struct {
	logger       *slog.Logger
	transfers    Service
	jwtValidator middleware.JWTValidator
}

func New(transfers Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, transfers: transfers, jwtValidator: jwtValidator}
}

// Register registers the transfer routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/transfers", h.handleRequest)
		r.Get("/transfers", h.handleList)
		r.Get("/transfers/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))

			r.Post("/transfers/{id}/resolution", h.handleResolve)
			r.Post("/admin/transfers", h.handleAdminTransfer)
		})
	})
}

type transferRequest struct {
	Horse    string `json:"horse"`
	NewOwner int64  `json:"newOwner"`
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	horseID, err := id.ParseHorseID(req.Horse)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.NewOwner <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "newOwner is required"))
		return
	}
	newOwnerID := id.MemberID(req.NewOwner)

	request, err := h.transfers.Request(ctx, middleware.GetMemberID(ctx), horseID, newOwnerID)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer request failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, request)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := transfer.Filter{}
	if v := query.Get("status"); v != "" {
		status := transfer.Status(v)
		if !status.Valid() {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid transfer status"))
			return
		}
		filter.Status = &status
	}
	if v := query.Get("horse"); v != "" {
		horseID, err := id.ParseHorseID(v)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		filter.HorseID = &horseID
	}
	// Members only see transfers they participate in; admins see everything.
	if middleware.GetRole(ctx) != middleware.RoleAdmin {
		actorID := middleware.GetMemberID(ctx)
		filter.Participant = &actorID
	}
	page := pagination.Parse(query)

	total, requests, err := h.transfers.List(ctx, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list transfers",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list transfers"))
		return
	}
	shared.WriteList(w, requests, pagination.MetaFor(page, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseTransferID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	request, err := h.transfers.Get(ctx, requestID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if middleware.GetRole(ctx) != middleware.RoleAdmin {
		actorID := middleware.GetMemberID(ctx)
		if request.CurrentOwner != actorID && request.NewOwner != actorID {
			shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not a participant in this transfer"))
			return
		}
	}
	shared.WriteData(w, http.StatusOK, request)
}

type resolveRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseTransferID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req resolveRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	request, err := h.transfers.Resolve(ctx, requestID, transfer.Status(req.Status))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, request)
}

func (h *Handler) handleAdminTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	horseID, err := id.ParseHorseID(req.Horse)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.NewOwner <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "newOwner is required"))
		return
	}
	newOwnerID := id.MemberID(req.NewOwner)

	horse, err := h.transfers.AdminTransfer(ctx, horseID, newOwnerID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, horse)
}
