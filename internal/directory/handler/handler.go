// Package handler exposes the member directory over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studbook/internal/directory"
	"studbook/internal/platform/middleware"
	"studbook/internal/transport/http/shared"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
	"studbook/pkg/pagination"
)

// Service defines the directory operations the HTTP layer needs.
type Service interface {
	Register(ctx context.Context, input directory.RegisterInput) (*directory.Member, error)
	Authenticate(ctx context.Context, email, password string) (*directory.Member, error)
	Get(ctx context.Context, memberID id.MemberID) (*directory.Member, error)
	List(ctx context.Context, filter directory.Filter, page pagination.Page) (int, []*directory.Member, error)
	UpdateProfile(ctx context.Context, memberID id.MemberID, patch directory.ProfilePatch) (*directory.Member, error)
	Delete(ctx context.Context, memberID id.MemberID) error
	SetStanding(ctx context.Context, memberID id.MemberID, active bool) (*directory.Member, error)
}

// TokenIssuer mints session tokens after a successful login.
type TokenIssuer interface {
	GenerateToken(memberID id.MemberID, role string, expiresIn time.Duration) (string, error)
}

const sessionTTL = 24 * time.Hour

// Handler handles member directory endpoints.
type Handler struct {
	logger       *slog.Logger
	members      Service
	tokens       TokenIssuer
	jwtValidator middleware.JWTValidator
}

func New(members Service, tokens TokenIssuer, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{logger: logger, members: members, tokens: tokens, jwtValidator: jwtValidator}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/members", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Get("/me", h.handleMe)
		r.Put("/me", h.handleUpdateMe)
		r.Get("/members", h.handleList)
		r.Get("/members/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(h.logger))

			r.Put("/members/{id}", h.handleUpdate)
			r.Delete("/members/{id}", h.handleDelete)
			r.Post("/members/{id}/activate", h.handleSetStanding(true))
			r.Post("/members/{id}/deactivate", h.handleSetStanding(false))
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input directory.RegisterInput
	if err := shared.Decode(r, &input); err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.members.Register(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "member registration failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, member)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string            `json:"token"`
	Member *directory.Member `json:"member"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.members.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateToken(member.ID, member.Role, sessionTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}
	shared.WriteData(w, http.StatusOK, loginResponse{Token: token, Member: member})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	member, err := h.members.Get(ctx, middleware.GetMemberID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, member)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch directory.ProfilePatch
	if err := shared.Decode(r, &patch); err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.members.UpdateProfile(ctx, middleware.GetMemberID(ctx), patch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, member)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := directory.Filter{Search: query.Get("search")}
	if v := query.Get("isActive"); v == "true" || v == "false" {
		active := v == "true"
		filter.IsActive = &active
	}
	page := pagination.Parse(query)

	total, members, err := h.members.List(ctx, filter, page)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list members",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list members"))
		return
	}
	shared.WriteList(w, members, pagination.MetaFor(page, total))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.members.Get(ctx, memberID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, member)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var patch directory.ProfilePatch
	if err := shared.Decode(r, &patch); err != nil {
		shared.WriteError(w, err)
		return
	}

	member, err := h.members.UpdateProfile(ctx, memberID, patch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, member)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.members.Delete(ctx, memberID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetStanding(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}

		member, err := h.members.SetStanding(ctx, memberID, active)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteData(w, http.StatusOK, member)
	}
}
