package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	manager   *session.Manager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, manager *session.Manager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		manager:   manager,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	UserID      int64    `json:"user_id"`
	RoleID      int64    `json:"role_id"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpx.Decode(w, r, h.validator, &req) {
		return
	}

	// Re-login replaces any existing session rather than merging into it.
	sessionID := h.manager.NewID()
	entry, err := h.service.Login(r.Context(), sessionID, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", slog.String("email", req.Email))
		httpx.RespondError(w, err)
		return
	}
	h.manager.Issue(w, sessionID)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      entry.UserID,
		RoleID:      entry.RoleID,
		DisplayName: entry.DisplayName,
		Permissions: entry.Permissions(),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sc, ok := shared.SessionFromContext(r.Context())
	if ok {
		if err := h.service.Logout(r.Context(), sc.ID, sc.Entry.UserID); err != nil {
			// The session cache entry may already be gone, but the caller
			// must not be told the logout succeeded when its audit record
			// was never written.
			h.logger.Error("logout", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	h.manager.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sc, ok := shared.SessionFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:      sc.Entry.UserID,
		RoleID:      sc.Entry.RoleID,
		DisplayName: sc.Entry.DisplayName,
		Permissions: sc.Entry.Permissions(),
	})
}
