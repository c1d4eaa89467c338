package notify

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/rbac"
	"github.com/trackline/trackline/internal/shared"
)

// AuditPort abstracts audit logging for the clear-old sweep.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Handler wires HTTP endpoints for notifications.
type Handler struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
	auditLog   AuditPort
	authz      rbac.Middleware
	retention  time.Duration
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, dispatcher *Dispatcher, auditLog AuditPort, authz rbac.Middleware, retention time.Duration) *Handler {
	return &Handler{logger: logger, dispatcher: dispatcher, auditLog: auditLog, authz: authz, retention: retention}
}

// MountRoutes registers notification routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	// Listing and marking read are self-scoped; they need a session but no
	// named permission.
	r.With(h.authz.Require()).Get("/notifications", h.list)
	r.With(h.authz.Require()).Post("/notifications/{id}/read", h.markRead)
	r.With(h.authz.Require()).Post("/notifications/read-all", h.markAllRead)
	r.With(h.authz.Require(shared.PermNotificationsClear)).Delete("/notifications/old", h.clearOld)
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id,omitempty"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"
	rows, err := h.dispatcher.ListForUser(r.Context(), sc.Entry.UserID, unreadOnly)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result := make([]notificationResponse, 0, len(rows))
	for _, n := range rows {
		result = append(result, notificationResponse{
			ID:        n.ID,
			TaskID:    n.TaskID,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid notification id")
		return
	}
	if err := h.dispatcher.MarkRead(r.Context(), id, sc.Entry.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "is_read": true})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	updated, err := h.dispatcher.MarkAllRead(r.Context(), sc.Entry.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": updated})
}

func (h *Handler) clearOld(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	removed, err := h.dispatcher.ClearOld(r.Context(), h.retention)
	if err != nil {
		h.logger.Error("clear old notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err := h.auditLog.Record(r.Context(), audit.Entry{
		ActorID: sc.Entry.UserID,
		Action:  "ClearOldNotifications",
		Entity:  "notifications",
		Detail:  map[string]any{"removed": removed, "retention": h.retention.String()},
	}); err != nil {
		h.logger.Error("audit clear notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"removed": removed})
}
