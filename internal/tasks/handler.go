package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/rbac"
	"github.com/trackline/trackline/internal/shared"
)

// Handler wires HTTP endpoints for tasks.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authz rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validator: validator.New()}
}

// MountRoutes registers task routes on the provided router. The gate check
// is the first thing that runs for every route; a denied request never
// reaches the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.With(h.authz.Require(shared.PermTasksView)).Get("/", h.list)
		r.With(h.authz.Require(shared.PermTasksView)).Get("/{id}", h.get)
		r.With(h.authz.Require(shared.PermTasksCreate)).Post("/", h.create)
		r.With(h.authz.Require(shared.PermTasksEdit)).Put("/{id}", h.update)
		r.With(h.authz.Require(shared.PermTasksAssign)).Post("/{id}/assign", h.assign)
		r.With(h.authz.Require(shared.PermTasksComplete)).Post("/{id}/complete", h.complete)
	})
}

type taskResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatorID   int64     `json:"creator_id"`
	AssigneeID  int64     `json:"assignee_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AssigneeID  int64  `json:"assignee_id"`
}

type updateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type assignRequest struct {
	AssigneeID int64 `json:"assignee_id" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	filter := ListFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("assignee_id"); raw != "" {
		filter.AssigneeID, _ = strconv.ParseInt(raw, 10, 64)
	}
	result, err := h.service.List(r.Context(), filter, sc.Entry.UserID)
	if err != nil {
		h.respondErr(w, "list tasks", err)
		return
	}
	out := make([]taskResponse, 0, len(result))
	for _, task := range result {
		out = append(out, toResponse(task))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), id, sc.Entry.UserID)
	if err != nil {
		h.respondErr(w, "get task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.service.Create(r.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		ActorID:     sc.Entry.UserID,
	})
	if err != nil {
		h.respondErr(w, "create task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(task))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.service.Update(r.Context(), UpdateInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		ActorID:     sc.Entry.UserID,
	})
	if err != nil {
		h.respondErr(w, "update task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.service.Assign(r.Context(), id, req.AssigneeID, sc.Entry.UserID)
	if err != nil {
		h.respondErr(w, "assign task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	task, err := h.service.Complete(r.Context(), id, sc.Entry.UserID)
	if err != nil {
		h.respondErr(w, "complete task", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(task))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	return httpx.Decode(w, r, h.validator, target)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyDone):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return 0, false
	}
	return id, true
}

func toResponse(task Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CreatorID:   task.CreatorID,
		AssigneeID:  task.AssigneeID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
