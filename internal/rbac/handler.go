package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trackline/trackline/internal/audit"
	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/shared"
)

// AuditPort abstracts audit logging for administrative actions.
type AuditPort interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Handler wires the administrative grant/revoke surface. Changes made here
// do not touch live sessions; they take effect at the next login.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auditLog  AuditPort
	authz     Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, auditLog AuditPort, authz Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		auditLog:  auditLog,
		authz:     authz,
		validator: validator.New(),
	}
}

// MountRoutes registers RBAC administration routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.Require(shared.PermRolesView)).Get("/roles", h.listRoles)
	r.With(h.authz.Require(shared.PermRolesEdit)).Post("/roles", h.createRole)
	r.With(h.authz.Require(shared.PermRolesEdit)).Delete("/roles/{id}", h.deleteRole)

	r.With(h.authz.Require(shared.PermPermissionsView)).Get("/permissions", h.listPermissions)

	r.With(h.authz.Require(shared.PermRolesEdit)).Post("/roles/{id}/permissions", h.grantRolePermission)
	r.With(h.authz.Require(shared.PermRolesEdit)).Delete("/roles/{id}/permissions/{permID}", h.revokeRolePermission)

	r.With(h.authz.Require(shared.PermUsersEdit)).Post("/users/{id}/overrides", h.grantOverride)
	r.With(h.authz.Require(shared.PermUsersEdit)).Delete("/users/{id}/overrides/{permID}", h.revokeOverride)
	r.With(h.authz.Require(shared.PermUsersView)).Get("/users/{id}/permissions", h.effectivePermissions)
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type grantRequest struct {
	PermissionID int64 `json:"permission_id" validate:"required"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondErr(w, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	var req createRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description)
	if err != nil {
		h.respondErr(w, "create role", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "InsertRole", "roles", role.ID, map[string]any{"name": role.Name}) {
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{ID: role.ID, Name: role.Name, Description: role.Description})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	id, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.respondErr(w, "delete role", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "DeleteRole", "roles", id, nil) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.respondErr(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *Handler) grantRolePermission(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	roleID, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	var req grantRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.GrantRolePermission(r.Context(), roleID, req.PermissionID); err != nil {
		h.respondErr(w, "grant role permission", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "InsertRolePermission", "role_permissions", roleID,
		map[string]any{"permission_id": req.PermissionID}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeRolePermission(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	roleID, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	permID, ok := parseParam(w, r, "permID")
	if !ok {
		return
	}
	if err := h.service.RevokeRolePermission(r.Context(), roleID, permID); err != nil {
		h.respondErr(w, "revoke role permission", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "DeleteRolePermission", "role_permissions", roleID,
		map[string]any{"permission_id": permID}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) grantOverride(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	userID, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	var req grantRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.GrantOverride(r.Context(), userID, req.PermissionID); err != nil {
		h.respondErr(w, "grant override", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "InsertUserPermission", "user_permission_overrides", userID,
		map[string]any{"permission_id": req.PermissionID}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeOverride(w http.ResponseWriter, r *http.Request) {
	sc, _ := shared.SessionFromContext(r.Context())
	userID, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	permID, ok := parseParam(w, r, "permID")
	if !ok {
		return
	}
	if err := h.service.RevokeOverride(r.Context(), userID, permID); err != nil {
		h.respondErr(w, "revoke override", err)
		return
	}
	if !h.recordAudit(w, r, sc.Entry.UserID, "DeleteUserPermission", "user_permission_overrides", userID,
		map[string]any{"permission_id": permID}) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseParam(w, r, "id")
	if !ok {
		return
	}
	names, err := h.service.EffectiveFor(r.Context(), userID)
	if err != nil {
		h.respondErr(w, "effective permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user_id": userID, "permissions": names})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	return httpx.Decode(w, r, h.validator, target)
}

func (h *Handler) recordAudit(w http.ResponseWriter, r *http.Request, actorID int64, action, entity string, targetID int64, detail map[string]any) bool {
	err := h.auditLog.Record(r.Context(), audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(targetID, 10),
		Detail:   detail,
	})
	if err != nil {
		h.logger.Error("audit "+action, slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrDuplicate):
		httpx.RespondError(w, httpx.ErrDuplicate)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func parseParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+name)
		return 0, false
	}
	return id, true
}
