package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/trackline/trackline/internal/audit/http"
	"github.com/trackline/trackline/internal/auth"
	"github.com/trackline/trackline/internal/notify"
	"github.com/trackline/trackline/internal/observability"
	"github.com/trackline/trackline/internal/platform/httpx"
	"github.com/trackline/trackline/internal/rbac"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/tasks"
)

// RouterParams bundles the dependencies for NewRouter.
type RouterParams struct {
	Config   *Config
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Sessions *session.Manager
	Store    session.Store

	Auth   *auth.Handler
	Tasks  *tasks.Handler
	RBAC   *rbac.Handler
	Audit  *audithttp.Handler
	Notify *notify.Handler
}

// NewRouter assembles the HTTP router with the shared middleware stack and
// every module's routes.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(p.Config, p.Logger, p.Metrics, p.Sessions, p.Store) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	p.Auth.MountRoutes(r)
	p.Tasks.MountRoutes(r)
	p.Notify.MountRoutes(r)
	p.Audit.MountRoutes(r)
	r.Route("/admin", func(r chi.Router) {
		p.RBAC.MountRoutes(r)
	})

	return r
}
