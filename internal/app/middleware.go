package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/trackline/trackline/internal/observability"
	"github.com/trackline/trackline/internal/session"
	"github.com/trackline/trackline/internal/shared"
)

// MiddlewareStack returns the shared middleware chain in execution order.
func MiddlewareStack(cfg *Config, logger *slog.Logger, metrics *observability.Metrics, sessions *session.Manager, store session.Store) []func(http.Handler) http.Handler {
	secureMW := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
		IsDevelopment:         !cfg.IsProduction(),
	})

	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		requestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(cfg.AppRequestTimeout),
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		secureMW.Handler,
		SessionLoader(sessions, store),
	}
	if metrics != nil {
		stack = append(stack, metrics.Middleware)
	}
	return stack
}

// SessionLoader resolves the session cookie against the session store and
// attaches the cached entry to the request context. Requests without a valid
// session pass through untouched; the authorization gate rejects them later.
func SessionLoader(sessions *session.Manager, store session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessions.ReadID(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			entry, ok, err := store.Get(r.Context(), id)
			if err != nil || !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), shared.SessionContext{ID: id, Entry: entry})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
