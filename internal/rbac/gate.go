package rbac

import (
	"context"
	"log/slog"

	"github.com/trackline/trackline/internal/observability"
	"github.com/trackline/trackline/internal/session"
)

// Gate answers the per-action question: does this session hold the required
// permission? It only consults the session cache; permission tables are never
// re-queried during request handling.
type Gate struct {
	store   session.Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewGate constructs a Gate.
func NewGate(store session.Store, logger *slog.Logger, metrics *observability.Metrics) *Gate {
	return &Gate{store: store, logger: logger, metrics: metrics}
}

// Allow reports whether the cached session holds the permission. An absent
// session, an evicted session, or a store failure all deny: the gate fails
// closed. Denied checks are not audited; they surface in metrics and logs.
func (g *Gate) Allow(ctx context.Context, sessionID, permission string) bool {
	if sessionID == "" {
		g.record(permission, false)
		return false
	}
	entry, ok, err := g.store.Get(ctx, sessionID)
	if err != nil {
		if g.logger != nil {
			g.logger.Error("session lookup", slog.Any("error", err))
		}
		g.record(permission, false)
		return false
	}
	if !ok {
		g.record(permission, false)
		return false
	}
	allowed := entry.Has(permission)
	if !allowed && g.logger != nil {
		g.logger.Warn("permission denied",
			slog.Int64("user_id", entry.UserID),
			slog.String("permission", permission))
	}
	g.record(permission, allowed)
	return allowed
}

// AllowAll reports whether the session holds every listed permission.
// Compound actions check several names in one pass.
func (g *Gate) AllowAll(ctx context.Context, sessionID string, permissions ...string) bool {
	for _, permission := range permissions {
		if !g.Allow(ctx, sessionID, permission) {
			return false
		}
	}
	return true
}

func (g *Gate) record(permission string, allowed bool) {
	if g.metrics != nil {
		g.metrics.AuthzDecision(permission, allowed)
	}
}
