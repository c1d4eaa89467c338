package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const actorStripes = 64

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Logger writes records into audit_logs. A failed write propagates to the
// caller and fails the enclosing action; audit logging is not best-effort.
type Logger struct {
	pool *pgxpool.Pool

	// One lock per actor stripe keeps a single actor's entries in the
	// order their actions were accepted, while different actors proceed
	// in parallel.
	locks [actorStripes]sync.Mutex
}

// NewLogger returns a new Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Record persists the entry using the logger's own pool. Call it after the
// action's primary effect has been durably applied.
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit: logger not initialised")
	}
	return l.insert(ctx, l.pool, entry)
}

// RecordTx persists the entry inside the caller's transaction so the primary
// effect and its audit record commit or roll back together.
func (l *Logger) RecordTx(ctx context.Context, tx pgx.Tx, entry Entry) error {
	if l == nil {
		return errors.New("audit: logger not initialised")
	}
	return l.insert(ctx, tx, entry)
}

func (l *Logger) insert(ctx context.Context, q Querier, entry Entry) error {
	if entry.ActorID == 0 || entry.Action == "" || entry.Entity == "" {
		return errors.New("audit: entry requires actor/action/entity")
	}
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	entityID := pgtype.Text{String: entry.EntityID, Valid: entry.EntityID != ""}

	lock := &l.locks[uint64(entry.ActorID)%actorStripes]
	lock.Lock()
	defer lock.Unlock()

	_, err = q.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, entity, entity_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ActorID, entry.Action, entry.Entity, entityID, detail, at)
	return err
}
