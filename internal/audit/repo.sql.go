package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineParams carries the storage-level filters for a window query.
type TimelineParams struct {
	FromAt     pgtype.Timestamptz
	ToAt       pgtype.Timestamptz
	ActorID    pgtype.Int8
	Entity     pgtype.Text
	Action     pgtype.Text
	OffsetRows int32
	LimitRows  int32
}

// RepositoryPort defines the read side of the audit trail.
type RepositoryPort interface {
	TimelineWindow(ctx context.Context, params TimelineParams) ([]LogRow, error)
}

// Repository reads audit_logs from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TimelineWindow returns one page of audit rows, newest first.
func (r *Repository) TimelineWindow(ctx context.Context, params TimelineParams) ([]LogRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, entity, COALESCE(entity_id, ''), detail, occurred_at
		FROM audit_logs
		WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
		  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
		  AND ($3::bigint IS NULL OR actor_id = $3)
		  AND ($4::text IS NULL OR entity = $4)
		  AND ($5::text IS NULL OR action = $5)
		ORDER BY occurred_at DESC, id DESC
		OFFSET $6 LIMIT $7`,
		params.FromAt, params.ToAt, params.ActorID, params.Entity, params.Action,
		params.OffsetRows, params.LimitRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LogRow
	for rows.Next() {
		var row LogRow
		var detail []byte
		if err := rows.Scan(&row.ID, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &detail, &row.At); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			// Detail is stored verbatim; a payload this service cannot
			// parse is surfaced as-is under a raw key.
			if err := json.Unmarshal(detail, &row.Detail); err != nil {
				row.Detail = map[string]any{"raw": string(detail)}
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
