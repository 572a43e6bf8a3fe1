package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/docexport/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// InvocationRepo persists calls into withdrawn features. It satisfies both
// domain.InvocationRepository and wordexport.Recorder.
type InvocationRepo struct {
	pool *pgxpool.Pool
}

func NewInvocationRepo(pool *pgxpool.Pool) *InvocationRepo {
	return &InvocationRepo{pool: pool}
}

func (r *InvocationRepo) Record(ctx context.Context, inv *domain.DisabledInvocation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO disabled_invocations (id, feature, tenant_id, request_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, string(inv.Feature), inv.TenantID, inv.RequestID, inv.Message, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("invocationRepo.Record: %w", err)
	}

	return nil
}

func (r *InvocationRepo) ListByFeature(ctx context.Context, feature domain.Feature, limit, offset int) ([]*domain.DisabledInvocation, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := r.pool.Query(ctx,
		`SELECT id, feature, tenant_id, request_id, message, created_at
		 FROM disabled_invocations WHERE feature = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(feature), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("invocationRepo.ListByFeature: %w", err)
	}
	defer rows.Close()

	return scanInvocations(rows, "invocationRepo.ListByFeature")
}

func (r *InvocationRepo) CountByFeature(ctx context.Context, feature domain.Feature) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM disabled_invocations WHERE feature = $1`,
		string(feature),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("invocationRepo.CountByFeature: %w", err)
	}

	return n, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanInvocations(rows pgx.Rows, caller string) ([]*domain.DisabledInvocation, error) {
	var out []*domain.DisabledInvocation
	for rows.Next() {
		var inv domain.DisabledInvocation
		var feature string

		if err := rows.Scan(
			&inv.ID, &feature, &inv.TenantID, &inv.RequestID, &inv.Message, &inv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		inv.Feature = domain.Feature(feature)
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}
