package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DisabledInvocation records one call into a withdrawn feature.
type DisabledInvocation struct {
	ID        uuid.UUID `json:"id"`
	Feature   Feature   `json:"feature"`
	TenantID  uuid.UUID `json:"tenant_id"`
	RequestID string    `json:"request_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type InvocationRepository interface {
	Record(ctx context.Context, inv *DisabledInvocation) error
	ListByFeature(ctx context.Context, feature Feature, limit, offset int) ([]*DisabledInvocation, error)
	CountByFeature(ctx context.Context, feature Feature) (int64, error)
}
