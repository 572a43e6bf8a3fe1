// Package wordexport keeps the calling surface of the withdrawn Word export
// feature. Every entry point logs one warning and fails with
// domain.FeatureDisabledError; no document is ever produced.
package wordexport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/docexport/internal/domain"
)

const recordTimeout = 5 * time.Second

// Request is accepted for signature compatibility. Its payload is ignored;
// TenantID and RequestID identify the caller on the recorded invocation and
// are filled in by the transport, never decoded from the payload.
type Request struct {
	DocumentID string `json:"document_id,omitempty"`
	Title      string `json:"title,omitempty"`
	Body       []byte `json:"body,omitempty"`

	TenantID  uuid.UUID `json:"-"`
	RequestID string    `json:"-"`
}

// Recorder observes rejected calls. Implementations must be safe for
// concurrent use. A Recorder error never changes what the caller sees.
type Recorder interface {
	Record(ctx context.Context, inv *domain.DisabledInvocation) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, inv *domain.DisabledInvocation) error

func (f RecorderFunc) Record(ctx context.Context, inv *domain.DisabledInvocation) error {
	return f(ctx, inv)
}

// Guard is immutable after New and safe for concurrent use.
type Guard struct {
	logger    zerolog.Logger
	recorders []Recorder
	now       func() time.Time
}

type Option func(*Guard)

// WithLogger sets the diagnostic logger. Defaults to the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithRecorder appends r to the recorders notified on every call. nil is ignored.
func WithRecorder(r Recorder) Option {
	return func(g *Guard) {
		if r != nil {
			g.recorders = append(g.recorders, r)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func New(opts ...Option) *Guard {
	g := &Guard{
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ExportToWord always fails with "Word export functionality is not available.".
func (g *Guard) ExportToWord(ctx context.Context, req *Request) error {
	return g.reject(ctx, domain.FeatureWordExport, req)
}

// CreateWordDocument always fails with "Word document creation is not available.".
func (g *Guard) CreateWordDocument(ctx context.Context, req *Request) error {
	return g.reject(ctx, domain.FeatureWordDocument, req)
}

func (g *Guard) reject(ctx context.Context, feature domain.Feature, req *Request) error {
	disabled := feature.Disabled()

	diagnostic := disabled.Message
	if status, err := domain.StatusOf(feature); err == nil {
		diagnostic = status.Diagnostic
	}

	inv := &domain.DisabledInvocation{
		ID:        uuid.New(),
		Feature:   feature,
		Message:   disabled.Message,
		CreatedAt: g.now().UTC(),
	}
	if req != nil {
		inv.TenantID = req.TenantID
		inv.RequestID = req.RequestID
	}

	g.logger.Warn().
		Str("feature", string(feature)).
		Str("invocation_id", inv.ID.String()).
		Msg(diagnostic)

	g.record(ctx, inv)

	return disabled
}

func (g *Guard) record(ctx context.Context, inv *domain.DisabledInvocation) {
	if len(g.recorders) == 0 {
		return
	}

	// Recording outlives a cancelled caller; the failure was already decided.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	for _, r := range g.recorders {
		if err := r.Record(recCtx, inv); err != nil {
			g.logger.Error().
				Err(err).
				Str("feature", string(inv.Feature)).
				Str("invocation_id", inv.ID.String()).
				Msg("wordexport: record invocation")
		}
	}
}
