package v1

import (
	"context"

	"github.com/gosuda/docexport/internal/domain"
	"github.com/gosuda/docexport/internal/wordexport"
)

// WordExporter is the calling surface of the withdrawn Word export feature.
// *wordexport.Guard satisfies this interface.
type WordExporter interface {
	ExportToWord(ctx context.Context, req *wordexport.Request) error
	CreateWordDocument(ctx context.Context, req *wordexport.Request) error
}

// CallCounter reports how often a feature has been called.
// *redis.Bus satisfies this interface.
type CallCounter interface {
	Count(ctx context.Context, feature domain.Feature) (int64, error)
}
