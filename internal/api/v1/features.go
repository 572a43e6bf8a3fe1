package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/docexport/internal/domain"
)

type FeatureView struct {
	domain.FeatureStatus
	Calls *int64 `json:"calls,omitempty" doc:"Rejected calls so far; omitted when no counter is configured"`
}

type ListFeaturesOutput struct {
	Body []FeatureView
}

type GetFeatureInput struct {
	Feature string `path:"feature" doc:"Feature name, e.g. word_export"`
}

type GetFeatureOutput struct {
	Body FeatureView
}

type ListInvocationsInput struct {
	Feature string `path:"feature" doc:"Feature name"`
	Limit   int    `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset  int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

type ListInvocationsOutput struct {
	Body struct {
		Total int64                        `json:"total"`
		Items []*domain.DisabledInvocation `json:"items"`
	}
}

// RegisterFeatureRoutes exposes the feature catalog. counter may be nil.
func RegisterFeatureRoutes(api huma.API, counter CallCounter) {
	huma.Register(api, huma.Operation{
		OperationID: "list-features",
		Method:      http.MethodGet,
		Path:        "/features",
		Summary:     "List features and their state",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, _ *struct{}) (*ListFeaturesOutput, error) {
		statuses := domain.Statuses()
		out := &ListFeaturesOutput{Body: make([]FeatureView, 0, len(statuses))}
		for _, s := range statuses {
			out.Body = append(out.Body, viewOf(ctx, s, counter))
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-feature",
		Method:      http.MethodGet,
		Path:        "/features/{feature}",
		Summary:     "Get one feature's state",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, input *GetFeatureInput) (*GetFeatureOutput, error) {
		s, err := domain.StatusOf(domain.Feature(input.Feature))
		if err != nil {
			return nil, featureError(err, "feature not found")
		}
		return &GetFeatureOutput{Body: viewOf(ctx, s, counter)}, nil
	})
}

// RegisterInvocationRoutes exposes the audit log. repo may be nil, in which
// case the route answers 503.
func RegisterInvocationRoutes(api huma.API, repo domain.InvocationRepository) {
	huma.Register(api, huma.Operation{
		OperationID: "list-feature-invocations",
		Method:      http.MethodGet,
		Path:        "/features/{feature}/invocations",
		Summary:     "List recorded calls into a disabled feature",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, input *ListInvocationsInput) (*ListInvocationsOutput, error) {
		feature := domain.Feature(input.Feature)
		if _, err := domain.StatusOf(feature); err != nil {
			return nil, featureError(err, "feature not found")
		}
		if repo == nil {
			return nil, huma.Error503ServiceUnavailable("invocation audit log is not configured")
		}

		total, err := repo.CountByFeature(ctx, feature)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count invocations", err)
		}

		items, err := repo.ListByFeature(ctx, feature, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list invocations", err)
		}
		if items == nil {
			items = []*domain.DisabledInvocation{}
		}

		out := &ListInvocationsOutput{}
		out.Body.Total = total
		out.Body.Items = items
		return out, nil
	})
}

func viewOf(ctx context.Context, s domain.FeatureStatus, counter CallCounter) FeatureView {
	v := FeatureView{FeatureStatus: s}
	if counter == nil {
		return v
	}
	n, err := counter.Count(ctx, s.Feature)
	if err != nil {
		// The catalog is still useful without counts.
		log.Warn().Err(err).Str("feature", string(s.Feature)).Msg("features: count calls")
		return v
	}
	v.Calls = &n
	return v
}
