package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/docexport/internal/api/v1"
	"github.com/gosuda/docexport/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockCounter struct {
	countFunc func(ctx context.Context, feature domain.Feature) (int64, error)
}

func (m *mockCounter) Count(ctx context.Context, feature domain.Feature) (int64, error) {
	return m.countFunc(ctx, feature)
}

type mockInvocationRepo struct {
	recordFunc         func(ctx context.Context, inv *domain.DisabledInvocation) error
	listByFeatureFunc  func(ctx context.Context, feature domain.Feature, limit, offset int) ([]*domain.DisabledInvocation, error)
	countByFeatureFunc func(ctx context.Context, feature domain.Feature) (int64, error)
}

func (m *mockInvocationRepo) Record(ctx context.Context, inv *domain.DisabledInvocation) error {
	return m.recordFunc(ctx, inv)
}

func (m *mockInvocationRepo) ListByFeature(ctx context.Context, feature domain.Feature, limit, offset int) ([]*domain.DisabledInvocation, error) {
	return m.listByFeatureFunc(ctx, feature, limit, offset)
}

func (m *mockInvocationRepo) CountByFeature(ctx context.Context, feature domain.Feature) (int64, error) {
	return m.countByFeatureFunc(ctx, feature)
}

// ---------------------------------------------------------------------------
// TestListFeatures
// ---------------------------------------------------------------------------

func TestListFeatures(t *testing.T) {
	t.Parallel()

	t.Run("without counter", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterFeatureRoutes(api, nil)

		resp := api.Get("/features")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []v1.FeatureView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, domain.FeatureWordExport, body[0].Feature)
		assert.Equal(t, domain.FeatureWordDocument, body[1].Feature)
		for _, f := range body {
			assert.Equal(t, domain.FeatureStateDisabled, f.State)
			assert.Nil(t, f.Calls)
		}
	})

	t.Run("with counter", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterFeatureRoutes(api, &mockCounter{
			countFunc: func(_ context.Context, f domain.Feature) (int64, error) {
				if f == domain.FeatureWordExport {
					return 12, nil
				}
				return 0, nil
			},
		})

		resp := api.Get("/features")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []v1.FeatureView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		require.NotNil(t, body[0].Calls)
		assert.Equal(t, int64(12), *body[0].Calls)
		require.NotNil(t, body[1].Calls)
		assert.Equal(t, int64(0), *body[1].Calls)
	})

	t.Run("counter error omits calls", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterFeatureRoutes(api, &mockCounter{
			countFunc: func(context.Context, domain.Feature) (int64, error) {
				return 0, errors.New("redis down")
			},
		})

		resp := api.Get("/features")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []v1.FeatureView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Nil(t, body[0].Calls)
	})
}

// ---------------------------------------------------------------------------
// TestGetFeature
// ---------------------------------------------------------------------------

func TestGetFeature(t *testing.T) {
	t.Parallel()

	t.Run("known", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterFeatureRoutes(api, nil)

		resp := api.Get("/features/word_document")
		require.Equal(t, http.StatusOK, resp.Code)

		var body v1.FeatureView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.FeatureWordDocument, body.Feature)
		assert.Equal(t, "Word document creation is not available.", body.Message)
		assert.Equal(t, "Word document creation is disabled", body.Diagnostic)
	})

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterFeatureRoutes(api, nil)

		resp := api.Get("/features/pdf_export")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestListInvocations
// ---------------------------------------------------------------------------

func TestListInvocations(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	sample := []*domain.DisabledInvocation{
		{ID: uuid.New(), Feature: domain.FeatureWordExport, TenantID: uuid.New(), Message: "Word export functionality is not available.", CreatedAt: now},
		{ID: uuid.New(), Feature: domain.FeatureWordExport, TenantID: uuid.New(), Message: "Word export functionality is not available.", CreatedAt: now.Add(-time.Minute)},
	}

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, &mockInvocationRepo{
			countByFeatureFunc: func(_ context.Context, f domain.Feature) (int64, error) {
				assert.Equal(t, domain.FeatureWordExport, f)
				return 42, nil
			},
			listByFeatureFunc: func(_ context.Context, f domain.Feature, limit, offset int) ([]*domain.DisabledInvocation, error) {
				assert.Equal(t, domain.FeatureWordExport, f)
				assert.Equal(t, 2, limit)
				assert.Equal(t, 4, offset)
				return sample, nil
			},
		})

		resp := api.Get("/features/word_export/invocations?limit=2&offset=4")
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Total int64                        `json:"total"`
			Items []*domain.DisabledInvocation `json:"items"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, int64(42), body.Total)
		require.Len(t, body.Items, 2)
		assert.Equal(t, sample[0].ID, body.Items[0].ID)
	})

	t.Run("default paging", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, &mockInvocationRepo{
			countByFeatureFunc: func(context.Context, domain.Feature) (int64, error) { return 0, nil },
			listByFeatureFunc: func(_ context.Context, _ domain.Feature, limit, offset int) ([]*domain.DisabledInvocation, error) {
				assert.Equal(t, 50, limit)
				assert.Equal(t, 0, offset)
				return nil, nil
			},
		})

		resp := api.Get("/features/word_document/invocations")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"total":0,"items":[]}`, stripSchema(t, resp.Body.Bytes()))
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, &mockInvocationRepo{})

		resp := api.Get("/features/pdf_export/invocations")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("no audit store", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, nil)

		resp := api.Get("/features/word_export/invocations")
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, &mockInvocationRepo{
			countByFeatureFunc: func(context.Context, domain.Feature) (int64, error) {
				return 0, errors.New("db connection refused")
			},
		})

		resp := api.Get("/features/word_export/invocations")
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})

	t.Run("limit out of range", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterInvocationRoutes(api, &mockInvocationRepo{})

		resp := api.Get("/features/word_export/invocations?limit=1000")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

// stripSchema drops the $schema link huma adds to object responses.
func stripSchema(t *testing.T, raw []byte) string {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	delete(m, "$schema")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}
