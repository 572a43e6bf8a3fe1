package ws_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/docexport/internal/api/ws"
	"github.com/gosuda/docexport/internal/domain"
)

type fakeSubscriber struct {
	features    chan domain.Feature
	invocations chan *domain.DisabledInvocation
	err         error
}

func (f *fakeSubscriber) Invocations(_ context.Context, feature domain.Feature) (<-chan *domain.DisabledInvocation, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.features <- feature
	return f.invocations, func() {}, nil
}

func newServer(t *testing.T, sub ws.Subscriber) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/ws/features/{feature}", ws.NewHub(sub).ServeFeature)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestServeFeature_ForwardsMessages(t *testing.T) {
	t.Parallel()

	sub := &fakeSubscriber{
		features:    make(chan domain.Feature, 1),
		invocations: make(chan *domain.DisabledInvocation, 1),
	}
	srv := newServer(t, sub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/features/word_export"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	select {
	case f := <-sub.features:
		assert.Equal(t, domain.FeatureWordExport, f)
	case <-ctx.Done():
		t.Fatal("hub never subscribed")
	}

	sent := &domain.DisabledInvocation{
		ID:      uuid.New(),
		Feature: domain.FeatureWordExport,
		Message: "Word export functionality is not available.",
	}
	sub.invocations <- sent

	var got domain.DisabledInvocation
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, sent.Feature, got.Feature)
	assert.Equal(t, sent.Message, got.Message)

	close(sub.invocations)
	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestServeFeature_UnknownFeature(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &fakeSubscriber{})

	resp, err := http.Get(srv.URL + "/ws/features/pdf_export")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeFeature_SubscribeError(t *testing.T) {
	t.Parallel()

	srv := newServer(t, &fakeSubscriber{err: errors.New("redis down")})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "/ws/features/word_document"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusInternalError, websocket.CloseStatus(err))
}
