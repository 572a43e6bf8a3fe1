package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/docexport/internal/domain"
	"github.com/gosuda/docexport/internal/notify"
)

type capturePoster struct {
	mu   sync.Mutex
	urls []string
	msgs []*slacklib.WebhookMessage
	err  error
}

func (c *capturePoster) post(_ context.Context, url string, msg *slacklib.WebhookMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, url)
	c.msgs = append(c.msgs, msg)
	return c.err
}

func invocation(feature domain.Feature) *domain.DisabledInvocation {
	return &domain.DisabledInvocation{
		ID:        uuid.New(),
		Feature:   feature,
		RequestID: "req-1",
		Message:   feature.Disabled().Message,
		CreatedAt: time.Now(),
	}
}

const webhook = "https://hooks.slack.com/services/T000/B000/XXX"

func TestSlackAlerter_FirstCallAlerts(t *testing.T) {
	t.Parallel()

	cp := &capturePoster{}
	a := notify.NewSlackAlerterWithPoster(webhook, time.Hour, cp.post)

	require.NoError(t, a.Record(context.Background(), invocation(domain.FeatureWordExport)))

	require.Len(t, cp.msgs, 1)
	assert.Equal(t, webhook, cp.urls[0])
	assert.Contains(t, cp.msgs[0].Text, "`word_export` was called but is disabled")
	assert.Contains(t, cp.msgs[0].Text, "Word export functionality is not available.")
	assert.Contains(t, cp.msgs[0].Text, "(request req-1)")
}

func TestSlackAlerter_ThrottlesPerFeature(t *testing.T) {
	t.Parallel()

	cp := &capturePoster{}
	a := notify.NewSlackAlerterWithPoster(webhook, time.Hour, cp.post)
	ctx := context.Background()

	for range 5 {
		require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordExport)))
	}
	require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordDocument)))

	require.Len(t, cp.msgs, 2)
	assert.Contains(t, cp.msgs[0].Text, "word_export")
	assert.Contains(t, cp.msgs[1].Text, "word_document")
}

func TestSlackAlerter_ReportsSuppressedCalls(t *testing.T) {
	t.Parallel()

	cp := &capturePoster{}
	a := notify.NewSlackAlerterWithPoster(webhook, 50*time.Millisecond, cp.post)
	ctx := context.Background()

	require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordExport)))
	require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordExport)))
	require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordExport)))

	time.Sleep(120 * time.Millisecond)

	require.NoError(t, a.Record(ctx, invocation(domain.FeatureWordExport)))

	require.Len(t, cp.msgs, 2)
	assert.NotContains(t, cp.msgs[0].Text, "more call(s)")
	assert.Contains(t, cp.msgs[1].Text, "2 more call(s) since the previous alert.")
}

func TestSlackAlerter_PostError(t *testing.T) {
	t.Parallel()

	cp := &capturePoster{err: errors.New("slack: 500")}
	a := notify.NewSlackAlerterWithPoster(webhook, time.Hour, cp.post)

	err := a.Record(context.Background(), invocation(domain.FeatureWordDocument))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify.SlackAlerter.Record")
}
