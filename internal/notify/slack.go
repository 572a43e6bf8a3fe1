// Package notify alerts operators when callers keep reaching withdrawn features.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	slacklib "github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/gosuda/docexport/internal/domain"
)

// WebhookPoster abstracts slack.PostWebhookContext for testing without HTTP.
type WebhookPoster func(ctx context.Context, url string, msg *slacklib.WebhookMessage) error

type featureThrottle struct {
	limiter    *rate.Limiter
	suppressed int
}

// SlackAlerter posts at most one webhook message per feature per interval.
// Calls that arrive while throttled are counted and reported with the next
// alert. It satisfies wordexport.Recorder.
type SlackAlerter struct {
	webhookURL string
	interval   time.Duration
	post       WebhookPoster

	mu        sync.Mutex
	throttles map[domain.Feature]*featureThrottle
}

func NewSlackAlerter(webhookURL string, interval time.Duration) *SlackAlerter {
	return NewSlackAlerterWithPoster(webhookURL, interval, slacklib.PostWebhookContext)
}

func NewSlackAlerterWithPoster(webhookURL string, interval time.Duration, post WebhookPoster) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		interval:   interval,
		post:       post,
		throttles:  make(map[domain.Feature]*featureThrottle),
	}
}

func (a *SlackAlerter) Record(ctx context.Context, inv *domain.DisabledInvocation) error {
	suppressed, ok := a.admit(inv.Feature)
	if !ok {
		return nil
	}

	msg := &slacklib.WebhookMessage{
		Text: alertText(inv, suppressed),
	}
	if err := a.post(ctx, a.webhookURL, msg); err != nil {
		return fmt.Errorf("notify.SlackAlerter.Record: %w", err)
	}

	return nil
}

// admit reports whether an alert may be sent now and how many calls were
// swallowed since the previous one.
func (a *SlackAlerter) admit(feature domain.Feature) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ft, ok := a.throttles[feature]
	if !ok {
		ft = &featureThrottle{limiter: rate.NewLimiter(rate.Every(a.interval), 1)}
		a.throttles[feature] = ft
	}

	if !ft.limiter.Allow() {
		ft.suppressed++
		return 0, false
	}

	n := ft.suppressed
	ft.suppressed = 0
	return n, true
}

func alertText(inv *domain.DisabledInvocation, suppressed int) string {
	text := fmt.Sprintf("`%s` was called but is disabled: %s", inv.Feature, inv.Message)
	if inv.RequestID != "" {
		text += fmt.Sprintf(" (request %s)", inv.RequestID)
	}
	if suppressed > 0 {
		text += fmt.Sprintf("\n%d more call(s) since the previous alert.", suppressed)
	}
	return text
}
