package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/docexport/internal/domain"
)

const invocationBuffer = 64

// Bus carries rejected calls over Redis. Every recorded invocation bumps a
// per-feature counter and is published as JSON on the feature's channel.
// It satisfies wordexport.Recorder.
type Bus struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Bus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Bus{client: client}, nil
}

func (b *Bus) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("redis.Bus.Close: %w", err)
	}
	return nil
}

func (b *Bus) Record(ctx context.Context, inv *domain.DisabledInvocation) error {
	payload, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("redis.Bus.Record: marshal: %w", err)
	}

	_, err = b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, FeatureCounterKey(inv.Feature))
		pipe.Publish(ctx, FeatureChannel(inv.Feature), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.Bus.Record: %w", err)
	}

	return nil
}

// Count returns how many calls into feature have been rejected. A feature
// that was never called counts zero.
func (b *Bus) Count(ctx context.Context, feature domain.Feature) (int64, error) {
	n, err := b.client.Get(ctx, FeatureCounterKey(feature)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis.Bus.Count: %w", err)
	}
	return n, nil
}

// Invocations streams the invocations published for feature. Payloads that
// do not decode or name another feature are dropped. The channel closes when
// ctx is done or cleanup is called.
func (b *Bus) Invocations(ctx context.Context, feature domain.Feature) (<-chan *domain.DisabledInvocation, func(), error) {
	sub := b.client.Subscribe(ctx, FeatureChannel(feature))

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.Bus.Invocations: receive confirmation: %w", err)
	}

	out := make(chan *domain.DisabledInvocation, invocationBuffer)
	messages := sub.Channel(redis.WithChannelSize(invocationBuffer))

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				inv, decodeErr := decodeInvocation(msg.Payload, feature)
				if decodeErr != nil {
					log.Debug().Err(decodeErr).Str("channel", msg.Channel).Msg("redis: drop payload")
					continue
				}
				select {
				case out <- inv:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

func decodeInvocation(payload string, feature domain.Feature) (*domain.DisabledInvocation, error) {
	var inv domain.DisabledInvocation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		return nil, fmt.Errorf("decode invocation: %w", err)
	}
	if inv.Feature != feature {
		return nil, fmt.Errorf("invocation for %q on %q channel", inv.Feature, feature)
	}
	return &inv, nil
}

// FeatureChannel returns the Redis channel that carries rejected calls into feature.
func FeatureChannel(feature domain.Feature) string {
	return "feature:" + string(feature) + ":disabled"
}

// FeatureCounterKey returns the Redis key counting rejected calls into feature.
func FeatureCounterKey(feature domain.Feature) string {
	return "feature:" + string(feature) + ":calls"
}
