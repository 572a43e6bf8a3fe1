package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/docexport/internal/domain"
)

// Subscriber streams the rejected calls of one feature.
// *redis.Bus satisfies this interface.
type Subscriber interface {
	Invocations(ctx context.Context, feature domain.Feature) (<-chan *domain.DisabledInvocation, func(), error)
}

// Hub streams rejected calls to WebSocket clients.
type Hub struct {
	subscriber Subscriber
}

func NewHub(subscriber Subscriber) *Hub {
	return &Hub{subscriber: subscriber}
}

// ServeFeature handles WebSocket connections for a feature's rejected calls.
// Each invocation is sent as one JSON text message.
func (h *Hub) ServeFeature(w http.ResponseWriter, r *http.Request) {
	feature := domain.Feature(chi.URLParam(r, "feature"))
	if _, err := domain.StatusOf(feature); err != nil {
		http.Error(w, "unknown feature", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	// CloseRead discards client frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	invocations, cleanup, err := h.subscriber.Invocations(ctx, feature)
	if err != nil {
		log.Error().Err(err).Str("feature", string(feature)).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case inv, ok := <-invocations:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			if writeErr := wsjson.Write(ctx, conn, inv); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
