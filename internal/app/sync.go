package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/domain"
)

// StreamStore is the persisted system-of-record for stream sessions.
// The registry stays a soft cache of who is currently attached; the
// store keeps the durable status/timestamps keyed by stream key.
type StreamStore interface {
	MarkLive(ctx context.Context, key domain.StreamKey) error
	MarkEnded(ctx context.Context, key domain.StreamKey) error
}

// markLive updates the persisted record after the in-memory session is
// already visible. Failures are logged, never rolled back: the
// real-time path favors availability over persisted accuracy.
func (o *Orchestrator) markLive(ctx context.Context, key domain.StreamKey) {
	if o.Store == nil {
		return
	}
	if err := o.Store.MarkLive(ctx, key); err != nil {
		log.Error().Err(err).Str("module", "app.sync").Str("key", string(key)).Msg("mark live failed")
	}
}

func (o *Orchestrator) markEnded(ctx context.Context, key domain.StreamKey) {
	if o.Store == nil {
		return
	}
	if err := o.Store.MarkEnded(ctx, key); err != nil {
		log.Error().Err(err).Str("module", "app.sync").Str("key", string(key)).Msg("mark ended failed")
	}
}
