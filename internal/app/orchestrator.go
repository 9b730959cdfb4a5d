package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/core"
	"github.com/avezina/liveshop/internal/domain"
)

// Orchestrator coordinates the session registry, the signaling relay
// and the persistence sync. Gateways decode inbound messages and call
// into it; it mutates registry state first, then issues store I/O.
type Orchestrator struct {
	Registry core.Registry
	Store    StreamStore
}

// StartStream registers a new session owned by conn and marks the
// persisted record live. Duplicate stream IDs yield ErrStreamExists.
func (o *Orchestrator) StartStream(ctx context.Context, conn core.ClientConn, id domain.StreamID, key domain.StreamKey, title, description string) error {
	if err := o.Registry.Create(id, key, title, description, conn); err != nil {
		return err
	}
	// Registry mutation first: the session is visible as live even
	// while the persistence write is still in flight.
	o.markLive(ctx, key)
	o.send(conn, sessionStartedEvent{Type: EvSessionStarted, StreamID: id})
	return nil
}

// JoinStream adds conn as a viewer, confirms to the viewer and
// notifies the streamer of the new count.
func (o *Orchestrator) JoinStream(conn core.ClientConn, id domain.StreamID) error {
	count, err := o.Registry.AddViewer(id, conn)
	if err != nil {
		return err
	}
	snap, ok := o.Registry.Snapshot(id)
	if !ok {
		return domain.ErrStreamNotFound
	}
	streamer, ok := o.Registry.Streamer(id)
	if !ok {
		return domain.ErrStreamNotFound
	}
	o.send(conn, sessionJoinedEvent{
		Type:        EvSessionJoined,
		StreamID:    id,
		StreamerID:  streamer.ID(),
		ViewerCount: count,
		Title:       snap.Title,
		Description: snap.Description,
	})
	o.send(streamer, viewerJoinedEvent{Type: EvViewerJoined, ViewerID: conn.ID(), ViewerCount: count})
	return nil
}

// LeaveStream removes conn from the viewer set. Leaving a stream one
// is not part of is a no-op. The session survives an empty viewer
// set; only an explicit end or streamer disconnect tears it down.
func (o *Orchestrator) LeaveStream(conn core.ClientConn, id domain.StreamID) {
	count := o.Registry.RemoveViewer(id, conn.ID())
	if streamer, ok := o.Registry.Streamer(id); ok {
		o.send(streamer, viewerLeftEvent{Type: EvViewerLeft, ViewerID: conn.ID(), ViewerCount: count})
	}
}

// EndStream tears the session down: termination broadcast to every
// member, persisted record marked ended, registry entry evicted. Only
// the owning connection presenting the matching stream key may end it.
func (o *Orchestrator) EndStream(ctx context.Context, conn core.ClientConn, id domain.StreamID, key domain.StreamKey) error {
	snap, ok := o.Registry.Snapshot(id)
	if !ok {
		return domain.ErrStreamNotFound
	}
	streamer, ok := o.Registry.Streamer(id)
	if !ok {
		return domain.ErrStreamNotFound
	}
	if streamer.ID() != conn.ID() || snap.Key != key {
		return domain.ErrNotStreamOwner
	}
	o.terminate(ctx, id, snap.Key)
	return nil
}

// Relay forwards a signaling payload to exactly one participant of the
// stream. Both sender and target must belong to the stream; a target
// gone from the membership yields ErrNotParticipant, while a member
// whose connection can no longer accept writes is dropped silently
// (best-effort delivery, no retry).
func (o *Orchestrator) Relay(conn core.ClientConn, kind string, id domain.StreamID, targetID domain.ConnID, payload json.RawMessage) error {
	if _, ok := o.Registry.Participant(id, conn.ID()); !ok {
		return domain.ErrNotParticipant
	}
	target, ok := o.Registry.Participant(id, targetID)
	if !ok {
		return domain.ErrNotParticipant
	}
	ev := relayedEvent{Type: kind, StreamID: id, FromID: conn.ID(), Payload: payload}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal relayed event")
		return nil
	}
	if err := target.TrySend(core.Frame(b)); err != nil {
		log.Debug().Str("module", "app.relay").Str("stream", string(id)).Str("target", string(targetID)).Msg("relay delivery missed")
	}
	return nil
}

// OnDisconnect cleans up every session the connection participates in.
// A disconnected streamer unconditionally ends its session, with no
// grace period; a viewer is removed and the streamer notified.
func (o *Orchestrator) OnDisconnect(ctx context.Context, conn core.ClientConn) {
	for _, att := range o.Registry.AttachmentsOf(conn.ID()) {
		switch att.Role {
		case domain.RoleStreamer:
			snap, ok := o.Registry.Snapshot(att.StreamID)
			if !ok {
				continue
			}
			log.Info().Str("module", "app.orchestrator").Str("stream", string(att.StreamID)).Msg("streamer disconnected, ending session")
			o.terminate(ctx, att.StreamID, snap.Key)
		case domain.RoleViewer:
			o.LeaveStream(conn, att.StreamID)
		}
	}
}

// ListActive returns a snapshot of all live sessions.
func (o *Orchestrator) ListActive() []domain.StreamSummary {
	return o.Registry.ListActive()
}

// SendStreamList answers a list request over the duplex connection.
func (o *Orchestrator) SendStreamList(conn core.ClientConn) {
	o.send(conn, sessionListEvent{Type: EvSessionList, Streams: o.ListActive()})
}

// terminate broadcasts session-ended to every member, evicts the
// session and finalizes the persisted record.
func (o *Orchestrator) terminate(ctx context.Context, id domain.StreamID, key domain.StreamKey) {
	for _, m := range o.Registry.Members(id) {
		o.send(m, sessionEndedEvent{Type: EvSessionEnded, StreamID: id})
	}
	o.Registry.Remove(id)
	o.markEnded(ctx, key)
}

func (o *Orchestrator) send(conn core.ClientConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orchestrator").Msg("marshal event")
		return
	}
	if err := conn.TrySend(core.Frame(b)); err != nil {
		log.Debug().Str("module", "app.orchestrator").Str("conn", string(conn.ID())).Msg("send dropped")
	}
}
