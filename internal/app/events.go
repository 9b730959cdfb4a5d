package app

import (
	"encoding/json"

	"github.com/avezina/liveshop/internal/domain"
)

// Event names emitted by the server.
const (
	EvSessionStarted = "session-started"
	EvSessionJoined  = "session-joined"
	EvViewerJoined   = "viewer-joined"
	EvViewerLeft     = "viewer-left"
	EvSessionEnded   = "session-ended"
	EvSessionList    = "session-list"
)

type sessionStartedEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
}

type sessionJoinedEvent struct {
	Type        string          `json:"type"`
	StreamID    domain.StreamID `json:"streamId"`
	StreamerID  domain.ConnID   `json:"streamerId"`
	ViewerCount int             `json:"viewerCount"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
}

type viewerJoinedEvent struct {
	Type        string        `json:"type"`
	ViewerID    domain.ConnID `json:"viewerId"`
	ViewerCount int           `json:"viewerCount"`
}

type viewerLeftEvent struct {
	Type        string        `json:"type"`
	ViewerID    domain.ConnID `json:"viewerId"`
	ViewerCount int           `json:"viewerCount"`
}

type sessionEndedEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
}

type sessionListEvent struct {
	Type    string                 `json:"type"`
	Streams []domain.StreamSummary `json:"streams"`
}

// relayedEvent wraps a forwarded signaling payload with the sender's
// identity. Payload stays opaque to the relay.
type relayedEvent struct {
	Type     string          `json:"type"`
	StreamID domain.StreamID `json:"streamId"`
	FromID   domain.ConnID   `json:"fromId"`
	Payload  json.RawMessage `json:"payload"`
}
