package ws

import "encoding/json"

// Inbound event names.
const (
	MsgStartSession = "start-session"
	MsgJoinSession  = "join-session"
	MsgLeaveSession = "leave-session"
	MsgEndSession   = "end-session"
	MsgOffer        = "webrtc-offer"
	MsgAnswer       = "webrtc-answer"
	MsgICECandidate = "webrtc-ice-candidate"
	MsgListSessions = "list-sessions"
	MsgPing         = "ping"
)

type startSessionMsg struct {
	StreamID    string `json:"streamId" validate:"required"`
	StreamKey   string `json:"streamKey" validate:"required"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type joinSessionMsg struct {
	StreamID string `json:"streamId" validate:"required"`
}

type leaveSessionMsg struct {
	StreamID string `json:"streamId" validate:"required"`
}

type endSessionMsg struct {
	StreamID  string `json:"streamId" validate:"required"`
	StreamKey string `json:"streamKey" validate:"required"`
}

// relayMsg carries an offer/answer/candidate. Payload is opaque to the
// relay and forwarded verbatim.
type relayMsg struct {
	StreamID string          `json:"streamId" validate:"required"`
	TargetID string          `json:"targetId" validate:"required"`
	Payload  json.RawMessage `json:"payload"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
