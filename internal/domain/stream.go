// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

type (
	// StreamID is the caller-supplied identifier of a live session.
	StreamID string
	// StreamKey is the opaque credential correlating a session to its
	// persisted stream record.
	StreamKey string
	// ConnID identifies a single client connection.
	ConnID string
)

// Stream statuses as persisted in the external store.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusEnded     = "ended"
)

var (
	ErrStreamExists   = errors.New("stream already exists")
	ErrStreamNotFound = errors.New("stream not found")
	ErrNotParticipant = errors.New("connection is not a participant of the stream")
	ErrNotStreamOwner = errors.New("connection does not own the stream")
	ErrOwnStream      = errors.New("streamer cannot view its own stream")
)

// Role of a connection within a stream.
type Role string

const (
	RoleStreamer Role = "streamer"
	RoleViewer   Role = "viewer"
)

// Attachment records one stream a connection participates in.
type Attachment struct {
	StreamID StreamID
	Role     Role
}

// StreamSummary is a read-only view for APIs. It deliberately carries
// no connection identifiers.
type StreamSummary struct {
	ID          StreamID  `json:"streamId"`
	Key         StreamKey `json:"streamKey"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ViewerCount int       `json:"viewerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
