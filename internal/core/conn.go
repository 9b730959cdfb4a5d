package core

import "github.com/avezina/liveshop/internal/domain"

// Frame is a raw JSON payload sent to a client.
type Frame []byte

// ClientConn abstracts a client's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type ClientConn interface {
	ID() domain.ConnID
	TrySend(Frame) error
	Close()
}
