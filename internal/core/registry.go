package core

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/domain"
)

// Registry is the in-memory session store: one entry per live stream.
// It owns session state exclusively; it never touches transport
// resources beyond holding ClientConn handles for fan-out.
type Registry interface {
	Create(id domain.StreamID, key domain.StreamKey, title, description string, streamer ClientConn) error
	AddViewer(id domain.StreamID, conn ClientConn) (int, error)
	RemoveViewer(id domain.StreamID, connID domain.ConnID) int
	Remove(id domain.StreamID)

	Streamer(id domain.StreamID) (ClientConn, bool)
	Participant(id domain.StreamID, connID domain.ConnID) (ClientConn, bool)
	Members(id domain.StreamID) []ClientConn
	Snapshot(id domain.StreamID) (domain.StreamSummary, bool)
	AttachmentsOf(connID domain.ConnID) []domain.Attachment
	ListActive() []domain.StreamSummary
}

// streamState holds one live session. viewerCount is always derived
// from the viewers map, never stored separately.
type streamState struct {
	key         domain.StreamKey
	title       string
	description string
	createdAt   time.Time
	streamer    ClientConn
	viewers     map[domain.ConnID]ClientConn
}

type registryImpl struct {
	mu      sync.RWMutex
	streams map[domain.StreamID]*streamState
}

func NewRegistry() Registry {
	return &registryImpl{streams: make(map[domain.StreamID]*streamState)}
}

func (r *registryImpl) Create(id domain.StreamID, key domain.StreamKey, title, description string, streamer ClientConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.streams[id]; ok {
		return domain.ErrStreamExists
	}
	r.streams[id] = &streamState{
		key:         key,
		title:       title,
		description: description,
		createdAt:   time.Now(),
		streamer:    streamer,
		viewers:     make(map[domain.ConnID]ClientConn),
	}
	log.Info().Str("module", "core.registry").Str("stream", string(id)).Str("streamer", string(streamer.ID())).Msg("session created")
	return nil
}

func (r *registryImpl) AddViewer(id domain.StreamID, conn ClientConn) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[id]
	if !ok {
		return 0, domain.ErrStreamNotFound
	}
	// The streamer never appears in its own viewer set.
	if conn.ID() == s.streamer.ID() {
		return len(s.viewers), domain.ErrOwnStream
	}
	s.viewers[conn.ID()] = conn
	log.Info().Str("module", "core.registry").Str("stream", string(id)).Str("viewer", string(conn.ID())).Int("viewers", len(s.viewers)).Msg("viewer added")
	return len(s.viewers), nil
}

// RemoveViewer is idempotent: removing a non-member is a no-op.
func (r *registryImpl) RemoveViewer(id domain.StreamID, connID domain.ConnID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[id]
	if !ok {
		return 0
	}
	delete(s.viewers, connID)
	log.Info().Str("module", "core.registry").Str("stream", string(id)).Str("viewer", string(connID)).Int("viewers", len(s.viewers)).Msg("viewer removed")
	return len(s.viewers)
}

// Remove is idempotent: deleting an absent session is a no-op.
func (r *registryImpl) Remove(id domain.StreamID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, id)
	log.Info().Str("module", "core.registry").Str("stream", string(id)).Msg("session removed")
}

func (r *registryImpl) Streamer(id domain.StreamID) (ClientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	if !ok {
		return nil, false
	}
	return s.streamer, true
}

// Participant returns the connection only if it actually belongs to
// the stream, either as streamer or viewer.
func (r *registryImpl) Participant(id domain.StreamID, connID domain.ConnID) (ClientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	if !ok {
		return nil, false
	}
	if s.streamer.ID() == connID {
		return s.streamer, true
	}
	if v, ok := s.viewers[connID]; ok {
		return v, true
	}
	return nil, false
}

func (r *registryImpl) Members(id domain.StreamID) []ClientConn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	if !ok {
		return nil
	}
	out := make([]ClientConn, 0, len(s.viewers)+1)
	out = append(out, s.streamer)
	for _, v := range s.viewers {
		out = append(out, v)
	}
	return out
}

func (r *registryImpl) Snapshot(id domain.StreamID) (domain.StreamSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.streams[id]
	if !ok {
		return domain.StreamSummary{}, false
	}
	return summarize(id, s), true
}

func (r *registryImpl) AttachmentsOf(connID domain.ConnID) []domain.Attachment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Attachment
	for id, s := range r.streams {
		if s.streamer.ID() == connID {
			out = append(out, domain.Attachment{StreamID: id, Role: domain.RoleStreamer})
			continue
		}
		if _, ok := s.viewers[connID]; ok {
			out = append(out, domain.Attachment{StreamID: id, Role: domain.RoleViewer})
		}
	}
	return out
}

func (r *registryImpl) ListActive() []domain.StreamSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StreamSummary, 0, len(r.streams))
	for id, s := range r.streams {
		out = append(out, summarize(id, s))
	}
	// Oldest session first; ID as tiebreak keeps the order stable
	// across calls.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func summarize(id domain.StreamID, s *streamState) domain.StreamSummary {
	return domain.StreamSummary{
		ID:          id,
		Key:         s.key,
		Title:       s.title,
		Description: s.description,
		ViewerCount: len(s.viewers),
		CreatedAt:   s.createdAt,
	}
}
