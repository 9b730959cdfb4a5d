package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avezina/liveshop/internal/domain"
)

type stubConn struct {
	id domain.ConnID
}

func (c *stubConn) ID() domain.ConnID   { return c.id }
func (c *stubConn) TrySend(Frame) error { return nil }
func (c *stubConn) Close()              {}

func conn(id string) *stubConn { return &stubConn{id: domain.ConnID(id)} }

func TestCreateDuplicateStreamID(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))
	err := r.Create("s1", "k2", "", "", conn("b"))
	assert.ErrorIs(t, err, domain.ErrStreamExists)

	// After removal the ID is free again.
	r.Remove("s1")
	assert.NoError(t, r.Create("s1", "k2", "", "", conn("b")))
}

func TestViewerCountDerivedFromSet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))

	count, err := r.AddViewer("s1", conn("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Re-adding the same viewer is set semantics, not a counter bump.
	count, err = r.AddViewer("s1", conn("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = r.AddViewer("s1", conn("c"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	snap, ok := r.Snapshot("s1")
	require.True(t, ok)
	assert.Equal(t, 2, snap.ViewerCount)

	assert.Equal(t, 1, r.RemoveViewer("s1", "b"))
	snap, _ = r.Snapshot("s1")
	assert.Equal(t, 1, snap.ViewerCount)
}

func TestAddViewerUnknownStream(t *testing.T) {
	r := NewRegistry()
	_, err := r.AddViewer("nope", conn("b"))
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestStreamerCannotViewOwnStream(t *testing.T) {
	r := NewRegistry()
	a := conn("a")
	require.NoError(t, r.Create("s1", "k1", "", "", a))

	count, err := r.AddViewer("s1", a)
	assert.ErrorIs(t, err, domain.ErrOwnStream)
	assert.Equal(t, 0, count)
}

func TestRemoveViewerIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))
	_, err := r.AddViewer("s1", conn("b"))
	require.NoError(t, err)

	assert.Equal(t, 0, r.RemoveViewer("s1", "b"))
	assert.Equal(t, 0, r.RemoveViewer("s1", "b"))
	// Removing from an absent stream is also a no-op.
	assert.Equal(t, 0, r.RemoveViewer("gone", "b"))
}

func TestRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))
	r.Remove("s1")
	r.Remove("s1")
	_, ok := r.Snapshot("s1")
	assert.False(t, ok)
}

func TestAttachmentsOf(t *testing.T) {
	r := NewRegistry()
	a, b := conn("a"), conn("b")
	require.NoError(t, r.Create("s1", "k1", "", "", a))
	require.NoError(t, r.Create("s2", "k2", "", "", conn("c")))

	_, err := r.AddViewer("s1", b)
	require.NoError(t, err)
	_, err = r.AddViewer("s2", b)
	require.NoError(t, err)

	atts := r.AttachmentsOf("b")
	require.Len(t, atts, 2)
	for _, att := range atts {
		assert.Equal(t, domain.RoleViewer, att.Role)
	}

	atts = r.AttachmentsOf("a")
	require.Len(t, atts, 1)
	assert.Equal(t, domain.RoleStreamer, atts[0].Role)
	assert.Equal(t, domain.StreamID("s1"), atts[0].StreamID)

	assert.Empty(t, r.AttachmentsOf("nobody"))
}

func TestParticipantMembershipCheck(t *testing.T) {
	r := NewRegistry()
	a, b := conn("a"), conn("b")
	require.NoError(t, r.Create("s1", "k1", "", "", a))
	_, err := r.AddViewer("s1", b)
	require.NoError(t, err)

	got, ok := r.Participant("s1", "a")
	require.True(t, ok)
	assert.Equal(t, a, got)

	got, ok = r.Participant("s1", "b")
	require.True(t, ok)
	assert.Equal(t, b, got)

	// Connected but not a member of this stream.
	_, ok = r.Participant("s1", "intruder")
	assert.False(t, ok)

	_, ok = r.Participant("missing", "a")
	assert.False(t, ok)
}

func TestListActive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "Sneaker drop", "limited", conn("a")))
	require.NoError(t, r.Create("s2", "k2", "", "", conn("b")))
	_, err := r.AddViewer("s1", conn("c"))
	require.NoError(t, err)

	list := r.ListActive()
	require.Len(t, list, 2)

	byID := make(map[domain.StreamID]domain.StreamSummary, len(list))
	for _, s := range list {
		byID[s.ID] = s
	}
	assert.Equal(t, 1, byID["s1"].ViewerCount)
	assert.Equal(t, "Sneaker drop", byID["s1"].Title)
	assert.Equal(t, domain.StreamKey("k1"), byID["s1"].Key)
	assert.Equal(t, 0, byID["s2"].ViewerCount)
	assert.False(t, byID["s1"].CreatedAt.IsZero())
}

func TestListActiveOrderedByCreation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))
	require.NoError(t, r.Create("s2", "k2", "", "", conn("b")))
	require.NoError(t, r.Create("s3", "k3", "", "", conn("c")))

	want := []domain.StreamID{"s1", "s2", "s3"}
	for range 10 {
		list := r.ListActive()
		require.Len(t, list, 3)
		got := make([]domain.StreamID, 0, len(list))
		for _, s := range list {
			got = append(got, s.ID)
		}
		assert.Equal(t, want, got)
	}
}

func TestMembersIncludesStreamerAndViewers(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Create("s1", "k1", "", "", conn("a")))
	_, err := r.AddViewer("s1", conn("b"))
	require.NoError(t, err)
	_, err = r.AddViewer("s1", conn("c"))
	require.NoError(t, err)

	members := r.Members("s1")
	assert.Len(t, members, 3)

	assert.Nil(t, r.Members("missing"))
}
