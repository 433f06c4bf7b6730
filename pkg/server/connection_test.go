package server

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

func testState(t *testing.T) *State {
	t.Helper()
	reg, err := protocol.NewRegistry()
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewState(DefaultConfig(), reg, RegistryCache{}, WorldCache{}, nil, log)
}

func newTestConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	c := NewConnection(serverConn, 1, testState(t))
	return c, clientConn
}

func TestConnectionPhaseDefaultsToHandshake(t *testing.T) {
	c, _ := newTestConnection(t)
	assert.Equal(t, protocol.PhaseHandshake, c.Phase())
	c.setPhase(protocol.PhasePlay)
	assert.Equal(t, protocol.PhasePlay, c.Phase())
}

func TestConnectionPositionRoundTrips(t *testing.T) {
	c, _ := newTestConnection(t)
	c.SetPosition(1, 2, 3, 0.5, 1.5)
	x, y, z, yaw, pitch := c.Position()
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	assert.Equal(t, 3.0, z)
	assert.Equal(t, float32(0.5), yaw)
	assert.Equal(t, float32(1.5), pitch)
}

func TestConnectionTeleportLifecycle(t *testing.T) {
	c, _ := newTestConnection(t)
	assert.False(t, c.Teleport().Pending)

	now := time.Now()
	c.setPendingTeleport(7, now)
	ts := c.Teleport()
	assert.True(t, ts.Pending)
	assert.Equal(t, int32(7), ts.ID)

	c.clearTeleport()
	assert.False(t, c.Teleport().Pending)
}

func TestConnectionAllocWindowIDWrapsSkippingZero(t *testing.T) {
	c, _ := newTestConnection(t)
	c.nextWindowID = 255
	first := c.allocWindowID()
	second := c.allocWindowID()
	assert.Equal(t, uint8(255), first)
	assert.Equal(t, uint8(1), second)
}

func TestConnectionKeepAliveDueAndTimeout(t *testing.T) {
	c, _ := newTestConnection(t)
	now := time.Now()

	assert.True(t, c.dueForKeepAlive(now))
	c.markKeepAliveSent(42, now)
	assert.False(t, c.dueForKeepAlive(now))

	later := now.Add(keepAliveInterval + time.Millisecond)
	assert.False(t, c.checkKeepAliveTimeout(later))

	require.NoError(t, c.observeKeepAliveReply(42))
	assert.False(t, c.dueForKeepAlive(now))
}

func TestConnectionKeepAliveMismatchedReplyErrors(t *testing.T) {
	c, _ := newTestConnection(t)
	now := time.Now()
	c.markKeepAliveSent(1, now)
	err := c.observeKeepAliveReply(2)
	assert.ErrorIs(t, err, ErrKeepAliveTimedOut)
}

func TestConnectionKeepAliveGraceExpires(t *testing.T) {
	c, _ := newTestConnection(t)
	now := time.Now()
	overdue := now.Add(keepAliveInterval + time.Second)

	// Each missed round re-arms awaitingKeepAlive via markKeepAliveSent, the
	// way the tick loop re-sends on the next due cycle; only after exceeding
	// keepAliveGrace rounds does checkKeepAliveTimeout report true.
	var timedOut bool
	for i := 0; i <= keepAliveGrace; i++ {
		c.markKeepAliveSent(int64(i), now)
		timedOut = c.checkKeepAliveTimeout(overdue)
	}
	assert.True(t, timedOut)
}

func TestConnectionQueueDrainsInOrder(t *testing.T) {
	c, _ := newTestConnection(t)
	c.enqueue(protocol.Frame{ID: 1})
	c.enqueue(protocol.Frame{ID: 2})

	got := c.DrainQueue()
	require.Len(t, got, 2)
	assert.Equal(t, int32(1), got[0].ID)
	assert.Equal(t, int32(2), got[1].ID)
	assert.Empty(t, c.DrainQueue())
}

func TestConnectionWriteAndReadFrameRoundTrip(t *testing.T) {
	c, clientConn := newTestConnection(t)
	c.setPhase(protocol.PhasePlay)

	done := make(chan error, 1)
	go func() {
		done <- c.write(protocol.KeepAliveCMeta, protocol.EncodeKeepAliveC(protocol.KeepAliveC{ID: 99}))
	}()

	buf := make([]byte, 64)
	n, err := clientConn.Read(buf)
	require.NoError(t, err)
	require.NoError(t, <-done)

	d := protocol.NewDecoder()
	d.Feed(buf[:n])
	frame, err := d.Next()
	require.NoError(t, err)
	require.NotNil(t, frame)

	wantID, _ := c.state.Registry.ProtocolID(protocol.PhasePlay, protocol.Clientbound, "keep_alive")
	assert.Equal(t, wantID, frame.ID)

	gotID, _, err := protocol.ReadInt64(frame.Body)
	require.NoError(t, err)
	assert.Equal(t, int64(99), gotID)
}

func TestConnectionDisconnectedState(t *testing.T) {
	c, _ := newTestConnection(t)
	assert.False(t, c.IsDisconnected())
	c.markDisconnected(ErrKeepAliveTimedOut)
	assert.True(t, c.IsDisconnected())
}

