package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

func newTickTestConnection(t *testing.T, state *State, id uint16) (*Connection, net.Conn) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	c := NewConnection(serverConn, id, state)
	c.setPhase(protocol.PhasePlay)
	return c, clientConn
}

func drainAsync(t *testing.T, conn net.Conn) {
	t.Helper()
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()
}

func TestTickAdmitNewPlayersAddsToLiveMapAndCountsPlayer(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	c, clientConn := newTickTestConnection(t, state, 1)
	drainAsync(t, clientConn)

	state.NewPlayers <- c
	tick.admitNewPlayers()

	assert.Equal(t, c, tick.live[1])
	assert.Eventually(t, func() bool { return state.PlayersOnline() == 1 }, time.Second, time.Millisecond)
}

func TestTickAdmitNewPlayersDoesNotBlockWhenEmpty(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	tick.admitNewPlayers()
	assert.Empty(t, tick.live)
}

func TestTickStepConnectionSendsKeepAliveWhenDue(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	c, clientConn := newTickTestConnection(t, state, 1)

	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		_, err := clientConn.Read(buf)
		done <- err
	}()

	now := time.Now()
	err := tick.stepConnection(c, now)
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.False(t, c.dueForKeepAlive(now))
}

func TestTickStepConnectionReturnsErrorWhenTransportClosed(t *testing.T) {
	state := testState(t)
	c, clientConn := newTickTestConnection(t, state, 1)
	clientConn.Close()
	c.markDisconnected(ErrKeepAliveTimedOut)

	tick := NewTick(state)
	err := tick.stepConnection(c, time.Now())
	assert.Error(t, err)
}

func TestTickStepConnectionTimesOutStalePendingTeleport(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	c, clientConn := newTickTestConnection(t, state, 1)
	drainAsync(t, clientConn)

	past := time.Now().Add(-teleportBudget - time.Second)
	c.setPendingTeleport(1, past)
	c.markKeepAliveSent(1, time.Now())

	err := tick.stepConnection(c, time.Now())
	assert.ErrorIs(t, err, ErrTeleportTimedOut)
}

func TestTickStepConnectionDispatchesQueuedFrames(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	c, clientConn := newTickTestConnection(t, state, 1)
	drainAsync(t, clientConn)
	c.markKeepAliveSent(1, time.Now())

	c.enqueue(protocol.Frame{ID: 99999})

	err := tick.stepConnection(c, time.Now())
	assert.NoError(t, err)
}

func TestEvictionReasonMapsSentinelErrors(t *testing.T) {
	assert.Equal(t, "keepalive_timeout", evictionReason(ErrKeepAliveTimedOut))
	assert.Equal(t, "teleport_timeout", evictionReason(ErrTeleportTimedOut))
	assert.Equal(t, "teleport_mismatch", evictionReason(ErrTeleportWrongID))
	assert.Equal(t, "transport", evictionReason(errTransportClosedHelper()))
	assert.Equal(t, "protocol_error", evictionReason(ErrUnknownPacket))
}

func errTransportClosedHelper() error {
	return &transportClosedErr{}
}

type transportClosedErr struct{}

func (e *transportClosedErr) Error() string { return "transport closed" }

func TestTickEvictRemovesFromLiveMapAndReleasesPermit(t *testing.T) {
	state := testState(t)
	require.NoError(t, state.Admission.Acquire(context.Background(), 1))
	tick := NewTick(state)
	c, clientConn := newTickTestConnection(t, state, 1)
	drainAsync(t, clientConn)

	state.NewPlayers <- c
	tick.admitNewPlayers()
	assert.Eventually(t, func() bool { return state.PlayersOnline() == 1 }, time.Second, time.Millisecond)

	tick.evict(1, ErrKeepAliveTimedOut)

	_, ok := tick.live[1]
	assert.False(t, ok)
	assert.Equal(t, int64(0), state.PlayersOnline())
}

func TestTickEvictIsNoOpForUnknownID(t *testing.T) {
	state := testState(t)
	tick := NewTick(state)
	tick.evict(42, ErrKeepAliveTimedOut)
	assert.Empty(t, tick.live)
}
