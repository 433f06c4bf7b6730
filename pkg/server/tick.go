package server

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// Tick is the server-wide fixed-rate scheduler: it multiplexes every
// live connection's inbound queue, evicts timed-out/disconnected
// connections, and streams pre-encoded world chunks to newly joined
// players.
type Tick struct {
	state *State
	live  map[uint16]*Connection
}

// NewTick constructs the tick loop's live-player bookkeeping.
func NewTick(state *State) *Tick {
	return &Tick{state: state, live: make(map[uint16]*Connection)}
}

// Run drives the fixed-cadence loop until ctx is canceled. time.Ticker
// already coalesces ticks instead of running several back-to-back when
// the consumer falls behind.
func (t *Tick) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(t.state.Config.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.step()
		}
	}
}

func (t *Tick) step() {
	start := time.Now()

	t.admitNewPlayers()

	failing := make(map[uint16]error)
	now := time.Now()
	for id, conn := range t.live {
		if err := t.stepConnection(conn, now); err != nil {
			t.state.Log.Info("evicting connection", "conn_id", id, "reason", err)
			failing[id] = err
		}
	}
	for id, err := range failing {
		t.evict(id, err)
	}

	if t.state.Metrics != nil {
		t.state.Metrics.TicksTotal.Inc()
		t.state.Metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// admitNewPlayers drains the new-player channel without blocking and
// starts a transient job streaming the pre-encoded world to each.
func (t *Tick) admitNewPlayers() {
	for {
		select {
		case conn := <-t.state.NewPlayers:
			t.live[conn.ID] = conn
			t.state.incPlayers()
			go t.sendWorld(conn)
		default:
			return
		}
	}
}

// sendWorld streams every pre-encoded chunk packet to conn in the
// preprocessor's (x+z)-ascending order.
func (t *Tick) sendWorld(conn *Connection) {
	for _, chunk := range t.state.World.Chunks {
		if conn.IsDisconnected() {
			return
		}
		if err := conn.write(protocol.ChunkDataUpdateLightCMeta, protocol.EncodeChunkDataUpdateLightC(chunk)); err != nil {
			conn.markDisconnected(err)
			return
		}
	}
}

// stepConnection runs one tick's worth of per-player bookkeeping:
// keepalive, queued-frame dispatch, liveness, stale teleports.
func (t *Tick) stepConnection(conn *Connection, now time.Time) error {
	if conn.IsDisconnected() {
		return errors.New("transport closed")
	}

	if conn.dueForKeepAlive(now) {
		id := rand.Int63()
		if err := conn.write(protocol.KeepAliveCMeta, protocol.EncodeKeepAliveC(protocol.KeepAliveC{ID: id})); err != nil {
			return err
		}
		conn.markKeepAliveSent(id, now)
	}
	if conn.checkKeepAliveTimeout(now) {
		return ErrKeepAliveTimedOut
	}

	for _, frame := range conn.DrainQueue() {
		if err := t.state.Dispatch(conn, frame); err != nil {
			return err
		}
	}

	if ts := conn.Teleport(); ts.Pending && now.Sub(ts.SentAt) > teleportBudget {
		return ErrTeleportTimedOut
	}

	return nil
}

// evict removes id from the live map, drops its permit, and records the
// eviction reason in metrics. A server-initiated reason (protocol error,
// timeout) still gets a best-effort disconnect packet; a bare transport
// failure just closes the socket.
func (t *Tick) evict(id uint16, cause error) {
	conn, ok := t.live[id]
	if !ok {
		return
	}
	delete(t.live, id)
	t.state.decPlayers()

	reason := evictionReason(cause)
	if t.state.Metrics != nil {
		t.state.Metrics.Evictions.WithLabelValues(reason).Inc()
	}

	if reason == "transport" {
		conn.Close("")
	} else {
		conn.Close(cause.Error())
	}
	t.state.Admission.Release(1)
}

func evictionReason(err error) string {
	switch {
	case errors.Is(err, ErrKeepAliveTimedOut):
		return "keepalive_timeout"
	case errors.Is(err, ErrTeleportTimedOut):
		return "teleport_timeout"
	case errors.Is(err, ErrTeleportWrongID):
		return "teleport_mismatch"
	case err.Error() == "transport closed":
		return "transport"
	default:
		return "protocol_error"
	}
}
