package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// handshakeBudget bounds the Handshake phase and every blocking inbound
// read during Login/Configuration.
const handshakeBudget = 5 * time.Second

// teleportBudget bounds how long a pending teleport waits for its
// ConfirmTeleportS.
const teleportBudget = 5 * time.Second

// keepAliveInterval is the minimum spacing between two outbound keepalives.
const keepAliveInterval = 10 * time.Second

// keepAliveGrace is how many missed rounds are tolerated (2, i.e. 20s)
// before a connection is kicked for an unanswered/mismatched keepalive.
const keepAliveGrace = 2

// teleportState is Clear when Pending is false; otherwise it names the one
// outstanding teleport id and when it was sent.
type teleportState struct {
	Pending bool
	ID      int32
	SentAt  time.Time
}

// window is an open container session.
type window struct {
	ID    uint8
	Kind  int32
	Title string
}

// Connection is one TCP socket and its protocol state machine.
// Per-field locks are leaf locks, each guarding a single field with its own
// getter/setter: no operation ever holds two at once.
type Connection struct {
	ID      uint16
	LogID   xid.ID
	state   *State
	conn    net.Conn
	log     *slog.Logger
	decoder *protocol.Decoder

	writeMu sync.Mutex

	phaseMu sync.RWMutex
	phase   protocol.Phase

	identityMu sync.Mutex
	playerUUID uuid.UUID
	playerName string

	posMu      sync.Mutex
	x, y, z    float64
	yaw, pitch float32

	teleportMu sync.Mutex
	teleport   teleportState

	keepAliveMu       sync.Mutex
	lastKeepAliveID   int64
	lastKeepAliveSent time.Time
	awaitingKeepAlive bool
	missedKeepAlives  int

	windowMu     sync.Mutex
	nextWindowID uint8
	openWindow   *window

	queueMu sync.Mutex
	queue   []protocol.Frame

	disconnectMu     sync.Mutex
	disconnected     bool
	disconnectReason error

	done chan struct{}
}

// NewConnection wraps an accepted socket in a fresh Connection.
func NewConnection(conn net.Conn, id uint16, state *State) *Connection {
	logID := xid.New()
	return &Connection{
		ID:           id,
		LogID:        logID,
		state:        state,
		conn:         conn,
		log:          state.Log.With("conn_id", id, "log_id", logID.String()),
		decoder:      protocol.NewDecoder(),
		phase:        protocol.PhaseHandshake,
		nextWindowID: 1,
		done:         make(chan struct{}),
	}
}

// -- phase ------------------------------------------------------------------

func (c *Connection) Phase() protocol.Phase {
	c.phaseMu.RLock()
	defer c.phaseMu.RUnlock()
	return c.phase
}

func (c *Connection) setPhase(p protocol.Phase) {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	c.phase = p
}

// -- identity -----------------------------------------------------------------

func (c *Connection) Identity() (uuid.UUID, string) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	return c.playerUUID, c.playerName
}

func (c *Connection) setIdentity(id uuid.UUID, name string) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	c.playerUUID = id
	c.playerName = name
}

// -- position -----------------------------------------------------------------

func (c *Connection) Position() (x, y, z float64, yaw, pitch float32) {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	return c.x, c.y, c.z, c.yaw, c.pitch
}

func (c *Connection) SetPosition(x, y, z float64, yaw, pitch float32) {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	c.x, c.y, c.z, c.yaw, c.pitch = x, y, z, yaw, pitch
}

// -- teleport -----------------------------------------------------------------

func (c *Connection) Teleport() teleportState {
	c.teleportMu.Lock()
	defer c.teleportMu.Unlock()
	return c.teleport
}

func (c *Connection) setPendingTeleport(id int32, sentAt time.Time) {
	c.teleportMu.Lock()
	defer c.teleportMu.Unlock()
	c.teleport = teleportState{Pending: true, ID: id, SentAt: sentAt}
}

func (c *Connection) clearTeleport() {
	c.teleportMu.Lock()
	defer c.teleportMu.Unlock()
	c.teleport = teleportState{}
}

// -- window -----------------------------------------------------------------

// allocWindowID draws the next container window id: starts at 1,
// increments wrapping, and resets to 1 rather than 0 whenever it wraps,
// since 0 is reserved for the player inventory.
func (c *Connection) allocWindowID() uint8 {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	id := c.nextWindowID
	c.nextWindowID++
	if c.nextWindowID == 0 {
		c.nextWindowID = 1
	}
	return id
}

func (c *Connection) setOpenWindow(w *window) {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	c.openWindow = w
}

func (c *Connection) OpenWindow() *window {
	c.windowMu.Lock()
	defer c.windowMu.Unlock()
	return c.openWindow
}

// -- keepalive ----------------------------------------------------------------

// dueForKeepAlive reports whether at least keepAliveInterval has passed
// since the last keepalive was sent, with at most one in flight.
func (c *Connection) dueForKeepAlive(now time.Time) bool {
	c.keepAliveMu.Lock()
	defer c.keepAliveMu.Unlock()
	if c.awaitingKeepAlive {
		return false
	}
	return now.Sub(c.lastKeepAliveSent) >= keepAliveInterval
}

func (c *Connection) markKeepAliveSent(id int64, now time.Time) {
	c.keepAliveMu.Lock()
	defer c.keepAliveMu.Unlock()
	c.lastKeepAliveID = id
	c.lastKeepAliveSent = now
	c.awaitingKeepAlive = true
}

// observeKeepAliveReply validates a client KeepAliveS reply against the
// last-sent id, returning an error when the reply doesn't match.
func (c *Connection) observeKeepAliveReply(id int64) error {
	c.keepAliveMu.Lock()
	defer c.keepAliveMu.Unlock()
	if !c.awaitingKeepAlive {
		// Late/unsolicited reply: tolerated, an absent reply is not
		// immediately fatal.
		return nil
	}
	if id != c.lastKeepAliveID {
		return fmt.Errorf("%w: expected %d, got %d", ErrKeepAliveTimedOut, c.lastKeepAliveID, id)
	}
	c.awaitingKeepAlive = false
	c.missedKeepAlives = 0
	return nil
}

// checkKeepAliveTimeout bumps the missed-round counter when a keepalive has
// been outstanding for more than one full interval, and reports whether the
// connection has exceeded its grace period.
func (c *Connection) checkKeepAliveTimeout(now time.Time) bool {
	c.keepAliveMu.Lock()
	defer c.keepAliveMu.Unlock()
	if !c.awaitingKeepAlive {
		return false
	}
	if now.Sub(c.lastKeepAliveSent) <= keepAliveInterval {
		return false
	}
	c.missedKeepAlives++
	c.awaitingKeepAlive = false
	return c.missedKeepAlives > keepAliveGrace
}

// -- disconnect state -----------------------------------------------------

func (c *Connection) markDisconnected(reason error) {
	c.disconnectMu.Lock()
	defer c.disconnectMu.Unlock()
	if !c.disconnected {
		c.disconnected = true
		c.disconnectReason = reason
	}
}

func (c *Connection) IsDisconnected() bool {
	c.disconnectMu.Lock()
	defer c.disconnectMu.Unlock()
	return c.disconnected
}

// -- inbound queue: single producer, single consumer, FIFO ------------------

func (c *Connection) enqueue(f protocol.Frame) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.queue = append(c.queue, f)
}

// DrainQueue removes and returns every frame queued since the last drain,
// in arrival order.
func (c *Connection) DrainQueue() []protocol.Frame {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	if len(c.queue) == 0 {
		return nil
	}
	out := c.queue
	c.queue = nil
	return out
}

// -- wire I/O -----------------------------------------------------------------

// write serializes body under meta's resolved numeric id and writes the
// framed packet to the socket. The write mutex serializes concurrent
// writers so outbound packets are delivered in the order written.
func (c *Connection) write(meta protocol.PacketMeta, body []byte) error {
	id, ok := c.state.Registry.ProtocolID(meta.Phase, meta.Direction, meta.SymbolicID)
	if !ok {
		return fmt.Errorf("server: no registry entry for %s/%s/%s", meta.Phase, meta.Direction, meta.SymbolicID)
	}
	frame := protocol.EncodeFrame(id, body)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}

// writeRaw writes already-framed bytes straight to the socket, for the
// startup-built registry/tag blobs that bundle several distinct packets
// into one buffer.
func (c *Connection) writeRaw(framed []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(framed)
	return err
}

// readFrameDirect performs one blocking, deadline-bounded read cycle: it
// keeps reading off the socket and feeding the decoder until a complete
// frame is available, the deadline elapses, or the socket errors. Used for
// the synchronous request/response exchanges of Handshake/Status/Login/
// Configuration and the initial spawn teleport, before the inbound read
// loop takes over for Play.
func (c *Connection) readFrameDirect(budget time.Duration) (*protocol.Frame, error) {
	deadline := time.Now().Add(budget)
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	defer c.conn.SetReadDeadline(time.Time{})

	var buf [4096]byte
	for {
		frame, err := c.decoder.Next()
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		if frame != nil {
			return frame, nil
		}
		n, err := c.conn.Read(buf[:])
		if n > 0 {
			c.decoder.Feed(buf[:n])
			continue
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil, ErrHandshakeTimeout
			}
			return nil, err
		}
	}
}

// decodeDirect reads one frame with readFrameDirect and decodes it as T,
// validating the frame's id against meta.
func decodeDirect[T any](c *Connection, budget time.Duration, meta protocol.PacketMeta, decode func([]byte) (T, int, error)) (T, error) {
	var zero T
	frame, err := c.readFrameDirect(budget)
	if err != nil {
		return zero, err
	}
	return protocol.DecodeAs(c.state.Registry, meta, frame, decode)
}

// startInboundLoop spawns the background task that continually decodes
// frames off the socket and enqueues them for the tick loop, from the
// moment Play begins onward. It terminates cleanly on EOF/transport
// failure, marking the connection disconnected.
func (c *Connection) startInboundLoop() {
	go func() {
		defer close(c.done)
		var buf [4096]byte
		for {
			frame, err := c.decoder.Next()
			if err != nil {
				c.markDisconnected(fmt.Errorf("server: %w", err))
				return
			}
			if frame != nil {
				c.enqueue(*frame)
				continue
			}
			n, err := c.conn.Read(buf[:])
			if n > 0 {
				c.decoder.Feed(buf[:n])
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					c.markDisconnected(nil)
				} else {
					c.markDisconnected(err)
				}
				return
			}
		}
	}()
}

// Close sends a best-effort disconnect reason when reason is non-empty and
// the phase supports one, then closes the socket. A bare transport failure
// observed elsewhere calls Close with an empty reason, so the socket just
// closes.
func (c *Connection) Close(reason string) {
	if reason != "" {
		switch c.Phase() {
		case protocol.PhaseLogin:
			body := protocol.EncodeDisconnectLoginC(protocol.DisconnectLoginC{Reason: reason})
			_ = c.write(protocol.DisconnectLoginCMeta, body)
		case protocol.PhasePlay:
			body := protocol.EncodeDisconnectPlayC(protocol.DisconnectPlayC{Reason: reason})
			_ = c.write(protocol.DisconnectPlayCMeta, body)
		}
	}
	_ = c.conn.Close()
}

// WaitDone blocks until the inbound read loop has exited (EOF or error),
// or ctx is canceled.
func (c *Connection) WaitDone(ctx context.Context) {
	select {
	case <-c.done:
	case <-ctx.Done():
	}
}
