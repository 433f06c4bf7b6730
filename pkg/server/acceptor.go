package server

import (
	"context"
	"errors"
	"net"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// Acceptor binds a listener and spawns one connection task per accepted
// socket, gated by the admission semaphore.
type Acceptor struct {
	state    *State
	listener *net.TCPListener
}

// Listen binds cfg.ListenAddress(). Run enables TCP_NODELAY on each
// accepted socket.
func Listen(state *State) (*Acceptor, error) {
	addr, err := net.ResolveTCPAddr("tcp", state.Config.ListenAddress())
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Acceptor{state: state, listener: ln}, nil
}

// Run accepts connections until ctx is canceled or the listener errors.
func (a *Acceptor) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = a.listener.Close()
	}()

	for {
		conn, err := a.listener.AcceptTCP()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		_ = conn.SetNoDelay(true)

		if err := a.state.Admission.Acquire(ctx, 1); err != nil {
			_ = conn.Close()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		id := a.state.NextConnectionID()
		go a.serve(ctx, conn, id)
	}
}

// serve runs one connection's state machine end to end, always releasing
// its admission permit on exit unless it successfully reached Play (the
// tick loop's evict path releases the permit for those instead).
func (a *Acceptor) serve(ctx context.Context, conn net.Conn, id uint16) {
	c := NewConnection(conn, id, a.state)

	err := c.Run(ctx)
	if err == nil && c.Phase() == protocol.PhasePlay {
		// Reached Play and was published to the tick loop; the tick loop
		// now owns this connection's permit and lifecycle.
		return
	}
	if err == nil {
		// A completed Status exchange: nothing was handed to the tick loop.
		_ = c.conn.Close()
		a.state.Admission.Release(1)
		return
	}

	reason := "protocol error"
	if isProtocolTimeout(err) {
		reason = "timed out"
	}
	a.state.Log.Info("connection closed before Play", "conn_id", id, "err", err)
	c.Close(reason)
	a.state.Admission.Release(1)
}

func isProtocolTimeout(err error) bool {
	return errors.Is(err, ErrHandshakeTimeout) || errors.Is(err, ErrTeleportTimedOut)
}

// Addr returns the bound listener address (logged at startup).
func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}
