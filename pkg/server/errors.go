package server

import "errors"

// Connection lifecycle errors.
var (
	ErrHandshakeTimeout  = errors.New("server: handshake did not complete within the time budget")
	ErrInvalidNextState  = errors.New("server: handshake requested an unsupported next state")
	ErrUnknownPacket     = errors.New("server: unknown packet id for the current phase")
	ErrTeleportTimedOut  = errors.New("server: teleport acknowledgement timed out")
	ErrTeleportWrongID   = errors.New("server: teleport acknowledgement id did not match the pending teleport")
	ErrKeepAliveTimedOut = errors.New("server: connection missed too many keepalive rounds")
	ErrAdmissionClosed   = errors.New("server: admission semaphore is closed, acceptor is shutting down")
)
