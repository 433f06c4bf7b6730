package protocol

import "bytes"

// Next-state values carried by HandshakeS.
const (
	NextStateStatus    = 1
	NextStateLogin     = 2
	NextStateTransfer  = 3
)

// HandshakeS is the first packet of any connection: protocol version,
// claimed server address/port, and the state the client wants to move to.
type HandshakeS struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

var HandshakeSMeta = PacketMeta{PhaseHandshake, Serverbound, "handshake"}

func DecodeHandshakeS(buf []byte) (HandshakeS, int, error) {
	pos := 0
	version, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return HandshakeS{}, 0, err
	}
	pos += n

	addr, n, err := ReadString(buf[pos:], 255)
	if err != nil {
		return HandshakeS{}, 0, err
	}
	pos += n

	port, n, err := ReadUint16(buf[pos:])
	if err != nil {
		return HandshakeS{}, 0, err
	}
	pos += n

	next, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return HandshakeS{}, 0, err
	}
	pos += n

	return HandshakeS{
		ProtocolVersion: version,
		ServerAddress:   addr,
		ServerPort:      port,
		NextState:       next,
	}, pos, nil
}

func EncodeHandshakeS(p HandshakeS) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, p.ProtocolVersion)
	WriteString(&w, p.ServerAddress)
	WriteUint16(&w, p.ServerPort)
	WriteVarInt(&w, p.NextState)
	return w.Bytes()
}
