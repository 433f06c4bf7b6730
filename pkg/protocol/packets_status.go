package protocol

import "bytes"

// StatusRequestS carries no fields; receiving it triggers StatusResponseC.
type StatusRequestS struct{}

var StatusRequestSMeta = PacketMeta{PhaseStatus, Serverbound, "status_request"}

func DecodeStatusRequestS(buf []byte) (StatusRequestS, int, error) {
	return StatusRequestS{}, 0, nil
}

// StatusResponseC carries the server-list-ping JSON document.
type StatusResponseC struct {
	JSON string
}

var StatusResponseCMeta = PacketMeta{PhaseStatus, Clientbound, "status_response"}

func EncodeStatusResponseC(p StatusResponseC) []byte {
	var w bytes.Buffer
	WriteString(&w, p.JSON)
	return w.Bytes()
}

// PingS / PongC: an i64 payload echoed back unchanged.
type PingS struct {
	Payload int64
}

var PingSMeta = PacketMeta{PhaseStatus, Serverbound, "ping_request"}

func DecodePingS(buf []byte) (PingS, int, error) {
	v, n, err := ReadInt64(buf)
	return PingS{Payload: v}, n, err
}

type PongC struct {
	Payload int64
}

var PongCMeta = PacketMeta{PhaseStatus, Clientbound, "pong_response"}

func EncodePongC(p PongC) []byte {
	var w bytes.Buffer
	WriteInt64(&w, p.Payload)
	return w.Bytes()
}
