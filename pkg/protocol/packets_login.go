package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// LoginStartS carries the player's claimed name and UUID.
type LoginStartS struct {
	Name string
	UUID uuid.UUID
}

var LoginStartSMeta = PacketMeta{PhaseLogin, Serverbound, "login_start"}

func DecodeLoginStartS(buf []byte) (LoginStartS, int, error) {
	pos := 0
	name, n, err := ReadString(buf[pos:], 16)
	if err != nil {
		return LoginStartS{}, 0, err
	}
	pos += n

	id, n, err := ReadUUID(buf[pos:])
	if err != nil {
		return LoginStartS{}, 0, err
	}
	pos += n

	return LoginStartS{Name: name, UUID: id}, pos, nil
}

// LoginProperty is one entry of LoginSuccessC's property list (skins,
// capes, etc). This server never populates it, but the field must exist on
// the wire.
type LoginProperty struct {
	Name      string
	Value     string
	Signature *string
}

// LoginSuccessC concludes the Login phase with the server's view of the
// player's identity.
type LoginSuccessC struct {
	UUID       uuid.UUID
	Name       string
	Properties []LoginProperty
}

var LoginSuccessCMeta = PacketMeta{PhaseLogin, Clientbound, "login_success"}

func EncodeLoginSuccessC(p LoginSuccessC) []byte {
	var w bytes.Buffer
	WriteUUID(&w, p.UUID)
	WriteString(&w, p.Name)
	WriteVarInt(&w, int32(len(p.Properties)))
	for _, prop := range p.Properties {
		WriteString(&w, prop.Name)
		WriteString(&w, prop.Value)
		WriteBool(&w, prop.Signature != nil)
		if prop.Signature != nil {
			WriteString(&w, *prop.Signature)
		}
	}
	return w.Bytes()
}

// LoginAckS carries no fields; it moves the connection into Configuration.
type LoginAckS struct{}

var LoginAckSMeta = PacketMeta{PhaseLogin, Serverbound, "login_acknowledged"}

func DecodeLoginAckS(buf []byte) (LoginAckS, int, error) {
	return LoginAckS{}, 0, nil
}

// LoginPluginRequestC/ResponseS carry the optional "forwarding" plugin
// channel handshake: the server asks a proxy-aware
// client a question on a named channel and correlates the reply by
// MessageID.
type LoginPluginRequestC struct {
	MessageID int32
	Channel   string
	Data      []byte
}

var LoginPluginRequestCMeta = PacketMeta{PhaseLogin, Clientbound, "login_plugin_request"}

func EncodeLoginPluginRequestC(p LoginPluginRequestC) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, p.MessageID)
	WriteString(&w, p.Channel)
	w.Write(p.Data)
	return w.Bytes()
}

type LoginPluginResponseS struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

var LoginPluginResponseSMeta = PacketMeta{PhaseLogin, Serverbound, "login_plugin_response"}

func DecodeLoginPluginResponseS(buf []byte) (LoginPluginResponseS, int, error) {
	pos := 0
	id, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return LoginPluginResponseS{}, 0, err
	}
	pos += n

	ok, n, err := ReadBool(buf[pos:])
	if err != nil {
		return LoginPluginResponseS{}, 0, err
	}
	pos += n

	var data []byte
	if ok {
		data = make([]byte, len(buf)-pos)
		copy(data, buf[pos:])
		pos = len(buf)
	}

	return LoginPluginResponseS{MessageID: id, Successful: ok, Data: data}, pos, nil
}

// DisconnectLoginC carries a text-component reason, sent whenever the
// server itself terminates a connection still in the Login phase.
type DisconnectLoginC struct {
	Reason string
}

var DisconnectLoginCMeta = PacketMeta{PhaseLogin, Clientbound, "disconnect"}

func EncodeDisconnectLoginC(p DisconnectLoginC) []byte {
	var w bytes.Buffer
	body, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: p.Reason})
	WriteString(&w, string(body))
	return w.Bytes()
}
