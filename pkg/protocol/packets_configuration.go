package protocol

import "bytes"

// KnownPack identifies one data pack both sides claim to already have, by
// (namespace, id, version). The client's reply content is decoded (so a
// future revision can act on it) but never currently influences behavior.
type KnownPack struct {
	Namespace string
	ID        string
	Version   string
}

// KnownPacksC is sent first in Configuration, advertising the packs the
// server's registry/tag blobs were built from.
type KnownPacksC struct {
	Packs []KnownPack
}

var KnownPacksCMeta = PacketMeta{PhaseConfiguration, Clientbound, "known_packs"}

func EncodeKnownPacksC(p KnownPacksC) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, int32(len(p.Packs)))
	for _, pack := range p.Packs {
		WriteString(&w, pack.Namespace)
		WriteString(&w, pack.ID)
		WriteString(&w, pack.Version)
	}
	return w.Bytes()
}

// KnownPacksS is the client's reply. Its content is parsed but intentionally
// ignored: this server always ships its own full registry/tag blobs
// regardless of what the client claims to already know.
type KnownPacksS struct {
	Packs []KnownPack
}

var KnownPacksSMeta = PacketMeta{PhaseConfiguration, Serverbound, "known_packs"}

func DecodeKnownPacksS(buf []byte) (KnownPacksS, int, error) {
	pos := 0
	count, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return KnownPacksS{}, 0, err
	}
	pos += n

	packs := make([]KnownPack, 0, count)
	for i := int32(0); i < count; i++ {
		ns, n, err := ReadString(buf[pos:], DefaultStringBound)
		if err != nil {
			return KnownPacksS{}, 0, err
		}
		pos += n
		id, n, err := ReadString(buf[pos:], DefaultStringBound)
		if err != nil {
			return KnownPacksS{}, 0, err
		}
		pos += n
		ver, n, err := ReadString(buf[pos:], DefaultStringBound)
		if err != nil {
			return KnownPacksS{}, 0, err
		}
		pos += n
		packs = append(packs, KnownPack{Namespace: ns, ID: id, Version: ver})
	}
	return KnownPacksS{Packs: packs}, pos, nil
}

// RegistryDataC and UpdateTagsC carry pre-serialized bodies straight out of
// the registry cache; this server treats their
// content as an opaque blob built once at startup and written verbatim.
type RegistryDataC struct {
	Body []byte
}

var RegistryDataCMeta = PacketMeta{PhaseConfiguration, Clientbound, "registry_data"}

func EncodeRegistryDataC(p RegistryDataC) []byte {
	return p.Body
}

type UpdateTagsC struct {
	Body []byte
}

var UpdateTagsCMeta = PacketMeta{PhaseConfiguration, Clientbound, "update_tags"}

func EncodeUpdateTagsC(p UpdateTagsC) []byte {
	return p.Body
}

// FinishConfigurationC/Ack bookend the Configuration phase.
type FinishConfigurationC struct{}

var FinishConfigurationCMeta = PacketMeta{PhaseConfiguration, Clientbound, "finish_configuration"}

func EncodeFinishConfigurationC(FinishConfigurationC) []byte {
	return nil
}

type FinishConfigurationAckS struct{}

var FinishConfigurationAckSMeta = PacketMeta{PhaseConfiguration, Serverbound, "finish_configuration"}

func DecodeFinishConfigurationAckS(buf []byte) (FinishConfigurationAckS, int, error) {
	return FinishConfigurationAckS{}, 0, nil
}

// PluginMessageS/C carries a namespaced channel and an opaque payload in
// the Configuration phase. The server does not send or handle it; the
// optional "forwarding" handshake in Login uses LoginPluginRequestC/
// LoginPluginResponseS instead.
type PluginMessageC struct {
	Channel string
	Data    []byte
}

var PluginMessageCMeta = PacketMeta{PhaseConfiguration, Clientbound, "plugin_message"}

func EncodePluginMessageC(p PluginMessageC) []byte {
	var w bytes.Buffer
	WriteString(&w, p.Channel)
	w.Write(p.Data)
	return w.Bytes()
}

type PluginMessageS struct {
	Channel string
	Data    []byte
}

var PluginMessageSMeta = PacketMeta{PhaseConfiguration, Serverbound, "plugin_message"}

func DecodePluginMessageS(buf []byte) (PluginMessageS, int, error) {
	channel, n, err := ReadString(buf, DefaultStringBound)
	if err != nil {
		return PluginMessageS{}, 0, err
	}
	data := make([]byte, len(buf)-n)
	copy(data, buf[n:])
	return PluginMessageS{Channel: channel, Data: data}, len(buf), nil
}
