package protocol

import (
	"bytes"

	"github.com/google/uuid"
)

// Gamemode values used on the wire.
const (
	GameModeSurvival  byte = 0
	GameModeCreative  byte = 1
	GameModeAdventure byte = 2
	GameModeSpectator byte = 3
)

// LoginPlayC is the first Play-phase packet, describing the world the
// player is about to be placed in.
type LoginPlayC struct {
	EntityID            int32
	IsHardcore           bool
	DimensionNames       []string
	MaxPlayers           int32
	ViewDistance         int32
	SimulationDistance   int32
	ReducedDebugInfo     bool
	EnableRespawnScreen  bool
	DoLimitedCrafting    bool
	DimensionType        int32
	DimensionName        string
	HashedSeed           int64
	GameMode             byte
	PreviousGameMode     int8
	IsDebug              bool
	IsFlat               bool
	HasDeathLocation     bool
	DeathDimensionName   string
	DeathLocation        int64
	PortalCooldown       int32
	SeaLevel             int32
	EnforceSecureChat    bool
}

var LoginPlayCMeta = PacketMeta{PhasePlay, Clientbound, "login_play"}

func EncodeLoginPlayC(p LoginPlayC) []byte {
	var w bytes.Buffer
	WriteInt32(&w, p.EntityID)
	WriteBool(&w, p.IsHardcore)
	WriteVarInt(&w, int32(len(p.DimensionNames)))
	for _, d := range p.DimensionNames {
		WriteString(&w, d)
	}
	WriteVarInt(&w, p.MaxPlayers)
	WriteVarInt(&w, p.ViewDistance)
	WriteVarInt(&w, p.SimulationDistance)
	WriteBool(&w, p.ReducedDebugInfo)
	WriteBool(&w, p.EnableRespawnScreen)
	WriteBool(&w, p.DoLimitedCrafting)
	WriteVarInt(&w, p.DimensionType)
	WriteString(&w, p.DimensionName)
	WriteInt64(&w, p.HashedSeed)
	WriteUint8(&w, p.GameMode)
	WriteInt8(&w, p.PreviousGameMode)
	WriteBool(&w, p.IsDebug)
	WriteBool(&w, p.IsFlat)
	WriteBool(&w, p.HasDeathLocation)
	if p.HasDeathLocation {
		WriteString(&w, p.DeathDimensionName)
		WriteInt64(&w, p.DeathLocation)
	}
	WriteVarInt(&w, p.PortalCooldown)
	WriteVarInt(&w, p.SeaLevel)
	WriteBool(&w, p.EnforceSecureChat)
	return w.Bytes()
}

// SynchronisePositionC correlates a server-initiated position sync with a
// ConfirmTeleportS reply via a monotonic id.
type SynchronisePositionC struct {
	TeleportID int32
	X, Y, Z    float64
	VX, VY, VZ float64
	Yaw, Pitch float32
	Flags      int32
}

var SynchronisePositionCMeta = PacketMeta{PhasePlay, Clientbound, "synchronize_position"}

func EncodeSynchronisePositionC(p SynchronisePositionC) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, p.TeleportID)
	WriteFloat64(&w, p.X)
	WriteFloat64(&w, p.Y)
	WriteFloat64(&w, p.Z)
	WriteFloat64(&w, p.VX)
	WriteFloat64(&w, p.VY)
	WriteFloat64(&w, p.VZ)
	WriteFloat32(&w, p.Yaw)
	WriteFloat32(&w, p.Pitch)
	WriteInt32(&w, p.Flags)
	return w.Bytes()
}

// ConfirmTeleportS is the client's acknowledgement of a teleport.
type ConfirmTeleportS struct {
	TeleportID int32
}

var ConfirmTeleportSMeta = PacketMeta{PhasePlay, Serverbound, "confirm_teleport"}

func DecodeConfirmTeleportS(buf []byte) (ConfirmTeleportS, int, error) {
	v, n, err := ReadVarInt(buf)
	return ConfirmTeleportS{TeleportID: v}, n, err
}

// Movement flag bits for SetPlayerPositionS.Flags.
const (
	MoveFlagOnGround     = 0x01
	MoveFlagTouchingWall = 0x02
)

type SetPlayerPositionS struct {
	X, Y, Z float64
	Flags   byte
}

var SetPlayerPositionSMeta = PacketMeta{PhasePlay, Serverbound, "set_player_position"}

func DecodeSetPlayerPositionS(buf []byte) (SetPlayerPositionS, int, error) {
	pos := 0
	x, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionS{}, 0, err
	}
	pos += n
	y, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionS{}, 0, err
	}
	pos += n
	z, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionS{}, 0, err
	}
	pos += n
	flags, n, err := ReadUint8(buf[pos:])
	if err != nil {
		return SetPlayerPositionS{}, 0, err
	}
	pos += n
	return SetPlayerPositionS{X: x, Y: y, Z: z, Flags: flags}, pos, nil
}

type SetPlayerPositionAndRotationS struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      byte
}

var SetPlayerPositionAndRotationSMeta = PacketMeta{PhasePlay, Serverbound, "set_player_position_and_rotation"}

func DecodeSetPlayerPositionAndRotationS(buf []byte) (SetPlayerPositionAndRotationS, int, error) {
	pos := 0
	x, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	y, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	z, n, err := ReadFloat64(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	yaw, n, err := ReadFloat32(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	pitch, n, err := ReadFloat32(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	flags, n, err := ReadUint8(buf[pos:])
	if err != nil {
		return SetPlayerPositionAndRotationS{}, 0, err
	}
	pos += n
	return SetPlayerPositionAndRotationS{X: x, Y: y, Z: z, Yaw: yaw, Pitch: pitch, Flags: flags}, pos, nil
}

// Hand and BlockFace enums for UseItemOnS.
type Hand int32

const (
	HandMain Hand = 0
	HandOff  Hand = 1
)

type BlockFace int32

const (
	FaceBottom BlockFace = 0
	FaceTop    BlockFace = 1
	FaceNorth  BlockFace = 2
	FaceSouth  BlockFace = 3
	FaceWest   BlockFace = 4
	FaceEast   BlockFace = 5
)

type UseItemOnS struct {
	Hand           Hand
	X, Y, Z        int32
	Face           BlockFace
	CursorX        float32
	CursorY        float32
	CursorZ        float32
	InsideBlock    bool
	WorldBorderHit bool
	Sequence       int32
}

var UseItemOnSMeta = PacketMeta{PhasePlay, Serverbound, "use_item_on"}

func DecodeUseItemOnS(buf []byte) (UseItemOnS, int, error) {
	pos := 0
	hand, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	x, y, z, n, err := ReadPosition(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	face, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	cx, n, err := ReadFloat32(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n
	cy, n, err := ReadFloat32(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n
	cz, n, err := ReadFloat32(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	inside, n, err := ReadBool(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	border, n, err := ReadBool(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	seq, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return UseItemOnS{}, 0, err
	}
	pos += n

	return UseItemOnS{
		Hand:           Hand(hand),
		X:              x,
		Y:              y,
		Z:              z,
		Face:           BlockFace(face),
		CursorX:        cx,
		CursorY:        cy,
		CursorZ:        cz,
		InsideBlock:    inside,
		WorldBorderHit: border,
		Sequence:       seq,
	}, pos, nil
}

// KeepAliveC/S carry a correlating i64 id.
type KeepAliveC struct {
	ID int64
}

var KeepAliveCMeta = PacketMeta{PhasePlay, Clientbound, "keep_alive"}

func EncodeKeepAliveC(p KeepAliveC) []byte {
	var w bytes.Buffer
	WriteInt64(&w, p.ID)
	return w.Bytes()
}

type KeepAliveS struct {
	ID int64
}

var KeepAliveSMeta = PacketMeta{PhasePlay, Serverbound, "keep_alive"}

func DecodeKeepAliveS(buf []byte) (KeepAliveS, int, error) {
	v, n, err := ReadInt64(buf)
	return KeepAliveS{ID: v}, n, err
}

// Window kinds (subset this server ever opens).
const (
	WindowKindGeneric9x3 int32 = 2
)

type OpenScreenC struct {
	WindowID int32
	Kind     int32
	Title    string
}

var OpenScreenCMeta = PacketMeta{PhasePlay, Clientbound, "open_screen"}

func EncodeOpenScreenC(p OpenScreenC) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, p.WindowID)
	WriteVarInt(&w, p.Kind)
	WriteTextComponent(&w, p.Title)
	return w.Bytes()
}

type SetContainerContentC struct {
	WindowID    int32
	StateID     int32
	Slots       []Slot
	CarriedItem Slot
}

var SetContainerContentCMeta = PacketMeta{PhasePlay, Clientbound, "set_container_content"}

func EncodeSetContainerContentC(p SetContainerContentC) ([]byte, error) {
	var w bytes.Buffer
	WriteVarInt(&w, p.WindowID)
	WriteVarInt(&w, p.StateID)
	WriteVarInt(&w, int32(len(p.Slots)))
	for _, s := range p.Slots {
		if err := EncodeSlot(&w, s); err != nil {
			return nil, err
		}
	}
	if err := EncodeSlot(&w, p.CarriedItem); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// GameEventC events this server emits.
const (
	GameEventStartWaitingForChunks int32 = 13
)

type GameEventC struct {
	Event int32
	Value float32
}

var GameEventCMeta = PacketMeta{PhasePlay, Clientbound, "game_event"}

func EncodeGameEventC(p GameEventC) []byte {
	var w bytes.Buffer
	WriteUint8(&w, byte(p.Event))
	WriteFloat32(&w, p.Value)
	return w.Bytes()
}

type SetCenterChunkC struct {
	X, Z int32
}

var SetCenterChunkCMeta = PacketMeta{PhasePlay, Clientbound, "set_center_chunk"}

func EncodeSetCenterChunkC(p SetCenterChunkC) []byte {
	var w bytes.Buffer
	WriteVarInt(&w, p.X)
	WriteVarInt(&w, p.Z)
	return w.Bytes()
}

// ChunkDataUpdateLightC's body is produced entirely by the world
// preprocessor ahead of time; the packet definition here is a thin
// pass-through of that pre-encoded body.
type ChunkDataUpdateLightC struct {
	Body []byte
}

var ChunkDataUpdateLightCMeta = PacketMeta{PhasePlay, Clientbound, "chunk_data_and_update_light"}

func EncodeChunkDataUpdateLightC(p ChunkDataUpdateLightC) []byte {
	return p.Body
}

// PlayerInfoUpdateC adds (in this server's usage, exactly one) player to the
// tab list.
type PlayerInfoUpdateAction uint8

const PlayerInfoActionAddPlayer PlayerInfoUpdateAction = 0x01

type PlayerInfoEntry struct {
	UUID       uuid.UUID
	Name       string
	Properties []LoginProperty
	Listed     bool
	Ping       int32
	DisplayName *string
}

type PlayerInfoUpdateC struct {
	Actions uint8
	Entries []PlayerInfoEntry
}

var PlayerInfoUpdateCMeta = PacketMeta{PhasePlay, Clientbound, "player_info_update"}

func EncodePlayerInfoUpdateC(p PlayerInfoUpdateC) []byte {
	var w bytes.Buffer
	WriteUint8(&w, p.Actions)
	WriteVarInt(&w, int32(len(p.Entries)))
	for _, e := range p.Entries {
		WriteUUID(&w, e.UUID)
		if p.Actions&uint8(PlayerInfoActionAddPlayer) != 0 {
			WriteString(&w, e.Name)
			WriteVarInt(&w, int32(len(e.Properties)))
			for _, prop := range e.Properties {
				WriteString(&w, prop.Name)
				WriteString(&w, prop.Value)
				WriteBool(&w, prop.Signature != nil)
				if prop.Signature != nil {
					WriteString(&w, *prop.Signature)
				}
			}
		}
		WriteBool(&w, e.Listed)
		WriteVarInt(&w, e.Ping)
		WriteBool(&w, e.DisplayName != nil)
		if e.DisplayName != nil {
			WriteTextComponent(&w, *e.DisplayName)
		}
	}
	return w.Bytes()
}

// SetDefaultSpawnPositionC tells the client where the world border/compass
// should consider "spawn".
type SetDefaultSpawnPositionC struct {
	X, Y, Z int32
	Angle   float32
}

var SetDefaultSpawnPositionCMeta = PacketMeta{PhasePlay, Clientbound, "set_default_spawn_position"}

func EncodeSetDefaultSpawnPositionC(p SetDefaultSpawnPositionC) ([]byte, error) {
	var w bytes.Buffer
	if err := WritePosition(&w, p.X, p.Y, p.Z); err != nil {
		return nil, err
	}
	WriteFloat32(&w, p.Angle)
	return w.Bytes(), nil
}

// InitializeWorldBorderC fixes the world border around the spawn point.
// This server never moves or resizes the border after sending it once, so
// OldDiameter always equals NewDiameter and Speed is always zero.
type InitializeWorldBorderC struct {
	X, Z                         float64
	OldDiameter, NewDiameter     float64
	Speed                        int64
	PortalTeleportBoundary       int32
	WarningBlocks                int32
	WarningTime                  int32
}

var InitializeWorldBorderCMeta = PacketMeta{PhasePlay, Clientbound, "initialize_world_border"}

func EncodeInitializeWorldBorderC(p InitializeWorldBorderC) []byte {
	var w bytes.Buffer
	WriteFloat64(&w, p.X)
	WriteFloat64(&w, p.Z)
	WriteFloat64(&w, p.OldDiameter)
	WriteFloat64(&w, p.NewDiameter)
	WriteVarLong(&w, p.Speed)
	WriteVarInt(&w, p.PortalTeleportBoundary)
	WriteVarInt(&w, p.WarningBlocks)
	WriteVarInt(&w, p.WarningTime)
	return w.Bytes()
}

// DisconnectPlayC carries a text-component reason. Sent whenever the server
// itself chooses to terminate a Play-phase connection (protocol error,
// timeout); a bare transport failure still produces a silent close instead.
type DisconnectPlayC struct {
	Reason string
}

var DisconnectPlayCMeta = PacketMeta{PhasePlay, Clientbound, "disconnect"}

func EncodeDisconnectPlayC(p DisconnectPlayC) []byte {
	var w bytes.Buffer
	WriteTextComponent(&w, p.Reason)
	return w.Bytes()
}
