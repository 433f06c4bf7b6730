package server

import (
	"context"
	"fmt"
	"time"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// Run drives the connection through Handshake -> {Status | Login ->
// Configuration -> Play}. It returns nil after a completed Status
// exchange (the phase is still Status) or after successfully publishing
// the connection to the tick loop (the phase is Play); any error is a
// reason to close the socket.
func (c *Connection) Run(ctx context.Context) error {
	next, err := c.doHandshake()
	if err != nil {
		return err
	}

	switch next {
	case protocol.NextStateStatus:
		return c.doStatus()
	case protocol.NextStateLogin:
		if err := c.doLogin(); err != nil {
			return err
		}
		if err := c.doConfiguration(); err != nil {
			return err
		}
		return c.enterPlay(ctx)
	default:
		return fmt.Errorf("%w: next_state=%d", ErrInvalidNextState, next)
	}
}

func (c *Connection) doHandshake() (int32, error) {
	hs, err := decodeDirect(c, handshakeBudget, protocol.HandshakeSMeta, protocol.DecodeHandshakeS)
	if err != nil {
		return 0, err
	}
	switch hs.NextState {
	case protocol.NextStateStatus:
		c.setPhase(protocol.PhaseStatus)
	case protocol.NextStateLogin:
		c.setPhase(protocol.PhaseLogin)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidNextState, hs.NextState)
	}
	return hs.NextState, nil
}

func (c *Connection) doStatus() error {
	if _, err := decodeDirect(c, handshakeBudget, protocol.StatusRequestSMeta, protocol.DecodeStatusRequestS); err != nil {
		return err
	}

	desc := statusDescription(c.state.Config.MOTD, int(c.state.PlayersOnline()), c.state.Config.MaxPlayers)
	if err := c.write(protocol.StatusResponseCMeta, protocol.EncodeStatusResponseC(protocol.StatusResponseC{JSON: desc})); err != nil {
		return err
	}

	ping, err := decodeDirect(c, handshakeBudget, protocol.PingSMeta, protocol.DecodePingS)
	if err != nil {
		return err
	}
	return c.write(protocol.PongCMeta, protocol.EncodePongC(protocol.PongC{Payload: ping.Payload}))
}

// loginForwardingChannel is the plugin channel used by the optional
// proxy-forwarding handshake.
const loginForwardingChannel = "velocity:player_info"

func (c *Connection) doLogin() error {
	start, err := decodeDirect(c, handshakeBudget, protocol.LoginStartSMeta, protocol.DecodeLoginStartS)
	if err != nil {
		return err
	}
	c.setIdentity(start.UUID, start.Name)

	c.tryForwardingHandshake()

	success := protocol.LoginSuccessC{UUID: start.UUID, Name: start.Name}
	if err := c.write(protocol.LoginSuccessCMeta, protocol.EncodeLoginSuccessC(success)); err != nil {
		return err
	}

	if _, err := decodeDirect(c, handshakeBudget, protocol.LoginAckSMeta, protocol.DecodeLoginAckS); err != nil {
		return err
	}
	c.setPhase(protocol.PhaseConfiguration)
	return nil
}

// tryForwardingHandshake sends the velocity-style forwarding request and
// waits briefly for a reply; failures are logged and swallowed, and the
// connection proceeds unforwarded.
func (c *Connection) tryForwardingHandshake() {
	const messageID = 1
	req := protocol.LoginPluginRequestC{MessageID: messageID, Channel: loginForwardingChannel, Data: []byte{0x03}}
	if err := c.write(protocol.LoginPluginRequestCMeta, protocol.EncodeLoginPluginRequestC(req)); err != nil {
		c.log.Warn("forwarding handshake: failed to send request", "err", err)
		return
	}

	resp, err := decodeDirect(c, handshakeBudget, protocol.LoginPluginResponseSMeta, protocol.DecodeLoginPluginResponseS)
	if err != nil {
		c.log.Warn("forwarding handshake: no reply, proceeding unforwarded", "err", err)
		return
	}
	if resp.MessageID != messageID || !resp.Successful || len(resp.Data) == 0 {
		c.log.Warn("forwarding handshake: rejected or empty reply, proceeding unforwarded")
		return
	}
	c.log.Debug("forwarding handshake accepted")
}

func (c *Connection) doConfiguration() error {
	knownPacks := protocol.KnownPacksC{Packs: []protocol.KnownPack{
		{Namespace: "minecraft", ID: "core", Version: serverVersionName},
	}}
	if err := c.write(protocol.KnownPacksCMeta, protocol.EncodeKnownPacksC(knownPacks)); err != nil {
		return err
	}

	reply, err := decodeDirect(c, handshakeBudget, protocol.KnownPacksSMeta, protocol.DecodeKnownPacksS)
	if err != nil {
		return err
	}
	// Content is intentionally ignored: this server always ships its own
	// full registry/tag blobs regardless.
	c.log.Debug("client known-packs reply", "count", len(reply.Packs))

	if err := c.writeRaw(c.state.Blobs.RegistryDataBody); err != nil {
		return err
	}
	if err := c.writeRaw(c.state.Blobs.TagsBody); err != nil {
		return err
	}

	if err := c.write(protocol.FinishConfigurationCMeta, protocol.EncodeFinishConfigurationC(protocol.FinishConfigurationC{})); err != nil {
		return err
	}
	if _, err := decodeDirect(c, handshakeBudget, protocol.FinishConfigurationAckSMeta, protocol.DecodeFinishConfigurationAckS); err != nil {
		return err
	}

	c.setPhase(protocol.PhasePlay)
	return nil
}

// enterPlay sends the initial Play-phase packets, performs the spawn
// teleport-and-wait, and hands the connection off to the tick loop.
func (c *Connection) enterPlay(ctx context.Context) error {
	cfg := c.state.Config

	loginPlay := protocol.LoginPlayC{
		EntityID:           int32(c.ID),
		IsHardcore:         false,
		DimensionNames:     []string{"minecraft:the_end"},
		MaxPlayers:         int32(cfg.MaxPlayers),
		ViewDistance:       32,
		SimulationDistance: 8,
		ReducedDebugInfo:   false,
		DimensionType:      c.state.Blobs.EndDimensionID,
		DimensionName:      "minecraft:the_end",
		GameMode:           protocol.GameModeCreative,
		PreviousGameMode:   -1,
		SeaLevel:           64,
		EnforceSecureChat:  false,
	}
	if err := c.write(protocol.LoginPlayCMeta, protocol.EncodeLoginPlayC(loginPlay)); err != nil {
		return err
	}

	// Step 10 ticks at the configured rate before the spawn teleport, as
	// the handshake narrative describes, without blocking the acceptor's
	// other connections.
	tickInterval := time.Second / time.Duration(cfg.TickRate)
	select {
	case <-time.After(10 * tickInterval):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := c.teleportAndWait(cfg.SpawnX, cfg.SpawnY, cfg.SpawnZ, 0, 0); err != nil {
		return err
	}
	c.SetPosition(cfg.SpawnX, cfg.SpawnY, cfg.SpawnZ, 0, 0)

	border := protocol.InitializeWorldBorderC{
		X: cfg.SpawnX, Z: cfg.SpawnZ,
		OldDiameter: cfg.BorderRadius * 2, NewDiameter: cfg.BorderRadius * 2,
		WarningBlocks: 5, WarningTime: 15,
	}
	if err := c.write(protocol.InitializeWorldBorderCMeta, protocol.EncodeInitializeWorldBorderC(border)); err != nil {
		return err
	}

	playerUUID, playerName := c.Identity()
	info := protocol.PlayerInfoUpdateC{
		Actions: uint8(protocol.PlayerInfoActionAddPlayer),
		Entries: []protocol.PlayerInfoEntry{{UUID: playerUUID, Name: playerName, Listed: true}},
	}
	if err := c.write(protocol.PlayerInfoUpdateCMeta, protocol.EncodePlayerInfoUpdateC(info)); err != nil {
		return err
	}

	event := protocol.GameEventC{Event: protocol.GameEventStartWaitingForChunks}
	if err := c.write(protocol.GameEventCMeta, protocol.EncodeGameEventC(event)); err != nil {
		return err
	}

	centerX, centerZ := int32(cfg.SpawnX)>>4, int32(cfg.SpawnZ)>>4
	if err := c.write(protocol.SetCenterChunkCMeta, protocol.EncodeSetCenterChunkC(protocol.SetCenterChunkC{X: centerX, Z: centerZ})); err != nil {
		return err
	}

	c.startInboundLoop()

	select {
	case c.state.NewPlayers <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// teleportAndWait allocates a teleport id, marks it pending, sends
// SynchronisePositionC, and blocks for a matching ConfirmTeleportS within
// teleportBudget.
func (c *Connection) teleportAndWait(x, y, z float64, yaw, pitch float32) error {
	id := c.state.NextTeleportID()
	c.setPendingTeleport(id, time.Now())
	defer c.clearTeleport()

	sync := protocol.SynchronisePositionC{TeleportID: id, X: x, Y: y, Z: z, Yaw: yaw, Pitch: pitch}
	if err := c.write(protocol.SynchronisePositionCMeta, protocol.EncodeSynchronisePositionC(sync)); err != nil {
		return err
	}

	ack, err := decodeDirect(c, teleportBudget, protocol.ConfirmTeleportSMeta, protocol.DecodeConfirmTeleportS)
	if err != nil {
		return fmt.Errorf("%w", ErrTeleportTimedOut)
	}
	if ack.TeleportID != id {
		return fmt.Errorf("%w: expected %d, got %d", ErrTeleportWrongID, id, ack.TeleportID)
	}
	return nil
}
