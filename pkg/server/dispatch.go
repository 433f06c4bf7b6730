package server

import (
	"fmt"

	"github.com/StoreStation/limbogate/pkg/chat"
	"github.com/StoreStation/limbogate/pkg/protocol"
	"github.com/StoreStation/limbogate/pkg/world"
)

// windowTitle is the arbitrary title this server gives every container it
// opens, flattened from a chat message to match the plain-text shape
// OpenScreenC's NBT text component wants.
var windowTitle = chat.Text("Container").Plain()

// Dispatch resolves frame's symbolic id for the Play phase and handles it.
// It is called once per queued frame, in arrival order, by the tick loop.
func (s *State) Dispatch(c *Connection, frame protocol.Frame) error {
	name, ok := s.Registry.SymbolicID(protocol.PhasePlay, protocol.Serverbound, frame.ID)
	if !ok {
		s.Log.Warn("unknown packet id for phase", "phase", protocol.PhasePlay, "id", frame.ID)
		return nil
	}

	switch name {
	case "set_player_position":
		return c.dispatchSetPosition(frame)
	case "set_player_position_and_rotation":
		return c.dispatchSetPositionAndRotation(frame)
	case "confirm_teleport":
		return c.dispatchConfirmTeleport(frame)
	case "use_item_on":
		return c.dispatchUseItemOn(frame, s.World.Containers)
	case "keep_alive":
		return c.dispatchKeepAlive(frame)
	default:
		s.Log.Debug("dropping known but unhandled play packet", "id", name)
		return nil
	}
}

func (c *Connection) dispatchSetPosition(frame protocol.Frame) error {
	pkt, err := protocol.DecodeAs(c.state.Registry, protocol.SetPlayerPositionSMeta, &frame, protocol.DecodeSetPlayerPositionS)
	if err != nil {
		return err
	}
	if c.Teleport().Pending {
		// Client may still be catching up to a pending teleport; ignore
		// position updates until it acks.
		return nil
	}
	_, _, _, yaw, pitch := c.Position()
	c.SetPosition(pkt.X, pkt.Y, pkt.Z, yaw, pitch)
	return nil
}

func (c *Connection) dispatchSetPositionAndRotation(frame protocol.Frame) error {
	pkt, err := protocol.DecodeAs(c.state.Registry, protocol.SetPlayerPositionAndRotationSMeta, &frame, protocol.DecodeSetPlayerPositionAndRotationS)
	if err != nil {
		return err
	}
	if c.Teleport().Pending {
		return nil
	}
	c.SetPosition(pkt.X, pkt.Y, pkt.Z, pkt.Yaw, pkt.Pitch)
	return nil
}

func (c *Connection) dispatchConfirmTeleport(frame protocol.Frame) error {
	pkt, err := protocol.DecodeAs(c.state.Registry, protocol.ConfirmTeleportSMeta, &frame, protocol.DecodeConfirmTeleportS)
	if err != nil {
		return err
	}
	ts := c.Teleport()
	if !ts.Pending {
		// No outstanding teleport to confirm (this server only ever
		// teleports once, at spawn); a stray ack is harmless.
		return nil
	}
	if pkt.TeleportID != ts.ID {
		return fmt.Errorf("%w: expected %d, got %d", ErrTeleportWrongID, ts.ID, pkt.TeleportID)
	}
	c.clearTeleport()
	return nil
}

func (c *Connection) dispatchUseItemOn(frame protocol.Frame, containers map[world.BlockPos]world.Container) error {
	pkt, err := protocol.DecodeAs(c.state.Registry, protocol.UseItemOnSMeta, &frame, protocol.DecodeUseItemOnS)
	if err != nil {
		return err
	}

	pos := world.BlockPos{X: pkt.X, Y: pkt.Y, Z: pkt.Z}
	container, ok := containers[pos]
	if !ok {
		return nil
	}

	windowID := c.allocWindowID()
	c.setOpenWindow(&window{ID: windowID, Kind: protocol.WindowKindGeneric9x3, Title: windowTitle})

	openScreen := protocol.OpenScreenC{
		WindowID: int32(windowID),
		Kind:     protocol.WindowKindGeneric9x3,
		Title:    windowTitle,
	}
	if err := c.write(protocol.OpenScreenCMeta, protocol.EncodeOpenScreenC(openScreen)); err != nil {
		return err
	}

	body, err := protocol.EncodeSetContainerContentC(protocol.SetContainerContentC{
		WindowID:    int32(windowID),
		StateID:     0,
		Slots:       container.Slots[:],
		CarriedItem: protocol.Slot{},
	})
	if err != nil {
		return err
	}
	return c.write(protocol.SetContainerContentCMeta, body)
}

func (c *Connection) dispatchKeepAlive(frame protocol.Frame) error {
	pkt, err := protocol.DecodeAs(c.state.Registry, protocol.KeepAliveSMeta, &frame, protocol.DecodeKeepAliveS)
	if err != nil {
		return err
	}
	return c.observeKeepAliveReply(pkt.ID)
}
