package server

import (
	"bytes"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// registryEntry is one named entry of a registry_data packet: an
// identifier plus its NBT-encoded data.
type registryEntry struct {
	ID  string
	NBT []byte
}

// encodeRegistryDataPacket builds one registry_data packet body: the
// registry's own identifier followed by its entries, each as
// (identifier, has_data=true, nbt).
func encodeRegistryDataPacket(registryID string, entries []registryEntry) []byte {
	var w bytes.Buffer
	protocol.WriteString(&w, registryID)
	protocol.WriteVarInt(&w, int32(len(entries)))
	for _, e := range entries {
		protocol.WriteString(&w, e.ID)
		w.WriteByte(1) // has_data
		w.Write(e.NBT)
	}
	return w.Bytes()
}

// endDimensionTypeNBT builds the minimal dimension_type compound this
// server's one dimension, minecraft:the_end, needs.
func endDimensionTypeNBT() []byte {
	var w bytes.Buffer
	c := protocol.NewNBTCompoundWriter(&w)
	c.Byte("piglin_safe", 0)
	c.Byte("has_raids", 1)
	c.Int("monster_spawn_light_level", 0)
	c.Int("monster_spawn_block_light_limit", 0)
	c.Byte("natural", 0)
	c.Double("coordinate_scale", 1.0)
	c.Byte("bed_works", 0)
	c.Byte("respawn_anchor_works", 0)
	c.Int("min_y", -64)
	c.Int("height", 384)
	c.Int("logical_height", 256)
	c.String("infiniburn", "#minecraft:infiniburn_end")
	c.String("effects", "minecraft:the_end")
	c.Float("ambient_light", 0)
	c.Byte("has_skylight", 0)
	c.Byte("has_ceiling", 0)
	c.Byte("ultrawarm", 0)
	c.End()
	return w.Bytes()
}

// endBiomeNBT builds the minimal worldgen/biome compound for the single
// biome this server's world ever reports.
func endBiomeNBT() []byte {
	var w bytes.Buffer
	c := protocol.NewNBTCompoundWriter(&w)
	c.Byte("has_precipitation", 0)
	c.Float("temperature", 0.5)
	c.Float("downfall", 0.5)
	c.End()
	return w.Bytes()
}

// damageTypeNBT builds one minimal damage_type compound. The registry must
// be present for a vanilla client to accept Play, even though this server
// never actually deals damage.
func damageTypeNBT() []byte {
	var w bytes.Buffer
	c := protocol.NewNBTCompoundWriter(&w)
	c.String("message_id", "generic")
	c.String("scaling", "never")
	c.Float("exhaustion", 0)
	c.End()
	return w.Bytes()
}

// BuildRegistryCache assembles every registry_data packet a vanilla 1.21.4
// client requires before it will finish Configuration, plus an
// empty update_tags packet, and resolves the two numeric ids (dimension
// type, biome) this server's chunk and Play packets reference by index.
// dimension_type, worldgen/biome and damage_type carry one entry each;
// every other registry is sent with no entries: this server's world never
// needs more than one dimension type or biome, but a vanilla client rejects
// Configuration if a registry it expects is absent entirely.
func BuildRegistryCache(reg *protocol.Registry) (RegistryCache, error) {
	registryDataID := reg.MustProtocolID(protocol.PhaseConfiguration, protocol.Clientbound, "registry_data")
	updateTagsID := reg.MustProtocolID(protocol.PhaseConfiguration, protocol.Clientbound, "update_tags")

	registries := []struct {
		id      string
		entries []registryEntry
	}{
		{"minecraft:dimension_type", []registryEntry{{"minecraft:the_end", endDimensionTypeNBT()}}},
		{"minecraft:worldgen/biome", []registryEntry{{"minecraft:the_end", endBiomeNBT()}}},
		{"minecraft:damage_type", []registryEntry{{"minecraft:generic", damageTypeNBT()}}},
		{"minecraft:wolf_variant", nil},
		{"minecraft:painting_variant", nil},
		{"minecraft:trim_material", nil},
		{"minecraft:trim_pattern", nil},
		{"minecraft:banner_pattern", nil},
		{"minecraft:chat_type", nil},
	}

	var body bytes.Buffer
	for _, r := range registries {
		packetBody := encodeRegistryDataPacket(r.id, r.entries)
		body.Write(protocol.EncodeFrame(registryDataID, packetBody))
	}

	tagsBody := protocol.EncodeFrame(updateTagsID, encodeEmptyTags())

	return RegistryCache{
		RegistryDataBody: body.Bytes(),
		TagsBody:         tagsBody,
		EndDimensionID:   0,
		EndBiomeID:       0,
	}, nil
}

// encodeEmptyTags builds an update_tags body declaring zero tag
// registries: this server never exposes blocks/items/entities for a
// client to query tags against.
func encodeEmptyTags() []byte {
	var w bytes.Buffer
	protocol.WriteVarInt(&w, 0)
	return w.Bytes()
}
