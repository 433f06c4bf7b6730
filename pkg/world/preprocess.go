package world

import (
	"bytes"
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// BlockPos is an absolute block coordinate, used to key the container map
// produced alongside the encoded chunk packets.
type BlockPos struct {
	X, Y, Z int32
}

// blockEntityKinds maps a block entity's namespaced id to the numeric
// "kind" VarInt the chunk packet's block-entity list expects. Anything not
// listed here (this server never needs more than containers) is sent as
// kind 0, which is never inspected by a client that only ever receives
// containers it already knows how to render from the block state alone.
var blockEntityKinds = map[string]int32{
	"minecraft:chest":         11,
	"minecraft:trapped_chest": 11,
	"minecraft:barrel":        26,
}

// Preprocessor turns a raw, region-file-decoded World into the pre-encoded
// wire packets and container map the tick loop and per-connection dispatch
// consume. It owns the block-state and item lookup tables so chunk
// encoding and container extraction share one resolved view of the world.
type Preprocessor struct {
	blockStates *BlockStates
	items       *ItemRegistry
	endBiomeID  int32
}

// NewPreprocessor builds a Preprocessor. endBiomeID is the registry cache's
// cached numeric id for minecraft:the_end's biome,
// used to fill every section's single-valued biome palette.
func NewPreprocessor(blockStates *BlockStates, items *ItemRegistry, endBiomeID int32) *Preprocessor {
	return &Preprocessor{blockStates: blockStates, items: items, endBiomeID: endBiomeID}
}

// Process encodes every chunk in w, sorted (x+z) ascending, and extracts
// the container map from their block entities.
func (p *Preprocessor) Process(w *World) ([]protocol.ChunkDataUpdateLightC, map[BlockPos]Container, error) {
	positions := make([]ChunkPos, 0, len(w.Chunks))
	for pos := range w.Chunks {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		si := positions[i].X + positions[i].Z
		sj := positions[j].X + positions[j].Z
		if si != sj {
			return si < sj
		}
		return positions[i].X < positions[j].X
	})

	packets := make([]protocol.ChunkDataUpdateLightC, 0, len(positions))
	containers := make(map[BlockPos]Container)

	for _, pos := range positions {
		chunk := w.Chunks[pos]
		body, err := p.encodeChunk(chunk)
		if err != nil {
			return nil, nil, err
		}
		packets = append(packets, protocol.ChunkDataUpdateLightC{Body: body})

		for _, be := range chunk.BlockEntities {
			if be.KeepPacked {
				continue
			}
			c, err := NewContainer(be, p.items)
			if err != nil {
				continue // not a container, or unparsable: not this server's concern
			}
			containers[BlockPos{X: be.X, Y: be.Y, Z: be.Z}] = c
		}
	}

	return packets, containers, nil
}

func (p *Preprocessor) encodeChunk(chunk *RawChunk) ([]byte, error) {
	var w bytes.Buffer
	binary.Write(&w, binary.BigEndian, chunk.X)
	binary.Write(&w, binary.BigEndian, chunk.Z)

	// Heightmaps: empty compound - unnamed root TAG_Compound
	// immediately closed, in the "network NBT" form this packet uses.
	w.WriteByte(0x0A)
	w.WriteByte(0x00)

	var data bytes.Buffer
	for _, sec := range chunk.Sections {
		p.encodeSection(&data, sec)
	}
	protocol.WriteVarInt(&w, int32(data.Len()))
	w.Write(data.Bytes())

	// Block entities.
	var liveBlockEntities []RawBlockEntity
	for _, be := range chunk.BlockEntities {
		if !be.KeepPacked {
			liveBlockEntities = append(liveBlockEntities, be)
		}
	}
	protocol.WriteVarInt(&w, int32(len(liveBlockEntities)))
	for _, be := range liveBlockEntities {
		localX := be.X & 0xF
		localZ := be.Z & 0xF
		w.WriteByte(byte(localX<<4 | localZ))
		binary.Write(&w, binary.BigEndian, int16(be.Y))
		kind := blockEntityKinds[be.ID]
		protocol.WriteVarInt(&w, kind)
		// nbt_bytes: treated opaquely; containers are recovered
		// separately from the raw NBT compound, not from this packet body.
		w.WriteByte(0x0A)
		w.WriteByte(0x00)
	}

	// Lighting: every section declared empty.
	sectionCount := len(chunk.Sections)
	emptySky := bitset.New(uint(sectionCount))
	emptyBlock := bitset.New(uint(sectionCount))
	for i := 0; i < sectionCount; i++ {
		emptySky.Set(uint(i))
		emptyBlock.Set(uint(i))
	}
	skyMask := bitset.New(uint(sectionCount))
	blockMask := bitset.New(uint(sectionCount))

	protocol.EncodeBitVec(&w, skyMask)
	protocol.EncodeBitVec(&w, blockMask)
	protocol.EncodeBitVec(&w, emptySky)
	protocol.EncodeBitVec(&w, emptyBlock)
	protocol.WriteVarInt(&w, 0) // sky light arrays
	protocol.WriteVarInt(&w, 0) // block light arrays

	return w.Bytes(), nil
}

func (p *Preprocessor) encodeSection(w *bytes.Buffer, sec RawSection) {
	paletteSize := len(sec.BlockPalette)
	if paletteSize == 0 {
		// No block_states.palette at all: an all-air section.
		binary.Write(w, binary.BigEndian, int16(0))
		w.WriteByte(0) // bits per entry
		protocol.WriteVarInt(w, AirStateID)
		p.encodeBiomePalette(w)
		return
	}

	onDiskBits := bitsPerEntry(paletteSize)
	indices := unpackIndices(sec.BlockData, onDiskBits, 4096)

	translated := make([]int32, paletteSize)
	for i, name := range sec.BlockPalette {
		translated[i] = p.blockStates.Resolve(name.Name, name.Properties)
	}

	newBits := bitsPerEntry(paletteSize)

	nonAir := 0
	for _, idx := range indices {
		if int(idx) < len(translated) && translated[idx] != AirStateID {
			nonAir++
		}
	}

	binary.Write(w, binary.BigEndian, int16(nonAir))
	w.WriteByte(byte(newBits))

	switch {
	case newBits == 0:
		protocol.WriteVarInt(w, translated[0])
	case newBits <= 14:
		protocol.WriteVarInt(w, int32(len(translated)))
		for _, id := range translated {
			protocol.WriteVarInt(w, id)
		}
		packed := packEntries(indices, newBits)
		protocol.WriteVarInt(w, int32(len(packed)))
		for _, v := range packed {
			binary.Write(w, binary.BigEndian, v)
		}
	default: // direct palette
		direct := make([]int32, len(indices))
		for i, idx := range indices {
			if int(idx) < len(translated) {
				direct[i] = translated[idx]
			}
		}
		packed := packEntries(direct, newBits)
		protocol.WriteVarInt(w, int32(len(packed)))
		for _, v := range packed {
			binary.Write(w, binary.BigEndian, v)
		}
	}

	p.encodeBiomePalette(w)
}

func (p *Preprocessor) encodeBiomePalette(w *bytes.Buffer) {
	w.WriteByte(0) // single-valued, zero bits per entry
	protocol.WriteVarInt(w, p.endBiomeID)
}

// bitsPerEntry implements the bit_length formula: max(4,
// ceil(log2(paletteSize))), collapsing to 0 for a single-valued palette and
// clamping anything above the indirect ceiling to the direct width.
func bitsPerEntry(paletteSize int) int {
	if paletteSize <= 1 {
		return 0
	}
	bl := bits.Len(uint(paletteSize - 1))
	if bl < 4 {
		bl = 4
	}
	if bl > 14 {
		bl = 15
	}
	return bl
}

// unpackIndices reads count entries of bitsPerEntry width out of a packed
// long array, where entries never straddle a long boundary (the format
// used since the palette rewrite in 1.16).
func unpackIndices(longs []int64, bitsPerEntry, count int) []int32 {
	out := make([]int32, count)
	if bitsPerEntry == 0 {
		return out
	}
	perLong := 64 / bitsPerEntry
	mask := uint64(1)<<uint(bitsPerEntry) - 1
	for i := 0; i < count; i++ {
		longIdx := i / perLong
		if longIdx >= len(longs) {
			break
		}
		bitOffset := uint((i % perLong) * bitsPerEntry)
		out[i] = int32((uint64(longs[longIdx]) >> bitOffset) & mask)
	}
	return out
}

// packEntries is unpackIndices's inverse.
func packEntries(entries []int32, bitsPerEntry int) []int64 {
	if bitsPerEntry == 0 || len(entries) == 0 {
		return nil
	}
	perLong := 64 / bitsPerEntry
	longCount := (len(entries) + perLong - 1) / perLong
	out := make([]int64, longCount)
	mask := uint64(1)<<uint(bitsPerEntry) - 1
	for i, v := range entries {
		longIdx := i / perLong
		bitOffset := uint((i % perLong) * bitsPerEntry)
		out[longIdx] |= int64((uint64(v) & mask) << bitOffset)
	}
	return out
}
