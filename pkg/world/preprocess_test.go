package world

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsPerEntryFormula(t *testing.T) {
	assert.Equal(t, 0, bitsPerEntry(0))
	assert.Equal(t, 0, bitsPerEntry(1))
	assert.Equal(t, 4, bitsPerEntry(2))
	assert.Equal(t, 4, bitsPerEntry(16))
	assert.Equal(t, 5, bitsPerEntry(17))
	assert.Equal(t, 15, bitsPerEntry(20000))
}

func TestPackUnpackIndicesRoundTrip(t *testing.T) {
	indices := make([]int32, 4096)
	for i := range indices {
		indices[i] = int32(i % 3)
	}
	packed := packEntries(indices, 4)
	got := unpackIndices(packed, 4, 4096)
	assert.Equal(t, indices, got)
}

func chunkXZ(t *testing.T, body []byte) (int32, int32) {
	t.Helper()
	require.GreaterOrEqual(t, len(body), 8)
	x := int32(binary.BigEndian.Uint32(body[0:4]))
	z := int32(binary.BigEndian.Uint32(body[4:8]))
	return x, z
}

func TestProcessSortsChunksBySumAscending(t *testing.T) {
	blockStates, err := LoadBlockStates()
	require.NoError(t, err)
	items, err := LoadItemRegistry()
	require.NoError(t, err)
	pp := NewPreprocessor(blockStates, items, 42)

	w := &World{Chunks: map[ChunkPos]*RawChunk{
		{X: 2, Z: 0}: {X: 2, Z: 0},
		{X: 0, Z: 0}: {X: 0, Z: 0},
		{X: 1, Z: 1}: {X: 1, Z: 1},
	}}

	packets, _, err := pp.Process(w)
	require.NoError(t, err)
	require.Len(t, packets, 3)

	x0, z0 := chunkXZ(t, packets[0].Body)
	x1, z1 := chunkXZ(t, packets[1].Body)
	x2, z2 := chunkXZ(t, packets[2].Body)
	assert.Equal(t, [2]int32{0, 0}, [2]int32{x0, z0})
	assert.Equal(t, [2]int32{1, 1}, [2]int32{x1, z1})
	assert.Equal(t, [2]int32{2, 0}, [2]int32{x2, z2})
}

func TestProcessExtractsContainerFromBlockEntity(t *testing.T) {
	blockStates, err := LoadBlockStates()
	require.NoError(t, err)
	items, err := LoadItemRegistry()
	require.NoError(t, err)
	pp := NewPreprocessor(blockStates, items, 42)

	w := &World{Chunks: map[ChunkPos]*RawChunk{
		{X: 0, Z: 0}: {
			X: 0, Z: 0,
			BlockEntities: []RawBlockEntity{
				{
					X: 5, Y: 70, Z: 9, ID: "minecraft:chest",
					NBT: map[string]any{
						"Items": []any{
							map[string]any{"Slot": int8(4), "id": "minecraft:bread", "count": int32(2)},
						},
					},
				},
				{X: 1, Y: 70, Z: 1, ID: "minecraft:mob_spawner", NBT: map[string]any{}},
				{X: 2, Y: 70, Z: 2, ID: "minecraft:chest", KeepPacked: true, NBT: map[string]any{}},
			},
		},
	}}

	_, containers, err := pp.Process(w)
	require.NoError(t, err)
	require.Len(t, containers, 1)

	c, ok := containers[BlockPos{X: 5, Y: 70, Z: 9}]
	require.True(t, ok)
	assert.Equal(t, int32(945), c.Slots[4].ItemID)

	_, ok = containers[BlockPos{X: 2, Y: 70, Z: 2}]
	assert.False(t, ok, "keepPacked block entities must not be surfaced as containers")
}

func TestEncodeSectionSingleValuedAir(t *testing.T) {
	blockStates, err := LoadBlockStates()
	require.NoError(t, err)
	items, err := LoadItemRegistry()
	require.NoError(t, err)
	pp := NewPreprocessor(blockStates, items, 7)

	w := &World{Chunks: map[ChunkPos]*RawChunk{
		{X: 0, Z: 0}: {
			X: 0, Z: 0,
			Sections: []RawSection{{Y: 0}},
		},
	}}

	packets, _, err := pp.Process(w)
	require.NoError(t, err)
	require.Len(t, packets, 1)
	assert.NotEmpty(t, packets[0].Body)
}
