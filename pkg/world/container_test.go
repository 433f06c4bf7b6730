package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainerExtractsSlots(t *testing.T) {
	items, err := LoadItemRegistry()
	require.NoError(t, err)

	be := RawBlockEntity{
		X: 10, Y: 64, Z: -3,
		ID: "minecraft:chest",
		NBT: map[string]any{
			"Items": []any{
				map[string]any{"Slot": int8(0), "id": "minecraft:diamond", "count": int32(3)},
				map[string]any{"Slot": int8(26), "id": "minecraft:torch", "count": int32(64)},
			},
		},
	}

	c, err := NewContainer(be, items)
	require.NoError(t, err)
	assert.Equal(t, int32(825), c.Slots[0].ItemID)
	assert.Equal(t, int8(3), c.Slots[0].Count)
	assert.Equal(t, int32(816), c.Slots[26].ItemID)
	assert.True(t, c.Slots[1].Empty())
}

func TestNewContainerRejectsNonContainerBlock(t *testing.T) {
	items, err := LoadItemRegistry()
	require.NoError(t, err)

	be := RawBlockEntity{ID: "minecraft:furnace", NBT: map[string]any{}}
	_, err = NewContainer(be, items)
	assert.ErrorIs(t, err, ErrNotAContainer)
}

func TestNewContainerRejectsUnknownItem(t *testing.T) {
	items, err := LoadItemRegistry()
	require.NoError(t, err)

	be := RawBlockEntity{
		ID: "minecraft:barrel",
		NBT: map[string]any{
			"Items": []any{
				map[string]any{"Slot": int8(0), "id": "minecraft:totally_made_up", "count": int32(1)},
			},
		},
	}
	_, err = NewContainer(be, items)
	assert.ErrorIs(t, err, ErrContainerParse)
}

func TestNewContainerRejectsSlotOutOfRange(t *testing.T) {
	items, err := LoadItemRegistry()
	require.NoError(t, err)

	be := RawBlockEntity{
		ID: "minecraft:trapped_chest",
		NBT: map[string]any{
			"Items": []any{
				map[string]any{"Slot": int8(27), "id": "minecraft:diamond", "count": int32(1)},
			},
		},
	}
	_, err = NewContainer(be, items)
	assert.ErrorIs(t, err, ErrContainerParse)
}
