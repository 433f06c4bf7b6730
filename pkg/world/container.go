package world

import (
	"errors"
	"fmt"

	"github.com/StoreStation/limbogate/pkg/protocol"
)

// ContainerSlotCount is the chest/barrel/trapped-chest inventory size.
const ContainerSlotCount = 27

// ErrNotAContainer is returned when a block entity's id isn't one of the
// container kinds this server understands.
var ErrNotAContainer = errors.New("world: block entity is not a container")

// ErrContainerParse is returned when a recognized container's Items list
// can't be parsed.
var ErrContainerParse = errors.New("world: container parse error")

// Container is an open-able block's contents: a fixed 27-slot inventory,
// matching chest capacity.
type Container struct {
	Slots [ContainerSlotCount]protocol.Slot
}

var containerBlockIDs = map[string]bool{
	"minecraft:chest":         true,
	"minecraft:trapped_chest": true,
	"minecraft:barrel":        true,
}

// NewContainer converts a RawBlockEntity into a Container if its id names a
// container block. Entries marked keepPacked are skipped by the caller
// before this is reached.
func NewContainer(be RawBlockEntity, items *ItemRegistry) (Container, error) {
	if !containerBlockIDs[be.ID] {
		return Container{}, ErrNotAContainer
	}

	var c Container
	rawItems := list(be.NBT["Items"])
	for _, rawItem := range rawItems {
		item := compound(rawItem)
		if item == nil {
			return Container{}, fmt.Errorf("%w: item entry not a compound", ErrContainerParse)
		}
		slotIndex := i32(item, "Slot")
		if slotIndex < 0 || int(slotIndex) >= ContainerSlotCount {
			return Container{}, fmt.Errorf("%w: slot index %d out of range", ErrContainerParse, slotIndex)
		}

		idName := str(item, "id")
		itemID, ok := items.Resolve(idName)
		if !ok {
			return Container{}, fmt.Errorf("%w: unknown item id %q", ErrContainerParse, idName)
		}

		count := i32(item, "count")
		if count <= 0 || count > 127 {
			return Container{}, fmt.Errorf("%w: invalid item count %d", ErrContainerParse, count)
		}

		c.Slots[slotIndex] = protocol.Slot{Count: int8(count), ItemID: itemID}
	}
	return c, nil
}
