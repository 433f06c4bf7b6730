package world

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// ItemRegistry resolves a namespaced item id (e.g. "minecraft:diamond") to
// the numeric item id the Slot wire format expects (pkg/protocol/slot.go).
// Like BlockStates, the embedded table is a representative subset: the
// container extractor only needs enough coverage to exercise the Slot
// codec end to end, not the full item registry.
type ItemRegistry struct {
	byName map[string]int32
}

//go:embed data/items.json
var itemsManifest []byte

// LoadItemRegistry parses the embedded item-id manifest.
func LoadItemRegistry() (*ItemRegistry, error) {
	var raw map[string]int32
	if err := json.Unmarshal(itemsManifest, &raw); err != nil {
		return nil, fmt.Errorf("parse items manifest: %w", err)
	}
	return &ItemRegistry{byName: raw}, nil
}

// Resolve returns the numeric item id for name, and false if name isn't in
// the table.
func (r *ItemRegistry) Resolve(name string) (int32, bool) {
	id, ok := r.byName[name]
	return id, ok
}
