package world

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// AirStateID is the numeric block state id substituted for any block name
// the embedded table doesn't recognize.
const AirStateID = 0

//go:embed data/blockstates.json
var blockStatesManifest []byte

type blockStateVariant struct {
	Properties map[string]string `json:"properties"`
	ID         int32             `json:"id"`
}

// BlockStates resolves {name, properties} to a numeric block state id. The
// embedded table is a representative subset of the full registry, covering
// the block kinds the preprocessor and its tests exercise.
type BlockStates struct {
	byName map[string][]blockStateVariant
}

// LoadBlockStates parses the embedded block-states manifest.
func LoadBlockStates() (*BlockStates, error) {
	var raw map[string][]blockStateVariant
	if err := json.Unmarshal(blockStatesManifest, &raw); err != nil {
		return nil, fmt.Errorf("parse blockstates manifest: %w", err)
	}
	return &BlockStates{byName: raw}, nil
}

// Resolve returns the numeric state id for name+properties. An unknown name
// resolves to AirStateID; a known name whose variants all differ from the
// given properties resolves to its first listed variant.
func (b *BlockStates) Resolve(name string, properties map[string]string) int32 {
	variants, ok := b.byName[name]
	if !ok || len(variants) == 0 {
		return AirStateID
	}
	for _, v := range variants {
		if propertiesMatch(v.Properties, properties) {
			return v.ID
		}
	}
	return variants[0].ID
}

func propertiesMatch(want, got map[string]string) bool {
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
