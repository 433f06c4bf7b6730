package world

import (
	"compress/gzip"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

const (
	regionSectorSize  = 4096
	regionHeaderBytes = 2 * regionSectorSize // location table + timestamp table
)

var regionFileName = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

// ChunkPos identifies a chunk column by its chunk-grid coordinates (block
// coordinate >> 4).
type ChunkPos struct {
	X, Z int32
}

// World is the set of raw, region-file-decoded chunks for the map this
// server serves. It is the opaque external-collaborator output of
// LoadWorld: the preprocessor is the only consumer of its contents.
type World struct {
	Chunks map[ChunkPos]*RawChunk
}

// RawChunk is one chunk column as read straight out of its region-file NBT,
// before any preprocessing into wire format.
type RawChunk struct {
	X, Z         int32
	Sections     []RawSection
	BlockEntities []RawBlockEntity
}

// RawSection is one 16x16x16 vertical slice of a chunk column, still in its
// on-disk palette form.
type RawSection struct {
	Y             int8
	BlockPalette  []BlockStateName
	BlockData     []int64 // packed long array, empty when single-valued
}

// BlockStateName identifies a block state the way the region format stores
// it: a namespaced block name plus its property map. The block-states table
// (blockstates.go) resolves this to a numeric state id.
type BlockStateName struct {
	Name       string
	Properties map[string]string
}

// RawBlockEntity is a block entity as stored in the chunk's block_entities
// list: position, kind, and its NBT compound (used by the container
// extractor in container.go).
type RawBlockEntity struct {
	X, Y, Z    int32
	ID         string
	KeepPacked bool
	NBT        map[string]any
}

// LoadWorld reads every region file beneath <dir>/region/ and decodes it
// into a World. This is the one function in the repository that touches
// the on-disk save format; it is treated elsewhere as an
// opaque collaborator producing World.
func LoadWorld(dir string) (*World, error) {
	regionDir := filepath.Join(dir, "region")
	entries, err := os.ReadDir(regionDir)
	if err != nil {
		return nil, fmt.Errorf("read region dir: %w", err)
	}

	w := &World{Chunks: make(map[ChunkPos]*RawChunk)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !regionFileName.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(regionDir, entry.Name())
		if err := loadRegionFile(path, w); err != nil {
			return nil, fmt.Errorf("load region file %s: %w", entry.Name(), err)
		}
	}
	return w, nil
}

func loadRegionFile(path string, w *World) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, regionHeaderBytes)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read region header: %w", err)
	}

	for i := 0; i < 1024; i++ {
		entry := header[i*4 : i*4+4]
		offsetSectors := uint32(entry[0])<<16 | uint32(entry[1])<<8 | uint32(entry[2])
		sectorCount := entry[3]
		if offsetSectors == 0 && sectorCount == 0 {
			continue // chunk not present
		}

		chunk, err := readChunkAt(f, int64(offsetSectors)*regionSectorSize)
		if err != nil {
			return fmt.Errorf("read chunk %d: %w", i, err)
		}
		if chunk == nil {
			continue
		}
		w.Chunks[ChunkPos{X: chunk.X, Z: chunk.Z}] = chunk
	}
	return nil
}

func readChunkAt(f *os.File, offset int64) (*RawChunk, error) {
	if offset == 0 {
		return nil, nil
	}
	lenBuf := make([]byte, 5)
	if _, err := f.ReadAt(lenBuf, offset); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:4])
	compression := lenBuf[4]
	if length == 0 {
		return nil, nil
	}

	payload := make([]byte, length-1)
	if _, err := f.ReadAt(payload, offset+5); err != nil {
		return nil, err
	}

	var r io.Reader
	switch compression {
	case 1:
		gz, err := gzip.NewReader(bytesReader(payload))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case 2:
		zr, err := zlib.NewReader(bytesReader(payload))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case 3:
		r = bytesReader(payload)
	default:
		return nil, fmt.Errorf("unsupported chunk compression scheme %d", compression)
	}

	root, err := readRootCompound(r)
	if err != nil {
		return nil, fmt.Errorf("decode chunk nbt: %w", err)
	}
	return parseChunkNBT(root)
}

func parseChunkNBT(root map[string]any) (*RawChunk, error) {
	chunk := &RawChunk{
		X: i32(root, "xPos"),
		Z: i32(root, "zPos"),
	}

	for _, rawSection := range list(root["sections"]) {
		sec := compound(rawSection)
		if sec == nil {
			continue
		}
		section, ok := parseSection(sec)
		if ok {
			chunk.Sections = append(chunk.Sections, section)
		}
	}

	for _, rawBE := range list(root["block_entities"]) {
		be := compound(rawBE)
		if be == nil {
			continue
		}
		chunk.BlockEntities = append(chunk.BlockEntities, RawBlockEntity{
			X:          i32(be, "x"),
			Y:          i32(be, "y"),
			Z:          i32(be, "z"),
			ID:         str(be, "id"),
			KeepPacked: i32(be, "keepPacked") != 0,
			NBT:        be,
		})
	}

	return chunk, nil
}

func parseSection(sec map[string]any) (RawSection, bool) {
	yVal, ok := sec["Y"].(int8)
	if !ok {
		return RawSection{}, false
	}

	blockStates := compound(sec["block_states"])
	if blockStates == nil {
		return RawSection{Y: yVal}, true
	}

	var palette []BlockStateName
	for _, rawEntry := range list(blockStates["palette"]) {
		entry := compound(rawEntry)
		if entry == nil {
			continue
		}
		props := map[string]string{}
		if p := compound(entry["Properties"]); p != nil {
			for k, v := range p {
				if s, ok := v.(string); ok {
					props[k] = s
				}
			}
		}
		palette = append(palette, BlockStateName{Name: str(entry, "Name"), Properties: props})
	}

	return RawSection{
		Y:            yVal,
		BlockPalette: palette,
		BlockData:    longArray(blockStates, "data"),
	}, true
}

// bytesReader adapts a byte slice to io.Reader without importing bytes in
// every call site above (kept local to avoid an extra import line per use).
type byteSliceReader struct {
	b   []byte
	pos int
}

func bytesReader(b []byte) *byteSliceReader { return &byteSliceReader{b: b} }

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
