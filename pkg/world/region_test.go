package world

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeNBTString/buildTestChunkNBT mirror the on-disk NBT shape closely enough to
// exercise region.go's reader without depending on a real .mca fixture.
func writeNBTString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, int16(len(s)))
	buf.WriteString(s)
}

func buildTestChunkNBT(t *testing.T, x, z int32) []byte {
	t.Helper()
	var buf bytes.Buffer

	buf.WriteByte(tagCompound)
	writeNBTString(&buf, "") // root name

	buf.WriteByte(tagInt)
	writeNBTString(&buf, "xPos")
	binary.Write(&buf, binary.BigEndian, x)

	buf.WriteByte(tagInt)
	writeNBTString(&buf, "zPos")
	binary.Write(&buf, binary.BigEndian, z)

	buf.WriteByte(tagList)
	writeNBTString(&buf, "sections")
	buf.WriteByte(tagCompound) // element tag
	binary.Write(&buf, binary.BigEndian, int32(1))
	buf.WriteByte(tagByte)
	writeNBTString(&buf, "Y")
	buf.WriteByte(0)
	buf.WriteByte(tagEnd) // end of section compound

	buf.WriteByte(tagList)
	writeNBTString(&buf, "block_entities")
	buf.WriteByte(tagCompound)
	binary.Write(&buf, binary.BigEndian, int32(0))

	buf.WriteByte(tagEnd) // end of root compound
	return buf.Bytes()
}

func writeTestRegionFile(t *testing.T, dir string, chunkX, chunkZ int32) {
	t.Helper()
	regionDir := filepath.Join(dir, "region")
	require.NoError(t, os.MkdirAll(regionDir, 0o755))

	nbtBytes := buildTestChunkNBT(t, chunkX, chunkZ)
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(nbtBytes)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	payload := gz.Bytes()
	chunkBlob := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(chunkBlob[0:4], uint32(len(payload)+1))
	chunkBlob[4] = 1 // gzip
	copy(chunkBlob[5:], payload)

	sectorCount := (len(chunkBlob) + regionSectorSize - 1) / regionSectorSize
	padded := make([]byte, sectorCount*regionSectorSize)
	copy(padded, chunkBlob)

	header := make([]byte, regionHeaderBytes)
	// region index 0 (local chunk coords 0,0 within this file)
	header[0] = 0
	header[1] = 0
	header[2] = 2 // sector offset, right after the 2-sector header
	header[3] = byte(sectorCount)

	var file bytes.Buffer
	file.Write(header)
	file.Write(padded)

	path := filepath.Join(regionDir, "r.0.0.mca")
	require.NoError(t, os.WriteFile(path, file.Bytes(), 0o644))
}

func TestLoadWorldReadsGzipCompressedChunk(t *testing.T) {
	dir := t.TempDir()
	writeTestRegionFile(t, dir, 3, -2)

	w, err := LoadWorld(dir)
	require.NoError(t, err)
	require.Len(t, w.Chunks, 1)

	chunk, ok := w.Chunks[ChunkPos{X: 3, Z: -2}]
	require.True(t, ok)
	require.Len(t, chunk.Sections, 1)
	assert.Equal(t, int8(0), chunk.Sections[0].Y)
	assert.Empty(t, chunk.BlockEntities)
}

func TestLoadWorldIgnoresNonRegionFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestRegionFile(t, dir, 0, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "region", "session.lock"), []byte("x"), 0o644))

	w, err := LoadWorld(dir)
	require.NoError(t, err)
	assert.Len(t, w.Chunks, 1)
}
