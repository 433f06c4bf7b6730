package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Minimal NBT writer/reader. Registry content and the full NBT schema are
// opaque embedded blobs; this file implements
// only the handful of tags the server itself produces or reads inline in
// packet bodies: text components (window titles, disconnect reasons) and
// the generic compound/string/list/byte/int shapes those need.

const (
	nbtTagEnd      = 0x00
	nbtTagByte     = 0x01
	nbtTagInt      = 0x03
	nbtTagFloat    = 0x05
	nbtTagDouble   = 0x06
	nbtTagString   = 0x08
	nbtTagList     = 0x09
	nbtTagCompound = 0x0A
)

// NBTCompoundWriter builds one named NBT compound field-by-field. It only
// covers the scalar field shapes registry entries (dimension type, biome)
// need; anything richer stays out of scope.
type NBTCompoundWriter struct {
	w *bytes.Buffer
}

// NewNBTCompoundWriter opens an unnamed root compound, the shape expected
// when a compound is embedded directly in a packet body.
func NewNBTCompoundWriter(w *bytes.Buffer) NBTCompoundWriter {
	w.WriteByte(nbtTagCompound)
	var zero [2]byte
	w.Write(zero[:])
	return NBTCompoundWriter{w: w}
}

func (c NBTCompoundWriter) Byte(name string, v int8) {
	c.w.WriteByte(nbtTagByte)
	writeNBTString(c.w, name)
	c.w.WriteByte(byte(v))
}

func (c NBTCompoundWriter) Int(name string, v int32) {
	c.w.WriteByte(nbtTagInt)
	writeNBTString(c.w, name)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	c.w.Write(b[:])
}

func (c NBTCompoundWriter) Float(name string, v float32) {
	c.w.WriteByte(nbtTagFloat)
	writeNBTString(c.w, name)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	c.w.Write(b[:])
}

func (c NBTCompoundWriter) Double(name string, v float64) {
	c.w.WriteByte(nbtTagDouble)
	writeNBTString(c.w, name)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	c.w.Write(b[:])
}

func (c NBTCompoundWriter) String(name, v string) {
	c.w.WriteByte(nbtTagString)
	writeNBTString(c.w, name)
	writeNBTString(c.w, v)
}

// End closes the compound opened by NewNBTCompoundWriter.
func (c NBTCompoundWriter) End() {
	c.w.WriteByte(nbtTagEnd)
}

// writeNBTString writes an NBT-encoded modified-UTF-8-ish string: a
// big-endian uint16 length followed by the UTF-8 bytes. (The server never
// emits characters outside the BMP in practice, so plain UTF-8 suffices.)
func writeNBTString(w *bytes.Buffer, s string) {
	b := []byte(s)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(b)))
	w.Write(lenBuf[:])
	w.Write(b)
}

func readNBTString(buf []byte) (string, int, error) {
	if len(buf) < 2 {
		return "", 0, ErrIncomplete
	}
	n := int(binary.BigEndian.Uint16(buf))
	if len(buf) < 2+n {
		return "", 0, ErrIncomplete
	}
	return string(buf[2 : 2+n]), 2 + n, nil
}

// WriteTextComponent writes a root, unnamed NBT compound {"text": text}
// terminated with TAG_End, which is the minimal valid text component for
// protocol 769's NBT-carried chat fields (window titles, disconnect
// reasons).
func WriteTextComponent(w *bytes.Buffer, text string) {
	w.WriteByte(nbtTagCompound)
	// Root compound is unnamed in this context (embedded directly in a
	// packet body, not a standalone NBT file), so its name length is 0.
	var zero [2]byte
	w.Write(zero[:])

	w.WriteByte(nbtTagString)
	writeNBTString(w, "text")
	writeNBTString(w, text)

	w.WriteByte(nbtTagEnd)
}

// ReadTextComponent decodes the {"text": ...} compound written by
// WriteTextComponent. It skips additional string, byte and int fields it
// doesn't recognize; a field of any other tag type (list, nested compound,
// float, ...) is rejected with ErrInvalidData.
func ReadTextComponent(buf []byte) (string, int, error) {
	pos := 0
	if len(buf) < 3 {
		return "", 0, ErrIncomplete
	}
	if buf[pos] != nbtTagCompound {
		return "", 0, fmt.Errorf("%w: expected TAG_Compound root", ErrInvalidData)
	}
	pos++
	nameLen := int(binary.BigEndian.Uint16(buf[pos:]))
	pos += 2 + nameLen

	text := ""
	for {
		if pos >= len(buf) {
			return "", 0, ErrIncomplete
		}
		tag := buf[pos]
		pos++
		if tag == nbtTagEnd {
			break
		}
		name, n, err := readNBTString(buf[pos:])
		if err != nil {
			return "", 0, err
		}
		pos += n

		switch tag {
		case nbtTagString:
			val, n, err := readNBTString(buf[pos:])
			if err != nil {
				return "", 0, err
			}
			pos += n
			if name == "text" {
				text = val
			}
		case nbtTagByte:
			pos++
		case nbtTagInt:
			pos += 4
		default:
			return "", 0, fmt.Errorf("%w: unsupported nbt tag 0x%02x in text component", ErrInvalidData, tag)
		}
	}
	return text, pos, nil
}
