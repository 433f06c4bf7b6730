// Package protocol implements the client-facing wire codec: VarInt/VarLong
// framing, primitive datatypes, the packet registry, and the typed packet
// definitions for protocol version 769 (game version 1.21.4).
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
)

// DefaultStringBound is the default UTF-16 code-unit bound for bounded
// strings when no explicit bound is given.
const DefaultStringBound = 32767

// ErrInvalidBool is returned when a decoded bool byte is neither 0x00 nor 0x01.
var ErrInvalidBool = fmt.Errorf("bool: value must be 0x00 or 0x01")

// ErrStringTooLong is returned when a decoded string exceeds its UTF-16 bound.
var ErrStringTooLong = fmt.Errorf("string: exceeds bound")

// ErrInvalidData is a general decode/encode error for out-of-range values
// (e.g. a Position outside its valid coordinate range).
var ErrInvalidData = fmt.Errorf("invalid data")

// -- fixed-width big-endian scalars --------------------------------------

func ReadUint16(buf []byte) (uint16, int, error) {
	if len(buf) < 2 {
		return 0, 0, ErrIncomplete
	}
	return binary.BigEndian.Uint16(buf), 2, nil
}

func WriteUint16(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func ReadInt16(buf []byte) (int16, int, error) {
	v, n, err := ReadUint16(buf)
	return int16(v), n, err
}

func WriteInt16(w *bytes.Buffer, v int16) {
	WriteUint16(w, uint16(v))
}

func ReadInt32(buf []byte) (int32, int, error) {
	if len(buf) < 4 {
		return 0, 0, ErrIncomplete
	}
	return int32(binary.BigEndian.Uint32(buf)), 4, nil
}

func WriteInt32(w *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.Write(b[:])
}

func ReadInt64(buf []byte) (int64, int, error) {
	if len(buf) < 8 {
		return 0, 0, ErrIncomplete
	}
	return int64(binary.BigEndian.Uint64(buf)), 8, nil
}

func WriteInt64(w *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.Write(b[:])
}

func ReadFloat32(buf []byte) (float32, int, error) {
	v, n, err := ReadInt32(buf)
	return math.Float32frombits(uint32(v)), n, err
}

func WriteFloat32(w *bytes.Buffer, v float32) {
	WriteInt32(w, int32(math.Float32bits(v)))
}

func ReadFloat64(buf []byte) (float64, int, error) {
	v, n, err := ReadInt64(buf)
	return math.Float64frombits(uint64(v)), n, err
}

func WriteFloat64(w *bytes.Buffer, v float64) {
	WriteInt64(w, int64(math.Float64bits(v)))
}

// ReadBool decodes a single strict boolean byte.
func ReadBool(buf []byte) (bool, int, error) {
	if len(buf) < 1 {
		return false, 0, ErrIncomplete
	}
	switch buf[0] {
	case 0x00:
		return false, 1, nil
	case 0x01:
		return true, 1, nil
	default:
		return false, 0, fmt.Errorf("%w: got 0x%02x", ErrInvalidBool, buf[0])
	}
}

func WriteBool(w *bytes.Buffer, v bool) {
	if v {
		w.WriteByte(0x01)
	} else {
		w.WriteByte(0x00)
	}
}

func ReadUint8(buf []byte) (uint8, int, error) {
	if len(buf) < 1 {
		return 0, 0, ErrIncomplete
	}
	return buf[0], 1, nil
}

func WriteUint8(w *bytes.Buffer, v uint8) {
	w.WriteByte(v)
}

func ReadInt8(buf []byte) (int8, int, error) {
	v, n, err := ReadUint8(buf)
	return int8(v), n, err
}

func WriteInt8(w *bytes.Buffer, v int8) {
	WriteUint8(w, uint8(v))
}

// -- UUID -----------------------------------------------------------------

// ReadUUID decodes a 16-byte big-endian UUID.
func ReadUUID(buf []byte) (uuid.UUID, int, error) {
	if len(buf) < 16 {
		return uuid.Nil, 0, ErrIncomplete
	}
	var u uuid.UUID
	copy(u[:], buf[:16])
	return u, 16, nil
}

func WriteUUID(w *bytes.Buffer, u uuid.UUID) {
	w.Write(u[:])
}

// -- bounded strings --------------------------------------------------------

// ReadString decodes a VarInt-length-prefixed UTF-8 string, bounded by
// UTF-16 code-unit count (not byte count).
func ReadString(buf []byte, bound int) (string, int, error) {
	length, lenSize, err := ReadVarInt(buf)
	if err != nil {
		return "", 0, err
	}
	if length < 0 {
		return "", 0, fmt.Errorf("%w: negative string length", ErrInvalidData)
	}
	if lenSize+int(length) > len(buf) {
		return "", 0, ErrIncomplete
	}
	raw := buf[lenSize : lenSize+int(length)]
	s := string(raw)
	if bound > 0 {
		units := utf16.Encode([]rune(s))
		if len(units) > bound {
			return "", 0, fmt.Errorf("%w: %d code units > %d", ErrStringTooLong, len(units), bound)
		}
	}
	return s, lenSize + int(length), nil
}

func WriteString(w *bytes.Buffer, s string) {
	b := []byte(s)
	WriteVarInt(w, int32(len(b)))
	w.Write(b)
}

// -- Position: 64-bit packed x:26 | z:26 | y:12 ----------------------------

const (
	posXZBound = 1 << 25
	posYBound  = 1 << 11
)

// EncodePosition packs (x, y, z) into the wire Position format. x,z must be
// in [-2^25, 2^25-1], y in [-2^11, 2^11-1].
func EncodePosition(x, y, z int32) (int64, error) {
	if x < -posXZBound || x > posXZBound-1 || z < -posXZBound || z > posXZBound-1 {
		return 0, fmt.Errorf("%w: x/z out of range", ErrInvalidData)
	}
	if y < -posYBound || y > posYBound-1 {
		return 0, fmt.Errorf("%w: y out of range", ErrInvalidData)
	}
	v := (int64(x&0x3FFFFFF) << 38) | (int64(z&0x3FFFFFF) << 12) | int64(y&0xFFF)
	return v, nil
}

// DecodePosition unpacks a wire Position value back into (x, y, z),
// restoring signs via arithmetic shift.
func DecodePosition(v int64) (x, y, z int32) {
	x = int32(v >> 38)
	z = int32(v << 26 >> 38)
	y = int32(v << 52 >> 52)
	return
}

// ReadPosition reads and decodes a Position from the front of buf.
func ReadPosition(buf []byte) (x, y, z int32, n int, err error) {
	v, n, err := ReadInt64(buf)
	if err != nil {
		return 0, 0, 0, n, err
	}
	x, y, z = DecodePosition(v)
	return x, y, z, n, nil
}

// WritePosition encodes and writes a Position.
func WritePosition(w *bytes.Buffer, x, y, z int32) error {
	v, err := EncodePosition(x, y, z)
	if err != nil {
		return err
	}
	WriteInt64(w, v)
	return nil
}

// -- BitVec: VarInt(long_count) || long_count x i64 (MSB-first per word) ---

// EncodeBitVec serializes a bitset.BitSet in the wire BitVec format.
func EncodeBitVec(w *bytes.Buffer, bs *bitset.BitSet) {
	words := bs.Bytes()
	WriteVarInt(w, int32(len(words)))
	for _, word := range words {
		WriteInt64(w, int64(word))
	}
}

// DecodeBitVec reads a wire BitVec into a bitset.BitSet.
func DecodeBitVec(buf []byte) (*bitset.BitSet, int, error) {
	count, n, err := ReadVarInt(buf)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, fmt.Errorf("%w: negative bitvec length", ErrInvalidData)
	}
	consumed := n
	words := make([]uint64, count)
	for i := int32(0); i < count; i++ {
		v, wn, err := ReadInt64(buf[consumed:])
		if err != nil {
			return nil, 0, err
		}
		words[i] = uint64(v)
		consumed += wn
	}
	return bitset.From(words), consumed, nil
}

// Bytes / Rest -------------------------------------------------------------

// ReadRest borrows the remainder of buf unchanged (zero-copy).
func ReadRest(buf []byte) []byte {
	return buf
}

// ReadBoundedBytes reads a VarInt-length-prefixed byte slice (zero-copy
// borrow of buf's backing array).
func ReadBoundedBytes(buf []byte) ([]byte, int, error) {
	length, lenSize, err := ReadVarInt(buf)
	if err != nil {
		return nil, 0, err
	}
	if length < 0 || lenSize+int(length) > len(buf) {
		return nil, 0, ErrIncomplete
	}
	return buf[lenSize : lenSize+int(length)], lenSize + int(length), nil
}

func WriteBoundedBytes(w *bytes.Buffer, b []byte) {
	WriteVarInt(w, int32(len(b)))
	w.Write(b)
}
