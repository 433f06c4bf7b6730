package protocol

import (
	"bytes"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionRoundTrip(t *testing.T) {
	cases := [][3]int32{
		{0, 0, 0},
		{1, 1, 1},
		{-1, -1, -1},
		{33554431, 2047, 33554431},
		{-33554432, -2048, -33554432},
	}
	for _, c := range cases {
		v, err := EncodePosition(c[0], c[1], c[2])
		require.NoError(t, err)
		x, y, z := DecodePosition(v)
		assert.Equal(t, c[0], x)
		assert.Equal(t, c[1], y)
		assert.Equal(t, c[2], z)
	}
}

func TestPositionOutOfRangeFails(t *testing.T) {
	_, err := EncodePosition(1<<25, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = EncodePosition(0, 1<<11, 0)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestBoolRejectsNonCanonicalByte(t *testing.T) {
	_, _, err := ReadBool([]byte{0x02})
	assert.ErrorIs(t, err, ErrInvalidBool)
}

func TestStringBoundIsUTF16CodeUnits(t *testing.T) {
	var w bytes.Buffer
	WriteString(&w, "hello")
	s, n, err := ReadString(w.Bytes(), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, w.Len(), n)

	_, _, err = ReadString(w.Bytes(), 4)
	assert.ErrorIs(t, err, ErrStringTooLong)
}

func TestUUIDRoundTrip(t *testing.T) {
	var w bytes.Buffer
	id := uuid.UUID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	WriteUUID(&w, id)
	got, n, err := ReadUUID(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, id, got)
}

func TestBitVecRoundTrip(t *testing.T) {
	bs := bitset.New(200)
	bs.Set(3)
	bs.Set(130)

	var w bytes.Buffer
	EncodeBitVec(&w, bs)

	got, n, err := DecodeBitVec(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w.Len(), n)
	assert.True(t, got.Test(3))
	assert.True(t, got.Test(130))
	assert.False(t, got.Test(4))
}
