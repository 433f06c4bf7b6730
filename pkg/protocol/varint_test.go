package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, 2, 15, 16, 127, 128, 255, 2097151, 2147483647, -1, -2147483648}
	for _, v := range values {
		buf := AppendVarInt(nil, v)
		got, n, err := ReadVarInt(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, VarIntSize(v), n)
	}
}

func TestVarIntSizeMatchesBitsUsed(t *testing.T) {
	cases := map[int32]int{
		0:   1,
		1:   1,
		127: 1,
		128: 2,
		16384: 3,
	}
	for v, want := range cases {
		assert.Equal(t, want, VarIntSize(v), "value %d", v)
	}
}

func TestVarIntIncomplete(t *testing.T) {
	_, _, err := ReadVarInt([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestVarIntTooLong(t *testing.T) {
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80}
	_, _, err := ReadVarInt(buf)
	assert.True(t, errors.Is(err, ErrTooLong))
}

func TestVarLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, 127, 128, 1 << 40, -1, -9223372036854775808}
	for _, v := range values {
		buf := AppendVarLong(nil, v)
		got, n, err := ReadVarLong(buf)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}
