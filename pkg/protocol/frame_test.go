package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	raw := EncodeFrame(7, body)

	d := NewDecoder()
	d.Feed(raw)
	frame, err := d.Next()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, int32(7), frame.ID)
	assert.Equal(t, body, frame.Body)
}

// TestDecoderAcrossArbitraryCuts feeds N valid frames split at arbitrary
// byte boundaries and checks exactly N frames come out in order regardless
// of how the reads are split.
func TestDecoderAcrossArbitraryCuts(t *testing.T) {
	var all []byte
	const n = 5
	for i := 0; i < n; i++ {
		all = append(all, EncodeFrame(int32(i), []byte{byte(i), byte(i * 2)})...)
	}

	d := NewDecoder()
	var got []*Frame
	for i := 0; i < len(all); i += 3 {
		end := i + 3
		if end > len(all) {
			end = len(all)
		}
		d.Feed(all[i:end])
		for {
			f, err := d.Next()
			require.NoError(t, err)
			if f == nil {
				break
			}
			got = append(got, f)
		}
	}

	require.Len(t, got, n)
	for i, f := range got {
		assert.Equal(t, int32(i), f.ID)
	}
}

func TestDecoderRejectsOversizedFrame(t *testing.T) {
	var buf []byte
	buf = AppendVarInt(buf, MaxFrameLength+1)
	d := NewDecoder()
	d.Feed(buf)
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDecoderNoPartialFrameLeaves(t *testing.T) {
	raw := EncodeFrame(1, []byte{9, 9, 9})
	d := NewDecoder()
	d.Feed(raw[:len(raw)-1])
	f, err := d.Next()
	require.NoError(t, err)
	assert.Nil(t, f)

	d.Feed(raw[len(raw)-1:])
	f, err = d.Next()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, int32(1), f.ID)
}
