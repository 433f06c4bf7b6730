package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotRoundTripEmpty(t *testing.T) {
	var w bytes.Buffer
	require.NoError(t, EncodeSlot(&w, Slot{Count: 0}))

	got, n, err := DecodeSlot(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w.Len(), n)
	assert.True(t, got.Empty())
}

func TestSlotRoundTripOccupiedNoComponents(t *testing.T) {
	s := Slot{Count: 5, ItemID: 42}
	var w bytes.Buffer
	require.NoError(t, EncodeSlot(&w, s))

	got, n, err := DecodeSlot(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w.Len(), n)
	assert.Equal(t, s, got)
}

func TestSlotRoundTripWithWrittenBook(t *testing.T) {
	s := Slot{
		Count:  1,
		ItemID: 827,
		ComponentsAdded: []Component{
			{
				Tag: WrittenBookContentTag,
				Book: &WrittenBookContent{
					Title:      "Diary",
					Author:     "Steve",
					Generation: GenerationOriginal,
					Pages:      []string{"page one", "page two"},
					Resolved:   true,
				},
			},
		},
		ComponentsRemoved: []int32{5, 9},
	}
	var w bytes.Buffer
	require.NoError(t, EncodeSlot(&w, s))

	got, n, err := DecodeSlot(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, w.Len(), n)
	require.Len(t, got.ComponentsAdded, 1)
	assert.Equal(t, s.ComponentsAdded[0].Book, got.ComponentsAdded[0].Book)
	assert.Equal(t, s.ComponentsRemoved, got.ComponentsRemoved)
}

func TestSlotUnknownComponentPreservedOpaquely(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	s := Slot{
		Count:  1,
		ItemID: 1,
		ComponentsAdded: []Component{
			{Tag: ComponentTag(999), Raw: raw},
		},
	}
	var w bytes.Buffer
	require.NoError(t, EncodeSlot(&w, s))

	got, _, err := DecodeSlot(w.Bytes())
	require.NoError(t, err)
	require.Len(t, got.ComponentsAdded, 1)
	assert.Equal(t, ComponentTag(999), got.ComponentsAdded[0].Tag)
	assert.Equal(t, raw, got.ComponentsAdded[0].Raw)
}
