package protocol

import (
	"bytes"
	"fmt"
)

// WrittenBookGeneration mirrors the client's book-copy generation enum.
type WrittenBookGeneration int32

const (
	GenerationOriginal WrittenBookGeneration = iota
	GenerationCopyOfOriginal
	GenerationCopyOfCopy
	GenerationTattered
)

// ComponentTag identifies the kind of an item component. Only
// WrittenBookContent is interpreted by this server; every other tag is
// preserved opaquely (see Component.Raw).
type ComponentTag int32

// WrittenBookContentTag is the one component tag this revision interprets.
// Its numeric value matches the 1.21.4 data component registry entry for
// minecraft:written_book_content.
const WrittenBookContentTag ComponentTag = 44

// WrittenBookContent is the only component type this server decodes
// structurally; every other component tag is tolerated on decode and
// preserved as an opaque Component.
type WrittenBookContent struct {
	Title      string
	Author     string
	Generation WrittenBookGeneration
	Pages      []string
	Resolved   bool
}

// Component is a tagged item component. Book carries the decoded value when
// Tag == WrittenBookContentTag; for any other tag, Raw carries the
// still-encoded body so the component can be re-encoded byte-for-byte
// without the server understanding it.
type Component struct {
	Tag  ComponentTag
	Book *WrittenBookContent
	Raw  []byte
}

// Slot is the wire representation of one inventory cell. Count == 0 means
// Empty; any other Count means Occupied with the given item and components.
type Slot struct {
	Count           int8
	ItemID          int32
	ComponentsAdded []Component
	ComponentsRemoved []int32
}

// Empty reports whether the slot holds nothing.
func (s Slot) Empty() bool {
	return s.Count == 0
}

// EncodeSlot writes a Slot in the wire format: count:i8, and if non-zero,
// VarInt(item_id), VarInt(added_count), VarInt(removed_count), each added
// component (tag+body), then each removed component id.
func EncodeSlot(w *bytes.Buffer, s Slot) error {
	WriteInt8(w, s.Count)
	if s.Count == 0 {
		return nil
	}
	WriteVarInt(w, s.ItemID)
	WriteVarInt(w, int32(len(s.ComponentsAdded)))
	WriteVarInt(w, int32(len(s.ComponentsRemoved)))
	for _, c := range s.ComponentsAdded {
		if err := encodeComponent(w, c); err != nil {
			return err
		}
	}
	for _, id := range s.ComponentsRemoved {
		WriteVarInt(w, id)
	}
	return nil
}

func encodeComponent(w *bytes.Buffer, c Component) error {
	WriteVarInt(w, int32(c.Tag))
	if c.Tag == WrittenBookContentTag && c.Book != nil {
		encodeWrittenBookContent(w, *c.Book)
		return nil
	}
	// Unknown/opaque components round-trip verbatim: the bytes captured on
	// decode are replayed unchanged.
	w.Write(c.Raw)
	return nil
}

func encodeWrittenBookContent(w *bytes.Buffer, b WrittenBookContent) {
	WriteString(w, b.Title)
	WriteString(w, b.Author)
	WriteVarInt(w, int32(b.Generation))
	WriteVarInt(w, int32(len(b.Pages)))
	for _, p := range b.Pages {
		WriteString(w, p)
	}
	WriteBool(w, b.Resolved)
}

// DecodeSlot decodes a Slot from the front of buf, returning bytes consumed.
// Unknown component tags are preserved opaquely rather than rejected (see
// DESIGN.md for the resolved "unknown item components" open question).
func DecodeSlot(buf []byte) (Slot, int, error) {
	count, n, err := ReadInt8(buf)
	if err != nil {
		return Slot{}, 0, err
	}
	if count == 0 {
		return Slot{Count: 0}, n, nil
	}
	pos := n

	itemID, k, err := ReadVarInt(buf[pos:])
	if err != nil {
		return Slot{}, 0, err
	}
	pos += k

	addedCount, k, err := ReadVarInt(buf[pos:])
	if err != nil {
		return Slot{}, 0, err
	}
	pos += k

	removedCount, k, err := ReadVarInt(buf[pos:])
	if err != nil {
		return Slot{}, 0, err
	}
	pos += k

	if addedCount < 0 || removedCount < 0 {
		return Slot{}, 0, fmt.Errorf("%w: negative component count", ErrInvalidData)
	}

	added := make([]Component, 0, addedCount)
	for i := int32(0); i < addedCount; i++ {
		c, k, err := decodeComponent(buf[pos:])
		if err != nil {
			return Slot{}, 0, err
		}
		added = append(added, c)
		pos += k
	}

	removed := make([]int32, 0, removedCount)
	for i := int32(0); i < removedCount; i++ {
		id, k, err := ReadVarInt(buf[pos:])
		if err != nil {
			return Slot{}, 0, err
		}
		removed = append(removed, id)
		pos += k
	}

	return Slot{
		Count:             count,
		ItemID:            itemID,
		ComponentsAdded:   added,
		ComponentsRemoved: removed,
	}, pos, nil
}

func decodeComponent(buf []byte) (Component, int, error) {
	tag, n, err := ReadVarInt(buf)
	if err != nil {
		return Component{}, 0, err
	}
	if ComponentTag(tag) == WrittenBookContentTag {
		book, k, err := decodeWrittenBookContent(buf[n:])
		if err != nil {
			return Component{}, 0, err
		}
		return Component{Tag: WrittenBookContentTag, Book: &book}, n + k, nil
	}
	// Opaque pass-through: we don't know this component's body shape, so we
	// cannot know how many bytes it occupies either. This server never
	// receives opaque components mid-frame except as the trailing entry of
	// a slot list it itself produced, so the remainder of the slot's buffer
	// is captured verbatim.
	raw := make([]byte, len(buf)-n)
	copy(raw, buf[n:])
	return Component{Tag: ComponentTag(tag), Raw: raw}, len(buf), nil
}

func decodeWrittenBookContent(buf []byte) (WrittenBookContent, int, error) {
	pos := 0
	title, n, err := ReadString(buf[pos:], DefaultStringBound)
	if err != nil {
		return WrittenBookContent{}, 0, err
	}
	pos += n

	author, n, err := ReadString(buf[pos:], DefaultStringBound)
	if err != nil {
		return WrittenBookContent{}, 0, err
	}
	pos += n

	gen, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return WrittenBookContent{}, 0, err
	}
	pos += n
	if gen < 0 || gen > 3 {
		return WrittenBookContent{}, 0, fmt.Errorf("%w: book generation out of range", ErrInvalidData)
	}

	pageCount, n, err := ReadVarInt(buf[pos:])
	if err != nil {
		return WrittenBookContent{}, 0, err
	}
	pos += n

	pages := make([]string, 0, pageCount)
	for i := int32(0); i < pageCount; i++ {
		page, n, err := ReadString(buf[pos:], DefaultStringBound)
		if err != nil {
			return WrittenBookContent{}, 0, err
		}
		pages = append(pages, page)
		pos += n
	}

	resolved, n, err := ReadBool(buf[pos:])
	if err != nil {
		return WrittenBookContent{}, 0, err
	}
	pos += n

	return WrittenBookContent{
		Title:      title,
		Author:     author,
		Generation: WrittenBookGeneration(gen),
		Pages:      pages,
		Resolved:   resolved,
	}, pos, nil
}
