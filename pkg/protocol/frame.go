package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxFrameLength is the hard ceiling on a frame's declared body length
// (VarInt(length) || VarInt(packet_id) || body). Frames above this size are
// rejected as a protocol error rather than buffered.
const MaxFrameLength = 2097152

// ErrFrameTooLarge is returned when a frame declares a body longer than
// MaxFrameLength.
var ErrFrameTooLarge = errors.New("frame: declared length exceeds maximum")

// Frame is one wire-level packet after length-and-id parsing: a numeric
// packet id plus the remaining, still-encoded body bytes. Frames are
// produced by Decoder.Next and consumed exactly once by the connection
// state machine.
type Frame struct {
	ID   int32
	Body []byte
}

// Decoder accumulates bytes fed from a socket and yields complete Frames.
// It never discards unread bytes: a partial frame stays buffered until more
// data arrives.
type Decoder struct {
	buf bytes.Buffer
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends newly-read bytes to the decoder's buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf.Write(p)
}

// Next attempts to decode one frame from the buffered bytes. It returns
// (nil, nil) when there isn't yet a complete frame buffered ("not yet"), a
// non-nil Frame on success, or an error for malformed input. On success or
// "not yet", the unread remainder of the buffer is preserved intact.
func (d *Decoder) Next() (*Frame, error) {
	raw := d.buf.Bytes()

	length, lenSize, err := ReadVarInt(raw)
	if err != nil {
		if errors.Is(err, ErrIncomplete) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode frame length: %w", err)
	}
	if length < 0 || int(length) > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
	}

	total := lenSize + int(length)
	if len(raw) < total {
		return nil, nil
	}

	body := raw[lenSize:total]
	packetID, idSize, err := ReadVarInt(body)
	if err != nil {
		return nil, fmt.Errorf("decode frame packet id: %w", err)
	}

	// Copy out: the frame owns its body so the decoder's internal buffer is
	// free to advance past it.
	owned := make([]byte, len(body)-idSize)
	copy(owned, body[idSize:])

	// Advance past the consumed frame.
	remaining := make([]byte, len(raw)-total)
	copy(remaining, raw[total:])
	d.buf.Reset()
	d.buf.Write(remaining)

	return &Frame{ID: packetID, Body: owned}, nil
}

// Encoder builds one outbound, length-prefixed frame at a time.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode serializes packetID and body as a complete frame
// (VarInt(length) || VarInt(id) || body) into the encoder's internal
// buffer, ready for Take.
func (e *Encoder) Encode(packetID int32, body []byte) {
	idSize := VarIntSize(packetID)
	total := int32(idSize + len(body))

	WriteVarInt(&e.buf, total)
	WriteVarInt(&e.buf, packetID)
	e.buf.Write(body)
}

// Take drains and returns the encoder's accumulated bytes.
func (e *Encoder) Take() []byte {
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	e.buf.Reset()
	return out
}

// EncodeFrame is a convenience one-shot encode for a single packet.
func EncodeFrame(packetID int32, body []byte) []byte {
	var e Encoder
	e.Encode(packetID, body)
	return e.Take()
}
