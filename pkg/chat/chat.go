// Package chat represents Minecraft chat/text components. This server never
// sends player chat (Non-goal), but the same component shape is reused for
// the status-ping MOTD description (JSON) and, flattened to plain text, for
// Play-phase NBT text components such as window titles and disconnect
// reasons.
package chat

import "encoding/json"

// Message is a Minecraft JSON chat/text component.
type Message struct {
	Text  string    `json:"text"`
	Bold  bool      `json:"bold,omitempty"`
	Color string    `json:"color,omitempty"`
	Extra []Message `json:"extra,omitempty"`
}

// String serializes the message to JSON, as used for the status-ping
// description field.
func (m Message) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// Plain flattens the message (ignoring formatting) to the text content an
// NBT text component needs.
func (m Message) Plain() string {
	s := m.Text
	for _, e := range m.Extra {
		s += e.Plain()
	}
	return s
}

// Text creates a simple text message.
func Text(text string) Message {
	return Message{Text: text}
}

// Colored creates a colored text message.
func Colored(text, color string) Message {
	return Message{Text: text, Color: color}
}
