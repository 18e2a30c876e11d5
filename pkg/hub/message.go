// Package hub fans messages out to websocket subscribers over channels.
package hub

// MessageType selects the websocket frame type.
type MessageType int

const (
	// TextMessage is a JSON-encoded text frame.
	TextMessage MessageType = iota
	// BinaryMessage is raw binary data, such as an audio chunk.
	BinaryMessage
)

// Message is one frame queued for delivery.
type Message struct {
	Type MessageType
	Data []byte
}

// NewTextMessage wraps pre-encoded JSON.
func NewTextMessage(data []byte) Message {
	return Message{Type: TextMessage, Data: data}
}

// NewBinaryMessage wraps binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
