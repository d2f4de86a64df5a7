package relay

import "github.com/google/uuid"

// Frame types exchanged over /ws.
const (
	FrameMessage  = "msg"
	FramePresence = "presence"
	FrameError    = "error"
)

// Frame is one JSON websocket frame. Clients send FrameMessage with To and
// Payload; the relay fills From. The relay sends FramePresence with the
// characters currently connected.
type Frame struct {
	Type    string      `json:"type"`
	From    uuid.UUID   `json:"from"`
	To      uuid.UUID   `json:"to"`
	Payload string      `json:"payload,omitempty"`
	Online  []uuid.UUID `json:"online,omitempty"`
	Error   string      `json:"error,omitempty"`
}
