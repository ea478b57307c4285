package game

import "encoding/json"

// EventType distinguishes the two broadcastable quorum events; the core
// never forwards onion-message payloads over the broadcast channel.
type EventType string

const (
	EventPhaseChanged  EventType = "phase_changed"
	EventRoundAdvanced EventType = "round_advanced"
)

// Event is the opaque-to-clients-only-in-shape payload the Broadcast Bus
// fans out; the real-time edge relays it verbatim as a WebSocket text frame.
type Event struct {
	Type  EventType `json:"type"`
	Phase string    `json:"phase,omitempty"`
	Round int       `json:"round,omitempty"`
}

func marshalEvent(e Event) []byte {
	b, err := json.Marshal(e)
	if err != nil {
		return []byte(`{"type":"` + string(e.Type) + `"}`)
	}
	return b
}
