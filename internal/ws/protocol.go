package ws

import "hexa-arcade/internal/engine"

const ProtocolVersion = "1.0"

// Client to server.
type JoinMessage struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name,omitempty"`
}

type ActionMessage struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id"`
	Kind      string      `json:"kind"`
	Move      engine.Move `json:"move"`
	TurnToken uint64      `json:"turn_token,omitempty"`
}

// Server to client.
type JoinResult struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ok              bool   `json:"ok"`
	Error           string `json:"error,omitempty"`
	Seat            int    `json:"seat"`
}

type ActionResult struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	RequestID       string          `json:"request_id,omitempty"`
	Ok              bool            `json:"ok"`
	Error           string          `json:"error,omitempty"`
	Applied         *engine.Applied `json:"applied,omitempty"`
}

type StateMessage struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	EventID         string          `json:"event_id"`
	Snapshot        engine.Snapshot `json:"snapshot"`
}
