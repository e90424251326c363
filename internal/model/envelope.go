package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message wraps a payload for the device channel. The ID is echoed back in
// the watch's acknowledgment.
type Message struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload"`
}

func NewMessage(payload Payload) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// RefreshRequested reports whether the watch asked for fresh metrics. Any
// truthy UPDATE_REQ_KEY value counts.
func (m *Message) RefreshRequested() bool {
	switch v := m.Payload[KeyUpdateReq].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}
