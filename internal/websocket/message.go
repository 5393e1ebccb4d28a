package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeReportsChanged MessageType = "reports_changed"
	TypeSyncRequest    MessageType = "sync_request"
	TypeSyncResult     MessageType = "sync_result"
	TypeError          MessageType = "error"
	TypePing           MessageType = "ping"
	TypePong           MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ReportsChangedPayload tells the UI to re-read one product's reports.
type ReportsChangedPayload struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

type SyncRequestPayload struct {
	ProductID string `json:"product_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
