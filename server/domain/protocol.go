package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ワイヤーフォーマット: 1 websocketフレーム = 1 JSONエンベロープ

const (
	// inbound
	MessageTypeQueue1v1 = "queue_1v1"
	MessageTypeQueue2v2 = "queue_2v2"
	MessageTypeAction   = "action"

	// outbound
	MessageTypeQueued      = "queued"
	MessageTypeMatchStart  = "match_start"
	MessageTypeStateUpdate = "state_update"
	MessageTypeError       = "error"
)

var (
	ErrEmptyMessage   = errors.New("protocol: empty message")
	ErrMissingType    = errors.New("protocol: missing message type")
	ErrInvalidMessage = errors.New("protocol: invalid message")
)

// ClientMessage はクライアントから受信するエンベロープです。
type ClientMessage struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
}

func ParseClientMessage(data []byte) (*ClientMessage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, ErrMissingType
	}
	return &msg, nil
}

// ServerMessage はサーバーから送信するエンベロープです。
type ServerMessage struct {
	Type  string `json:"type"`
	Mode  Mode   `json:"mode,omitempty"`
	Match any    `json:"match,omitempty"`
	Error string `json:"error,omitempty"`
}

func EncodeQueued(mode Mode) []byte {
	data, _ := json.Marshal(ServerMessage{Type: MessageTypeQueued, Mode: mode})
	return data
}

func EncodeError(message string) []byte {
	data, _ := json.Marshal(ServerMessage{Type: MessageTypeError, Error: message})
	return data
}

func EncodeMatchStart(match any) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MessageTypeMatchStart, Match: match})
}

func EncodeStateUpdate(match any) ([]byte, error) {
	return json.Marshal(ServerMessage{Type: MessageTypeStateUpdate, Match: match})
}
