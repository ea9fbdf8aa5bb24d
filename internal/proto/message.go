package proto

import (
	"encoding/json"
	"fmt"

	"github.com/pushkargithub0611/comm-module-goa/internal/chat"
)

// Envelope is the tagged JSON frame exchanged over the realtime channel,
// discriminated by its type field.
type Envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

const (
	// TypeSendMessage carries an already-persisted message to other viewers.
	TypeSendMessage = "send_message"
	// TypeNewMessage delivers a message created on the backend.
	TypeNewMessage = "new_message"
)

// OutboundMessage is the payload of a send_message envelope.
type OutboundMessage struct {
	Content  string `json:"content"`
	GroupID  string `json:"group_id"`
	SenderID string `json:"sender_id"`
}

// EncodeSend serializes an outbound send_message frame.
func EncodeSend(content, groupID, senderID string) ([]byte, error) {
	payload, err := json.Marshal(OutboundMessage{
		Content:  content,
		GroupID:  groupID,
		SenderID: senderID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send payload: %w", err)
	}
	frame, err := json.Marshal(Envelope{Type: TypeSendMessage, Message: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return frame, nil
}

// DecodeDelivery parses an inbound frame. ok is false when the frame is a
// well-formed envelope of a type this client does not recognize; those are
// skipped so newer servers can add types without breaking older clients.
func DecodeDelivery(frame []byte) (chat.Message, bool, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return chat.Message{}, false, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type != TypeNewMessage || len(env.Message) == 0 {
		return chat.Message{}, false, nil
	}

	var msg chat.Message
	if err := json.Unmarshal(env.Message, &msg); err != nil {
		return chat.Message{}, false, fmt.Errorf("unmarshal message: %w", err)
	}
	return msg, true, nil
}
