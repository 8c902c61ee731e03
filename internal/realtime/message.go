package realtime

import (
	"encoding/json"
	"fmt"
)

// Message is the wire envelope shared by every relay driver and the websocket gateway.
type Message struct {
	Channel Channel         `json:"channel"`
	Event   Event           `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func newMessage(ch Channel, ev Event, payload any) (Message, error) {
	if !ch.Valid() {
		return Message{}, ErrUnknownChannel
	}
	if !ev.Valid() {
		return Message{}, ErrUnknownEvent
	}
	msg := Message{Channel: ch, Event: ev}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Message{}, fmt.Errorf("realtime: encode payload for %s: %w", ev, err)
		}
		msg.Data = data
	}
	return msg, nil
}

func encodeMessage(ch Channel, ev Event, payload any) ([]byte, error) {
	msg, err := newMessage(ch, ev, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func decodeMessage(b []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(b, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
