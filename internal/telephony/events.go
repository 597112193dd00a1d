package telephony

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Event names on the Twilio Media Streams websocket.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
	EventClear     = "clear"
)

// Message is one inbound frame from the Twilio Media Streams websocket
type Message struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid,omitempty"`
	Media     *Media `json:"media,omitempty"`
	Start     *Start `json:"start,omitempty"`
	Mark      *Mark  `json:"mark,omitempty"`
	Stop      *Stop  `json:"stop,omitempty"`
}

// Media is the payload of a media event
type Media struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"` // milliseconds since stream start
	Payload   string `json:"payload"`             // base64 G.711 audio
}

// Start is the payload of a start event
type Start struct {
	AccountSid       string            `json:"accountSid"`
	CallSid          string            `json:"callSid"`
	StreamSid        string            `json:"streamSid"`
	Tracks           []string          `json:"tracks,omitempty"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// Mark is the payload of a mark acknowledgment event
type Mark struct {
	Name string `json:"name"`
}

// Stop is the payload of a stop event
type Stop struct {
	AccountSid string `json:"accountSid"`
	CallSid    string `json:"callSid"`
}

// Parse decodes one raw websocket frame into a Message
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed telephony frame: %w", err)
	}
	if msg.Event == "" {
		return nil, fmt.Errorf("telephony frame missing event field")
	}
	return &msg, nil
}

// TimestampMs returns the media timestamp in milliseconds. Twilio sends it
// as a decimal string; unparseable values come back as 0 with an error.
func (m *Media) TimestampMs() (int64, error) {
	if m.Timestamp == "" {
		return 0, nil
	}
	ts, err := strconv.ParseInt(m.Timestamp, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad media timestamp %q: %w", m.Timestamp, err)
	}
	return ts, nil
}

// Outbound frame shapes sent back to the telephony leg.

type mediaFrame struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     mediaPayload `json:"media"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type markFrame struct {
	Event     string      `json:"event"`
	StreamSid string      `json:"streamSid"`
	Mark      markPayload `json:"mark"`
}

type markPayload struct {
	Name string `json:"name"`
}

type clearFrame struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}
