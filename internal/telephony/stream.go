package telephony

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Stream wraps the Twilio Media Streams websocket for the outbound direction.
// Writes are serialized; gorilla/websocket allows only one concurrent writer.
type Stream struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewStream wraps an upgraded websocket connection
func NewStream(conn *websocket.Conn) *Stream {
	return &Stream{conn: conn}
}

// SendMedia forwards one base64 audio payload downstream
func (s *Stream) SendMedia(streamSid, payload string) error {
	return s.writeJSON(mediaFrame{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     mediaPayload{Payload: payload},
	})
}

// SendMark asks the telephony leg to acknowledge once the audio queued so far has played
func (s *Stream) SendMark(streamSid, name string) error {
	return s.writeJSON(markFrame{
		Event:     EventMark,
		StreamSid: streamSid,
		Mark:      markPayload{Name: name},
	})
}

// SendClear flushes any buffered but unplayed audio on the telephony leg
func (s *Stream) SendClear(streamSid string) error {
	return s.writeJSON(clearFrame{
		Event:     EventClear,
		StreamSid: streamSid,
	})
}

// Close closes the websocket with a normal closure frame
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *Stream) writeJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}
