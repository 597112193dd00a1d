package realtime

// Server event types the bridge consumes. Everything else on the wire is ignored.
const (
	EventAudioDelta    = "response.audio.delta"
	EventAudioDone     = "response.audio.done"
	EventSpeechStarted = "input_audio_buffer.speech_started"
)

// Event is one server event from the realtime endpoint
type Event struct {
	Type   string
	ItemID string
	Delta  string // base64 audio for response.audio.delta
}

// serverEvent is the wire shape of incoming events
type serverEvent struct {
	Type   string `json:"type"`
	ItemID string `json:"item_id,omitempty"`
	Delta  string `json:"delta,omitempty"`
}

// Client event wire shapes.

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	TurnDetection     turnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Modalities        []string      `json:"modalities"`
	Temperature       float64       `json:"temperature"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type conversationItemCreate struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseCreate struct {
	Type string `json:"type"`
}

type conversationItemTruncate struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int64  `json:"audio_end_ms"`
}

type inputAudioBufferAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}
