package bridge

import (
	"strings"
	"sync"
)

// Speaker tags used in the call transcript.
const (
	SpeakerCaller    = "user"
	SpeakerAssistant = "bot"
)

// Entry is one speaker-tagged turn in the call transcript
type Entry struct {
	Speaker string
	Text    string
}

// Transcript is the ordered, append-only textual log of a call. Entries are
// appended in transcription completion order, which may differ from the
// order the turns were spoken when a slow transcription resolves late.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTranscript creates an empty transcript
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds one turn to the transcript
func (t *Transcript) Append(speaker, text string) {
	t.mu.Lock()
	t.entries = append(t.entries, Entry{Speaker: speaker, Text: text})
	t.mu.Unlock()
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns a copy of the transcript entries
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// String renders the transcript as "speaker: text" lines, the shape the
// extraction collaborator consumes.
func (t *Transcript) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sb strings.Builder
	for _, e := range t.entries {
		sb.WriteString(e.Speaker)
		sb.WriteString(": ")
		sb.WriteString(e.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
