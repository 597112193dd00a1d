package bridge

import "testing"

func TestTranscript_String(t *testing.T) {
	tr := NewTranscript()
	tr.Append(SpeakerAssistant, "What can I do for you today?")
	tr.Append(SpeakerCaller, "One Margherita please.")

	want := "bot: What can I do for you today?\nuser: One Margherita please.\n"
	if got := tr.String(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestTranscript_EntriesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(SpeakerCaller, "hello")

	entries := tr.Entries()
	entries[0].Text = "mutated"

	if tr.Entries()[0].Text != "hello" {
		t.Error("Expected Entries to return a copy, original was mutated")
	}
}

func TestTranscript_Len(t *testing.T) {
	tr := NewTranscript()
	if tr.Len() != 0 {
		t.Errorf("Expected empty transcript, got %d entries", tr.Len())
	}
	tr.Append(SpeakerCaller, "one")
	tr.Append(SpeakerAssistant, "two")
	if tr.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", tr.Len())
	}
}
