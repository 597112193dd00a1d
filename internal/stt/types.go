package stt

import "context"

// Transcriber converts one turn's worth of raw audio into text.
// Implementations may return an empty string for unintelligible audio;
// callers must not treat that as an error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
