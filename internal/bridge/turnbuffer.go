package bridge

import "sync"

// TurnBuffer accumulates one speaker's raw audio bytes between turn
// boundaries. SnapshotAndClear hands off the accumulated bytes and resets
// the buffer in one step, so an append can never land in a turn that has
// already been dispatched.
type TurnBuffer struct {
	mu   sync.Mutex
	data []byte
}

// NewTurnBuffer creates an empty turn buffer
func NewTurnBuffer() *TurnBuffer {
	return &TurnBuffer{}
}

// Append adds raw audio bytes to the current turn
func (b *TurnBuffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.data = append(b.data, p...)
	b.mu.Unlock()
}

// Len returns the number of buffered bytes
func (b *TurnBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// SnapshotAndClear atomically takes ownership of the buffered bytes and
// resets the buffer. Returns nil if the buffer was empty.
func (b *TurnBuffer) SnapshotAndClear() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return nil
	}
	out := b.data
	b.data = nil
	return out
}
