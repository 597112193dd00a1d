package bridge

import (
	"bytes"
	"testing"
)

func TestTurnBuffer_AppendAndSnapshot(t *testing.T) {
	buf := NewTurnBuffer()

	buf.Append([]byte("hello "))
	buf.Append([]byte("world"))

	if buf.Len() != 11 {
		t.Errorf("Expected 11 buffered bytes, got %d", buf.Len())
	}

	got := buf.SnapshotAndClear()
	if !bytes.Equal(got, []byte("hello world")) {
		t.Errorf("Expected 'hello world', got '%s'", got)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer after snapshot, got %d bytes", buf.Len())
	}
}

func TestTurnBuffer_SnapshotEmptyReturnsNil(t *testing.T) {
	buf := NewTurnBuffer()
	if got := buf.SnapshotAndClear(); got != nil {
		t.Errorf("Expected nil from empty buffer, got %v", got)
	}
}

func TestTurnBuffer_AppendAfterSnapshotStartsFresh(t *testing.T) {
	buf := NewTurnBuffer()
	buf.Append([]byte("turn one"))
	first := buf.SnapshotAndClear()

	buf.Append([]byte("turn two"))
	second := buf.SnapshotAndClear()

	if !bytes.Equal(first, []byte("turn one")) {
		t.Errorf("Expected first snapshot 'turn one', got '%s'", first)
	}
	if !bytes.Equal(second, []byte("turn two")) {
		t.Errorf("Expected second snapshot 'turn two', got '%s'", second)
	}
}

func TestTurnBuffer_IgnoresEmptyAppend(t *testing.T) {
	buf := NewTurnBuffer()
	buf.Append(nil)
	buf.Append([]byte{})
	if buf.Len() != 0 {
		t.Errorf("Expected 0 bytes after empty appends, got %d", buf.Len())
	}
}
