package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHistoryAppendAndSnapshot verifies that entries come back oldest first
// in insertion order.
func TestHistoryAppendAndSnapshot(t *testing.T) {
	h := NewHistory(100)

	h.Append("alice", "one")
	h.Append("bob", "two")
	h.Append("alice", "three")

	snapshot := h.Snapshot()
	assert.Equal(t, []HistoryEntry{
		{Author: "alice", Text: "one"},
		{Author: "bob", Text: "two"},
		{Author: "alice", Text: "three"},
	}, snapshot)
}

// TestHistoryEvictsOldestFirst verifies FIFO eviction once the buffer is at
// capacity.
func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(3)

	for i := 1; i <= 5; i++ {
		h.Append("alice", fmt.Sprintf("msg-%d", i))
	}

	snapshot := h.Snapshot()
	assert.Equal(t, 3, len(snapshot))
	assert.Equal(t, "msg-3", snapshot[0].Text)
	assert.Equal(t, "msg-5", snapshot[2].Text)
}

// TestHistorySnapshotIsACopy verifies that mutating the returned slice does
// not affect the stored history.
func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewHistory(10)
	h.Append("alice", "original")

	snapshot := h.Snapshot()
	snapshot[0].Text = "mutated"

	assert.Equal(t, "original", h.Snapshot()[0].Text)
}

// TestHistoryLen verifies the length accessor tracks appends and eviction.
func TestHistoryLen(t *testing.T) {
	h := NewHistory(2)
	assert.Equal(t, 0, h.Len())

	h.Append("a", "1")
	h.Append("a", "2")
	h.Append("a", "3")
	assert.Equal(t, 2, h.Len())
}
