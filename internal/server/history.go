// Package server keeps the bounded broadcast history that is replayed to
// newly authenticated sessions.
package server

import "sync"

// HistoryEntry is a single stored broadcast.
type HistoryEntry struct {
	Author string
	Text   string
}

// History is a bounded FIFO of the most recent broadcasts. When full, the
// oldest entry is evicted first.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	cap     int
}

// NewHistory creates a history buffer holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{
		entries: make([]HistoryEntry, 0, capacity),
		cap:     capacity,
	}
}

// Append stores a broadcast, evicting the oldest entry when at capacity.
func (h *History) Append(author, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.cap {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.cap-1]
	}
	h.entries = append(h.entries, HistoryEntry{Author: author, Text: text})
}

// Snapshot returns the stored broadcasts oldest first. The returned slice is
// a copy and safe to use without holding any lock.
func (h *History) Snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len reports the number of stored broadcasts.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
