// Package server turns the raw byte stream of a connection into discrete
// protocol lines, independent of how the transport chunks its reads.
package server

import (
	"bytes"
	"errors"
	"strings"
)

// ErrLineTooLong is reported by the framer when a configured maximum line
// length is exceeded before a newline arrives.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// LineFramer accumulates raw chunks and emits complete newline-delimited
// lines. A trailing partial line is retained across Feed calls, so the emitted
// line sequence depends only on the reassembled byte stream, never on chunk
// boundaries. Emitted lines are trimmed of surrounding whitespace; lines that
// trim to empty are discarded.
type LineFramer struct {
	buf     []byte
	maxLine int
}

// NewLineFramer creates a framer. maxLine caps the pending unterminated line
// in bytes; zero means unbounded.
func NewLineFramer(maxLine int) *LineFramer {
	return &LineFramer{maxLine: maxLine}
}

// Feed appends a chunk and returns every complete line it unlocked, in order.
// It returns ErrLineTooLong when the retained partial line outgrows the
// configured maximum; the framer is unusable for that connection afterwards.
func (f *LineFramer) Feed(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(f.buf[:idx]))
		f.buf = f.buf[idx+1:]
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	if f.maxLine > 0 && len(f.buf) > f.maxLine {
		return lines, ErrLineTooLong
	}

	// Let a fully consumed buffer be reclaimed instead of pinning the
	// original backing array.
	if len(f.buf) == 0 {
		f.buf = nil
	}

	return lines, nil
}

// Pending returns the number of buffered bytes awaiting a newline.
func (f *LineFramer) Pending() int {
	return len(f.buf)
}
