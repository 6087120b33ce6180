// Package server parses framed protocol lines into commands and applies them
// against the session and registry state.
package server

import (
	"log"
	"strings"
)

// dispatchLine interprets one complete, non-empty line against the session's
// current state. A connecting session only understands LOGIN; everything else
// earns the login prompt. An authenticated session understands WHO, PING, DM,
// and MSG; unrecognized input is logged and otherwise ignored.
func (s *Session) dispatchLine(line string) {
	name := s.Username()
	if name == "" {
		s.dispatchConnecting(line)
		return
	}

	switch {
	case line == "WHO":
		for _, user := range s.registry.Usernames() {
			s.enqueue(replyUser(user))
		}
	case line == "PING":
		s.enqueue(replyPong())
	case strings.HasPrefix(line, "DM "):
		s.dispatchDM(line[len("DM "):])
	case strings.HasPrefix(line, "MSG "):
		s.dispatchBroadcast(line[len("MSG "):])
	default:
		log.Printf("Unknown command from %s: %s", name, line)
	}
}

// dispatchConnecting handles input from a not-yet-authenticated session.
func (s *Session) dispatchConnecting(line string) {
	if !strings.HasPrefix(line, "LOGIN ") {
		s.enqueue(loginPrompt)
		return
	}

	name := strings.TrimSpace(line[len("LOGIN "):])
	if name == "" {
		s.enqueue(loginPrompt)
		return
	}

	if !s.registry.Login(s, name) {
		s.enqueue(replyErr(errUsernameTaken))
		return
	}

	// Authentication counts as activity in its own right.
	s.touch()
}

// dispatchDM validates and routes a direct message. rest is everything after
// the "DM " keyword: a target token, a run of whitespace, and the text.
func (s *Session) dispatchDM(rest string) {
	target, remainder, found := splitFirstField(strings.TrimSpace(rest))
	if !found {
		s.enqueue(replyErr(errInvalidDMFormat))
		return
	}

	text := collapseSpaces(remainder)
	if text == "" {
		return
	}

	s.registry.DirectMessage(s, target, text)
}

// dispatchBroadcast stores and fans out a MSG broadcast. Text that collapses
// to nothing is dropped without a reply.
func (s *Session) dispatchBroadcast(rest string) {
	text := collapseSpaces(rest)
	if text == "" {
		return
	}
	s.registry.Broadcast(s.Username(), text)
}

// splitFirstField splits s at the first run of whitespace, returning the
// leading token and the remainder. found is false when there is no whitespace
// separating a second part.
func splitFirstField(s string) (token, remainder string, found bool) {
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
