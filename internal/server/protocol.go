// Package server defines the wire-level reply lines of the relay protocol and
// small text helpers shared across dispatch and transports.
package server

import (
	"fmt"
	"strings"
)

// Protocol error codes sent as "ERR <code>" lines.
const (
	errUsernameTaken   = "username-taken"
	errInvalidDMFormat = "invalid-dm-format"
	errCannotDMSelf    = "cannot-dm-self"
	errUserNotFound    = "user-not-found"
)

// Disconnect reasons carried in INFO notices.
const (
	reasonDisconnected = "disconnected"
	reasonIdleTimeout  = "idle timeout"
	reasonError        = "error"
)

const loginPrompt = "Please login first with LOGIN <username>"

func replyOK() string {
	return "OK"
}

func replyErr(code string) string {
	return "ERR " + code
}

func replyPong() string {
	return "PONG"
}

func replyUser(name string) string {
	return "USER " + name
}

func replyMsg(author, text string) string {
	return fmt.Sprintf("MSG %s %s", author, text)
}

func replyDM(user, text string) string {
	return fmt.Sprintf("DM %s %s", user, text)
}

func replyInfo(user, reason string) string {
	return fmt.Sprintf("INFO %s %s", user, reason)
}

// collapseSpaces trims the text and squeezes every internal whitespace run
// down to a single space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "closed pipe") ||
		strings.Contains(errStr, "broken pipe")
}
