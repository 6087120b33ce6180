package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpaces(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"a\t\tb\nc", "a b c"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, collapseSpaces(tc.in), "input %q", tc.in)
	}
}

func TestReplyFormatting(t *testing.T) {
	assert.Equal(t, "OK", replyOK())
	assert.Equal(t, "ERR username-taken", replyErr(errUsernameTaken))
	assert.Equal(t, "PONG", replyPong())
	assert.Equal(t, "USER alice", replyUser("alice"))
	assert.Equal(t, "MSG alice hello", replyMsg("alice", "hello"))
	assert.Equal(t, "DM bob hi", replyDM("bob", "hi"))
	assert.Equal(t, "INFO alice idle timeout", replyInfo("alice", reasonIdleTimeout))
}

func TestIsExpectedCloseError(t *testing.T) {
	assert.True(t, isExpectedCloseError(nil))
	assert.True(t, isExpectedCloseError(errors.New("use of closed network connection")))
	assert.True(t, isExpectedCloseError(errors.New("write tcp: broken pipe")))
	assert.False(t, isExpectedCloseError(errors.New("connection reset by peer")))
}

func TestSplitFirstField(t *testing.T) {
	token, rest, found := splitFirstField("bob hello there")
	assert.True(t, found)
	assert.Equal(t, "bob", token)
	assert.Equal(t, "hello there", rest)

	_, _, found = splitFirstField("bob")
	assert.False(t, found)
}
