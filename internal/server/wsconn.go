// Package server adapts WebSocket connections to the stream-oriented surface
// the session layer expects, so both transports share the same state machine.
package server

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn presents a websocket.Conn as a net.Conn carrying the line protocol.
// Each inbound text message is surfaced as one newline-terminated line; each
// outbound line is sent as one text message with the newline stripped.
type wsConn struct {
	ws      *websocket.Conn
	pending []byte
}

var _ net.Conn = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
				websocket.CloseAbnormalClosure) {
				return 0, io.EOF
			}
			return 0, err
		}
		c.pending = append(data, '\n')
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *wsConn) Write(p []byte) (int, error) {
	message := bytes.TrimRight(p, "\n")
	if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

func (c *wsConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error {
	return c.ws.SetReadDeadline(t)
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}
