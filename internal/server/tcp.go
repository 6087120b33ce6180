// Package server accepts raw TCP connections for the line protocol and hands
// them to the registry as sessions.
package server

import (
	"errors"
	"log"
	"net"
	"sync/atomic"
	"time"
)

// TCPServer listens on a stream socket and instantiates a session per
// accepted connection.
type TCPServer struct {
	addr     string
	registry *Registry
	listener net.Listener
	closing  atomic.Bool
}

// NewTCPServer creates a TCP front end bound to addr, feeding sessions into
// the provided registry.
func NewTCPServer(addr string, registry *Registry) *TCPServer {
	return &TCPServer{
		addr:     addr,
		registry: registry,
	}
}

// Listen binds the listening socket. It is split from Serve so callers (and
// tests binding port zero) can learn the actual address before serving.
func (t *TCPServer) Listen() error {
	listener, err := net.Listen("tcp", t.addr)
	if err != nil {
		return err
	}
	t.listener = listener
	log.Printf("Chat server listening on %s", listener.Addr())
	return nil
}

// Addr returns the bound listener address. It is nil before Listen succeeds.
func (t *TCPServer) Addr() net.Addr {
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// Serve accepts connections until the listener is closed. It returns nil when
// the listener was closed by Shutdown. Transient accept failures are retried
// with backoff so a burst of errors never takes the server down.
func (t *TCPServer) Serve() error {
	var retryDelay time.Duration
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if retryDelay == 0 {
				retryDelay = 5 * time.Millisecond
			} else {
				retryDelay *= 2
			}
			if retryDelay > time.Second {
				retryDelay = time.Second
			}
			log.Printf("Accept error: %v; retrying in %v", err, retryDelay)
			time.Sleep(retryDelay)
			continue
		}
		retryDelay = 0
		t.registry.StartSession(conn, conn.RemoteAddr().String())
	}
}

// Shutdown stops accepting new connections by closing the listener. Existing
// sessions are left to the registry's shutdown.
func (t *TCPServer) Shutdown() error {
	t.closing.Store(true)
	if t.listener == nil {
		return nil
	}
	log.Println("Shutting down TCP listener...")
	return t.listener.Close()
}
