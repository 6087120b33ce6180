// Package server manages individual relay sessions, handling the read loop,
// write pump, idle supervision, and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session represents one connected client across its lifetime. A session is
// created unauthenticated; a successful LOGIN sets its username exactly once
// and registers it with the registry. The zero username therefore doubles as
// the "still connecting" state.
type Session struct {
	id          string
	registry    *Registry
	conn        net.Conn
	addr        string
	framer      *LineFramer
	send        chan []byte
	done        chan struct{}
	idle        *time.Timer
	idleTimeout time.Duration
	budget      *lineBudget
	rateLimit   RateLimitConfig

	mu       sync.Mutex
	username string

	closed atomic.Bool
}

// newSession creates a session for an accepted connection. The idle timer is
// not armed and no goroutines are started until the registry starts the
// session.
func newSession(registry *Registry, conn net.Conn, addr string) *Session {
	cfg := currentConfig()

	return &Session{
		id:          uuid.NewString(),
		registry:    registry,
		conn:        conn,
		addr:        addr,
		framer:      NewLineFramer(cfg.MaxLineLength),
		send:        make(chan []byte, 256),
		done:        make(chan struct{}),
		idleTimeout: cfg.IdleTimeout,
		budget:      newLineBudget(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
		rateLimit:   cfg.RateLimit,
	}
}

// ID returns the opaque session identifier assigned at accept time.
func (s *Session) ID() string {
	return s.id
}

// Username returns the registered name, or the empty string while the
// session is still unauthenticated.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) setUsername(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
}

// touch re-arms the idle deadline. It is called for every non-empty line
// received and on successful authentication; empty lines never reach it.
func (s *Session) touch() {
	if s.closed.Load() {
		return
	}
	s.idle.Reset(s.idleTimeout)
}

// armIdleTimer starts idle supervision. The timer is armed immediately at
// accept so that a client that never sends LOGIN still gets reaped.
func (s *Session) armIdleTimer() {
	s.idle = time.AfterFunc(s.idleTimeout, s.expireIdle)
}

// expireIdle fires when the inactivity window elapses. An authenticated
// session goes through the full disconnect protocol; a connecting one is
// closed silently, with no notice to anyone.
func (s *Session) expireIdle() {
	if s.closed.Load() {
		return
	}
	if name := s.Username(); name != "" {
		s.registry.Disconnect(name, reasonIdleTimeout)
		return
	}
	log.Printf("Closing idle unauthenticated connection from %s", s.addr)
	s.close()

	// A login racing this expiry may have registered the session after the
	// check above; run the disconnect protocol so no registry entry leaks.
	if name := s.Username(); name != "" {
		s.registry.Disconnect(name, reasonIdleTimeout)
	}
}

// enqueue hands a protocol line to the write pump. Writes are fire-and-forget:
// if the session is closed or its outbound buffer is full the line is dropped.
func (s *Session) enqueue(line string) bool {
	if s.closed.Load() {
		return false
	}
	payload := append([]byte(line), '\n')
	select {
	case s.send <- payload:
		return true
	default:
		log.Printf("Outbound buffer full for %s; dropping message", s.addr)
		return false
	}
}

// close transitions the session to its terminal state exactly once: it stops
// the idle timer, closes the transport, and removes the session from the
// connection tracker. It never touches the username registry; callers that
// need the disconnect protocol go through Registry.Disconnect instead.
func (s *Session) close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.idle != nil {
		s.idle.Stop()
	}
	close(s.done)
	if err := s.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error closing connection from %s: %v", s.addr, err)
		}
	}
	s.registry.untrack(s)
}

// terminate runs the appropriate teardown for a transport-level event: the
// full disconnect protocol when authenticated, a bare close otherwise.
func (s *Session) terminate(reason string) {
	if name := s.Username(); name != "" {
		s.registry.Disconnect(name, reason)
		return
	}
	s.close()
}

func (s *Session) readLoop() {
	defer s.close()

	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			lines, ferr := s.framer.Feed(buf[:n])
			for _, line := range lines {
				if !s.budget.allowLine() {
					log.Printf("Line budget exceeded for %s (%d lines per %s); discarding line", s.addr, s.rateLimit.Burst, s.rateLimit.RefillInterval)
					continue
				}
				s.touch()
				s.dispatchLine(line)
			}
			if ferr != nil {
				log.Printf("Line from %s exceeded the configured maximum length; closing connection", s.addr)
				s.terminate(reasonError)
				return
			}
		}
		if err != nil {
			s.handleReadError(err)
			return
		}
	}
}

// handleReadError classifies a read failure and runs the matching teardown.
func (s *Session) handleReadError(err error) {
	if s.closed.Load() {
		// The registry or idle timer already tore this session down; the
		// read just observed our own close.
		return
	}

	if errors.Is(err, io.EOF) {
		log.Println("Client disconnected")
		s.terminate(reasonDisconnected)
		return
	}

	if isExpectedCloseError(err) {
		s.terminate(reasonDisconnected)
		return
	}

	log.Printf("Socket error from %s: %v", s.addr, err)
	s.terminate(reasonError)
}

func (s *Session) writePump() {
	for {
		select {
		case message := <-s.send:
			if !s.writeMessage(message) {
				// A dead write path means the session can never deliver
				// again; tear it down rather than leave it lingering until
				// the idle timer fires.
				if !s.closed.Load() {
					s.terminate(reasonError)
				}
				return
			}
		case <-s.done:
			s.drainQueued()
			return
		}
	}
}

// writeMessage performs one transport write and reports whether the pump
// should keep running.
func (s *Session) writeMessage(message []byte) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		log.Printf("Error setting write deadline for %s: %v", s.addr, err)
		return false
	}
	if _, err := s.conn.Write(message); err != nil {
		if !isExpectedCloseError(err) {
			log.Printf("Error writing to %s: %v", s.addr, err)
		}
		return false
	}
	return true
}

// drainQueued makes a best-effort attempt to flush lines that were queued
// before the session closed.
func (s *Session) drainQueued() {
	for {
		select {
		case message := <-s.send:
			if !s.writeMessage(message) {
				return
			}
		default:
			return
		}
	}
}
