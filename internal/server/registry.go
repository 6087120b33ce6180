// Package server coordinates session registration, message broadcast, and
// connection cleanup for the GoRelay system via the Registry type.
package server

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry is the process-wide directory of authenticated sessions. It owns
// the username map, the broadcast history, and a tracker of every live
// connection (authenticated or not) so shutdown can reach all of them.
//
// All username-map and history mutation happens under the registry mutex held
// for the duration of each operation, so no two dispatches ever observe
// inconsistent registry state.
type Registry struct {
	mu       sync.Mutex
	users    map[string]*Session
	history  *History
	sessions cmap.ConcurrentMap[string, *Session]
	wg       sync.WaitGroup
}

// NewRegistry creates a registry sized from the active configuration. Each
// test constructs its own registry; there is no ambient global instance.
func NewRegistry() *Registry {
	cfg := currentConfig()
	return &Registry{
		users:    make(map[string]*Session),
		history:  NewHistory(cfg.HistorySize),
		sessions: cmap.New[*Session](),
	}
}

// StartSession wraps an accepted connection in a Session, arms its idle
// timer, and launches its read loop and write pump.
func (r *Registry) StartSession(conn net.Conn, addr string) *Session {
	s := newSession(r, conn, addr)
	r.sessions.Set(s.id, s)
	s.armIdleTimer()

	log.Printf("Client connected from %s (session %s). Total connections: %d", addr, s.id, r.sessions.Count())

	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		s.writePump()
	}()
	go func() {
		defer r.wg.Done()
		s.readLoop()
	}()

	return s
}

func (r *Registry) untrack(s *Session) {
	r.sessions.Remove(s.id)
}

// Login registers a username for a connecting session. On success it sends
// the OK acknowledgement and replays the stored history to the session before
// releasing the registry lock, so no live broadcast can interleave ahead of
// the replay. It reports false when the name is already taken.
func (r *Registry) Login(s *Session, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.users[name]; taken {
		return false
	}
	if s.closed.Load() {
		return false
	}

	r.users[name] = s
	s.setUsername(name)

	// The idle timer may have torn the session down between the guard above
	// and registration; whoever observes the closed flag last rolls back.
	if s.closed.Load() {
		delete(r.users, name)
		return false
	}
	s.enqueue(replyOK())
	for _, entry := range r.history.Snapshot() {
		s.enqueue(replyMsg(entry.Author, entry.Text))
	}

	log.Printf("%s logged in", name)
	return true
}

// Disconnect runs the disconnect protocol for a registered username: remove
// it from the registry, notify every remaining authenticated session with an
// INFO notice, then close the originating transport. Calling it for a name
// that is not registered is a no-op, so concurrent teardown paths cannot
// produce duplicate notices.
func (r *Registry) Disconnect(username, reason string) {
	r.mu.Lock()
	s, ok := r.users[username]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.users, username)

	notice := replyInfo(username, reason)
	for _, peer := range r.users {
		peer.enqueue(notice)
	}
	r.mu.Unlock()

	s.close()
	log.Printf("%s disconnected (%s)", username, reason)
}

// Broadcast stores a message in the history and delivers it to every
// registered session, including the author's own.
func (r *Registry) Broadcast(author, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history.Append(author, text)
	line := replyMsg(author, text)
	for _, peer := range r.users {
		peer.enqueue(line)
	}
}

// DirectMessage delivers a private message from sender to target and echoes
// a delivery confirmation back to the sender. Self-targeting and unknown
// targets are reported to the sender as protocol errors.
func (r *Registry) DirectMessage(sender *Session, target, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	from := sender.Username()
	if target == from {
		sender.enqueue(replyErr(errCannotDMSelf))
		return
	}

	peer, ok := r.users[target]
	if !ok {
		sender.enqueue(replyErr(errUserNotFound))
		return
	}

	peer.enqueue(replyDM(from, text))
	sender.enqueue(replyDM(target, text))
}

// Usernames returns a snapshot of the currently registered names. Iteration
// order is unspecified.
func (r *Registry) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	return names
}

// SessionCount reports the number of live connections, registered or not.
func (r *Registry) SessionCount() int {
	return r.sessions.Count()
}

// History exposes the broadcast history, primarily for tests.
func (r *Registry) History() *History {
	return r.history
}

// Shutdown closes every tracked connection and waits for their goroutines to
// finish, or until the timeout is reached.
func (r *Registry) Shutdown(timeout time.Duration) error {
	log.Println("Shutting down all client connections...")

	count := 0
	for item := range r.sessions.IterBuffered() {
		item.Val.close()
		count++
	}
	log.Printf("Closed %d client connections", count)

	r.mu.Lock()
	r.users = make(map[string]*Session)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Registry shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Registry shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
