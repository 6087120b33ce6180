package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setTestConfig applies a test configuration and restores defaults afterwards.
func setTestConfig(t *testing.T, mutate func(*Config)) {
	t.Helper()

	cfg := NewConfig()
	if mutate != nil {
		mutate(cfg)
	}
	SetConfig(cfg)
	t.Cleanup(func() { SetConfig(nil) })
}

// stubAddr satisfies net.Addr for in-memory connections and listeners.
type stubAddr struct{}

func (stubAddr) Network() string { return "stub" }
func (stubAddr) String() string  { return "stub" }

// testClient wraps the client side of a connection with line-level helpers
// for driving the protocol in tests.
type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// newPipeClient attaches an in-memory connection to the registry and returns
// the client end.
func newPipeClient(t *testing.T, registry *Registry) *testClient {
	t.Helper()

	serverEnd, clientEnd := net.Pipe()
	registry.StartSession(serverEnd, "pipe")
	t.Cleanup(func() { _ = clientEnd.Close() })

	return &testClient{
		t:      t,
		conn:   clientEnd,
		reader: bufio.NewReader(clientEnd),
	}
}

// dialClient connects to a running TCP server.
func dialClient(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err, "failed to dial %s", addr)
	t.Cleanup(func() { _ = conn.Close() })

	return &testClient{
		t:      t,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// send writes one protocol line.
func (c *testClient) send(line string) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := io.WriteString(c.conn, line+"\n")
	require.NoError(c.t, err, "failed to send %q", line)
}

// sendRaw writes raw bytes, ignoring errors; used when the peer may already
// be gone.
func (c *testClient) sendRaw(data string) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = io.WriteString(c.conn, data)
}

// readLine reads the next protocol line, failing the test on timeout.
func (c *testClient) readLine() string {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err, "expected a line from the server")
	return strings.TrimRight(line, "\r\n")
}

// expect asserts that the next line from the server matches exactly.
func (c *testClient) expect(want string) {
	c.t.Helper()
	require.Equal(c.t, want, c.readLine())
}

// expectNoLine asserts that nothing arrives within the given window.
func (c *testClient) expectNoLine(window time.Duration) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(window)))
	b, err := c.reader.ReadByte()
	if err == nil {
		rest, _ := c.reader.ReadString('\n')
		c.t.Fatalf("expected silence, got %q", string(b)+rest)
	}
	require.True(c.t, errors.Is(err, os.ErrDeadlineExceeded), "expected read timeout, got: %v", err)
}

// expectClosed asserts that the connection terminates within two seconds.
func (c *testClient) expectClosed() {
	c.t.Helper()

	if err := c.conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		// net.Pipe refuses deadlines once the peer has closed, which is
		// exactly the termination this helper asserts.
		require.True(c.t, errors.Is(err, io.ErrClosedPipe), "unexpected deadline error: %v", err)
		return
	}
	for {
		_, err := c.reader.ReadByte()
		if err == nil {
			continue
		}
		require.False(c.t, errors.Is(err, os.ErrDeadlineExceeded), "connection still open after 2s")
		return
	}
}

// login performs the LOGIN handshake and asserts the OK acknowledgement.
func (c *testClient) login(name string) {
	c.t.Helper()
	c.send("LOGIN " + name)
	c.expect("OK")
}

// startTestServer runs a TCP server on an ephemeral loopback port and returns
// its address.
func startTestServer(t *testing.T, registry *Registry) string {
	t.Helper()

	srv := NewTCPServer("127.0.0.1:0", registry)
	require.NoError(t, srv.Listen())
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return srv.Addr().String()
}
