// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler returns a handler that upgrades HTTP connections to
// WebSocket and bridges them onto the relay's line protocol. It validates
// that the request uses the GET method, upgrades, wraps the socket in the
// line-oriented adapter, and starts a session in the given registry.
func WebSocketHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		registry.StartSession(newWSConn(conn), r.RemoteAddr)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "GoRelay server is running!")
}

// TestPageHandler serves an HTML test page for exercising the relay over
// WebSocket. It provides a minimal interface to log in, send broadcasts, and
// watch the raw protocol lines.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>GoRelay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #lines {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
            font-family: monospace;
            white-space: pre;
        }
        input[type="text"] { width: 300px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; }
    </style>
</head>
<body>
    <h1>GoRelay Protocol Test</h1>
    <p>Commands: LOGIN &lt;name&gt;, WHO, PING, MSG &lt;text&gt;, DM &lt;target&gt; &lt;text&gt;</p>
    <div>
        <input type="text" id="lineInput" placeholder="LOGIN alice">
        <button onclick="sendLine()">Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div id="lines"></div>

    <script>
        let ws = null;
        const linesDiv = document.getElementById('lines');
        const lineInput = document.getElementById('lineInput');

        function addLine(prefix, text) {
            linesDiv.textContent += prefix + text + '\n';
            linesDiv.scrollTop = linesDiv.scrollHeight;
        }

        function connect() {
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = function() { addLine('-- ', 'connected'); };
            ws.onmessage = function(event) { addLine('<< ', event.data); };
            ws.onclose = function() { addLine('-- ', 'connection closed'); ws = null; };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendLine() {
            const line = lineInput.value.trim();
            if (line && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(line);
                addLine('>> ', line);
                lineInput.value = '';
            }
        }

        lineInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendLine();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		log.Printf("Error writing HTML response: %v", err)
	}
}
