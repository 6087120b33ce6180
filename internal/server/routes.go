// Package server wires HTTP handlers into a ServeMux for the GoRelay
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes. It sets up handlers for health check, the WebSocket endpoint, and
// the test page, all bound to the given registry.
func SetupRoutes(registry *Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler(registry))
	mux.HandleFunc("/test", TestPageHandler)
	return mux
}
