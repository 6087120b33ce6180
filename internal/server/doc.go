// Package server implements the core TCP and WebSocket relay functionality for GoRelay.
//
// The implementation is organized into specialized files for configuration,
// line framing, session lifecycle, the username registry, command dispatch,
// and the two transports (raw TCP and the WebSocket gateway) to keep the
// codebase maintainable and testable as the project grows.
package server
