// Package server gates WebSocket handshakes on the configured browser-origin
// allow list, canonicalizing configured entries and request headers the same
// way before comparing them.
package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy is the compiled form of Config.AllowedOrigins: a lookup set of
// canonical "scheme://host" entries plus a wildcard flag. A policy is built
// once per SetConfig and consulted on every gateway handshake.
type originPolicy struct {
	wildcard bool
	allowed  map[string]struct{}
}

// compileOriginPolicy canonicalizes the configured origin list into a policy.
// It also returns the cleaned-up list (invalid entries dropped, "*" recorded
// only as the wildcard flag) so the active config reflects what is actually
// enforced.
func compileOriginPolicy(origins []string) (originPolicy, []string) {
	policy := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	var kept []string

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			policy.wildcard = true
			continue
		}
		canonical, ok := canonicalOrigin(trimmed)
		if !ok {
			log.Printf("Ignoring invalid origin in configuration: %q", origin)
			continue
		}
		policy.allowed[canonical] = struct{}{}
		kept = append(kept, canonical)
	}

	return policy, kept
}

// canonicalOrigin reduces an origin to its lowercase "scheme://host" form.
// Origins without a scheme or host are rejected.
func canonicalOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// permits reports whether a request's Origin header satisfies the policy.
// A missing or malformed header is never permitted.
func (p originPolicy) permits(header string) bool {
	if header == "" {
		return false
	}
	canonical, ok := canonicalOrigin(header)
	if !ok {
		return false
	}
	if p.wildcard {
		return true
	}
	_, allowed := p.allowed[canonical]
	return allowed
}

// checkOrigin is the gateway upgrader's origin gate.
func checkOrigin(r *http.Request) bool {
	configMu.RLock()
	policy := activeOriginPolicy
	configMu.RUnlock()

	if policy.permits(r.Header.Get("Origin")) {
		return true
	}

	log.Printf("Blocked WebSocket connection from disallowed origin: %q", r.Header.Get("Origin"))
	return false
}
