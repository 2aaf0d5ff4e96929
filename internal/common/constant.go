// Package common contains shared constants and sentinel errors used across
// escrow-agent client components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName correlates client log lines with server log lines.
	RequestIDHeaderName = "X-Request-ID"

	// TokenStorageKey is the fixed session storage key of the bearer token.
	// Absence of this key is the only expiry signal the client has.
	TokenStorageKey = "escrow-agent-client-jwt"

	// RoleStorageKey is the fixed session storage key of the resolved role string.
	RoleStorageKey = "escrow-agent-client-role"
)
