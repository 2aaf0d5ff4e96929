// Package common defines shared constants and sentinel errors used across
// client layers of escrow-agent. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input errors detected before any request is built.
	ErrorValidation = errors.New("validation error")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")

	// Wire-level errors: the server answered with something outside the protocol.
	ErrProtocolViolation = errors.New("protocol violation")
)
