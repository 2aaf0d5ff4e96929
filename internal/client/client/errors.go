package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/escrowagent/internal/client/lifecycle"
	"github.com/dmitrijs2005/escrowagent/internal/common"
)

var (
	// ErrUnauthenticated means no credential is present, or the server
	// rejected the one sent. The caller should send the user to login.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAuthFailed means the login credentials were wrong.
	ErrAuthFailed = errors.New("invalid username or password")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrNetwork    = errors.New("network error")
	// ErrUploadFailed covers every upload failure other than a missing
	// credential.
	ErrUploadFailed = errors.New("upload failed")

	ErrValidation        = common.ErrorValidation
	ErrNotFound          = common.ErrorNotFound
	ErrProtocol          = common.ErrProtocolViolation
	ErrInvalidTransition = lifecycle.ErrInvalidTransition
)

// StatusError is a non-2xx answer from the server. It unwraps to the
// sentinel that classifies it.
type StatusError struct {
	Op      string
	Code    int
	Message string
	Kind    error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v (HTTP %d)", e.Op, e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %v (HTTP %d): %s", e.Op, e.Kind, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// classify maps an HTTP status to a sentinel. overrides take precedence.
func classify(code int, overrides map[int]error) error {
	if kind, ok := overrides[code]; ok {
		return kind
	}
	switch {
	case code == 401:
		return ErrUnauthenticated
	case code == 403:
		return ErrForbidden
	case code == 404:
		return ErrNotFound
	case code == 409:
		return ErrConflict
	case code == 400 || code == 422:
		return ErrValidation
	default:
		return ErrNetwork
	}
}

func protocolError(op string, err error) error {
	if errors.Is(err, ErrProtocol) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrProtocol, err)
}
