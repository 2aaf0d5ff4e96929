// Package client talks to the escrow service over HTTP and JSON.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): login,
//     signup and profile; escrow creation, listing and status transitions;
//     transactions and their audit logs; file upload; liveness.
//  2. A concrete HTTP implementation (see HTTPClient) that attaches the
//     bearer token of the current session, tags every request with an
//     X-Request-ID, and maps HTTP statuses to sentinel errors.
//  3. The single field-normalization boundary between the server's wire
//     shapes and the canonical models package.
//
// # Local preconditions
//
// Operations that need a credential fail with ErrUnauthenticated before any
// request is built when none is present. Escrow transitions are checked
// against the lifecycle table first and fail with ErrInvalidTransition
// without touching the network. No operation retries on its own.
//
// # Error Handling
//
// Failures are classified into sentinel errors that callers match with
// errors.Is: ErrUnauthenticated, ErrAuthFailed, ErrConflict, ErrValidation,
// ErrInvalidTransition, ErrNetwork, ErrUploadFailed, ErrForbidden,
// ErrNotFound, ErrProtocol. Non-2xx answers arrive as *StatusError, which
// carries the server's message.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
