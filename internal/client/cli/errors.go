package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/inflight"
	"github.com/dmitrijs2005/escrowagent/internal/client/services"
)

// describe turns a command failure into the line shown to the user.
// Order matters: the upload sentinels wrap broader kinds.
func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrNoFileSelected):
		return "Please select a file to upload."
	case errors.Is(err, services.ErrNotLoggedIn):
		return "You must be logged in to upload files."
	case errors.Is(err, client.ErrAuthFailed):
		return "Invalid username or password."
	case errors.Is(err, client.ErrUnauthenticated):
		return "Your session has expired or you are not logged in."
	case errors.Is(err, inflight.ErrInFlight):
		return "Already in progress, please wait."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, client.ErrUploadFailed):
		return "Upload failed: " + err.Error()
	case errors.Is(err, client.ErrForbidden):
		return "Not allowed: " + err.Error()
	case errors.Is(err, client.ErrNetwork):
		return "Server unreachable: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
