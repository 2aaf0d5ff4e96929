// Package services orchestrates the API client, the session store, the
// lifecycle gate and the synchronized lists for the CLI.
//
// Any call that comes back unauthenticated clears the stored credential
// before the error is returned, so the caller only has to send the user to
// login.
package services
