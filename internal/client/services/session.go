package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
)

// expireOn clears the stored credential when err says the server no longer
// accepts it. err is returned unchanged.
func expireOn(ctx context.Context, store *session.Store, log logging.Logger, err error) error {
	if err == nil || !errors.Is(err, client.ErrUnauthenticated) {
		return err
	}
	if _, ok := store.Credential(); !ok {
		return err
	}
	if cerr := store.ClearCredential(ctx); cerr != nil {
		log.Error(ctx, "failed to clear expired credential", "error", cerr)
		return err
	}
	log.Info(ctx, "session expired, credential cleared")
	return err
}
