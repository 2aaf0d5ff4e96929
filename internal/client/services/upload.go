package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/escrowagent/internal/client/client"
	"github.com/dmitrijs2005/escrowagent/internal/client/inflight"
	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/session"
	"github.com/dmitrijs2005/escrowagent/internal/filex"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
)

// DefaultMaxUploadBytes caps files read for upload.
const DefaultMaxUploadBytes = 32 << 20

var (
	ErrNoFileSelected = fmt.Errorf("%w: please select a file to upload", client.ErrValidation)
	ErrNotLoggedIn    = fmt.Errorf("%w: you must be logged in to upload files", client.ErrUnauthenticated)
)

type UploadService interface {
	// Upload sends the file at path. An empty path and a missing credential
	// are rejected with ErrNoFileSelected and ErrNotLoggedIn before the file
	// is read.
	Upload(ctx context.Context, path string) (models.FileRef, error)
}

type uploadService struct {
	client   client.Client
	store    *session.Store
	guard    *inflight.Guard
	log      logging.Logger
	maxBytes int64
}

func NewUploadService(c client.Client, store *session.Store, guard *inflight.Guard, log logging.Logger, maxBytes int64) UploadService {
	if guard == nil {
		guard = inflight.NewGuard()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &uploadService{client: c, store: store, guard: guard, log: log, maxBytes: maxBytes}
}

func (u *uploadService) Upload(ctx context.Context, path string) (models.FileRef, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return models.FileRef{}, ErrNoFileSelected
	}
	if _, ok := u.store.Credential(); !ok {
		return models.FileRef{}, ErrNotLoggedIn
	}

	release, err := u.guard.Acquire("upload")
	if err != nil {
		return models.FileRef{}, err
	}
	defer release()

	name, content, err := filex.ReadFile(path, u.maxBytes)
	if err != nil {
		return models.FileRef{}, fmt.Errorf("%w: %v", client.ErrValidation, err)
	}

	ref, err := u.client.UploadFile(ctx, models.UploadedFile{Name: name, Content: content})
	if err != nil {
		return models.FileRef{}, expireOn(ctx, u.store, u.log, err)
	}
	u.log.Info(ctx, "file uploaded", "name", name, "size", len(content), "url", ref.URL)
	return ref, nil
}
