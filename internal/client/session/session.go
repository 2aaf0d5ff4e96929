// Package session keeps the caller's credential: the bearer token and the
// role resolved for it. The credential is loaded once from a metadata
// backend and cached in memory; every change is written through.
//
// Absence of the token key is the only expiry signal. The store tracks no
// expiry timestamp; a credential disappears when it is cleared, either by
// logout or by a service reacting to an unauthenticated answer.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/escrowagent/internal/common"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyToken   = errors.New("empty token")
	ErrNoCredential = errors.New("no credential stored")
)

// Store is safe for concurrent use. Reads take the read lock only.
type Store struct {
	mu   sync.RWMutex
	repo metadata.Repository
	log  logging.Logger
	cred models.Credential
}

// Open loads the stored credential, if any, from repo. Keys left behind
// without a token belong to an expired session and are wiped.
func Open(ctx context.Context, repo metadata.Repository, log logging.Logger) (*Store, error) {
	s := &Store{repo: repo, log: log}

	stored, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	token := stored[common.TokenStorageKey]
	if len(token) == 0 {
		if len(stored) > 0 {
			if err := repo.Clear(ctx); err != nil {
				return nil, fmt.Errorf("clear stale session: %w", err)
			}
			log.Debug(ctx, "stale session keys removed", "count", len(stored))
		}
		return s, nil
	}

	s.cred = models.Credential{Token: string(token), Role: models.Roles(stored[common.RoleStorageKey])}
	if s.cred.Role == "" {
		if r, err := RoleFromToken(s.cred.Token); err == nil {
			s.cred.Role = r
		}
	}

	log.Debug(ctx, "session restored", "role", string(s.cred.Role))
	return s, nil
}

// Credential returns the current credential and whether one exists.
func (s *Store) Credential() (models.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, !s.cred.IsZero()
}

// SetCredential replaces the stored credential. An empty role is derived
// from the token's role claim.
func (s *Store) SetCredential(ctx context.Context, c models.Credential) error {
	if c.Token == "" {
		return ErrEmptyToken
	}
	if c.Role == "" {
		role, err := RoleFromToken(c.Token)
		if err != nil {
			s.log.Warn(ctx, "token carries no usable role claim", "error", err)
		}
		c.Role = role
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.repo.SetMany(ctx, map[string][]byte{
		common.TokenStorageKey: []byte(c.Token),
		common.RoleStorageKey:  []byte(c.Role),
	})
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	s.cred = c
	return nil
}

// SetRole refreshes the role of the current credential, typically after a
// profile fetch.
func (s *Store) SetRole(ctx context.Context, role models.Roles) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cred.IsZero() {
		return ErrNoCredential
	}
	if err := s.repo.Set(ctx, common.RoleStorageKey, []byte(role)); err != nil {
		return fmt.Errorf("store role: %w", err)
	}
	s.cred.Role = role
	return nil
}

// ClearCredential removes both storage keys. Clearing an empty store is not
// an error.
func (s *Store) ClearCredential(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, common.TokenStorageKey, common.RoleStorageKey); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.cred = models.Credential{}
	return nil
}

// IsAuthorized reports whether a credential exists and its role includes role.
func (s *Store) IsAuthorized(role models.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.cred.IsZero() && s.cred.Role.Has(role)
}

// RoleFromToken reads the role claim of a bearer token without verifying
// its signature. The client never holds the signing key; the server
// remains the authority on every request.
func RoleFromToken(token string) (models.Roles, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	switch v := claims["role"].(type) {
	case string:
		return models.Roles(strings.TrimSpace(v)), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return models.Roles(strings.Join(parts, ", ")), nil
	default:
		return "", fmt.Errorf("%w: missing role claim", common.ErrInvalidToken)
	}
}
