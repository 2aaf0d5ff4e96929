package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/escrowagent/internal/client/models"
	"github.com/dmitrijs2005/escrowagent/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/escrowagent/internal/common"
	"github.com/dmitrijs2005/escrowagent/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

func openStore(t *testing.T, repo metadata.Repository) *Store {
	t.Helper()
	s, err := Open(context.Background(), repo, logging.Discard())
	require.NoError(t, err)
	return s
}

type failingRepo struct {
	metadata.Repository
	err error
}

func (f failingRepo) Get(context.Context, string) ([]byte, error)      { return nil, f.err }
func (f failingRepo) Set(context.Context, string, []byte) error        { return f.err }
func (f failingRepo) SetMany(context.Context, map[string][]byte) error { return f.err }
func (f failingRepo) Delete(context.Context, ...string) error          { return f.err }
func (f failingRepo) List(context.Context) (map[string][]byte, error)  { return nil, f.err }
func (f failingRepo) Clear(context.Context) error                      { return f.err }

func TestOpen_Empty(t *testing.T) {
	s := openStore(t, metadata.NewMemoryRepository())

	c, ok := s.Credential()
	assert.False(t, ok)
	assert.True(t, c.IsZero())
	assert.False(t, s.IsAuthorized(models.RoleBuyer))
}

func TestOpen_RestoresStoredCredential(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, common.TokenStorageKey, []byte("T1")))
	require.NoError(t, repo.Set(ctx, common.RoleStorageKey, []byte("buyer")))

	s := openStore(t, repo)

	c, ok := s.Credential()
	require.True(t, ok)
	assert.Equal(t, models.Credential{Token: "T1", Role: "buyer"}, c)
	assert.True(t, s.IsAuthorized(models.RoleBuyer))
}

func TestOpen_DerivesMissingRoleFromToken(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	tok := signedToken(t, jwt.MapClaims{"user_id": 7, "username": "ann", "role": "seller"})
	require.NoError(t, repo.Set(ctx, common.TokenStorageKey, []byte(tok)))

	s := openStore(t, repo)
	assert.True(t, s.IsAuthorized(models.RoleSeller))
}

func TestOpen_WipesRoleWithoutToken(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, common.RoleStorageKey, []byte("admin")))

	s := openStore(t, repo)

	_, ok := s.Credential()
	assert.False(t, ok)
	assert.False(t, s.IsAuthorized(models.RoleAdmin))
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type clearFailsRepo struct {
	metadata.Repository
	err error
}

func (c clearFailsRepo) Clear(context.Context) error { return c.err }

func TestOpen_StaleClearError(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	require.NoError(t, repo.Set(ctx, common.RoleStorageKey, []byte("buyer")))

	boom := errors.New("read-only")
	_, err := Open(ctx, clearFailsRepo{Repository: repo, err: boom}, logging.Discard())
	require.ErrorIs(t, err, boom)
}

func TestOpen_BackendError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Open(context.Background(), failingRepo{err: boom}, logging.Discard())
	require.ErrorIs(t, err, boom)
}

func TestSetCredential_WritesThrough(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	s := openStore(t, repo)

	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T1", Role: "buyer"}))

	tok, _ := repo.Get(ctx, common.TokenStorageKey)
	role, _ := repo.Get(ctx, common.RoleStorageKey)
	assert.Equal(t, "T1", string(tok))
	assert.Equal(t, "buyer", string(role))

	// a fresh store over the same backend sees the same credential
	again := openStore(t, repo)
	c, ok := again.Credential()
	require.True(t, ok)
	assert.Equal(t, "T1", c.Token)
}

func TestSetCredential_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, metadata.NewMemoryRepository())

	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T1", Role: "buyer"}))
	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T2", Role: "seller"}))

	c, _ := s.Credential()
	assert.Equal(t, models.Credential{Token: "T2", Role: "seller"}, c)
	assert.False(t, s.IsAuthorized(models.RoleBuyer))
}

func TestSetCredential_RoleFromClaims(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, metadata.NewMemoryRepository())
	tok := signedToken(t, jwt.MapClaims{"user_id": 1, "username": "bob", "role": "buyer, seller"})

	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: tok}))

	assert.True(t, s.IsAuthorized(models.RoleBuyer))
	assert.True(t, s.IsAuthorized(models.RoleSeller))
	assert.False(t, s.IsAuthorized(models.RoleAdmin))
}

func TestSetCredential_EmptyToken(t *testing.T) {
	s := openStore(t, metadata.NewMemoryRepository())
	require.ErrorIs(t, s.SetCredential(context.Background(), models.Credential{}), ErrEmptyToken)
}

func TestSetCredential_BackendFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	s := &Store{repo: failingRepo{err: boom}, log: logging.Discard(), cred: models.Credential{Token: "old", Role: "buyer"}}

	err := s.SetCredential(ctx, models.Credential{Token: "new", Role: "seller"})
	require.ErrorIs(t, err, boom)

	c, _ := s.Credential()
	assert.Equal(t, "old", c.Token)
}

func TestClearCredential_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	s := openStore(t, repo)

	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T1", Role: "buyer"}))
	require.NoError(t, s.ClearCredential(ctx))
	require.NoError(t, s.ClearCredential(ctx))

	_, ok := s.Credential()
	assert.False(t, ok)
	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	repo := metadata.NewMemoryRepository()
	s := openStore(t, repo)

	require.ErrorIs(t, s.SetRole(ctx, "admin"), ErrNoCredential)

	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T1", Role: "buyer"}))
	require.NoError(t, s.SetRole(ctx, "buyer, admin"))

	assert.True(t, s.IsAuthorized(models.RoleAdmin))
	role, _ := repo.Get(ctx, common.RoleStorageKey)
	assert.Equal(t, "buyer, admin", string(role))
}

func TestIsAuthorized_NoSubstringMatch(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, metadata.NewMemoryRepository())
	require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T", Role: "buyers"}))
	assert.False(t, s.IsAuthorized(models.RoleBuyer))
}

func TestRoleFromToken(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    models.Roles
		wantErr bool
	}{
		{"single", jwt.MapClaims{"role": "buyer"}, "buyer", false},
		{"joined", jwt.MapClaims{"role": "buyer, seller, admin"}, "buyer, seller, admin", false},
		{"array", jwt.MapClaims{"role": []string{"seller", "admin"}}, "seller, admin", false},
		{"missing", jwt.MapClaims{"username": "x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoleFromToken(signedToken(t, tt.claims))
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RoleFromToken("not-a-jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestStore_ConcurrentReadersAndWriter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, metadata.NewMemoryRepository())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c, ok := s.Credential()
				if ok {
					assert.NotEmpty(t, c.Token)
				}
				_ = s.IsAuthorized(models.RoleBuyer)
			}
		}()
	}
	for j := 0; j < 50; j++ {
		require.NoError(t, s.SetCredential(ctx, models.Credential{Token: "T", Role: "buyer"}))
		require.NoError(t, s.ClearCredential(ctx))
	}
	wg.Wait()
}
