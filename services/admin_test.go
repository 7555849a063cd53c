package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ideahub/microservices/projects-service/cache"
	"ideahub/microservices/projects-service/store"
	"ideahub/microservices/projects-service/utils"
)

func newAdminService(t *testing.T, p1, p2 string) (*AdminService, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	if p1 != "" {
		err := s.CreateWithID(context.Background(), store.AdminCollection, store.AdminCredentialsID,
			store.Document{"password1": p1, "password2": p2})
		require.NoError(t, err)
	}
	issuer := utils.NewTokenIssuer("test-secret", time.Hour)
	return NewAdminService(s, cache.NewMemoryCache(), issuer, 5, 15*time.Minute), s
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "Beta")
	ctx := context.Background()

	session, err := svc.Login(ctx, "10.0.0.1", "alpha", "Beta")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAdmin, claims.Role)
}

func TestLogin_CaseSensitive(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "Beta")
	_, err := svc.Login(context.Background(), "c", "alpha", "beta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AttemptCap(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "beta")
	ctx := context.Background()

	for i := 1; i < 5; i++ {
		_, err := svc.Login(ctx, "c1", "wrong", "beta")
		assert.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i)
	}
	_, err := svc.Login(ctx, "c1", "wrong", "beta")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = svc.Login(ctx, "c1", "alpha", "beta")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = svc.Login(ctx, "c2", "alpha", "beta")
	assert.NoError(t, err)
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "beta")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = svc.Login(ctx, "c", "x", "y")
	}
	_, err := svc.Login(ctx, "c", "alpha", "beta")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "c", "x", "y")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NotConfigured(t *testing.T) {
	svc, _ := newAdminService(t, "", "")
	_, err := svc.Login(context.Background(), "c", "a", "b")
	assert.ErrorIs(t, err, ErrAdminNotConfigured)
}

func TestLogin_BcryptCredentials(t *testing.T) {
	h1, err := bcrypt.GenerateFromPassword([]byte("alpha"), bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := bcrypt.GenerateFromPassword([]byte("beta"), bcrypt.MinCost)
	require.NoError(t, err)
	svc, _ := newAdminService(t, string(h1), string(h2))
	ctx := context.Background()

	_, err = svc.Login(ctx, "c", "alpha", "beta")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "c", "alpha", string(h2))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "beta")
	ctx := context.Background()
	session, err := svc.Login(ctx, "c", "alpha", "beta")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, svc.Logout(ctx, session.Token), ErrInvalidSession)
}

func TestVerify_RejectsForeignTokens(t *testing.T) {
	svc, _ := newAdminService(t, "alpha", "beta")
	ctx := context.Background()

	_, err := svc.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	other := utils.NewTokenIssuer("other-secret", time.Hour)
	token, _, err := other.GenerateToken(utils.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	expired := utils.NewTokenIssuer("test-secret", time.Minute).WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	})
	token, _, err = expired.GenerateToken(utils.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	viewer, _, err := utils.NewTokenIssuer("test-secret", time.Hour).GenerateToken("viewer")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, viewer)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSeedCredentials(t *testing.T) {
	svc, _ := newAdminService(t, "", "")
	ctx := context.Background()

	created, err := svc.SeedCredentials(ctx, "alpha", "beta")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedCredentials(ctx, "other", "values")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Login(ctx, "c", "alpha", "beta")
	assert.NoError(t, err)
}
