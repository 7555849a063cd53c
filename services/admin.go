package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ideahub/microservices/projects-service/cache"
	"ideahub/microservices/projects-service/logging"
	"ideahub/microservices/projects-service/models"
	"ideahub/microservices/projects-service/store"
	"ideahub/microservices/projects-service/utils"
)

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AdminService struct {
	store       store.DocumentStore
	cache       cache.Cache
	issuer      *utils.TokenIssuer
	maxAttempts int
	window      time.Duration
}

func NewAdminService(s store.DocumentStore, c cache.Cache, issuer *utils.TokenIssuer, maxAttempts int, window time.Duration) *AdminService {
	return &AdminService{
		store:       s,
		cache:       c,
		issuer:      issuer,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Login unlocks the admin area when both passwords equal the stored ones.
// Failed attempts are counted per client; once the limit is reached every
// attempt is refused until the window expires.
func (s *AdminService) Login(ctx context.Context, client, password1, password2 string) (*Session, error) {
	key := attemptsKey(client)
	attempts, err := s.cache.Count(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read login attempts: %w", err)
	}
	if attempts >= int64(s.maxAttempts) {
		logging.Logger.Warnf("Event ID: ADMIN_LOGIN_BLOCKED, Description: Client %s exceeded %d attempts", client, s.maxAttempts)
		return nil, ErrTooManyAttempts
	}

	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}

	if !passwordMatches(creds.Password1, password1) || !passwordMatches(creds.Password2, password2) {
		n, err := s.cache.Incr(ctx, key, s.window)
		if err != nil {
			return nil, fmt.Errorf("count login attempt: %w", err)
		}
		logging.Logger.Warnf("Event ID: ADMIN_LOGIN_FAILED, Description: Invalid credentials from %s (attempt %d of %d)", client, n, s.maxAttempts)
		if n >= int64(s.maxAttempts) {
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		logging.Logger.Warnf("Event ID: ADMIN_ATTEMPTS_RESET_FAILED, Description: %v", err)
	}
	token, claims, err := s.issuer.GenerateToken(utils.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: ADMIN_LOGIN_SUCCESS, Description: Admin session %s opened for %s", claims.ID, client)
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify accepts only unexpired, unrevoked admin tokens.
func (s *AdminService) Verify(ctx context.Context, token string) (*utils.Claims, error) {
	claims, err := s.issuer.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if claims.Role != utils.RoleAdmin {
		return nil, ErrInvalidSession
	}
	_, revoked, err := s.cache.Get(ctx, revokedKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("read session revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AdminService) Logout(ctx context.Context, token string) error {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedKey(claims.ID), "1", ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	logging.Logger.Infof("Event ID: ADMIN_LOGOUT, Description: Admin session %s revoked", claims.ID)
	return nil
}

// SeedCredentials writes the credentials document unless one exists.
func (s *AdminService) SeedCredentials(ctx context.Context, password1, password2 string) (bool, error) {
	if password1 == "" || password2 == "" {
		return false, fmt.Errorf("%w: both passwords are required", ErrInvalidInput)
	}
	_, found, err := s.store.GetOne(ctx, store.AdminCollection, store.AdminCredentialsID)
	if err != nil {
		return false, fmt.Errorf("read admin credentials: %w", err)
	}
	if found {
		return false, nil
	}
	doc, err := models.ToDocument(models.AdminCredentials{Password1: password1, Password2: password2})
	if err != nil {
		return false, err
	}
	if err := s.store.CreateWithID(ctx, store.AdminCollection, store.AdminCredentialsID, doc); err != nil {
		return false, fmt.Errorf("seed admin credentials: %w", err)
	}
	return true, nil
}

func (s *AdminService) credentials(ctx context.Context) (models.AdminCredentials, error) {
	doc, found, err := s.store.GetOne(ctx, store.AdminCollection, store.AdminCredentialsID)
	if err != nil {
		return models.AdminCredentials{}, fmt.Errorf("read admin credentials: %w", err)
	}
	if !found {
		logging.Logger.Errorf("Event ID: ADMIN_NOT_CONFIGURED, Description: %s/%s document is missing", store.AdminCollection, store.AdminCredentialsID)
		return models.AdminCredentials{}, ErrAdminNotConfigured
	}
	var creds models.AdminCredentials
	if err := models.Decode(doc, &creds); err != nil {
		return models.AdminCredentials{}, err
	}
	if creds.Password1 == "" || creds.Password2 == "" {
		return models.AdminCredentials{}, ErrAdminNotConfigured
	}
	return creds, nil
}

// passwordMatches compares case sensitively. Stored bcrypt hashes are
// checked with bcrypt, plain values in constant time.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(given))
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logging.Logger.Warnf("Event ID: ADMIN_HASH_INVALID, Description: Stored admin hash is unusable: %v", err)
		}
		return err == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func attemptsKey(client string) string {
	return "admin:attempts:" + client
}

func revokedKey(jti string) string {
	return "admin:revoked:" + jti
}
