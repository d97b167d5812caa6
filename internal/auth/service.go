// Package auth issues and validates sessions, performs the OAuth handshake
// with social providers and manages email verification. All persistence
// goes through the store adapter; nothing here talks to the store directly.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/adapter"
	"github.com/billfold/billfold/pkg/logger"
	"github.com/google/uuid"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session token")
	ErrSessionExpired     = errors.New("session expired")
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultUpdateAge  = 24 * time.Hour
	defaultCacheTTL   = 5 * time.Minute
)

// Service is the auth orchestrator.
type Service struct {
	db        *adapter.Adapter
	secret    []byte
	providers map[string]*Provider

	sessionTTL time.Duration
	updateAge  time.Duration
	cacheTTL   time.Duration
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithSessionTTL overrides the 7-day session lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithUpdateAge overrides the sliding-refresh interval.
func WithUpdateAge(age time.Duration) ServiceOption {
	return func(s *Service) { s.updateAge = age }
}

// WithProviders sets the enabled OAuth providers.
func WithProviders(providers map[string]*Provider) ServiceOption {
	return func(s *Service) { s.providers = providers }
}

// NewService builds the auth orchestrator over the store adapter. The
// secret signs the short-lived session cache cookie.
func NewService(db *adapter.Adapter, secret string, opts ...ServiceOption) *Service {
	s := &Service{
		db:         db,
		secret:     []byte(secret),
		providers:  map[string]*Provider{},
		sessionTTL: defaultSessionTTL,
		updateAge:  defaultUpdateAge,
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the named OAuth provider, nil when not configured.
func (s *Service) Provider(name string) *Provider {
	return s.providers[name]
}

// ClientInfo carries the request diagnostics stored on a session.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// SignUpEmail registers a new user with a password and opens a session.
func (s *Service) SignUpEmail(ctx context.Context, email, password, name string, client ClientInfo) (User, Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, Session{}, ErrInvalidCredentials
	}

	if _, err := s.findUserByEmail(ctx, email); err == nil {
		return User{}, Session{}, ErrEmailTaken
	} else if !errors.Is(err, adapter.ErrNotFound) {
		return User{}, Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, Session{}, err
	}

	userRec, err := s.db.Create(ctx, ModelUser, map[string]any{
		"email":         email,
		"emailVerified": false,
		"name":          name,
	}, false)
	if err != nil {
		return User{}, Session{}, err
	}
	user := userFromRecord(userRec)

	_, err = s.db.Create(ctx, ModelAccount, map[string]any{
		"userId":     user.ID,
		"accountId":  user.ID,
		"providerId": ProviderCredential,
		"password":   hash,
	}, false)
	if err != nil {
		return User{}, Session{}, err
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return User{}, Session{}, err
	}

	logger.Info("User signed up", "user_id", user.ID)
	return user, session, nil
}

// SignInEmail verifies a password and opens a session.
func (s *Service) SignInEmail(ctx context.Context, email, password string, client ClientInfo) (User, Session, error) {
	email = normalizeEmail(email)

	user, err := s.findUserByEmail(ctx, email)
	if errors.Is(err, adapter.ErrNotFound) {
		return User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, Session{}, err
	}

	account, err := s.findAccount(ctx, user.ID, ProviderCredential)
	if errors.Is(err, adapter.ErrNotFound) {
		return User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, Session{}, err
	}

	if !CheckPassword(account.Password, password) {
		return User{}, Session{}, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return User{}, Session{}, err
	}

	logger.Info("User signed in", "user_id", user.ID)
	return user, session, nil
}

// ResolveSession validates an opaque session token and returns its user.
// The session expiry slides forward once per update-age window.
func (s *Service) ResolveSession(ctx context.Context, token string) (User, Session, error) {
	if token == "" {
		return User{}, Session{}, ErrInvalidSession
	}

	records, err := s.db.FindMany(ctx, ModelSession, adapter.FindManyOptions{
		Where: []adapter.Where{adapter.Eq("token", token)},
		Limit: 1,
	})
	if err != nil {
		return User{}, Session{}, err
	}
	if len(records) == 0 {
		return User{}, Session{}, ErrInvalidSession
	}
	session := sessionFromRecord(records[0])

	now := time.Now()
	if now.After(session.ExpiresAt) {
		// Lazy sweep of the one session we know is dead.
		if err := s.db.Delete(ctx, ModelSession, adapter.ByID(session.ID)); err != nil && !errors.Is(err, adapter.ErrNotFound) {
			logger.Warn("Failed to remove expired session", "session_id", session.ID, "error", err)
		}
		return User{}, Session{}, ErrSessionExpired
	}

	if session.ExpiresAt.Sub(now) < s.sessionTTL-s.updateAge {
		newExpiry := now.Add(s.sessionTTL)
		if _, err := s.db.Update(ctx, ModelSession, adapter.ByID(session.ID), map[string]any{
			"expiresAt": newExpiry.UTC().Format(time.RFC3339),
		}); err != nil {
			logger.Warn("Failed to refresh session expiry", "session_id", session.ID, "error", err)
		} else {
			session.ExpiresAt = newExpiry
		}
	}

	userRec, err := s.db.FindOne(ctx, ModelUser, adapter.ByID(session.UserID))
	if errors.Is(err, adapter.ErrNotFound) {
		return User{}, Session{}, ErrInvalidSession
	}
	if err != nil {
		return User{}, Session{}, err
	}

	return userFromRecord(userRec), session, nil
}

// SignOut deletes the session behind a token. Unknown tokens are a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	records, err := s.db.FindMany(ctx, ModelSession, adapter.FindManyOptions{
		Where: []adapter.Where{adapter.Eq("token", token)},
		Limit: 1,
	})
	if err != nil || len(records) == 0 {
		return err
	}
	err = s.db.Delete(ctx, ModelSession, adapter.ByID(records[0].ID()))
	if errors.Is(err, adapter.ErrNotFound) {
		return nil
	}
	return err
}

// RevokeSessions deletes every session of a user and returns how many were
// removed.
func (s *Service) RevokeSessions(ctx context.Context, userID string) (int, error) {
	return s.db.DeleteMany(ctx, ModelSession, []adapter.Where{adapter.Eq("userId", userID)})
}

// SessionCount reports how many sessions a user currently has.
func (s *Service) SessionCount(ctx context.Context, userID string) (int, error) {
	return s.db.Count(ctx, ModelSession, []adapter.Where{adapter.Eq("userId", userID)})
}

func (s *Service) createSession(ctx context.Context, userID string, client ClientInfo) (Session, error) {
	record, err := s.db.Create(ctx, ModelSession, map[string]any{
		"userId":    userID,
		"token":     uuid.NewString(),
		"expiresAt": time.Now().Add(s.sessionTTL).UTC().Format(time.RFC3339),
		"ipAddress": client.IPAddress,
		"userAgent": client.UserAgent,
	}, false)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionFromRecord(record), nil
}

func (s *Service) findUserByEmail(ctx context.Context, email string) (User, error) {
	records, err := s.db.FindMany(ctx, ModelUser, adapter.FindManyOptions{
		Where: []adapter.Where{adapter.Eq("email", email)},
		Limit: 1,
	})
	if err != nil {
		return User{}, err
	}
	if len(records) == 0 {
		return User{}, adapter.ErrNotFound
	}
	return userFromRecord(records[0]), nil
}

func (s *Service) findAccount(ctx context.Context, userID, providerID string) (Account, error) {
	records, err := s.db.FindMany(ctx, ModelAccount, adapter.FindManyOptions{
		Where: []adapter.Where{
			adapter.Eq("userId", userID),
			adapter.Eq("providerId", providerID),
		},
		Limit: 1,
	})
	if err != nil {
		return Account{}, err
	}
	if len(records) == 0 {
		return Account{}, adapter.ErrNotFound
	}
	return accountFromRecord(records[0]), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
