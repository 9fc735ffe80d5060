// Package app holds the application services: tracker management, entry
// upserts, month grids and authentication.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"tracked/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersExist is returned by CreateInitialUser once any account exists.
	ErrUsersExist = errors.New("users already exist")
)

const sessionTTL = 24 * time.Hour

// AuthService handles accounts, authentication and session management.
type AuthService struct {
	users    domain.UserRepository
	profiles domain.ProfileRepository
	sessions domain.SessionRepository
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, profiles domain.ProfileRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		profiles: profiles,
		sessions: sessions,
		now:      time.Now,
	}
}

// ProvisionUser creates an account together with its profile. An empty
// password leaves the account usable only through SSO.
func (s *AuthService) ProvisionUser(ctx context.Context, username, password, externalID string) (*domain.User, error) {
	if username == "" {
		return nil, &domain.ValidationError{Field: "username", Message: "username is required"}
	}
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}

	user, err := s.users.Create(ctx, username, hash)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	if err := s.profiles.CreateProfile(ctx, domain.Profile{UserID: user.ID, ExternalID: externalID}); err != nil {
		return nil, fmt.Errorf("create profile for %q: %w", username, err)
	}
	return user, nil
}

// Profile returns the profile of userID, or ErrUserNotFound if none was provisioned.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUserNotFound
	}
	return p, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.startSession(ctx, user.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// SweepExpiredSessions removes sessions past their expiry.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// CreateInitialUser creates the first user if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrUsersExist
	}

	if len(password) < 8 {
		return &domain.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}

	_, err = s.ProvisionUser(ctx, username, password, "")
	return err
}

// ValidateForwardAuth resolves the user named by a reverse proxy's
// Remote-User header, provisioning it on first sight.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.findOrProvision(ctx, remoteUser, remoteUser)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, externalID, userAgent, ip string) (string, error) {
	user, err := s.findOrProvision(ctx, username, externalID)
	if err != nil {
		return "", err
	}
	return s.startSession(ctx, user.ID, userAgent, ip)
}

func (s *AuthService) findOrProvision(ctx context.Context, username, externalID string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err == nil && user != nil {
		return user, nil
	}
	user, err = s.ProvisionUser(ctx, username, "", externalID)
	if err != nil {
		// Lost a race with a concurrent first login.
		if existing, getErr := s.users.GetByUsername(ctx, username); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, userID int64, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := s.now().Add(sessionTTL)
	if err := s.sessions.Create(ctx, userID, token, userAgent, ip, expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
