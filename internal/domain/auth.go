// Package domain contains the tracking entities, their validation rules and
// the repository ports implemented by the storage adapters.
package domain

import (
	"context"
	"time"
)

// User is an account owning trackers and daily snapshots.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile holds per-user display data. Exactly one exists for every user.
type Profile struct {
	UserID     int64     `json:"user_id"`
	AvatarURL  string    `json:"avatar_url"`
	ExternalID string    `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is an active login bound to the client's user agent.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// ProfileRepository stores the one-to-one user profile.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
