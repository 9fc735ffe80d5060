package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tracked/internal/domain"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

type profileRow struct {
	UserID     int64     `db:"user_id"`
	AvatarURL  string    `db:"avatar_url"`
	ExternalID string    `db:"external_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type sessionRow struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	UserAgent string    `db:"user_agent"`
	IP        string    `db:"ip"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (d *DB) getUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	err := d.ext(ctx).GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByUsername retrieves a user by username, or nil if none exists.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.getUser(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE username = $1", username)
}

// GetByID retrieves a user by ID, or nil if none exists.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.getUser(ctx, "SELECT id, username, password_hash, created_at FROM users WHERE id = $1", id)
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	var row userRow
	err := d.ext(ctx).GetContext(ctx, &row,
		"INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id, username, password_hash, created_at",
		username, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	return row.toDomain(), nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.ext(ctx).GetContext(ctx, &count, "SELECT COUNT(*) FROM users")
	return count, err
}

// CreateProfile stores the profile of a user.
func (d *DB) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := d.ext(ctx).ExecContext(ctx,
		"INSERT INTO profiles (user_id, avatar_url, external_id, created_at) VALUES ($1, $2, $3, $4)",
		p.UserID, p.AvatarURL, p.ExternalID, time.Now().UTC(),
	)
	return mapError(err)
}

// GetProfile returns a user's profile, or nil if none exists.
func (d *DB) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var row profileRow
	err := d.ext(ctx).GetContext(ctx, &row,
		"SELECT user_id, avatar_url, external_id, created_at FROM profiles WHERE user_id = $1",
		userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Profile{UserID: row.UserID, AvatarURL: row.AvatarURL, ExternalID: row.ExternalID, CreatedAt: row.CreatedAt}, nil
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.ext(ctx).ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, user_agent, ip, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		userID, token, userAgent, ip, expiresAt, time.Now().UTC(),
	)
	return mapError(err)
}

// GetByToken retrieves a session by token, or nil if none exists.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.ext(ctx).GetContext(ctx, &row,
		"SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		UserAgent: row.UserAgent,
		IP:        row.IP,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ext(ctx).ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.ext(ctx).ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now().UTC())
	return err
}
