package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracked/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockProfileRepo struct {
	created []domain.Profile
	err     error
}

func (m *mockProfileRepo) CreateProfile(ctx context.Context, p domain.Profile) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, p)
	return nil
}

func (m *mockProfileRepo) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	for _, p := range m.created {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, userAgent, ip, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser", PasswordHash: string(hash)}, nil
		},
	}

	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
			if userID != 1 {
				t.Errorf("expected userID 1, got %d", userID)
			}
			if token == "" {
				t.Error("token should not be empty")
			}
			if userAgent != "test-agent" {
				t.Errorf("expected user agent to be recorded, got %q", userAgent)
			}
			return nil
		},
	}

	svc := NewAuthService(users, &mockProfileRepo{}, sessions)
	token, err := svc.Login(ctx, "testuser", password, "test-agent", "10.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token, got empty string")
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser", PasswordHash: string(hash)}, nil
		},
	}

	svc := NewAuthService(users, &mockProfileRepo{}, &mockSessionRepo{})
	_, err := svc.Login(ctx, "testuser", "wrongpass", "ua", "")
	if err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_SSOOnlyAccount(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: username}, nil
		},
	}
	svc := NewAuthService(users, &mockProfileRepo{}, &mockSessionRepo{})
	if _, err := svc.Login(context.Background(), "sso", "", "ua", ""); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateSession_Valid(t *testing.T) {
	ctx := context.Background()
	token := "validtoken"

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: token, UserID: 1, UserAgent: "ua", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "testuser"}, nil
		},
	}

	svc := NewAuthService(users, &mockProfileRepo{}, sessions)
	user, err := svc.ValidateSession(ctx, token, "ua")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %s", user.Username)
	}
}

func TestAuthService_ValidateSession_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
		userAgent string
	}{
		{"expired", -time.Hour, "ua"},
		{"user agent changed", time.Hour, "other-browser"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deleted := false
			sessions := &mockSessionRepo{
				getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
					return &domain.Session{Token: tok, UserID: 1, UserAgent: "ua", ExpiresAt: time.Now().Add(tc.expiresIn)}, nil
				},
				deleteFn: func(ctx context.Context, tok string) error {
					deleted = true
					return nil
				},
			}

			svc := NewAuthService(&mockUserRepo{}, &mockProfileRepo{}, sessions)
			_, err := svc.ValidateSession(context.Background(), "tok", tc.userAgent)
			if err != ErrSessionExpired {
				t.Errorf("expected ErrSessionExpired, got %v", err)
			}
			if !deleted {
				t.Error("expected session to be deleted")
			}
		})
	}
}

func TestAuthService_ValidateSession_Missing(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockProfileRepo{}, &mockSessionRepo{})
	if _, err := svc.ValidateSession(context.Background(), "nope", "ua"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_CreateInitialUser_Success(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			if username != "admin" {
				t.Errorf("expected username 'admin', got %s", username)
			}
			if passwordHash == "" {
				t.Error("password hash should not be empty")
			}
			return &domain.User{ID: 7, Username: username}, nil
		},
	}
	profiles := &mockProfileRepo{}

	svc := NewAuthService(users, profiles, &mockSessionRepo{})
	if err := svc.CreateInitialUser(ctx, "admin", "password123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(profiles.created) != 1 || profiles.created[0].UserID != 7 {
		t.Errorf("expected a profile for user 7, got %+v", profiles.created)
	}
}

func TestAuthService_CreateInitialUser_UsersExist(t *testing.T) {
	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) { return 1, nil },
	}

	svc := NewAuthService(users, &mockProfileRepo{}, &mockSessionRepo{})
	if err := svc.CreateInitialUser(context.Background(), "admin", "password123"); err != ErrUsersExist {
		t.Errorf("expected ErrUsersExist, got %v", err)
	}
}

func TestAuthService_CreateInitialUser_ShortPassword(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockProfileRepo{}, &mockSessionRepo{})
	err := svc.CreateInitialUser(context.Background(), "admin", "short")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAuthService_ProvisionUser_ProfileFailure(t *testing.T) {
	profiles := &mockProfileRepo{err: errors.New("db down")}
	svc := NewAuthService(&mockUserRepo{}, profiles, &mockSessionRepo{})
	if _, err := svc.ProvisionUser(context.Background(), "alice", "", "sub"); err == nil {
		t.Error("expected profile error to be returned")
	}
}

func TestAuthService_ValidateForwardAuth_ExistingUser(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 1, Username: "ssouser"}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			t.Error("existing user must not be re-created")
			return nil, nil
		},
	}

	svc := NewAuthService(users, &mockProfileRepo{}, &mockSessionRepo{})
	user, err := svc.ValidateForwardAuth(context.Background(), "ssouser")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "ssouser" {
		t.Errorf("expected username 'ssouser', got %s", user.Username)
	}
}

func TestAuthService_ValidateForwardAuth_NewUser(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			if passwordHash != "" {
				t.Error("forward-auth users get no password")
			}
			return &domain.User{ID: 2, Username: username}, nil
		},
	}
	profiles := &mockProfileRepo{}

	svc := NewAuthService(users, profiles, &mockSessionRepo{})
	user, err := svc.ValidateForwardAuth(context.Background(), "newssouser")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "newssouser" {
		t.Errorf("expected username 'newssouser', got %s", user.Username)
	}
	if len(profiles.created) != 1 {
		t.Errorf("expected profile to be provisioned")
	}
}

func TestAuthService_LoginWithUser_LostRace(t *testing.T) {
	calls := 0
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			return &domain.User{ID: 3, Username: username}, nil
		},
		createFn: func(ctx context.Context, username, passwordHash string) (*domain.User, error) {
			return nil, domain.ErrConflict
		},
	}
	var sessionUser int64
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
			sessionUser = userID
			return nil
		},
	}

	svc := NewAuthService(users, &mockProfileRepo{}, sessions)
	if _, err := svc.LoginWithUser(context.Background(), "racer", "sub-3", "ua", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sessionUser != 3 {
		t.Errorf("session created for user %d; want 3", sessionUser)
	}
}

func TestAuthService_SweepExpiredSessions(t *testing.T) {
	swept := false
	sessions := &mockSessionRepo{
		deleteExpiredFn: func(ctx context.Context) error {
			swept = true
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, &mockProfileRepo{}, sessions)
	if err := svc.SweepExpiredSessions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !swept {
		t.Error("expected DeleteExpired to be called")
	}
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()
	profiles := &mockProfileRepo{}
	svc := NewAuthService(&mockUserRepo{}, profiles, &mockSessionRepo{})

	if _, err := svc.Profile(ctx, 1); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound before provisioning, got %v", err)
	}

	if _, err := svc.ProvisionUser(ctx, "alice", "", "sub-123"); err != nil {
		t.Fatalf("ProvisionUser: %v", err)
	}
	p, err := svc.Profile(ctx, 1)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.ExternalID != "sub-123" {
		t.Fatalf("expected external id sub-123, got %q", p.ExternalID)
	}
}
