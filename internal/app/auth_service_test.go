package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthmonitor/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByUsernameFn  func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.User, error)
	createFn         func(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error)
	updateFullNameFn func(ctx context.Context, id, fullName string) error
	countFn          func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, fullName, passwordHash)
	}
	return &domain.User{ID: "u1", Username: username, FullName: fullName, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) UpdateFullName(ctx context.Context, id, fullName string) error {
	if m.updateFullNameFn != nil {
		return m.updateFullNameFn(ctx, id, fullName)
	}
	return nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error {
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
			return &domain.User{ID: "u1", Username: "testuser", PasswordHash: string(hash)}, nil
		},
	}

	var gotTTL time.Duration
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error {
			if userID != "u1" {
				t.Errorf("expected userID u1, got %s", userID)
			}
			if token == "" {
				t.Error("token should not be empty")
			}
			if userAgent != "test-agent" {
				t.Errorf("expected user agent to be stored, got %q", userAgent)
			}
			gotTTL = time.Until(expiresAt)
			return nil
		},
	}

	svc := NewAuthService(users, sessions).WithSessionTTL(2 * time.Hour)
	token, err := svc.Login(ctx, "testuser", password, "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token, got empty string")
	}
	if gotTTL <= time.Hour || gotTTL > 2*time.Hour {
		t.Errorf("expected ~2h session, got %v", gotTTL)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)

	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: "testuser", PasswordHash: string(hash)}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})

	_, err := svc.Login(ctx, "testuser", "wrongpass", "ua", "ip")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_ExternalUserHasNoPassword(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: "sso@example.com"}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	_, err := svc.Login(context.Background(), "sso@example.com", "", "ua", "ip")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateSession_Valid(t *testing.T) {
	ctx := context.Background()
	token := "validtoken"

	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    "u1",
				UserAgent: "ua",
				ExpiresAt: time.Now().Add(1 * time.Hour),
			}, nil
		},
	}

	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: "testuser"}, nil
		},
	}

	svc := NewAuthService(users, sessions)
	user, err := svc.ValidateSession(ctx, token, "ua")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %s", user.Username)
	}
}

func TestAuthService_ValidateSession_Expired(t *testing.T) {
	ctx := context.Background()
	token := "expiredtoken"

	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{
				Token:     token,
				UserID:    "u1",
				UserAgent: "ua",
				ExpiresAt: time.Now().Add(-1 * time.Hour),
			}, nil
		},
		deleteFn: func(ctx context.Context, tok string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, sessions)

	_, err := svc.ValidateSession(ctx, token, "ua")
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
}

func TestAuthService_ValidateSession_UserAgentMismatch(t *testing.T) {
	deleted := false
	sessions := &mockSessionRepo{
		getByTokenFn: func(ctx context.Context, tok string) (*domain.Session, error) {
			return &domain.Session{Token: tok, UserID: "u1", UserAgent: "ua", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		deleteFn: func(ctx context.Context, tok string) error {
			deleted = true
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, sessions)

	_, err := svc.ValidateSession(context.Background(), "tok", "other-agent")
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
	if !deleted {
		t.Error("expected session to be deleted")
	}
}

func TestAuthService_ValidateSession_NotFound(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	_, err := svc.ValidateSession(context.Background(), "missing", "ua")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthService_CreateInitialUser_Success(t *testing.T) {
	ctx := context.Background()

	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 0, nil
		},
		createFn: func(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
			if username != "admin" {
				t.Errorf("expected username 'admin', got %s", username)
			}
			if passwordHash == "" {
				t.Error("password hash should not be empty")
			}
			return &domain.User{ID: "u1", Username: username}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})

	if err := svc.CreateInitialUser(ctx, "admin", "password123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAuthService_CreateInitialUser_UsersExist(t *testing.T) {
	users := &mockUserRepo{
		countFn: func(ctx context.Context) (int, error) {
			return 1, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})

	err := svc.CreateInitialUser(context.Background(), "admin", "password123")
	if !errors.Is(err, ErrUsersExist) {
		t.Errorf("expected ErrUsersExist, got %v", err)
	}
}

func TestAuthService_ValidateForwardAuth_ExistingUser(t *testing.T) {
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: "ssouser"}, nil
		},
		createFn: func(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
			t.Fatal("existing user must not be recreated")
			return nil, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})

	user, err := svc.ValidateForwardAuth(context.Background(), "ssouser", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "ssouser" {
		t.Errorf("expected username 'ssouser', got %s", user.Username)
	}
}

func TestAuthService_ValidateForwardAuth_NewUser(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
			if passwordHash != "" {
				t.Error("forward-auth users must not get a password")
			}
			return &domain.User{ID: "u2", Username: username, FullName: fullName}, nil
		},
	}

	svc := NewAuthService(users, &mockSessionRepo{})

	user, err := svc.ValidateForwardAuth(context.Background(), "newssouser", "New User")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "newssouser" || user.FullName != "New User" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestAuthService_LoginWithUser_UpdatesProfileName(t *testing.T) {
	var updated string
	users := &mockUserRepo{
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: "u1", Username: username, FullName: "Old Name"}, nil
		},
		updateFullNameFn: func(ctx context.Context, id, fullName string) error {
			updated = fullName
			return nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{})

	token, err := svc.LoginWithUser(context.Background(), "a@example.com", "New Name", "ua", "ip")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if updated != "New Name" {
		t.Errorf("expected full name update, got %q", updated)
	}
}

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestAuthService_ValidateBearer(t *testing.T) {
	const secret = "test-secret"
	users := &mockUserRepo{
		createFn: func(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
			return &domain.User{ID: "u9", Username: username, FullName: fullName}, nil
		},
	}
	svc := NewAuthService(users, &mockSessionRepo{}).WithJWTSecret(secret)

	claims := &accessClaims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "2f1c",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	claims.UserMetadata.FullName = "Ana Souza"

	user, err := svc.ValidateBearer(context.Background(), signToken(t, secret, claims))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Username != "ana@example.com" || user.FullName != "Ana Souza" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestAuthService_ValidateBearer_Rejects(t *testing.T) {
	const secret = "test-secret"
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{}).WithJWTSecret(secret)

	valid := jwt.RegisteredClaims{Subject: "s", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	expired := jwt.RegisteredClaims{Subject: "s", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	noExpiry := jwt.RegisteredClaims{Subject: "s"}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other-secret", valid)},
		{"expired", signToken(t, secret, expired)},
		{"missing exp", signToken(t, secret, noExpiry)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateBearer(context.Background(), tc.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateBearer_Disabled(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	if svc.BearerEnabled() {
		t.Fatal("bearer auth should be disabled without a secret")
	}
	_, err := svc.ValidateBearer(context.Background(), "anything")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
