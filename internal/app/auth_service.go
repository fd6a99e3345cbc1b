// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthmonitor/internal/domain"

	"github.com/golang-jwt/jwt/v5"
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
	// ErrInvalidToken indicates a bearer token that failed verification.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrUsersExist is returned by CreateInitialUser once any user exists.
	ErrUsersExist = errors.New("users already exist")
)

const defaultSessionTTL = 24 * time.Hour

// AuthService handles authentication and session management.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration
	jwtSecret  []byte
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: defaultSessionTTL,
	}
}

// WithSessionTTL overrides the 24h session lifetime.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// WithJWTSecret enables bearer-token authentication with HS256 tokens signed
// by the external auth provider.
func (s *AuthService) WithJWTSecret(secret string) *AuthService {
	s.jwtSecret = []byte(secret)
	return s
}

// SessionTTL is the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// BearerEnabled reports whether ValidateBearer can succeed.
func (s *AuthService) BearerEnabled() bool {
	return len(s.jwtSecret) > 0
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

	return s.newSession(ctx, user.ID, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if !ConstantTimeCompare(session.UserAgent, userAgent) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// CreateInitialUser creates the first user if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.New("username and password are required")
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrUsersExist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, "", string(hash))
	return err
}

// ValidateForwardAuth validates a request from a forward-auth proxy.
// It checks for the Remote-User header set by the proxy.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser, remoteName string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	return s.provision(ctx, remoteUser, remoteName)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, fullName, userAgent, ip string) (string, error) {
	user, err := s.provision(ctx, username, fullName)
	if err != nil {
		return "", err
	}
	return s.newSession(ctx, user.ID, userAgent, ip)
}

// accessClaims is the subset of the auth provider's access token we read.
type accessClaims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// ValidateBearer verifies an HS256 access token issued by the external auth
// provider and returns the matching user, creating it on first sight.
func (s *AuthService) ValidateBearer(ctx context.Context, rawToken string) (*domain.User, error) {
	if !s.BearerEnabled() {
		return nil, ErrInvalidToken
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	username := claims.Email
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return nil, ErrInvalidToken
	}

	name := claims.UserMetadata.FullName
	if name == "" {
		name = claims.UserMetadata.Name
	}
	return s.provision(ctx, username, name)
}

// PurgeExpiredSessions deletes every expired session.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx)
}

// provision returns the user for username, creating it when missing and
// refreshing the stored full name when the identity provider sent a new one.
func (s *AuthService) provision(ctx context.Context, username, fullName string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Empty password hash: external users cannot use password login.
		user, err = s.users.Create(ctx, username, fullName, "")
		if err != nil {
			// Lost a race against a concurrent first login for the same user.
			user, err = s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if user == nil {
				return nil, ErrUserNotFound
			}
		}
		return user, nil
	}

	if fullName != "" && fullName != user.FullName {
		if err := s.users.UpdateFullName(ctx, user.ID, fullName); err != nil {
			return nil, err
		}
		user.FullName = fullName
	}
	return user, nil
}

func (s *AuthService) newSession(ctx context.Context, userID, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.sessionTTL)
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
