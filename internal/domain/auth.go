// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents an active user session.
type Session struct {
	Token     string
	UserID    string
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, username, fullName, passwordHash string) (*User, error)
	UpdateFullName(ctx context.Context, id, fullName string) error
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
