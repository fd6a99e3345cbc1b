// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"healthmonitor/internal/domain"

	"github.com/google/uuid"
)

var _ domain.RecordRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

const userColumns = "id, username, full_name, password_hash, created_at"

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
	var u domain.User
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (id, username, full_name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING "+userColumns,
		uuid.NewString(), username, fullName, passwordHash, time.Now().UTC(),
	).Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateFullName changes a user's display name.
func (d *DB) UpdateFullName(ctx context.Context, id, fullName string) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE users SET full_name = $2 WHERE id = $1", id, fullName)
	return err
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
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
func (r *SessionRepo) Create(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, user_agent, ip, expires_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		token, userID, userAgent, ip, expiresAt, time.Now().UTC(),
	)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions WHERE token = $1",
		token,
	).Scan(&s.Token, &s.UserID, &s.UserAgent, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", time.Now().UTC())
	return err
}
