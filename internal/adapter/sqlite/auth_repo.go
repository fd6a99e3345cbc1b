package sqlite

import (
	"context"
	"errors"
	"time"

	"healthmonitor/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var _ domain.RecordRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

func (u userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (d *DB) firstUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var row userRow
	err := d.gorm.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.firstUser(ctx, "username = ?", username)
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return d.firstUser(ctx, "id = ?", id)
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
	row := userRow{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// UpdateFullName changes a user's display name.
func (d *DB) UpdateFullName(ctx context.Context, id, fullName string) error {
	return d.gorm.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("full_name", fullName).Error
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int64
	err := d.gorm.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return int(n), err
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
	return r.db.gorm.WithContext(ctx).Create(&sessionRow{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}).Error
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.gorm.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
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
	return r.db.gorm.WithContext(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	return r.db.gorm.WithContext(ctx).Where("expires_at < ?", time.Now().UTC()).Delete(&sessionRow{}).Error
}
