// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"healthmonitor/internal/domain"

	"github.com/google/uuid"
)

type recordKey struct {
	userID string
	day    string
}

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	records  map[recordKey]domain.HealthRecord
	goals    map[string]domain.WeightGoal
	users    []*domain.User
	sessions map[string]*domain.Session
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		records:  make(map[recordKey]domain.HealthRecord),
		goals:    make(map[string]domain.WeightGoal),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.RecordRepository = (*DB)(nil)
var _ domain.GoalRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- RecordRepository ---

// UpsertRecord inserts or replaces the record for (rec.UserID, rec.Date).
func (db *DB) UpsertRecord(ctx context.Context, rec *domain.HealthRecord) (*domain.HealthRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := time.Now().UTC()
	key := recordKey{rec.UserID, rec.Date}
	out := *rec
	if prev, ok := db.records[key]; ok {
		out.ID = prev.ID
		out.CreatedAt = prev.CreatedAt
	} else {
		out.ID = uuid.NewString()
		out.CreatedAt = now
	}
	out.UpdatedAt = now
	db.records[key] = out
	return &out, nil
}

// GetRecord returns the record for a day, or nil.
func (db *DB) GetRecord(ctx context.Context, userID, day string) (*domain.HealthRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if r, ok := db.records[recordKey{userID, day}]; ok {
		return &r, nil
	}
	return nil, nil
}

// ListRecords lists a user's records, most recent date first.
func (db *DB) ListRecords(ctx context.Context, userID string) ([]domain.HealthRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.HealthRecord, 0)
	for k, r := range db.records {
		if k.userID == userID {
			result = append(result, r)
		}
	}

	// YYYY-MM-DD sorts lexically.
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})
	return result, nil
}

// DeleteRecord removes the record for a day.
func (db *DB) DeleteRecord(ctx context.Context, userID, day string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := recordKey{userID, day}
	if _, ok := db.records[key]; !ok {
		return false, nil
	}
	delete(db.records, key)
	return true, nil
}

// --- GoalRepository ---

// UpsertGoal sets a user's goal weight.
func (db *DB) UpsertGoal(ctx context.Context, userID string, weightKg float64) (*domain.WeightGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	g := domain.WeightGoal{UserID: userID, WeightKg: weightKg, UpdatedAt: time.Now().UTC()}
	db.goals[userID] = g
	return &g, nil
}

// GetGoal returns a user's goal, or nil.
func (db *DB) GetGoal(ctx context.Context, userID string) (*domain.WeightGoal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if g, ok := db.goals[userID]; ok {
		return &g, nil
	}
	return nil, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, fullName, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// UpdateFullName changes a user's display name.
func (db *DB) UpdateFullName(ctx context.Context, id, fullName string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.FullName = fullName
			return nil
		}
	}
	return nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
