// Package sqlite implements the domain repositories on an embedded SQLite
// file through GORM, for single-node installs without PostgreSQL.
package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB wraps a *gorm.DB and implements domain repository interfaces.
type DB struct {
	gorm *gorm.DB
}

// gormWriter routes GORM's slow-query and error output into zerolog.
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// Open creates the database file if needed and migrates the schema.
func Open(path string, log zerolog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys are off per connection unless the pragma is set.
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	g, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			gormWriter{log: log.With().Str("component", "sqlite").Logger()},
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer.
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := g.AutoMigrate(&userRow{}, &sessionRow{}, &recordRow{}, &goalRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{gorm: g}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type userRow struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	FullName     string `gorm:"not null;default:''"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type sessionRow struct {
	Token     string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	UserAgent string
	IP        string
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	User      *userRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (sessionRow) TableName() string { return "sessions" }

type recordRow struct {
	ID             string  `gorm:"primaryKey"`
	UserID         string  `gorm:"uniqueIndex:idx_health_records_user_day;not null"`
	Day            string  `gorm:"uniqueIndex:idx_health_records_user_day;not null"`
	Weight         float64 `gorm:"not null"`
	Height         float64 `gorm:"not null"`
	BMI            float64 `gorm:"column:bmi;not null"`
	Classification string  `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	User           *userRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (recordRow) TableName() string { return "health_records" }

type goalRow struct {
	UserID     string  `gorm:"primaryKey"`
	WeightGoal float64 `gorm:"not null"`
	UpdatedAt  time.Time
	User       *userRow `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (goalRow) TableName() string { return "user_goals" }
