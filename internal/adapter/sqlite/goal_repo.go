package sqlite

import (
	"context"
	"errors"
	"time"

	"healthmonitor/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertGoal sets a user's goal weight.
func (d *DB) UpsertGoal(ctx context.Context, userID string, weightKg float64) (*domain.WeightGoal, error) {
	row := goalRow{UserID: userID, WeightGoal: weightKg, UpdatedAt: time.Now().UTC()}
	err := d.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"weight_goal", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return &domain.WeightGoal{UserID: row.UserID, WeightKg: row.WeightGoal, UpdatedAt: row.UpdatedAt}, nil
}

// GetGoal returns a user's goal, or nil.
func (d *DB) GetGoal(ctx context.Context, userID string) (*domain.WeightGoal, error) {
	var row goalRow
	err := d.gorm.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.WeightGoal{UserID: row.UserID, WeightKg: row.WeightGoal, UpdatedAt: row.UpdatedAt}, nil
}
