package sqlite

import (
	"context"
	"errors"
	"time"

	"healthmonitor/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r recordRow) toDomain() domain.HealthRecord {
	return domain.HealthRecord{
		ID:             r.ID,
		UserID:         r.UserID,
		Date:           r.Day,
		Weight:         r.Weight,
		Height:         r.Height,
		BMI:            r.BMI,
		Classification: domain.Classification(r.Classification),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// UpsertRecord inserts the record or overwrites the one stored for the same
// user and day, keeping its ID.
func (d *DB) UpsertRecord(ctx context.Context, rec *domain.HealthRecord) (*domain.HealthRecord, error) {
	now := time.Now().UTC()
	row := recordRow{
		ID:             uuid.NewString(),
		UserID:         rec.UserID,
		Day:            rec.Date,
		Weight:         rec.Weight,
		Height:         rec.Height,
		BMI:            rec.BMI,
		Classification: string(rec.Classification),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var stored recordRow
	err := d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight", "height", "bmi", "classification", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND day = ?", rec.UserID, rec.Date).First(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	out := stored.toDomain()
	return &out, nil
}

// GetRecord returns the record for a day, or nil.
func (d *DB) GetRecord(ctx context.Context, userID, day string) (*domain.HealthRecord, error) {
	var row recordRow
	err := d.gorm.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := row.toDomain()
	return &out, nil
}

// ListRecords returns a user's records, most recent date first.
func (d *DB) ListRecords(ctx context.Context, userID string) ([]domain.HealthRecord, error) {
	var rows []recordRow
	if err := d.gorm.WithContext(ctx).Where("user_id = ?", userID).Order("day DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HealthRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// DeleteRecord removes the record for a day, scoped to a user.
func (d *DB) DeleteRecord(ctx context.Context, userID, day string) (bool, error) {
	res := d.gorm.WithContext(ctx).Where("user_id = ? AND day = ?", userID, day).Delete(&recordRow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
