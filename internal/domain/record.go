package domain

import (
	"context"
	"time"
)

// DayLayout is the calendar-date format used for record keys.
const DayLayout = "2006-01-02"

// HealthRecord is one user's weight and height for a calendar day, with the
// derived BMI and classification.
type HealthRecord struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Date           string         `json:"date"`
	Weight         float64        `json:"weight"`
	Height         float64        `json:"height"`
	BMI            float64        `json:"bmi"`
	Classification Classification `json:"classification"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewHealthRecord builds a record for day with BMI and classification derived
// from weight and height. It is the only place the derived fields are set.
func NewHealthRecord(userID, day string, weightKg, heightCm float64) (*HealthRecord, error) {
	bmi, err := ComputeBMI(weightKg, heightCm)
	if err != nil {
		return nil, err
	}
	return &HealthRecord{
		UserID:         userID,
		Date:           day,
		Weight:         weightKg,
		Height:         heightCm,
		BMI:            bmi,
		Classification: ClassifyBMI(bmi),
	}, nil
}

// RecordRepository is the port for health record persistence. Records are
// keyed by (user, date); UpsertRecord on an existing key replaces it.
type RecordRepository interface {
	UpsertRecord(ctx context.Context, rec *HealthRecord) (*HealthRecord, error)
	GetRecord(ctx context.Context, userID, day string) (*HealthRecord, error)
	// ListRecords returns all of a user's records, most recent date first.
	ListRecords(ctx context.Context, userID string) ([]HealthRecord, error)
	DeleteRecord(ctx context.Context, userID, day string) (bool, error)
}
