package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthmonitor/internal/domain"
)

// ErrInvalidDate indicates a record date that is not a YYYY-MM-DD calendar day.
var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// RecordService encapsulates health-record use cases.
type RecordService struct {
	repo   domain.RecordRepository
	events domain.EventPublisher
	now    func() time.Time
}

// NewRecordService creates a RecordService backed by the given repository.
// A nil publisher drops change events.
func NewRecordService(repo domain.RecordRepository, events domain.EventPublisher) *RecordService {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &RecordService{repo: repo, events: events, now: time.Now}
}

// WithClock overrides the time source used to stamp events.
func (s *RecordService) WithClock(now func() time.Time) *RecordService {
	s.now = now
	return s
}

// Save validates a measurement, derives BMI and classification, and upserts
// the record for day. A later save for the same day replaces the earlier one.
func (s *RecordService) Save(ctx context.Context, userID, day string, weightKg, heightCm float64) (*domain.HealthRecord, error) {
	if err := validateDay(day); err != nil {
		return nil, err
	}
	rec, err := domain.NewHealthRecord(userID, day, weightKg, heightCm)
	if err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	saved, err := s.repo.UpsertRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.events.Publish(domain.Event{
		Type:   domain.EventRecordSaved,
		UserID: userID,
		Date:   saved.Date,
		Record: saved,
		At:     s.now(),
	})
	return saved, nil
}

// Get returns the record for day, or nil if there is none.
func (s *RecordService) Get(ctx context.Context, userID, day string) (*domain.HealthRecord, error) {
	if err := validateDay(day); err != nil {
		return nil, err
	}
	return s.repo.GetRecord(ctx, userID, day)
}

// List returns every record for the user, most recent first.
func (s *RecordService) List(ctx context.Context, userID string) ([]domain.HealthRecord, error) {
	return s.repo.ListRecords(ctx, userID)
}

// Delete removes the record for day and reports whether one existed.
func (s *RecordService) Delete(ctx context.Context, userID, day string) (bool, error) {
	if err := validateDay(day); err != nil {
		return false, err
	}
	deleted, err := s.repo.DeleteRecord(ctx, userID, day)
	if err != nil {
		return false, err
	}
	if deleted {
		s.events.Publish(domain.Event{
			Type:   domain.EventRecordDeleted,
			UserID: userID,
			Date:   day,
			At:     s.now(),
		})
	}
	return deleted, nil
}

func validateDay(day string) error {
	t, err := time.Parse(domain.DayLayout, day)
	if err != nil || t.Format(domain.DayLayout) != day {
		return ErrInvalidDate
	}
	return nil
}
