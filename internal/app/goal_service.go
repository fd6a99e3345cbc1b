package app

import (
	"context"
	"errors"
	"math"
	"time"

	"healthmonitor/internal/domain"
)

// ErrInvalidGoal indicates a goal weight that is not a positive number.
var ErrInvalidGoal = errors.New("goal weight must be a positive number")

// GoalService encapsulates weight-goal use cases.
type GoalService struct {
	repo   domain.GoalRepository
	events domain.EventPublisher
	now    func() time.Time
}

// NewGoalService creates a GoalService backed by the given repository.
func NewGoalService(repo domain.GoalRepository, events domain.EventPublisher) *GoalService {
	if events == nil {
		events = domain.NopPublisher{}
	}
	return &GoalService{repo: repo, events: events, now: time.Now}
}

// WithClock overrides the time source used to stamp events.
func (s *GoalService) WithClock(now func() time.Time) *GoalService {
	s.now = now
	return s
}

// Get returns the user's goal, or nil if none has been set.
func (s *GoalService) Get(ctx context.Context, userID string) (*domain.WeightGoal, error) {
	return s.repo.GetGoal(ctx, userID)
}

// Set stores weightKg as the user's goal, replacing any previous one.
func (s *GoalService) Set(ctx context.Context, userID string, weightKg float64) (*domain.WeightGoal, error) {
	if weightKg <= 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return nil, ErrInvalidGoal
	}
	goal, err := s.repo.UpsertGoal(ctx, userID, weightKg)
	if err != nil {
		return nil, err
	}
	s.events.Publish(domain.Event{
		Type:   domain.EventGoalSaved,
		UserID: userID,
		Goal:   goal,
		At:     s.now(),
	})
	return goal, nil
}
