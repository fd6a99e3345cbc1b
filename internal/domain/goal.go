package domain

import (
	"context"
	"math"
	"time"
)

// WeightGoal is a user's target weight.
type WeightGoal struct {
	UserID    string    `json:"userId"`
	WeightKg  float64   `json:"weightKg"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoalProgress describes how far the current weight is from the goal.
// Remaining is positive when weight must be lost and negative when it must be
// gained. Percent is clamped to [0, 100].
type GoalProgress struct {
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Remaining float64 `json:"remaining"`
	Percent   float64 `json:"percent"`
	Reached   bool    `json:"reached"`
}

// NewGoalProgress computes progress of current towards target (both kg).
func NewGoalProgress(current, target float64) GoalProgress {
	p := GoalProgress{
		Current:   current,
		Target:    target,
		Remaining: current - target,
		Reached:   current == target,
	}
	if target > 0 {
		pct := 100 - math.Abs(current-target)/target*100
		p.Percent = math.Min(100, math.Max(0, pct))
	}
	return p
}

// GoalRepository is the port for weight goal persistence.
type GoalRepository interface {
	UpsertGoal(ctx context.Context, userID string, weightKg float64) (*WeightGoal, error)
	GetGoal(ctx context.Context, userID string) (*WeightGoal, error)
}
