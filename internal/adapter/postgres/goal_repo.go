package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"healthmonitor/internal/domain"
)

// UpsertGoal sets a user's goal weight.
func (d *DB) UpsertGoal(ctx context.Context, userID string, weightKg float64) (*domain.WeightGoal, error) {
	var g domain.WeightGoal
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO user_goals(user_id, weight_goal, updated_at) VALUES($1, $2, $3) "+
			"ON CONFLICT (user_id) DO UPDATE SET weight_goal = EXCLUDED.weight_goal, updated_at = EXCLUDED.updated_at "+
			"RETURNING user_id, weight_goal, updated_at;",
		userID, weightKg, time.Now().UTC(),
	).Scan(&g.UserID, &g.WeightKg, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGoal returns a user's goal, or nil.
func (d *DB) GetGoal(ctx context.Context, userID string) (*domain.WeightGoal, error) {
	var g domain.WeightGoal
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, weight_goal, updated_at FROM user_goals WHERE user_id=$1;", userID,
	).Scan(&g.UserID, &g.WeightKg, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
