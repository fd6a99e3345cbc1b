package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"healthmonitor/internal/domain"

	"github.com/google/uuid"
)

const recordColumns = "id, user_id, to_char(day, 'YYYY-MM-DD'), weight, height, bmi, classification, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.HealthRecord, error) {
	var r domain.HealthRecord
	var class string
	if err := row.Scan(&r.ID, &r.UserID, &r.Date, &r.Weight, &r.Height, &r.BMI, &class, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Classification = domain.Classification(class)
	return &r, nil
}

// UpsertRecord inserts the record or, when (user_id, day) already exists,
// overwrites its measurements and derived fields.
func (d *DB) UpsertRecord(ctx context.Context, rec *domain.HealthRecord) (*domain.HealthRecord, error) {
	now := time.Now().UTC()
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO health_records(id, user_id, day, weight, height, bmi, classification, created_at, updated_at) "+
			"VALUES($1, $2, $3::date, $4, $5, $6, $7, $8, $8) "+
			"ON CONFLICT (user_id, day) DO UPDATE SET weight = EXCLUDED.weight, height = EXCLUDED.height, "+
			"bmi = EXCLUDED.bmi, classification = EXCLUDED.classification, updated_at = EXCLUDED.updated_at "+
			"RETURNING "+recordColumns+";",
		uuid.NewString(), rec.UserID, rec.Date, rec.Weight, rec.Height, rec.BMI, string(rec.Classification), now,
	)
	return scanRecord(row)
}

// GetRecord returns the record for a day, or nil.
func (d *DB) GetRecord(ctx context.Context, userID, day string) (*domain.HealthRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM health_records WHERE user_id=$1 AND day=$2::date;", userID, day)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListRecords returns a user's records, most recent date first.
func (d *DB) ListRecords(ctx context.Context, userID string) ([]domain.HealthRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM health_records WHERE user_id=$1 ORDER BY day DESC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.HealthRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteRecord removes the record for a day, scoped to a user.
func (d *DB) DeleteRecord(ctx context.Context, userID, day string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM health_records WHERE user_id=$1 AND day=$2::date;", userID, day)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
