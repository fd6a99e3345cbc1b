package app

import (
	"context"
	"errors"
	"time"

	"healthmonitor/internal/domain"
)

// ErrInvalidUnit indicates a display unit other than kg or lb.
var ErrInvalidUnit = errors.New("unit must be \"kg\" or \"lb\"")

const (
	defaultSeriesLimit = 30
	maxSeriesLimit     = 366
)

// DashboardService derives summary figures and chart data from a user's
// records and goal.
type DashboardService struct {
	records domain.RecordRepository
	goals   domain.GoalRepository
}

// NewDashboardService creates a DashboardService backed by the given repositories.
func NewDashboardService(rr domain.RecordRepository, gr domain.GoalRepository) *DashboardService {
	return &DashboardService{records: rr, goals: gr}
}

// Summary holds the dashboard figures. Pointer fields are nil when the value
// is not available, which is distinct from zero.
type Summary struct {
	Today             string               `json:"today"`
	Unit              string               `json:"unit"`
	Latest            *domain.HealthRecord `json:"latest"`
	CurrentWeight     *float64             `json:"currentWeight"`
	WeightDelta       *float64             `json:"weightDelta"`
	HeightDelta       *float64             `json:"heightDelta"`
	MonthlyAverageBMI *float64             `json:"monthlyAverageBmi"`
	MonthlyCount      int                  `json:"monthlyCount"`
	TotalRecords      int                  `json:"totalRecords"`
	Goal              *float64             `json:"goal"`
	Progress          *domain.GoalProgress `json:"progress"`
}

// SeriesPoint is a single chart data point.
type SeriesPoint struct {
	Day    string  `json:"day"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
	BMI    float64 `json:"bmi"`
}

// Summary computes the dashboard for the user as of now, with weights in unit.
func (s *DashboardService) Summary(ctx context.Context, userID string, now time.Time, unit string) (*Summary, error) {
	if !domain.ValidWeightUnit(unit) {
		return nil, ErrInvalidUnit
	}
	recs, err := s.records.ListRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal, err := s.goals.GetGoal(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Today:        now.Format(domain.DayLayout),
		Unit:         unit,
		TotalRecords: len(recs),
		MonthlyCount: domain.MonthlyCount(recs, now),
	}
	if len(recs) > 0 {
		latest := recs[0]
		sum.Latest = &latest
		sum.CurrentWeight = ptr(toUnit(latest.Weight, unit))
	}
	if d, ok := domain.DayOverDayDelta(recs); ok {
		sum.WeightDelta = ptr(toUnit(d, unit))
	}
	if d, ok := domain.HeightDelta(recs); ok {
		sum.HeightDelta = ptr(d)
	}
	if avg, ok := domain.MonthlyAverageBMI(recs, now); ok {
		sum.MonthlyAverageBMI = ptr(avg)
	}
	if goal != nil {
		sum.Goal = ptr(toUnit(goal.WeightKg, unit))
		if len(recs) > 0 {
			p := domain.NewGoalProgress(recs[0].Weight, goal.WeightKg)
			p.Current = toUnit(p.Current, unit)
			p.Target = toUnit(p.Target, unit)
			p.Remaining = toUnit(p.Remaining, unit)
			sum.Progress = &p
		}
	}
	return sum, nil
}

// Series returns up to limit of the most recent records as chart points,
// oldest first.
func (s *DashboardService) Series(ctx context.Context, userID string, limit int, unit string) ([]SeriesPoint, error) {
	if !domain.ValidWeightUnit(unit) {
		return nil, ErrInvalidUnit
	}
	if limit <= 0 {
		limit = defaultSeriesLimit
	}
	if limit > maxSeriesLimit {
		limit = maxSeriesLimit
	}

	recs, err := s.records.ListRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	points := make([]SeriesPoint, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		points = append(points, SeriesPoint{
			Day:    r.Date,
			Weight: toUnit(r.Weight, unit),
			Height: r.Height,
			BMI:    r.BMI,
		})
	}
	return points, nil
}

func toUnit(kg float64, unit string) float64 {
	return domain.ConvertWeight(kg, domain.UnitKg, unit)
}

func ptr(v float64) *float64 { return &v }
