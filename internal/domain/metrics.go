package domain

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidMeasurement is returned when a weight or height is not a
// positive, finite number.
var ErrInvalidMeasurement = errors.New("weight and height must be positive numbers")

// Classification is the BMI band a measurement falls into.
type Classification string

// BMI bands. Each lower bound belongs to its own band, so 25.0 is Overweight.
const (
	Underweight Classification = "Underweight"
	Healthy     Classification = "Healthy"
	Overweight  Classification = "Overweight"
	Obese       Classification = "Obese"
)

const (
	healthyMinBMI    = 18.5
	overweightMinBMI = 25.0
	obeseMinBMI      = 30.0
)

// ComputeBMI returns weight (kg) divided by the square of height converted
// from centimeters to meters. The result is not rounded. Inputs whose BMI
// overflows or underflows float64 are rejected like non-positive ones.
func ComputeBMI(weightKg, heightCm float64) (float64, error) {
	if !positive(weightKg) || !positive(heightCm) {
		return 0, ErrInvalidMeasurement
	}
	m := heightCm / 100
	bmi := weightKg / (m * m)
	if !positive(bmi) {
		return 0, ErrInvalidMeasurement
	}
	return bmi, nil
}

// ClassifyBMI maps a BMI value onto one of the four bands.
func ClassifyBMI(bmi float64) Classification {
	switch {
	case bmi < healthyMinBMI:
		return Underweight
	case bmi < overweightMinBMI:
		return Healthy
	case bmi < obeseMinBMI:
		return Overweight
	default:
		return Obese
	}
}

// DayOverDayDelta returns records[0].Weight - records[1].Weight for records
// ordered most recent first. ok is false when there is no prior record, which
// is distinct from a zero change.
func DayOverDayDelta(records []HealthRecord) (delta float64, ok bool) {
	if len(records) < 2 {
		return 0, false
	}
	return records[0].Weight - records[1].Weight, true
}

// HeightDelta is DayOverDayDelta for heights.
func HeightDelta(records []HealthRecord) (delta float64, ok bool) {
	if len(records) < 2 {
		return 0, false
	}
	return records[0].Height - records[1].Height, true
}

// MonthlyAverageBMI averages the BMI of records dated in the same calendar
// month and year as ref. ok is false when no record matches; the returned
// average is then 0 and must not be displayed as a value.
func MonthlyAverageBMI(records []HealthRecord, ref time.Time) (avg float64, ok bool) {
	sum, n := monthlyBMI(records, ref)
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MonthlyCount returns how many records fall in ref's calendar month.
func MonthlyCount(records []HealthRecord, ref time.Time) int {
	_, n := monthlyBMI(records, ref)
	return n
}

func monthlyBMI(records []HealthRecord, ref time.Time) (float64, int) {
	month := ref.Format("2006-01")
	var sum float64
	var n int
	for _, r := range records {
		if len(r.Date) >= len(month) && r.Date[:len(month)] == month {
			sum += r.BMI
			n++
		}
	}
	return sum, n
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
