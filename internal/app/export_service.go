package app

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"healthmonitor/internal/domain"
)

// CSVHeader is the first row of every export.
var CSVHeader = []string{"Date", "Weight (kg)", "Height (cm)", "BMI", "Classification"}

// Export orderings.
const (
	OrderNewestFirst = "desc"
	OrderOldestFirst = "asc"
)

// ErrInvalidOrder indicates an export order other than "asc" or "desc".
var ErrInvalidOrder = errors.New("order must be \"asc\" or \"desc\"")

// ExportService writes a user's records as CSV.
type ExportService struct {
	records domain.RecordRepository
}

// NewExportService creates an ExportService backed by the given repository.
func NewExportService(rr domain.RecordRepository) *ExportService {
	return &ExportService{records: rr}
}

// WriteCSV writes the header and one row per record. order is "desc"
// (newest first, the default) or "asc". It returns the number of rows written.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer, userID, order string) (int, error) {
	if order != "" && order != OrderNewestFirst && order != OrderOldestFirst {
		return 0, ErrInvalidOrder
	}
	recs, err := s.records.ListRecords(ctx, userID)
	if err != nil {
		return 0, err
	}
	if order == OrderOldestFirst {
		reversed := make([]domain.HealthRecord, len(recs))
		for i, r := range recs {
			reversed[len(recs)-1-i] = r
		}
		recs = reversed
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return 0, err
	}
	for _, r := range recs {
		row := []string{
			r.Date,
			formatNumber(r.Weight),
			formatNumber(r.Height),
			formatNumber(r.BMI),
			string(r.Classification),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(recs), cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
