package dailysales

import (
	"context"
	"time"
)

// Service handles daily sales business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record upserts one daily figure after validation.
func (s *Service) Record(ctx context.Context, entry DailyEntry) error {
	if err := entry.Validate(entry.Date.Year(), entry.Date.Month()); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, entry)
}

// MonthSummary returns the monthly roll-up for one school.
func (s *Service) MonthSummary(ctx context.Context, schoolID int64, year int, month time.Month) (MonthlySummary, error) {
	return s.repo.SchoolMonthlyTotals(ctx, schoolID, year, month)
}

// SchoolMonthlyTotals returns one school's roll-up, feeding aggregation.
func (s *Service) SchoolMonthlyTotals(ctx context.Context, schoolID int64, year int, month time.Month) (MonthlySummary, error) {
	return s.repo.SchoolMonthlyTotals(ctx, schoolID, year, month)
}

// MonthlyTotals returns every school's roll-up for a month.
func (s *Service) MonthlyTotals(ctx context.Context, year int, month time.Month) ([]MonthlySummary, error) {
	return s.repo.MonthlyTotals(ctx, year, month)
}

// MonthEntries lists the raw daily entries of a month.
func (s *Service) MonthEntries(ctx context.Context, schoolID int64, year int, month time.Month) ([]DailyEntry, error) {
	return s.repo.ListMonth(ctx, schoolID, year, month)
}

// FilteredEntries lists raw entries for an arbitrary date range.
func (s *Service) FilteredEntries(ctx context.Context, schoolID int64, from, to time.Time) ([]DailyEntry, error) {
	if to.Before(from) {
		return nil, ErrInvalidEntry
	}
	return s.repo.ListRange(ctx, schoolID, from, to.AddDate(0, 0, 1))
}
