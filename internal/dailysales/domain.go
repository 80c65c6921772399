// Package dailysales stores the per-day sales and purchases figures that
// feed the monthly summaries and the analytics dashboards.
package dailysales

import (
	"errors"
	"time"
)

// DailyEntry is one school's sales and purchases for one service day.
type DailyEntry struct {
	SchoolID  int64     `json:"school_id"`
	Date      time.Time `json:"date"`
	Sales     float64   `json:"sales"`
	Purchases float64   `json:"purchases"`
}

// MonthlySummary aggregates one school's entries for a month.
type MonthlySummary struct {
	SchoolID       int64   `json:"school_id"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	TotalSales     float64 `json:"total_sales"`
	TotalPurchases float64 `json:"total_purchases"`
	NetIncome      float64 `json:"net_income"`
	Days           int     `json:"days"`
}

var (
	// ErrNotFound indicates no entries exist for the requested period.
	ErrNotFound = errors.New("dailysales: not found")
	// ErrInvalidEntry indicates a rejected daily figure.
	ErrInvalidEntry = errors.New("dailysales: invalid entry")
)

// Validate checks a single daily entry. Weekend dates are allowed here:
// canteens record whichever days they actually operated.
func (e DailyEntry) Validate(year int, month time.Month) error {
	if e.Date.IsZero() {
		return ErrInvalidEntry
	}
	if e.Date.Year() != year || e.Date.Month() != month {
		return ErrInvalidEntry
	}
	if e.Sales < 0 || e.Purchases < 0 {
		return ErrInvalidEntry
	}
	return nil
}
