// Package analytics derives the monthly and trailing-twelve-month
// financial summaries displayed on the dashboards.
package analytics

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/opencanteen/opencanteen/internal/dailysales"
)

// SummaryView is the per-school, per-month dashboard figure set.
type SummaryView struct {
	SchoolID       int64   `json:"school_id,omitempty"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	TotalSales     float64 `json:"total_sales"`
	TotalPurchases float64 `json:"total_purchases"`
	NetIncome      float64 `json:"net_income"`
	GrossProfit    float64 `json:"gross_profit"`
	ProfitMarginPct float64 `json:"profit_margin_pct"`
	CostToSalesPct  float64 `json:"cost_to_sales_pct"`
	// ChangePct is the month-over-month net income change, rounded to the
	// nearest integer.
	ChangePct int `json:"change_pct"`
}

// TrendView is a sequence of monthly summaries, oldest first.
type TrendView struct {
	SchoolID int64         `json:"school_id,omitempty"`
	Months   []SummaryView `json:"months"`
}

// TotalsSource provides the raw monthly figures.
type TotalsSource interface {
	SchoolMonthlyTotals(ctx context.Context, schoolID int64, year int, month time.Month) (dailysales.MonthlySummary, error)
	MonthlyTotals(ctx context.Context, year int, month time.Month) ([]dailysales.MonthlySummary, error)
}

// Service coordinates aggregation with the cache layer.
type Service struct {
	source TotalsSource
	cache  *Cache
	group  singleflight.Group
	now    func() time.Time
}

// NewService wires a TotalsSource with a Cache helper.
func NewService(source TotalsSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache, now: time.Now}
}

// PercentChange computes the month-over-month change as the spec defines
// it: round((current-previous)/previous*100); when the previous month is
// zero the change is 100 if the current month is positive, otherwise 0.
func PercentChange(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round((current - previous) / previous * 100))
}

func summarize(m dailysales.MonthlySummary) SummaryView {
	v := SummaryView{
		SchoolID:       m.SchoolID,
		Year:           m.Year,
		Month:          m.Month,
		TotalSales:     m.TotalSales,
		TotalPurchases: m.TotalPurchases,
		NetIncome:      m.TotalSales - m.TotalPurchases,
		GrossProfit:    m.TotalSales - m.TotalPurchases,
	}
	if m.TotalSales != 0 {
		v.ProfitMarginPct = v.GrossProfit / m.TotalSales * 100
		v.CostToSalesPct = m.TotalPurchases / m.TotalSales * 100
	}
	return v
}

// SchoolMonth returns one school's summary with month-over-month change.
func (s *Service) SchoolMonth(ctx context.Context, schoolID int64, year int, month time.Month) (SummaryView, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "school", strconv.FormatInt(schoolID, 10), strconv.Itoa(year), strconv.Itoa(int(month)))
	if err != nil {
		return SummaryView{}, err
	}
	var view SummaryView
	err = s.fetch(ctx, key, &view, func(ctx context.Context) (interface{}, error) {
		current, err := s.source.SchoolMonthlyTotals(ctx, schoolID, year, month)
		if err != nil {
			return nil, err
		}
		prevStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		previous, err := s.source.SchoolMonthlyTotals(ctx, schoolID, prevStart.Year(), prevStart.Month())
		if err != nil {
			return nil, err
		}
		view := summarize(current)
		view.ChangePct = PercentChange(view.NetIncome, previous.TotalSales-previous.TotalPurchases)
		return view, nil
	})
	return view, err
}

// SchoolTrend returns a school's trailing monthly summaries, oldest first.
func (s *Service) SchoolTrend(ctx context.Context, schoolID int64, months int) (TrendView, error) {
	if months <= 0 || months > 36 {
		months = 12
	}
	key, err := s.cache.BuildKey(ctx, "analytics", "trend", strconv.FormatInt(schoolID, 10), strconv.Itoa(months))
	if err != nil {
		return TrendView{}, err
	}
	var view TrendView
	err = s.fetch(ctx, key, &view, func(ctx context.Context) (interface{}, error) {
		trend := TrendView{SchoolID: schoolID}
		var prevNet float64
		for i := months - 1; i >= 0; i-- {
			start := monthStart(s.now()).AddDate(0, -i, 0)
			totals, err := s.source.SchoolMonthlyTotals(ctx, schoolID, start.Year(), start.Month())
			if err != nil {
				return nil, err
			}
			totals.SchoolID = schoolID
			totals.Year = start.Year()
			totals.Month = int(start.Month())
			v := summarize(totals)
			if len(trend.Months) > 0 {
				v.ChangePct = PercentChange(v.NetIncome, prevNet)
			}
			prevNet = v.NetIncome
			trend.Months = append(trend.Months, v)
		}
		return trend, nil
	})
	return view, err
}

// Overview sums all schools for each of the trailing 12 months. Schools
// with no data for a month contribute zero rather than failing the roll-up.
func (s *Service) Overview(ctx context.Context) (TrendView, error) {
	key, err := s.cache.BuildKey(ctx, "analytics", "overview")
	if err != nil {
		return TrendView{}, err
	}
	var view TrendView
	err = s.fetch(ctx, key, &view, func(ctx context.Context) (interface{}, error) {
		trend := TrendView{}
		var prevNet float64
		for i := 11; i >= 0; i-- {
			start := monthStart(s.now()).AddDate(0, -i, 0)
			perSchool, err := s.source.MonthlyTotals(ctx, start.Year(), start.Month())
			if err != nil {
				return nil, err
			}
			combined := dailysales.MonthlySummary{Year: start.Year(), Month: int(start.Month())}
			for _, school := range perSchool {
				combined.TotalSales += school.TotalSales
				combined.TotalPurchases += school.TotalPurchases
			}
			v := summarize(combined)
			if len(trend.Months) > 0 {
				v.ChangePct = PercentChange(v.NetIncome, prevNet)
			}
			prevNet = v.NetIncome
			trend.Months = append(trend.Months, v)
		}
		return trend, nil
	})
	return view, err
}

// Invalidate drops cached aggregates after new figures arrive.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// fetch collapses concurrent loads of the same key before consulting the
// cache, so one dashboard refresh does not fan out into many recomputes.
func (s *Service) fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		var raw json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &raw, loader); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
