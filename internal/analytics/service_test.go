package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencanteen/opencanteen/internal/dailysales"
)

type monthKey struct {
	school int64
	year   int
	month  time.Month
}

type mockSource struct {
	totals map[monthKey]dailysales.MonthlySummary
	calls  int
	err    error
}

func (m *mockSource) SchoolMonthlyTotals(ctx context.Context, schoolID int64, year int, month time.Month) (dailysales.MonthlySummary, error) {
	m.calls++
	if m.err != nil {
		return dailysales.MonthlySummary{}, m.err
	}
	// Missing months roll up as zero, same as the SQL SUM over no rows.
	s := m.totals[monthKey{schoolID, year, month}]
	s.SchoolID = schoolID
	s.Year = year
	s.Month = int(month)
	return s, nil
}

func (m *mockSource) MonthlyTotals(ctx context.Context, year int, month time.Month) ([]dailysales.MonthlySummary, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []dailysales.MonthlySummary
	for key, s := range m.totals {
		if key.year == year && key.month == month {
			s.SchoolID = key.school
			s.Year = year
			s.Month = int(month)
			out = append(out, s)
		}
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, source *mockSource) *Service {
	t.Helper()
	svc := NewService(source, NewCache(nil, time.Minute))
	svc.now = fixedNow
	return svc
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 200, PercentChange(150, 50))
	assert.Equal(t, -50, PercentChange(50, 100))
	assert.Equal(t, 100, PercentChange(500, 0))
	assert.Equal(t, 0, PercentChange(0, 0))
	assert.Equal(t, 0, PercentChange(-10, 0))
}

func TestSchoolMonthSummary(t *testing.T) {
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.May}:  {TotalSales: 100, TotalPurchases: 50},
		{1, 2025, time.June}: {TotalSales: 200, TotalPurchases: 50},
	}}
	svc := newTestService(t, source)

	may, err := svc.SchoolMonth(context.Background(), 1, 2025, time.May)
	require.NoError(t, err)
	assert.Equal(t, 50.0, may.NetIncome)
	assert.Equal(t, 50.0, may.GrossProfit)
	assert.Equal(t, 50.0, may.ProfitMarginPct)
	assert.Equal(t, 50.0, may.CostToSalesPct)

	june, err := svc.SchoolMonth(context.Background(), 1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, 150.0, june.NetIncome)
	assert.Equal(t, 200, june.ChangePct)
}

func TestSchoolMonthZeroSales(t *testing.T) {
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.June}: {TotalPurchases: 40},
	}}
	svc := newTestService(t, source)

	view, err := svc.SchoolMonth(context.Background(), 1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, 0.0, view.ProfitMarginPct)
	assert.Equal(t, 0.0, view.CostToSalesPct)
	assert.Equal(t, -40.0, view.NetIncome)
}

func TestSchoolMonthChangeFromZeroPrevious(t *testing.T) {
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.June}: {TotalSales: 500},
	}}
	svc := newTestService(t, source)

	view, err := svc.SchoolMonth(context.Background(), 1, 2025, time.June)
	require.NoError(t, err)
	assert.Equal(t, 100, view.ChangePct)
}

func TestOverviewToleratesMissingSchoolMonths(t *testing.T) {
	// School 2 has no May data at all; the roll-up must not fail and must
	// count its contribution as zero.
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.May}:  {TotalSales: 100, TotalPurchases: 20},
		{1, 2025, time.June}: {TotalSales: 100, TotalPurchases: 20},
		{2, 2025, time.June}: {TotalSales: 300, TotalPurchases: 100},
	}}
	svc := newTestService(t, source)

	view, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Months, 12)

	june := view.Months[11]
	assert.Equal(t, 2025, june.Year)
	assert.Equal(t, int(time.June), june.Month)
	assert.Equal(t, 400.0, june.TotalSales)
	assert.Equal(t, 120.0, june.TotalPurchases)

	may := view.Months[10]
	assert.Equal(t, 100.0, may.TotalSales)

	// Months with no data at all appear as zero rows.
	assert.Equal(t, 0.0, view.Months[0].TotalSales)
}

func TestSchoolTrendOrderingAndChange(t *testing.T) {
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.May}:  {TotalSales: 100, TotalPurchases: 50},
		{1, 2025, time.June}: {TotalSales: 200, TotalPurchases: 50},
	}}
	svc := newTestService(t, source)

	view, err := svc.SchoolTrend(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, view.Months, 2)
	assert.Equal(t, []float64{50, 150}, []float64{view.Months[0].NetIncome, view.Months[1].NetIncome})
	assert.Equal(t, 200, view.Months[1].ChangePct)
}

func TestCachedOverviewSkipsRecompute(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	source := &mockSource{totals: map[monthKey]dailysales.MonthlySummary{
		{1, 2025, time.June}: {TotalSales: 100},
	}}
	svc := NewService(source, NewCache(client, time.Minute))
	svc.now = fixedNow

	_, err := svc.Overview(context.Background())
	require.NoError(t, err)
	firstCalls := source.calls
	require.Greater(t, firstCalls, 0)

	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firstCalls, source.calls)

	require.NoError(t, svc.Invalidate(context.Background()))
	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Greater(t, source.calls, firstCalls)
}

func TestOverviewPropagatesSourceErrors(t *testing.T) {
	source := &mockSource{err: errors.New("db down")}
	svc := newTestService(t, source)
	_, err := svc.Overview(context.Background())
	assert.Error(t, err)
}
