package dailysales

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for daily figures.
type Repository interface {
	Upsert(ctx context.Context, entry DailyEntry) error
	ListMonth(ctx context.Context, schoolID int64, year int, month time.Month) ([]DailyEntry, error)
	ListRange(ctx context.Context, schoolID int64, from, to time.Time) ([]DailyEntry, error)
	// MonthlyTotals returns per-school totals for (year, month) across all
	// schools. Schools without data simply have no row.
	MonthlyTotals(ctx context.Context, year int, month time.Month) ([]MonthlySummary, error)
	SchoolMonthlyTotals(ctx context.Context, schoolID int64, year int, month time.Month) (MonthlySummary, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, entry DailyEntry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO daily_sales (school_id, date, sales, purchases)
VALUES ($1, $2, $3, $4)
ON CONFLICT (school_id, date) DO UPDATE SET sales = EXCLUDED.sales, purchases = EXCLUDED.purchases`,
		entry.SchoolID, entry.Date, entry.Sales, entry.Purchases)
	return err
}

func (r *repository) ListMonth(ctx context.Context, schoolID int64, year int, month time.Month) ([]DailyEntry, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return r.ListRange(ctx, schoolID, from, from.AddDate(0, 1, 0))
}

func (r *repository) ListRange(ctx context.Context, schoolID int64, from, to time.Time) ([]DailyEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT school_id, date, sales, purchases
FROM daily_sales
WHERE school_id = $1 AND date >= $2 AND date < $3
ORDER BY date ASC`, schoolID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []DailyEntry
	for rows.Next() {
		var e DailyEntry
		if err := rows.Scan(&e.SchoolID, &e.Date, &e.Sales, &e.Purchases); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) MonthlyTotals(ctx context.Context, year int, month time.Month) ([]MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	rows, err := r.db.Query(ctx, `SELECT school_id, COALESCE(SUM(sales), 0), COALESCE(SUM(purchases), 0), COUNT(*)
FROM daily_sales
WHERE date >= $1 AND date < $2
GROUP BY school_id
ORDER BY school_id`, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []MonthlySummary
	for rows.Next() {
		s := MonthlySummary{Year: year, Month: int(month)}
		if err := rows.Scan(&s.SchoolID, &s.TotalSales, &s.TotalPurchases, &s.Days); err != nil {
			return nil, err
		}
		s.NetIncome = s.TotalSales - s.TotalPurchases
		totals = append(totals, s)
	}
	return totals, rows.Err()
}

func (r *repository) SchoolMonthlyTotals(ctx context.Context, schoolID int64, year int, month time.Month) (MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	s := MonthlySummary{SchoolID: schoolID, Year: year, Month: int(month)}
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(sales), 0), COALESCE(SUM(purchases), 0), COUNT(*)
FROM daily_sales
WHERE school_id = $1 AND date >= $2 AND date < $3`, schoolID, from, from.AddDate(0, 1, 0)).
		Scan(&s.TotalSales, &s.TotalPurchases, &s.Days)
	if err != nil {
		return MonthlySummary{}, err
	}
	s.NetIncome = s.TotalSales - s.TotalPurchases
	return s, nil
}
