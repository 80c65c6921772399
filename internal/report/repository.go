package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for liquidation reports.
type Repository interface {
	Get(ctx context.Context, key Key) (*Report, error)
	Upsert(ctx context.Context, r *Report) (*Report, error)
	Save(ctx context.Context, r *Report) error
	ListForSchool(ctx context.Context, schoolID int64, year int) ([]Report, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const reportColumns = `id, school_id, year, month, category, status, memo,
prepared_by, noted_by, teacher_in_charge, noted_signature,
entries, attachments, date_created, date_approved, date_received, last_modified`

func (r *repository) Get(ctx context.Context, key Key) (*Report, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reportColumns+`
FROM liquidation_reports
WHERE school_id = $1 AND year = $2 AND month = $3 AND category = $4`,
		key.SchoolID, key.Year, int(key.Month), string(key.Category))
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (r *repository) Upsert(ctx context.Context, rep *Report) (*Report, error) {
	entries, err := json.Marshal(rep.Entries)
	if err != nil {
		return nil, fmt.Errorf("report: marshal entries: %w", err)
	}
	attachments, err := json.Marshal(rep.Attachments)
	if err != nil {
		return nil, fmt.Errorf("report: marshal attachments: %w", err)
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	now := time.Now()
	row := r.db.QueryRow(ctx, `INSERT INTO liquidation_reports
(id, school_id, year, month, category, status, memo, prepared_by, noted_by,
 teacher_in_charge, noted_signature, entries, attachments, date_created, last_modified)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
ON CONFLICT (school_id, year, month, category) DO UPDATE SET
 memo = EXCLUDED.memo,
 prepared_by = EXCLUDED.prepared_by,
 noted_by = EXCLUDED.noted_by,
 teacher_in_charge = EXCLUDED.teacher_in_charge,
 entries = EXCLUDED.entries,
 attachments = EXCLUDED.attachments,
 last_modified = EXCLUDED.last_modified
RETURNING `+reportColumns,
		rep.ID, rep.SchoolID, rep.Year, int(rep.Month), string(rep.Category),
		string(rep.Status), rep.Memo, rep.PreparedBy, rep.NotedBy,
		rep.TeacherInCharge, rep.NotedSignature, entries, attachments, now)
	return scanReport(row)
}

func (r *repository) Save(ctx context.Context, rep *Report) error {
	entries, err := json.Marshal(rep.Entries)
	if err != nil {
		return fmt.Errorf("report: marshal entries: %w", err)
	}
	attachments, err := json.Marshal(rep.Attachments)
	if err != nil {
		return fmt.Errorf("report: marshal attachments: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE liquidation_reports SET
 status = $2, memo = $3, prepared_by = $4, noted_by = $5, teacher_in_charge = $6,
 noted_signature = $7, entries = $8, attachments = $9,
 date_approved = $10, date_received = $11, last_modified = $12
WHERE id = $1`,
		rep.ID, string(rep.Status), rep.Memo, rep.PreparedBy, rep.NotedBy,
		rep.TeacherInCharge, rep.NotedSignature, entries, attachments,
		rep.DateApproved, rep.DateReceived, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListForSchool(ctx context.Context, schoolID int64, year int) ([]Report, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reportColumns+`
FROM liquidation_reports
WHERE school_id = $1 AND year = $2
ORDER BY month ASC, category ASC`, schoolID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

func scanReport(row pgx.Row) (*Report, error) {
	var (
		rep         Report
		month       int
		category    string
		status      string
		entries     []byte
		attachments []byte
	)
	err := row.Scan(&rep.ID, &rep.SchoolID, &rep.Year, &month, &category, &status,
		&rep.Memo, &rep.PreparedBy, &rep.NotedBy, &rep.TeacherInCharge,
		&rep.NotedSignature, &entries, &attachments,
		&rep.DateCreated, &rep.DateApproved, &rep.DateReceived, &rep.LastModified)
	if err != nil {
		return nil, err
	}
	rep.Month = time.Month(month)
	rep.Category = Category(category)
	rep.Status = Status(status)
	if len(entries) > 0 {
		if err := json.Unmarshal(entries, &rep.Entries); err != nil {
			return nil, fmt.Errorf("report: unmarshal entries: %w", err)
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &rep.Attachments); err != nil {
			return nil, fmt.Errorf("report: unmarshal attachments: %w", err)
		}
	}
	if rep.Entries == nil {
		rep.Entries = []Entry{}
	}
	return &rep, nil
}
