package schools

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencanteen/opencanteen/internal/platform/db"
)

// ListFilters narrows and pages school listings.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
	Active *bool
}

// Repository defines data access for schools.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]School, int, error)
	Get(ctx context.Context, id int64) (*School, error)
	Create(ctx context.Context, school *School) error
	Update(ctx context.Context, school *School) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const schoolColumns = `id, name, address, logo_object, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]School, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		where += ` AND name ILIKE ` + arg("%"+filters.Search+"%")
	}
	if filters.Active != nil {
		where += ` AND is_active = ` + arg(*filters.Active)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM schools`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + schoolColumns + ` FROM schools` + where + ` ORDER BY name ASC`
	if filters.Limit > 0 {
		query += ` LIMIT ` + arg(filters.Limit)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		query += ` OFFSET ` + arg(offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.LogoObject, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*School, error) {
	var s School
	err := r.db.QueryRow(ctx, `SELECT `+schoolColumns+` FROM schools WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Address, &s.LogoObject, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) Create(ctx context.Context, school *School) error {
	now := time.Now()
	school.CreatedAt = now
	school.UpdatedAt = now
	err := r.db.QueryRow(ctx, `INSERT INTO schools (name, address, logo_object, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		school.Name, school.Address, school.LogoObject, school.IsActive, school.CreatedAt, school.UpdatedAt).
		Scan(&school.ID)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *repository) Update(ctx context.Context, school *School) error {
	school.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `UPDATE schools SET name = $2, address = $3, logo_object = $4, is_active = $5, updated_at = $6
WHERE id = $1`, school.ID, school.Name, school.Address, school.LogoObject, school.IsActive, school.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
