package users

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencanteen/opencanteen/internal/platform/db"
)

// ListFilters narrows and pages user listings.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	SchoolID *int64
	RoleID   *int64
	Active   *bool
}

// Repository defines data access methods for users.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const userColumns = `id, username, email, first_name, last_name, role_id, school_id,
avatar_object, signature_object, otp_required, is_active, password_hash, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, `username = $1`, username)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *repository) getBy(ctx context.Context, where string, arg any) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		p := arg("%" + filters.Search + "%")
		where += ` AND (username ILIKE ` + p + ` OR email ILIKE ` + p + ` OR last_name ILIKE ` + p + `)`
	}
	if filters.SchoolID != nil {
		where += ` AND school_id = ` + arg(*filters.SchoolID)
	}
	if filters.RoleID != nil {
		where += ` AND role_id = ` + arg(*filters.RoleID)
	}
	if filters.Active != nil {
		where += ` AND is_active = ` + arg(*filters.Active)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY username ASC`
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
	var list []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	return list, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, u *User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := r.db.Exec(ctx, `INSERT INTO users
(id, username, email, first_name, last_name, role_id, school_id,
 avatar_object, signature_object, otp_required, is_active, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.RoleID, u.SchoolID,
		u.AvatarObject, u.SignatureObject, u.OTPRequired, u.IsActive, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, `UPDATE users SET
 username = $2, email = $3, first_name = $4, last_name = $5, role_id = $6, school_id = $7,
 avatar_object = $8, signature_object = $9, otp_required = $10, is_active = $11,
 password_hash = $12, updated_at = $13
WHERE id = $1`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.RoleID, u.SchoolID,
		u.AvatarObject, u.SignatureObject, u.OTPRequired, u.IsActive, u.PasswordHash, u.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.RoleID, &u.SchoolID, &u.AvatarObject, &u.SignatureObject,
		&u.OTPRequired, &u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
