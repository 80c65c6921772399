package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencanteen/opencanteen/internal/platform/db"
)

// Repository defines data access for roles.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id int64) error
	PermissionsForRole(ctx context.Context, roleID int64) ([]string, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description, permissions FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions); err != nil {
			return nil, err
		}
		list = append(list, role)
	}
	return list, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Role, error) {
	var role Role
	err := r.db.QueryRow(ctx, `SELECT id, name, description, permissions FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.Permissions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *repository) Create(ctx context.Context, role *Role) error {
	err := r.db.QueryRow(ctx, `INSERT INTO roles (name, description, permissions)
VALUES ($1, $2, $3) RETURNING id`, role.Name, role.Description, role.Permissions).Scan(&role.ID)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

func (r *repository) Update(ctx context.Context, role *Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE roles SET name = $2, description = $3, permissions = $4 WHERE id = $1`,
		role.ID, role.Name, role.Description, role.Permissions)
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

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) PermissionsForRole(ctx context.Context, roleID int64) ([]string, error) {
	var perms []string
	err := r.db.QueryRow(ctx, `SELECT permissions FROM roles WHERE id = $1`, roleID).Scan(&perms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return perms, nil
}
