package rawsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hologize/kagiban/models"
	"github.com/hologize/kagiban/repository"
	"github.com/jmoiron/sqlx"
)

const adminColumns = "id, uuid, email, name, password_hash, role, is_active, created_at, updated_at, last_login_at"

// AdminStore implements repository.AdminRepository with raw parameterized SQL
type AdminStore struct {
	db *sqlx.DB
}

// NewAdminStore creates a new raw SQL admin store
func NewAdminStore(db *sqlx.DB) repository.AdminRepository {
	return &AdminStore{db: db}
}

// ByID retrieves an admin by its ID
func (s *AdminStore) ByID(ctx context.Context, id uint) (*models.Admin, error) {
	q := getQuerier(ctx, s.db)

	var admin models.Admin
	err := sqlx.GetContext(ctx, q, &admin,
		"SELECT "+adminColumns+" FROM admins WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find admin by ID %d: %w", id, err)
	}

	return &admin, nil
}

// ByEmail retrieves an admin by email (case-sensitive, as stored)
func (s *AdminStore) ByEmail(ctx context.Context, email string) (*models.Admin, error) {
	q := getQuerier(ctx, s.db)

	var admin models.Admin
	err := sqlx.GetContext(ctx, q, &admin,
		"SELECT "+adminColumns+" FROM admins WHERE email = $1", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}

	return &admin, nil
}

// Save inserts a new admin row
func (s *AdminStore) Save(ctx context.Context, admin *models.Admin) error {
	q := getQuerier(ctx, s.db)

	err := sqlx.GetContext(ctx, q, admin, `
		INSERT INTO admins (uuid, email, name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+adminColumns,
		admin.UUID, admin.Email, admin.Name, admin.PasswordHash, admin.Role, admin.IsActive)
	if err != nil {
		return wrapSaveError(err)
	}

	return nil
}

// Update persists all mutable fields of an existing admin row
func (s *AdminStore) Update(ctx context.Context, admin *models.Admin) error {
	q := getQuerier(ctx, s.db)

	err := sqlx.GetContext(ctx, q, admin, `
		UPDATE admins
		SET email = $2, name = $3, password_hash = $4, role = $5, is_active = $6,
		    last_login_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+adminColumns,
		admin.ID, admin.Email, admin.Name, admin.PasswordHash, admin.Role, admin.IsActive, admin.LastLoginAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to update admin %d: no such row", admin.ID)
		}
		return wrapSaveError(err)
	}

	return nil
}

// ListWithLicense returns all role=admin accounts joined with their most
// recent license for the superadmin listing, newest admin first.
func (s *AdminStore) ListWithLicense(ctx context.Context) ([]*models.AdminWithLicense, error) {
	q := getQuerier(ctx, s.db)

	rows := []*models.AdminWithLicense{}
	err := sqlx.SelectContext(ctx, q, &rows, `
		SELECT a.id, a.name, a.email, a.is_active, l.license_key, l.status, l.expiry_date
		FROM admins a
		LEFT JOIN licenses l ON l.admin_id = a.id
		WHERE a.role = $1
		ORDER BY a.id DESC`,
		models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins with licenses: %w", err)
	}

	return rows, nil
}

// buildWhere translates the filter struct into a WHERE clause with
// positional parameters.
func (s *AdminStore) buildWhere(filter models.AdminFilter) (string, []any) {
	conds := []string{}
	args := []any{}
	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s $%d", column, len(args)))
	}

	if filter.ID != nil {
		add("id =", *filter.ID)
	}
	if filter.UUID != nil {
		add("uuid =", *filter.UUID)
	}
	if filter.Email != nil {
		add("email =", *filter.Email)
	}
	if filter.Role != nil {
		add("role =", *filter.Role)
	}
	if filter.IsActive != nil {
		add("is_active =", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		add("created_at >", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		add("created_at <", *filter.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ByFilter retrieves admins based on filter criteria
func (s *AdminStore) ByFilter(ctx context.Context, filter models.AdminFilter, orderBy string, limit, offset int) ([]*models.Admin, error) {
	q := getQuerier(ctx, s.db)

	where, args := s.buildWhere(filter)
	if orderBy == "" {
		orderBy = "id DESC"
	}

	query := "SELECT " + adminColumns + " FROM admins" + where + " ORDER BY " + orderBy
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	admins := []*models.Admin{}
	if err := sqlx.SelectContext(ctx, q, &admins, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find admins by filter: %w", err)
	}

	return admins, nil
}

// Count returns the number of admins matching the filter
func (s *AdminStore) Count(ctx context.Context, filter models.AdminFilter) (int64, error) {
	q := getQuerier(ctx, s.db)

	where, args := s.buildWhere(filter)

	var count int64
	err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM admins"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// Exists checks if any admin matching the filter exists
func (s *AdminStore) Exists(ctx context.Context, filter models.AdminFilter) (bool, error) {
	count, err := s.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
