package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const adminColumns = `id, email, display_name, password_hash, created_at, updated_at`

func scanAdmin(row pgx.Row) (*models.Admin, error) {
	admin := &models.Admin{}
	err := row.Scan(&admin.ID, &admin.Email, &admin.DisplayName, &admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt)
	return admin, err
}

// CreateAdmin inserts a new admin.
func (s *PostgresStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	storage.PrepareAdmin(admin)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO admins (`+adminColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		admin.ID, admin.Email, admin.DisplayName, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("create admin", err)
	}
	return nil
}

func (s *PostgresStore) getAdmin(ctx context.Context, where string, arg any) (*models.Admin, error) {
	admin, err := scanAdmin(s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("admin: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return admin, nil
}

// GetAdminByEmail retrieves an admin by email, ignoring case.
func (s *PostgresStore) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.getAdmin(ctx, "lower(email) = $1", storage.NormalizeEmail(email))
}

// GetAdminByID retrieves an admin by ID.
func (s *PostgresStore) GetAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	return s.getAdmin(ctx, "id = $1", id)
}

// ListAdmins retrieves all admins ordered by email.
func (s *PostgresStore) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}

	return admins, nil
}
