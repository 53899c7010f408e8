package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

// CreateAdmin inserts a new admin into the database.
func (s *SQLiteStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	storage.PrepareAdmin(admin)

	query := `
		INSERT INTO admins (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		admin.ID,
		admin.Email,
		admin.DisplayName,
		admin.PasswordHash,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("create admin", err)
	}

	return nil
}

func (s *SQLiteStore) getAdmin(ctx context.Context, where string, arg any) (*models.Admin, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM admins
		WHERE ` + where

	admin := &models.Admin{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Email,
		&admin.DisplayName,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("admin: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return admin, nil
}

// GetAdminByEmail retrieves an admin by their email address.
func (s *SQLiteStore) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.getAdmin(ctx, "lower(email) = ?", storage.NormalizeEmail(email))
}

// GetAdminByID retrieves an admin by their ID.
func (s *SQLiteStore) GetAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	return s.getAdmin(ctx, "id = ?", id)
}

// ListAdmins retrieves all admins ordered by email.
func (s *SQLiteStore) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM admins ORDER BY email`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.Admin
	for rows.Next() {
		admin := &models.Admin{}
		if err := rows.Scan(
			&admin.ID,
			&admin.Email,
			&admin.DisplayName,
			&admin.PasswordHash,
			&admin.CreatedAt,
			&admin.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}

	return admins, nil
}
