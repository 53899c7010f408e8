package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const artifactColumns = `id, owner_id, title, file_name, content_type, size, sha256, price_solar, has_preview, created_at`

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	a := &models.Artifact{}
	err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.FileName, &a.ContentType,
		&a.Size, &a.SHA256, &a.PriceSolar, &a.HasPreview, &a.CreatedAt)
	return a, err
}

// CreateArtifact persists artifact metadata.
func (s *SQLiteStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	storage.PrepareArtifact(artifact)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (`+artifactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		artifact.ID, artifact.OwnerID, artifact.Title, artifact.FileName, artifact.ContentType,
		artifact.Size, artifact.SHA256, artifact.PriceSolar, boolToInt(artifact.HasPreview), artifact.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert artifact", err)
	}

	return nil
}

// GetArtifact retrieves artifact metadata by ID.
func (s *SQLiteStore) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// ListArtifacts retrieves artifacts newest first, optionally for one owner.
func (s *SQLiteStore) ListArtifacts(ctx context.Context, ownerID string) ([]*models.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE (? = '' OR owner_id = ?)
		 ORDER BY created_at DESC, id`,
		ownerID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*models.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifacts: %w", err)
	}

	return artifacts, nil
}

// DeleteArtifact removes artifact metadata by ID.
func (s *SQLiteStore) DeleteArtifact(ctx context.Context, id string) error {
	// Check if artifact exists
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM artifacts WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check artifact existence: %w", err)
	}

	// Delete artifact
	_, err = s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	return nil
}
