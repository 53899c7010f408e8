package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const artifactColumns = `id, owner_id, title, file_name, content_type, size, sha256, price_solar::text, has_preview, created_at`

func scanArtifact(row pgx.Row) (*models.Artifact, error) {
	a := &models.Artifact{}
	var price string
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Title, &a.FileName, &a.ContentType,
		&a.Size, &a.SHA256, &price, &a.HasPreview, &a.CreatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("artifact %s price_solar: %w", a.ID, err)
	}
	a.PriceSolar = p
	return a, nil
}

// CreateArtifact persists artifact metadata.
func (s *PostgresStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	storage.PrepareArtifact(artifact)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO artifacts (id, owner_id, title, file_name, content_type, size, sha256,
		 price_solar, has_preview, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9, $10)`,
		artifact.ID, artifact.OwnerID, artifact.Title, artifact.FileName, artifact.ContentType,
		artifact.Size, artifact.SHA256, artifact.PriceSolar.String(), artifact.HasPreview, artifact.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert artifact", err)
	}
	return nil
}

// GetArtifact retrieves artifact metadata by ID.
func (s *PostgresStore) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	a, err := scanArtifact(s.pool.QueryRow(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// ListArtifacts retrieves artifacts newest first, optionally for one owner.
func (s *PostgresStore) ListArtifacts(ctx context.Context, ownerID string) ([]*models.Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+artifactColumns+` FROM artifacts
		 WHERE ($1::text = '' OR owner_id = $1)
		 ORDER BY created_at DESC, id`,
		ownerID,
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
func (s *PostgresStore) DeleteArtifact(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM artifacts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
