package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const runColumns = `id, run_date, trigger_source, started_at, finished_at, members_credited, solar_credited, error`

func scanRun(row rowScanner) (*models.DistributionRun, error) {
	run := &models.DistributionRun{}
	var runErr sql.NullString
	if err := row.Scan(&run.ID, &run.Date, &run.Trigger, &run.StartedAt, &run.FinishedAt,
		&run.MembersCredited, &run.SolarCredited, &runErr); err != nil {
		return nil, err
	}
	if runErr.Valid {
		run.Error = runErr.String
	}
	return run, nil
}

// RecordDistributionRun persists a distribution run.
func (s *SQLiteStore) RecordDistributionRun(ctx context.Context, run *models.DistributionRun) error {
	storage.PrepareRun(run)

	var runErr interface{} = nil
	if run.Error != "" {
		runErr = run.Error
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO distribution_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Date, run.Trigger, run.StartedAt, run.FinishedAt,
		run.MembersCredited, run.SolarCredited, runErr,
	)
	if err != nil {
		return wrapWriteErr("insert distribution run", err)
	}

	return nil
}

// ListDistributionRuns retrieves the most recent runs first.
func (s *SQLiteStore) ListDistributionRuns(ctx context.Context, limit int) ([]*models.DistributionRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM distribution_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list distribution runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.DistributionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distribution run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distribution runs: %w", err)
	}

	return runs, nil
}

// LastDistributionRun retrieves the most recent run.
func (s *SQLiteStore) LastDistributionRun(ctx context.Context) (*models.DistributionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM distribution_runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("distribution run: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last distribution run: %w", err)
	}
	return run, nil
}
