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

const runColumns = `id, run_date, trigger_source, started_at, finished_at, members_credited, solar_credited::text, error`

func scanRun(row pgx.Row) (*models.DistributionRun, error) {
	run := &models.DistributionRun{}
	var solar string
	var runErr *string
	if err := row.Scan(&run.ID, &run.Date, &run.Trigger, &run.StartedAt, &run.FinishedAt,
		&run.MembersCredited, &solar, &runErr); err != nil {
		return nil, err
	}
	credited, err := decimal.NewFromString(solar)
	if err != nil {
		return nil, fmt.Errorf("run %s solar_credited: %w", run.ID, err)
	}
	run.SolarCredited = credited
	if runErr != nil {
		run.Error = *runErr
	}
	return run, nil
}

// RecordDistributionRun persists a distribution run.
func (s *PostgresStore) RecordDistributionRun(ctx context.Context, run *models.DistributionRun) error {
	storage.PrepareRun(run)

	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO distribution_runs (id, run_date, trigger_source, started_at, finished_at,
		 members_credited, solar_credited, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric, $8)`,
		run.ID, run.Date, run.Trigger, run.StartedAt, run.FinishedAt,
		run.MembersCredited, run.SolarCredited.String(), runErr,
	)
	if err != nil {
		return wrapWriteErr("insert distribution run", err)
	}
	return nil
}

// ListDistributionRuns retrieves the most recent runs first. A limit <= 0 returns all.
func (s *PostgresStore) ListDistributionRuns(ctx context.Context, limit int) ([]*models.DistributionRun, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM distribution_runs ORDER BY started_at DESC, seq DESC LIMIT $1`,
		limitArg,
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
func (s *PostgresStore) LastDistributionRun(ctx context.Context) (*models.DistributionRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM distribution_runs ORDER BY started_at DESC, seq DESC LIMIT 1`,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("distribution run: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last distribution run: %w", err)
	}
	return run, nil
}
