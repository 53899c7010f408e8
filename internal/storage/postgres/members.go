package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

// NUMERIC columns travel as text so decimal precision survives both ways.
const memberColumns = `id, username, name, email, joined_at, total_solar::text, total_dollars::text,
	is_anonymous, is_reserve, is_placeholder, last_distribution_date, notes, created_at, updated_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	m := &models.Member{}
	var solar, dollars string
	err := row.Scan(
		&m.ID,
		&m.Username,
		&m.Name,
		&m.Email,
		&m.JoinedDate,
		&solar,
		&dollars,
		&m.IsAnonymous,
		&m.IsReserve,
		&m.IsPlaceholder,
		&m.LastDistributionDate,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.JoinedDate = m.JoinedDate.UTC()
	if m.TotalSolar, err = decimal.NewFromString(solar); err != nil {
		return nil, fmt.Errorf("member %s total_solar: %w", m.ID, err)
	}
	if m.TotalDollars, err = decimal.NewFromString(dollars); err != nil {
		return nil, fmt.Errorf("member %s total_dollars: %w", m.ID, err)
	}
	return m, nil
}

func filterClause(opts storage.ListOptions) string {
	clause := " WHERE TRUE"
	if !opts.IncludePlaceholders {
		clause += " AND NOT is_placeholder"
	}
	if !opts.IncludeReserve {
		clause += " AND NOT is_reserve"
	}
	return clause
}

// CreateMember inserts a new member.
func (s *PostgresStore) CreateMember(ctx context.Context, member *models.Member) error {
	storage.PrepareMember(member)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO members (id, username, name, email, joined_at, total_solar, total_dollars,
		 is_anonymous, is_reserve, is_placeholder, last_distribution_date, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8, $9, $10, $11, $12, $13, $14)`,
		member.ID,
		member.Username,
		member.Name,
		member.Email,
		member.JoinedDate,
		member.TotalSolar.String(),
		member.TotalDollars.String(),
		member.IsAnonymous,
		member.IsReserve,
		member.IsPlaceholder,
		member.LastDistributionDate,
		member.Notes,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert member", err)
	}

	return nil
}

func (s *PostgresStore) getMember(ctx context.Context, what, where string, arg any) (*models.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", what, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMember retrieves a member by ID.
func (s *PostgresStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	return s.getMember(ctx, id, "id = $1", id)
}

// GetMemberByEmail retrieves a member by email, ignoring case.
func (s *PostgresStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.getMember(ctx, email, "email <> '' AND lower(email) = $1", storage.NormalizeEmail(email))
}

// ListMembers retrieves members ordered by joined date.
func (s *PostgresStore) ListMembers(ctx context.Context, opts storage.ListOptions) ([]*models.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM members`+filterClause(opts)+` ORDER BY joined_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// UpdateMember updates an existing member.
func (s *PostgresStore) UpdateMember(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().Unix()
	member.Email = storage.NormalizeEmail(member.Email)

	tag, err := s.pool.Exec(ctx,
		`UPDATE members SET username = $1, name = $2, email = $3, joined_at = $4,
		 total_solar = $5::text::numeric, total_dollars = $6::text::numeric,
		 is_anonymous = $7, is_reserve = $8, is_placeholder = $9,
		 last_distribution_date = $10, notes = $11, updated_at = $12
		 WHERE id = $13`,
		member.Username,
		member.Name,
		member.Email,
		member.JoinedDate,
		member.TotalSolar.String(),
		member.TotalDollars.String(),
		member.IsAnonymous,
		member.IsReserve,
		member.IsPlaceholder,
		member.LastDistributionDate,
		member.Notes,
		member.UpdatedAt,
		member.ID,
	)
	if err != nil {
		return wrapWriteErr("update member", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}

	return nil
}

// DeleteMember removes a member by ID.
func (s *PostgresStore) DeleteMember(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM members WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// CountMembers counts members matching opts.
func (s *PostgresStore) CountMembers(ctx context.Context, opts storage.ListOptions) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`+filterClause(opts)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// ApplyDistribution writes all credits in one transaction.
func (s *PostgresStore) ApplyDistribution(ctx context.Context, date string, credits []models.MemberCredit) ([]models.MemberCredit, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().Unix()
	var applied []models.MemberCredit
	for _, c := range credits {
		tag, err := tx.Exec(ctx,
			`UPDATE members SET total_solar = $1::text::numeric, total_dollars = $2::text::numeric,
			 last_distribution_date = $3, updated_at = $4
			 WHERE id = $5 AND last_distribution_date < $3`,
			c.TotalSolar.String(), c.TotalDollars.String(), date, now, c.MemberID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to credit member %s: %w", c.MemberID, err)
		}
		// Already credited for date, or deleted since it was listed.
		if tag.RowsAffected() == 0 {
			continue
		}
		applied = append(applied, c)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return applied, nil
}
