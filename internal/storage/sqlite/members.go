package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

const memberColumns = `id, username, name, email, joined_at, total_solar, total_dollars,
	is_anonymous, is_reserve, is_placeholder, last_distribution_date, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	var joinedAt int64
	err := row.Scan(
		&m.ID,
		&m.Username,
		&m.Name,
		&m.Email,
		&joinedAt,
		&m.TotalSolar,
		&m.TotalDollars,
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
	m.JoinedDate = time.Unix(joinedAt, 0).UTC()
	return m, nil
}

// filterClause renders ListOptions as a WHERE clause.
func filterClause(opts storage.ListOptions) string {
	clause := " WHERE 1=1"
	if !opts.IncludePlaceholders {
		clause += " AND is_placeholder = 0"
	}
	if !opts.IncludeReserve {
		clause += " AND is_reserve = 0"
	}
	return clause
}

// CreateMember inserts a new member into the database.
func (s *SQLiteStore) CreateMember(ctx context.Context, member *models.Member) error {
	storage.PrepareMember(member)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.Username,
		member.Name,
		member.Email,
		member.JoinedDate.Unix(),
		member.TotalSolar,
		member.TotalDollars,
		boolToInt(member.IsAnonymous),
		boolToInt(member.IsReserve),
		boolToInt(member.IsPlaceholder),
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

// GetMember retrieves a member by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetMemberByEmail retrieves a member by email, ignoring case.
func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE email <> '' AND lower(email) = ?`,
		storage.NormalizeEmail(email),
	)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member with email %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return m, nil
}

// ListMembers retrieves members ordered by joined date.
func (s *SQLiteStore) ListMembers(ctx context.Context, opts storage.ListOptions) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLiteStore) UpdateMember(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().Unix()
	member.Email = storage.NormalizeEmail(member.Email)

	result, err := s.db.ExecContext(ctx,
		`UPDATE members SET username = ?, name = ?, email = ?, joined_at = ?, total_solar = ?,
		 total_dollars = ?, is_anonymous = ?, is_reserve = ?, is_placeholder = ?,
		 last_distribution_date = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		member.Username,
		member.Name,
		member.Email,
		member.JoinedDate.Unix(),
		member.TotalSolar,
		member.TotalDollars,
		boolToInt(member.IsAnonymous),
		boolToInt(member.IsReserve),
		boolToInt(member.IsPlaceholder),
		member.LastDistributionDate,
		member.Notes,
		member.UpdatedAt,
		member.ID,
	)
	if err != nil {
		return wrapWriteErr("update member", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}

	return nil
}

// DeleteMember removes a member by ID.
func (s *SQLiteStore) DeleteMember(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}

	return nil
}

// CountMembers counts members matching opts.
func (s *SQLiteStore) CountMembers(ctx context.Context, opts storage.ListOptions) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`+filterClause(opts)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// ApplyDistribution writes all credits in one transaction.
func (s *SQLiteStore) ApplyDistribution(ctx context.Context, date string, credits []models.MemberCredit) ([]models.MemberCredit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	var applied []models.MemberCredit
	for _, c := range credits {
		result, err := tx.ExecContext(ctx,
			`UPDATE members SET total_solar = ?, total_dollars = ?, last_distribution_date = ?, updated_at = ?
			 WHERE id = ? AND last_distribution_date < ?`,
			c.TotalSolar, c.TotalDollars, date, now, c.MemberID, date,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to credit member %s: %w", c.MemberID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check credit result: %w", err)
		}
		// Zero rows: already credited for date, or deleted since it was listed.
		if n == 0 {
			continue
		}
		applied = append(applied, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return applied, nil
}
