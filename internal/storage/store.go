// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/currentsee/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field (email, username) is already taken.
	ErrConflict = errors.New("already exists")
)

// ListOptions filters ListMembers results.
type ListOptions struct {
	IncludePlaceholders bool
	IncludeReserve      bool
}

// Includes reports whether m passes the filter.
func (o ListOptions) Includes(m *models.Member) bool {
	if m.IsPlaceholder && !o.IncludePlaceholders {
		return false
	}
	if m.IsReserve && !o.IncludeReserve {
		return false
	}
	return true
}

// All returns options that include every member.
func All() ListOptions {
	return ListOptions{IncludePlaceholders: true, IncludeReserve: true}
}

// MemberStore persists members.
type MemberStore interface {
	// CreateMember persists a new member.
	// The member.ID and timestamps are populated by the store when empty.
	// Returns ErrConflict if the email or username is taken.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a member by ID. Returns ErrNotFound if missing.
	GetMember(ctx context.Context, id string) (*models.Member, error)

	// GetMemberByEmail retrieves a member by email, case-insensitively.
	// Returns ErrNotFound if missing.
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)

	// ListMembers returns members ordered by joined date, then ID.
	ListMembers(ctx context.Context, opts ListOptions) ([]*models.Member, error)

	// UpdateMember replaces a member's mutable fields.
	// Returns ErrNotFound if missing, ErrConflict on a taken email or username.
	UpdateMember(ctx context.Context, member *models.Member) error

	// DeleteMember removes a member. Returns ErrNotFound if missing.
	DeleteMember(ctx context.Context, id string) error

	// CountMembers counts members matching opts.
	CountMembers(ctx context.Context, opts ListOptions) (int, error)

	// ApplyDistribution writes the credited balances and sets
	// last_distribution_date = date, all or nothing. Members whose
	// last_distribution_date is already >= date, or who no longer exist,
	// are skipped. Returns the credits actually applied.
	ApplyDistribution(ctx context.Context, date string, credits []models.MemberCredit) ([]models.MemberCredit, error)
}

// AdminStore persists admin accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*models.Admin, error)
	ListAdmins(ctx context.Context) ([]*models.Admin, error)
}

// DistributionLog persists distribution run history.
type DistributionLog interface {
	RecordDistributionRun(ctx context.Context, run *models.DistributionRun) error

	// ListDistributionRuns returns the most recent runs first.
	ListDistributionRuns(ctx context.Context, limit int) ([]*models.DistributionRun, error)

	// LastDistributionRun returns the most recent run, or ErrNotFound.
	LastDistributionRun(ctx context.Context) (*models.DistributionRun, error)
}

// ArtifactIndex persists marketplace artifact metadata.
type ArtifactIndex interface {
	CreateArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifact(ctx context.Context, id string) (*models.Artifact, error)

	// ListArtifacts returns artifacts newest first. An empty ownerID lists all.
	ListArtifacts(ctx context.Context, ownerID string) ([]*models.Artifact, error)
	DeleteArtifact(ctx context.Context, id string) error
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// a JSON file, memory) without changing the service layer.
type Store interface {
	MemberStore
	AdminStore
	DistributionLog
	ArtifactIndex

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
