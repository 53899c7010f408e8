// Package memory provides an in-process implementation of storage.Store.
// It backs tests and ephemeral runs, and the jsonfile store builds on it.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single RWMutex.
// Records are copied on the way in and out so callers never share state with the store.
type Store struct {
	mu        sync.RWMutex
	members   map[string]*models.Member
	admins    map[string]*models.Admin
	runs      []*models.DistributionRun
	artifacts map[string]*models.Artifact

	// onChange, when set, is called with the lock held after every mutation.
	// A failing hook undoes the mutation.
	onChange func() error
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		members:   make(map[string]*models.Member),
		admins:    make(map[string]*models.Admin),
		artifacts: make(map[string]*models.Artifact),
	}
}

// Snapshot is the complete contents of a Store.
type Snapshot struct {
	Members   []*models.Member          `json:"members"`
	Admins    []*models.Admin           `json:"admins,omitempty"`
	Runs      []*models.DistributionRun `json:"distributionRuns,omitempty"`
	Artifacts []*models.Artifact        `json:"artifacts,omitempty"`
}

// NewFromSnapshot creates a Store holding the snapshot's records.
func NewFromSnapshot(snap Snapshot) *Store {
	s := New()
	for _, m := range snap.Members {
		c := *m
		s.members[m.ID] = &c
	}
	for _, a := range snap.Admins {
		c := *a
		s.admins[a.ID] = &c
	}
	for _, r := range snap.Runs {
		c := *r
		s.runs = append(s.runs, &c)
	}
	for _, a := range snap.Artifacts {
		c := *a
		s.artifacts[a.ID] = &c
	}
	return s
}

// OnChange registers a hook run after each mutation while the write lock is held.
// If the hook fails, the mutation is rolled back and reported as failed.
func (s *Store) OnChange(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// SnapshotLocked returns copies of all records. The caller must hold the lock,
// which is the case inside an OnChange hook.
func (s *Store) SnapshotLocked() Snapshot {
	snap := Snapshot{}
	for _, m := range sortedMembers(s.members) {
		c := *m
		snap.Members = append(snap.Members, &c)
	}
	for _, a := range s.admins {
		c := *a
		snap.Admins = append(snap.Admins, &c)
	}
	slices.SortFunc(snap.Admins, func(a, b *models.Admin) int { return cmp.Compare(a.Email, b.Email) })
	for _, r := range s.runs {
		c := *r
		snap.Runs = append(snap.Runs, &c)
	}
	for _, a := range s.artifacts {
		c := *a
		snap.Artifacts = append(snap.Artifacts, &c)
	}
	slices.SortFunc(snap.Artifacts, func(a, b *models.Artifact) int { return cmp.Compare(a.ID, b.ID) })
	return snap
}

// commitLocked runs the change hook and calls undo if it fails, so memory
// never holds a change that was not persisted.
func (s *Store) commitLocked(undo func()) error {
	if s.onChange == nil {
		return nil
	}
	if err := s.onChange(); err != nil {
		undo()
		return fmt.Errorf("failed to persist change: %w", err)
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func sortedMembers(members map[string]*models.Member) []*models.Member {
	out := make([]*models.Member, 0, len(members))
	for _, m := range members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *models.Member) int {
		if c := a.JoinedDate.Compare(b.JoinedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// uniqueLocked returns ErrConflict if another member already uses the email or username.
func (s *Store) uniqueLocked(m *models.Member) error {
	email := storage.NormalizeEmail(m.Email)
	for _, other := range s.members {
		if other.ID == m.ID {
			continue
		}
		if email != "" && storage.NormalizeEmail(other.Email) == email {
			return fmt.Errorf("email %s: %w", m.Email, storage.ErrConflict)
		}
		if m.Username != "" && other.Username == m.Username {
			return fmt.Errorf("username %s: %w", m.Username, storage.ErrConflict)
		}
	}
	return nil
}

// CreateMember stores a copy of member.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage.PrepareMember(member)
	if _, exists := s.members[member.ID]; exists {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrConflict)
	}
	if err := s.uniqueLocked(member); err != nil {
		return err
	}

	c := *member
	s.members[member.ID] = &c
	return s.commitLocked(func() { delete(s.members, member.ID) })
}

// GetMember returns a copy of the member.
func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	c := *m
	return &c, nil
}

// GetMemberByEmail returns a copy of the member with the given email.
func (s *Store) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := storage.NormalizeEmail(email)
	for _, m := range s.members {
		if storage.NormalizeEmail(m.Email) == want {
			c := *m
			return &c, nil
		}
	}
	return nil, fmt.Errorf("member with email %s: %w", email, storage.ErrNotFound)
}

// ListMembers returns copies of the matching members.
func (s *Store) ListMembers(ctx context.Context, opts storage.ListOptions) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Member
	for _, m := range sortedMembers(s.members) {
		if !opts.Includes(m) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	return out, nil
}

// UpdateMember replaces the stored member.
func (s *Store) UpdateMember(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[member.ID]
	if !ok {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}
	member.Email = storage.NormalizeEmail(member.Email)
	if err := s.uniqueLocked(member); err != nil {
		return err
	}

	c := *member
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().Unix()
	member.UpdatedAt = c.UpdatedAt
	s.members[member.ID] = &c
	return s.commitLocked(func() { s.members[member.ID] = existing })
}

// DeleteMember removes the member.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, storage.ErrNotFound)
	}
	delete(s.members, id)
	return s.commitLocked(func() { s.members[id] = existing })
}

// CountMembers counts the matching members.
func (s *Store) CountMembers(ctx context.Context, opts storage.ListOptions) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, m := range s.members {
		if opts.Includes(m) {
			n++
		}
	}
	return n, nil
}

// ApplyDistribution writes credits for members not yet credited for date.
// Members that no longer exist are skipped.
func (s *Store) ApplyDistribution(ctx context.Context, date string, credits []models.MemberCredit) ([]models.MemberCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	previous := make(map[string]*models.Member)
	var applied []models.MemberCredit
	for _, c := range credits {
		m, ok := s.members[c.MemberID]
		if !ok {
			continue
		}
		if m.LastDistributionDate != "" && m.LastDistributionDate >= date {
			continue
		}
		next := *m
		next.TotalSolar = c.TotalSolar
		next.TotalDollars = c.TotalDollars
		next.LastDistributionDate = date
		next.UpdatedAt = now
		previous[c.MemberID] = m
		s.members[c.MemberID] = &next
		applied = append(applied, c)
	}
	if len(applied) == 0 {
		return nil, nil
	}

	err := s.commitLocked(func() {
		for id, m := range previous {
			s.members[id] = m
		}
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// CreateAdmin stores a copy of admin.
func (s *Store) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage.PrepareAdmin(admin)
	email := admin.Email
	for _, a := range s.admins {
		if a.ID == admin.ID || storage.NormalizeEmail(a.Email) == email {
			return fmt.Errorf("admin %s: %w", admin.Email, storage.ErrConflict)
		}
	}
	c := *admin
	s.admins[admin.ID] = &c
	return s.commitLocked(func() { delete(s.admins, admin.ID) })
}

// GetAdminByEmail returns a copy of the admin with the given email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := storage.NormalizeEmail(email)
	for _, a := range s.admins {
		if storage.NormalizeEmail(a.Email) == want {
			c := *a
			return &c, nil
		}
	}
	return nil, fmt.Errorf("admin %s: %w", email, storage.ErrNotFound)
}

// GetAdminByID returns a copy of the admin.
func (s *Store) GetAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.admins[id]
	if !ok {
		return nil, fmt.Errorf("admin %s: %w", id, storage.ErrNotFound)
	}
	c := *a
	return &c, nil
}

// ListAdmins returns copies of all admins ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SnapshotLocked().Admins, nil
}

// RecordDistributionRun appends run to the history.
func (s *Store) RecordDistributionRun(ctx context.Context, run *models.DistributionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage.PrepareRun(run)
	c := *run
	s.runs = append(s.runs, &c)
	return s.commitLocked(func() { s.runs = s.runs[:len(s.runs)-1] })
}

// ListDistributionRuns returns up to limit runs, newest first.
func (s *Store) ListDistributionRuns(ctx context.Context, limit int) ([]*models.DistributionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DistributionRun
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		c := *s.runs[i]
		out = append(out, &c)
	}
	return out, nil
}

// LastDistributionRun returns the newest run.
func (s *Store) LastDistributionRun(ctx context.Context) (*models.DistributionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, fmt.Errorf("distribution run: %w", storage.ErrNotFound)
	}
	c := *s.runs[len(s.runs)-1]
	return &c, nil
}

// CreateArtifact stores a copy of artifact.
func (s *Store) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storage.PrepareArtifact(artifact)
	if _, exists := s.artifacts[artifact.ID]; exists {
		return fmt.Errorf("artifact %s: %w", artifact.ID, storage.ErrConflict)
	}
	c := *artifact
	s.artifacts[artifact.ID] = &c
	return s.commitLocked(func() { delete(s.artifacts, artifact.ID) })
}

// GetArtifact returns a copy of the artifact.
func (s *Store) GetArtifact(ctx context.Context, id string) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	c := *a
	return &c, nil
}

// ListArtifacts returns copies of the owner's artifacts, newest first.
func (s *Store) ListArtifacts(ctx context.Context, ownerID string) ([]*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Artifact
	for _, a := range s.artifacts {
		if ownerID != "" && a.OwnerID != ownerID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.Artifact) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// DeleteArtifact removes the artifact.
func (s *Store) DeleteArtifact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.artifacts[id]
	if !ok {
		return fmt.Errorf("artifact %s: %w", id, storage.ErrNotFound)
	}
	delete(s.artifacts, id)
	return s.commitLocked(func() { s.artifacts[id] = existing })
}
