package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/currentsee/internal/models"
)

// NormalizeEmail lowercases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PrepareMember fills in the ID and timestamps every backend expects before insert.
// The email is stored normalized so lookups never depend on the database's case folding.
func PrepareMember(m *models.Member) {
	now := time.Now()
	m.Email = NormalizeEmail(m.Email)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.JoinedDate.IsZero() {
		m.JoinedDate = now.UTC().Truncate(time.Second)
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = now.Unix()
	}
	if m.UpdatedAt == 0 {
		m.UpdatedAt = m.CreatedAt
	}
}

// PrepareAdmin normalizes the admin's email before insert.
func PrepareAdmin(a *models.Admin) {
	a.Email = NormalizeEmail(a.Email)
}

// PrepareRun fills in the ID of a distribution run.
func PrepareRun(r *models.DistributionRun) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
}

// PrepareArtifact fills in the ID and creation time of an artifact.
func PrepareArtifact(a *models.Artifact) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
}
