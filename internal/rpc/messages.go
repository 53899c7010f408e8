package rpc

import (
	"github.com/mmynk/currentsee/internal/members"
	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/solar"
)

// AdminInfo is an admin account without its password hash.
type AdminInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

// NewAdminInfo strips the credentials from an admin.
func NewAdminInfo(a *models.Admin) AdminInfo {
	return AdminInfo{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName, CreatedAt: a.CreatedAt}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt int64     `json:"expiresAt"`
	Admin     AdminInfo `json:"admin"`
}

type GetCurrentAdminRequest struct{}

type GetCurrentAdminResponse struct {
	Admin AdminInfo `json:"admin"`
}

// ListMembersRequest lists full member records, email included.
// Reserve and placeholder rows are skipped when PublicOnly is set.
type ListMembersRequest struct {
	PublicOnly bool `json:"publicOnly,omitempty"`
}

type ListMembersResponse struct {
	Members []*models.Member `json:"members"`
	Totals  solar.Totals     `json:"totals"`
}

type UpdateMemberRequest struct {
	ID    string              `json:"id"`
	Patch members.MemberPatch `json:"patch"`
}

type UpdateMemberResponse struct {
	Member *models.Member `json:"member"`
}

type DeleteMemberRequest struct {
	ID string `json:"id"`
}

type DeleteMemberResponse struct {
	ArtifactsDeleted int `json:"artifactsDeleted"`
}

type RunDistributionRequest struct{}

type RunDistributionResponse struct {
	Run *models.DistributionRun `json:"run"`
}

type ListDistributionRunsRequest struct {
	// Limit caps the number of runs returned, newest first. Zero means 50.
	Limit int `json:"limit,omitempty"`
}

type ListDistributionRunsResponse struct {
	Runs []*models.DistributionRun `json:"runs"`
}

type DeleteArtifactRequest struct {
	ID string `json:"id"`
}

type DeleteArtifactResponse struct{}

type VerifyArtifactRequest struct {
	ID string `json:"id"`
}

// VerifyArtifactResponse is returned when every stored copy matches the recorded hash.
type VerifyArtifactResponse struct {
	Artifact *models.Artifact `json:"artifact"`
}
