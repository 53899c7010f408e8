package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/currentsee/internal/artifacts"
	"github.com/mmynk/currentsee/internal/auth"
	"github.com/mmynk/currentsee/internal/distribution"
	"github.com/mmynk/currentsee/internal/members"
	"github.com/mmynk/currentsee/internal/middleware"
	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/rpc"
	"github.com/mmynk/currentsee/internal/storage"
)

const defaultRunsLimit = 50

// AdminService implements the admin RPC interface.
type AdminService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	admins        auth.AdminStorage
	members       *members.Service
	distributor   *distribution.Distributor
	runs          storage.DistributionLog
	artifacts     *artifacts.Service
}

// AdminDeps are the collaborators of AdminService.
type AdminDeps struct {
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Admins        auth.AdminStorage
	Members       *members.Service
	Distributor   *distribution.Distributor
	Runs          storage.DistributionLog
	Artifacts     *artifacts.Service
}

// NewAdminService creates the admin service.
func NewAdminService(deps AdminDeps) *AdminService {
	return &AdminService{
		authenticator: deps.Authenticator,
		jwtManager:    deps.JWTManager,
		admins:        deps.Admins,
		members:       deps.Members,
		distributor:   deps.Distributor,
		runs:          deps.Runs,
		artifacts:     deps.Artifacts,
	}
}

// Login authenticates an admin and returns a JWT token.
func (s *AdminService) Login(ctx context.Context, req *connect.Request[rpc.LoginRequest]) (*connect.Response[rpc.LoginResponse], error) {
	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	admin, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, toConnectError(err)
	}

	token, err := s.jwtManager.Generate(admin)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&rpc.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Unix(),
		Admin:     rpc.NewAdminInfo(admin),
	}), nil
}

// GetCurrentAdmin returns the admin behind the request's token.
func (s *AdminService) GetCurrentAdmin(ctx context.Context, req *connect.Request[rpc.GetCurrentAdminRequest]) (*connect.Response[rpc.GetCurrentAdminResponse], error) {
	adminID := middleware.GetAdminID(ctx)
	if adminID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	admin, err := s.admins.GetAdminByID(ctx, adminID)
	if err != nil {
		// A token for a deleted admin is no longer a valid session.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.GetCurrentAdminResponse{Admin: rpc.NewAdminInfo(admin)}), nil
}

// ListMembers returns full member records with the economy totals.
func (s *AdminService) ListMembers(ctx context.Context, req *connect.Request[rpc.ListMembersRequest]) (*connect.Response[rpc.ListMembersResponse], error) {
	list, err := s.members.List(ctx, !req.Msg.PublicOnly)
	if err != nil {
		return nil, toConnectError(err)
	}
	totals, err := s.members.Totals(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	if list == nil {
		list = []*models.Member{}
	}
	return connect.NewResponse(&rpc.ListMembersResponse{Members: list, Totals: totals}), nil
}

func (s *AdminService) UpdateMember(ctx context.Context, req *connect.Request[rpc.UpdateMemberRequest]) (*connect.Response[rpc.UpdateMemberResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	m, err := s.members.Update(ctx, req.Msg.ID, req.Msg.Patch)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.UpdateMemberResponse{Member: m}), nil
}

// DeleteMember removes a member together with the artifacts they own.
func (s *AdminService) DeleteMember(ctx context.Context, req *connect.Request[rpc.DeleteMemberRequest]) (*connect.Response[rpc.DeleteMemberResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}

	if _, err := s.members.Get(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	removed, err := s.artifacts.DeleteByOwner(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.members.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&rpc.DeleteMemberResponse{ArtifactsDeleted: removed}), nil
}

// RunDistribution triggers a manual distribution. Running it twice on the same
// day credits nothing the second time.
func (s *AdminService) RunDistribution(ctx context.Context, req *connect.Request[rpc.RunDistributionRequest]) (*connect.Response[rpc.RunDistributionResponse], error) {
	run, err := s.distributor.Run(ctx, models.TriggerManual)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&rpc.RunDistributionResponse{Run: run}), nil
}

func (s *AdminService) ListDistributionRuns(ctx context.Context, req *connect.Request[rpc.ListDistributionRunsRequest]) (*connect.Response[rpc.ListDistributionRunsResponse], error) {
	limit := req.Msg.Limit
	if limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit must not be negative"))
	}
	if limit == 0 {
		limit = defaultRunsLimit
	}

	runs, err := s.runs.ListDistributionRuns(ctx, limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	if runs == nil {
		runs = []*models.DistributionRun{}
	}
	return connect.NewResponse(&rpc.ListDistributionRunsResponse{Runs: runs}), nil
}

func (s *AdminService) DeleteArtifact(ctx context.Context, req *connect.Request[rpc.DeleteArtifactRequest]) (*connect.Response[rpc.DeleteArtifactResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	if err := s.artifacts.Delete(ctx, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.DeleteArtifactResponse{}), nil
}

func (s *AdminService) VerifyArtifact(ctx context.Context, req *connect.Request[rpc.VerifyArtifactRequest]) (*connect.Response[rpc.VerifyArtifactResponse], error) {
	if req.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("id is required"))
	}
	a, err := s.artifacts.Verify(ctx, req.Msg.ID)
	if err != nil {
		if errors.Is(err, artifacts.ErrCorrupt) {
			slog.WarnContext(ctx, "Artifact failed verification", "artifact_id", req.Msg.ID, "error", err)
		}
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.VerifyArtifactResponse{Artifact: a}), nil
}

// toConnectError maps domain and storage errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, members.ErrEmailTaken),
		errors.Is(err, members.ErrUsernameTaken):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, members.ErrInvalid),
		errors.Is(err, artifacts.ErrInvalid),
		errors.Is(err, artifacts.ErrOwnerNotFound):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, artifacts.ErrCorrupt):
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
