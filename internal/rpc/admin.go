package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AdminServiceName is the fully-qualified name of the admin service.
const AdminServiceName = "currentsee.v1.AdminService"

// Procedure paths of the admin service.
const (
	AdminServiceLoginProcedure                = "/" + AdminServiceName + "/Login"
	AdminServiceGetCurrentAdminProcedure      = "/" + AdminServiceName + "/GetCurrentAdmin"
	AdminServiceListMembersProcedure          = "/" + AdminServiceName + "/ListMembers"
	AdminServiceUpdateMemberProcedure         = "/" + AdminServiceName + "/UpdateMember"
	AdminServiceDeleteMemberProcedure         = "/" + AdminServiceName + "/DeleteMember"
	AdminServiceRunDistributionProcedure      = "/" + AdminServiceName + "/RunDistribution"
	AdminServiceListDistributionRunsProcedure = "/" + AdminServiceName + "/ListDistributionRuns"
	AdminServiceDeleteArtifactProcedure       = "/" + AdminServiceName + "/DeleteArtifact"
	AdminServiceVerifyArtifactProcedure       = "/" + AdminServiceName + "/VerifyArtifact"
)

// PathPrefix is the shared prefix of every RPC path, used to route requests.
const PathPrefix = "/currentsee.v1."

// IsRPCPath reports whether an HTTP path belongs to the Connect surface.
func IsRPCPath(path string) bool {
	return strings.HasPrefix(path, PathPrefix)
}

// AdminServiceHandler is implemented by the admin service.
type AdminServiceHandler interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentAdmin(context.Context, *connect.Request[GetCurrentAdminRequest]) (*connect.Response[GetCurrentAdminResponse], error)
	ListMembers(context.Context, *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error)
	UpdateMember(context.Context, *connect.Request[UpdateMemberRequest]) (*connect.Response[UpdateMemberResponse], error)
	DeleteMember(context.Context, *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error)
	RunDistribution(context.Context, *connect.Request[RunDistributionRequest]) (*connect.Response[RunDistributionResponse], error)
	ListDistributionRuns(context.Context, *connect.Request[ListDistributionRunsRequest]) (*connect.Response[ListDistributionRunsResponse], error)
	DeleteArtifact(context.Context, *connect.Request[DeleteArtifactRequest]) (*connect.Response[DeleteArtifactResponse], error)
	VerifyArtifact(context.Context, *connect.Request[VerifyArtifactRequest]) (*connect.Response[VerifyArtifactResponse], error)
}

// NewAdminServiceHandler builds an HTTP handler serving svc. opts apply to every
// procedure; guard is added on every procedure except Login (nil for none).
func NewAdminServiceHandler(svc AdminServiceHandler, guard connect.Interceptor, opts ...connect.HandlerOption) (string, http.Handler) {
	public := append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	protected := public
	if guard != nil {
		protected = append(append([]connect.HandlerOption{}, public...), connect.WithInterceptors(guard))
	}

	mux := http.NewServeMux()
	mux.Handle(AdminServiceLoginProcedure,
		connect.NewUnaryHandler(AdminServiceLoginProcedure, svc.Login, public...))
	mux.Handle(AdminServiceGetCurrentAdminProcedure,
		connect.NewUnaryHandler(AdminServiceGetCurrentAdminProcedure, svc.GetCurrentAdmin, protected...))
	mux.Handle(AdminServiceListMembersProcedure,
		connect.NewUnaryHandler(AdminServiceListMembersProcedure, svc.ListMembers, protected...))
	mux.Handle(AdminServiceUpdateMemberProcedure,
		connect.NewUnaryHandler(AdminServiceUpdateMemberProcedure, svc.UpdateMember, protected...))
	mux.Handle(AdminServiceDeleteMemberProcedure,
		connect.NewUnaryHandler(AdminServiceDeleteMemberProcedure, svc.DeleteMember, protected...))
	mux.Handle(AdminServiceRunDistributionProcedure,
		connect.NewUnaryHandler(AdminServiceRunDistributionProcedure, svc.RunDistribution, protected...))
	mux.Handle(AdminServiceListDistributionRunsProcedure,
		connect.NewUnaryHandler(AdminServiceListDistributionRunsProcedure, svc.ListDistributionRuns, protected...))
	mux.Handle(AdminServiceDeleteArtifactProcedure,
		connect.NewUnaryHandler(AdminServiceDeleteArtifactProcedure, svc.DeleteArtifact, protected...))
	mux.Handle(AdminServiceVerifyArtifactProcedure,
		connect.NewUnaryHandler(AdminServiceVerifyArtifactProcedure, svc.VerifyArtifact, protected...))

	return "/" + AdminServiceName + "/", mux
}

// AdminServiceClient calls the admin service.
type AdminServiceClient struct {
	login                *connect.Client[LoginRequest, LoginResponse]
	getCurrentAdmin      *connect.Client[GetCurrentAdminRequest, GetCurrentAdminResponse]
	listMembers          *connect.Client[ListMembersRequest, ListMembersResponse]
	updateMember         *connect.Client[UpdateMemberRequest, UpdateMemberResponse]
	deleteMember         *connect.Client[DeleteMemberRequest, DeleteMemberResponse]
	runDistribution      *connect.Client[RunDistributionRequest, RunDistributionResponse]
	listDistributionRuns *connect.Client[ListDistributionRunsRequest, ListDistributionRunsResponse]
	deleteArtifact       *connect.Client[DeleteArtifactRequest, DeleteArtifactResponse]
	verifyArtifact       *connect.Client[VerifyArtifactRequest, VerifyArtifactResponse]
}

// NewAdminServiceClient creates a client for the admin service at baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &AdminServiceClient{
		login:                connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AdminServiceLoginProcedure, opts...),
		getCurrentAdmin:      connect.NewClient[GetCurrentAdminRequest, GetCurrentAdminResponse](httpClient, baseURL+AdminServiceGetCurrentAdminProcedure, opts...),
		listMembers:          connect.NewClient[ListMembersRequest, ListMembersResponse](httpClient, baseURL+AdminServiceListMembersProcedure, opts...),
		updateMember:         connect.NewClient[UpdateMemberRequest, UpdateMemberResponse](httpClient, baseURL+AdminServiceUpdateMemberProcedure, opts...),
		deleteMember:         connect.NewClient[DeleteMemberRequest, DeleteMemberResponse](httpClient, baseURL+AdminServiceDeleteMemberProcedure, opts...),
		runDistribution:      connect.NewClient[RunDistributionRequest, RunDistributionResponse](httpClient, baseURL+AdminServiceRunDistributionProcedure, opts...),
		listDistributionRuns: connect.NewClient[ListDistributionRunsRequest, ListDistributionRunsResponse](httpClient, baseURL+AdminServiceListDistributionRunsProcedure, opts...),
		deleteArtifact:       connect.NewClient[DeleteArtifactRequest, DeleteArtifactResponse](httpClient, baseURL+AdminServiceDeleteArtifactProcedure, opts...),
		verifyArtifact:       connect.NewClient[VerifyArtifactRequest, VerifyArtifactResponse](httpClient, baseURL+AdminServiceVerifyArtifactProcedure, opts...),
	}
}

func (c *AdminServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *AdminServiceClient) GetCurrentAdmin(ctx context.Context, req *connect.Request[GetCurrentAdminRequest]) (*connect.Response[GetCurrentAdminResponse], error) {
	return c.getCurrentAdmin.CallUnary(ctx, req)
}

func (c *AdminServiceClient) ListMembers(ctx context.Context, req *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *AdminServiceClient) UpdateMember(ctx context.Context, req *connect.Request[UpdateMemberRequest]) (*connect.Response[UpdateMemberResponse], error) {
	return c.updateMember.CallUnary(ctx, req)
}

func (c *AdminServiceClient) DeleteMember(ctx context.Context, req *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error) {
	return c.deleteMember.CallUnary(ctx, req)
}

func (c *AdminServiceClient) RunDistribution(ctx context.Context, req *connect.Request[RunDistributionRequest]) (*connect.Response[RunDistributionResponse], error) {
	return c.runDistribution.CallUnary(ctx, req)
}

func (c *AdminServiceClient) ListDistributionRuns(ctx context.Context, req *connect.Request[ListDistributionRunsRequest]) (*connect.Response[ListDistributionRunsResponse], error) {
	return c.listDistributionRuns.CallUnary(ctx, req)
}

func (c *AdminServiceClient) DeleteArtifact(ctx context.Context, req *connect.Request[DeleteArtifactRequest]) (*connect.Response[DeleteArtifactResponse], error) {
	return c.deleteArtifact.CallUnary(ctx, req)
}

func (c *AdminServiceClient) VerifyArtifact(ctx context.Context, req *connect.Request[VerifyArtifactRequest]) (*connect.Response[VerifyArtifactResponse], error) {
	return c.verifyArtifact.CallUnary(ctx, req)
}
