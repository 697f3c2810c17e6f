package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	IdentityServiceName    = "tracker.v1.IdentityService"
	AnniversaryServiceName = "tracker.v1.AnniversaryService"
)

type IdentityServer interface {
	Login(context.Context, *LoginRequest) (*LoginResult, error)
	Register(context.Context, *RegisterRequest) (*LoginResult, error)
	Refresh(context.Context, *RefreshRequest) (*LoginResult, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	CreateRole(context.Context, *CreateRoleRequest) (*RoleInfo, error)
	DeleteRole(context.Context, *DeleteRoleRequest) (*Empty, error)
	ListRoles(context.Context, *Empty) (*ListRolesResponse, error)
	AssignRole(context.Context, *RoleMembershipRequest) (*Empty, error)
	RevokeRole(context.Context, *RoleMembershipRequest) (*Empty, error)
	ListUsers(context.Context, *Empty) (*ListUsersResponse, error)
}

type AnniversaryServer interface {
	CreateImportantDate(context.Context, *CreateImportantDateRequest) (*ImportantDateResponse, error)
	ListImportantDates(context.Context, *ListImportantDatesRequest) (*ListImportantDatesResponse, error)
	GetImportantDate(context.Context, *ImportantDateRequest) (*ImportantDateResponse, error)
	DeactivateImportantDate(context.Context, *ImportantDateRequest) (*ImportantDateResponse, error)
	UpcomingDates(context.Context, *UpcomingDatesRequest) (*UpcomingDatesResponse, error)
}

// unary adapts a typed method to a grpc.MethodDesc.
func unary[S, Req, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, icpt grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(S)
			if icpt == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return icpt(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(IdentityServiceName, "Login", IdentityServer.Login),
		unary(IdentityServiceName, "Register", IdentityServer.Register),
		unary(IdentityServiceName, "Refresh", IdentityServer.Refresh),
		unary(IdentityServiceName, "Logout", IdentityServer.Logout),
		unary(IdentityServiceName, "CreateRole", IdentityServer.CreateRole),
		unary(IdentityServiceName, "DeleteRole", IdentityServer.DeleteRole),
		unary(IdentityServiceName, "ListRoles", IdentityServer.ListRoles),
		unary(IdentityServiceName, "AssignRole", IdentityServer.AssignRole),
		unary(IdentityServiceName, "RevokeRole", IdentityServer.RevokeRole),
		unary(IdentityServiceName, "ListUsers", IdentityServer.ListUsers),
	},
	Metadata: "tracker/v1/identity",
}

var AnniversaryServiceDesc = grpc.ServiceDesc{
	ServiceName: AnniversaryServiceName,
	HandlerType: (*AnniversaryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AnniversaryServiceName, "CreateImportantDate", AnniversaryServer.CreateImportantDate),
		unary(AnniversaryServiceName, "ListImportantDates", AnniversaryServer.ListImportantDates),
		unary(AnniversaryServiceName, "GetImportantDate", AnniversaryServer.GetImportantDate),
		unary(AnniversaryServiceName, "DeactivateImportantDate", AnniversaryServer.DeactivateImportantDate),
		unary(AnniversaryServiceName, "UpcomingDates", AnniversaryServer.UpcomingDates),
	},
	Metadata: "tracker/v1/anniversary",
}

// Register adds both tracker services and the standard health service to
// srv. The returned health server reports SERVING for each of them.
func Register(srv *grpc.Server, h *Handler) *health.Server {
	srv.RegisterService(&IdentityServiceDesc, h)
	srv.RegisterService(&AnniversaryServiceDesc, h)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	for _, name := range []string{"", IdentityServiceName, AnniversaryServiceName} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return hs
}
