package middleware

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"tracker-suite/internal/auth"
)

const (
	MethodLogin       = "/tracker.v1.IdentityService/Login"
	MethodRegister    = "/tracker.v1.IdentityService/Register"
	MethodRefresh     = "/tracker.v1.IdentityService/Refresh"
	MethodHealthCheck = "/grpc.health.v1.Health/Check"
	MethodHealthWatch = "/grpc.health.v1.Health/Watch"
)

// skip auth for these
var open = map[string]bool{
	MethodLogin:       true,
	MethodRegister:    true,
	MethodRefresh:     true,
	MethodHealthCheck: true,
	MethodHealthWatch: true,
}

// Principal is the authenticated caller.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	UserName string
	Roles    []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// RequireRole returns a PermissionDenied status unless the caller holds role.
func RequireRole(ctx context.Context, role string) (Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return p, status.Error(codes.Unauthenticated, "not authenticated")
	}
	if !p.HasRole(role) {
		return p, status.Error(codes.PermissionDenied, "permission denied")
	}
	return p, nil
}

func Auth(tokens auth.TokenParser) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}
		p, err := authenticate(ctx, tokens)
		if err != nil {
			return nil, err
		}
		return next(WithPrincipal(ctx, p), req)
	}
}

func authenticate(ctx context.Context, tokens auth.TokenParser) (Principal, error) {
	var p Principal
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return p, status.Error(codes.Unauthenticated, "missing metadata")
	}

	// token from Authorization: Bearer <jwt>
	raw := ""
	if vals := md.Get("authorization"); len(vals) > 0 {
		v := strings.TrimSpace(vals[0])
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			raw = strings.TrimSpace(v[7:])
		}
	}
	if raw == "" {
		return p, status.Error(codes.Unauthenticated, "no token")
	}

	claims, err := tokens.ParseToken(raw)
	if err != nil {
		return p, status.Error(codes.Unauthenticated, "bad token")
	}
	uid, err := claims.UserID()
	if err != nil {
		return p, status.Error(codes.Unauthenticated, "bad token")
	}
	tid, err := claims.Tenant()
	if err != nil || tid == uuid.Nil {
		return p, status.Error(codes.Unauthenticated, "bad token")
	}
	return Principal{UserID: uid, TenantID: tid, UserName: claims.Name, Roles: claims.Roles}, nil
}
