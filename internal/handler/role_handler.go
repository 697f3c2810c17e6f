package handler

import (
	"context"
	"errors"
	"sort"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tracker-suite/internal/identity"
	"tracker-suite/internal/middleware"
	"tracker-suite/internal/model"
	"tracker-suite/internal/repository"
)

func (h *Handler) CreateRole(ctx context.Context, req *CreateRoleRequest) (*RoleInfo, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	r, err := model.NewRole(p.TenantID, req.Name)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	idc := h.identity(p.TenantID)
	if _, err := idc.RoleByName(ctx, r.Name); err == nil {
		return nil, status.Error(codes.AlreadyExists, "role exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, h.toStatus("create role", err)
	}
	if err := idc.AddRole(r); err != nil {
		return nil, h.toStatus("create role", err)
	}
	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("create role", err)
	}
	return &RoleInfo{ID: r.ID, Name: r.Name}, nil
}

func (h *Handler) DeleteRole(ctx context.Context, req *DeleteRoleRequest) (*Empty, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	idc := h.identity(p.TenantID)
	if err := idc.DeleteRole(ctx, req.ID); err != nil {
		if errors.Is(err, identity.ErrRoleInUse) {
			return nil, status.Error(codes.FailedPrecondition, "role still assigned")
		}
		return nil, h.toStatus("delete role", err)
	}
	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("delete role", err)
	}
	return &Empty{}, nil
}

func (h *Handler) ListRoles(ctx context.Context, _ *Empty) (*ListRolesResponse, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	all, err := h.identity(p.TenantID).Roles.All(ctx)
	if err != nil {
		return nil, h.toStatus("list roles", err)
	}
	out := make([]RoleInfo, 0, len(all))
	for _, r := range all {
		out = append(out, RoleInfo{ID: r.ID, Name: r.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return &ListRolesResponse{Roles: out}, nil
}

func (h *Handler) AssignRole(ctx context.Context, req *RoleMembershipRequest) (*Empty, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	idc := h.identity(p.TenantID)
	u, role, err := h.membership(ctx, idc, req)
	if err != nil {
		return nil, err
	}
	if err := idc.AssignRole(ctx, u, role); err != nil {
		return nil, h.toStatus("assign role", err)
	}
	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("assign role", err)
	}
	return &Empty{}, nil
}

func (h *Handler) RevokeRole(ctx context.Context, req *RoleMembershipRequest) (*Empty, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	idc := h.identity(p.TenantID)
	u, role, err := h.membership(ctx, idc, req)
	if err != nil {
		return nil, err
	}
	// an admin locking themselves out is almost always a mistake
	if u.ID == p.UserID && strings.EqualFold(role.Name, identity.RoleAdmin) {
		return nil, status.Error(codes.FailedPrecondition, "cannot revoke own admin role")
	}
	if err := idc.RevokeRole(ctx, u.ID, role.ID); err != nil {
		return nil, h.toStatus("revoke role", err)
	}
	if _, err := idc.SaveChanges(ctx); err != nil {
		return nil, h.toStatus("revoke role", err)
	}
	return &Empty{}, nil
}

func (h *Handler) membership(ctx context.Context, idc *identity.Context, req *RoleMembershipRequest) (*model.User, *model.Role, error) {
	if strings.TrimSpace(req.Role) == "" {
		return nil, nil, status.Error(codes.InvalidArgument, "role required")
	}
	u, err := idc.Users.Find(ctx, req.UserID)
	if err != nil {
		return nil, nil, h.toStatus("membership: user", err)
	}
	role, err := idc.RoleByName(ctx, req.Role)
	if err != nil {
		return nil, nil, h.toStatus("membership: role", err)
	}
	return u, role, nil
}

func (h *Handler) ListUsers(ctx context.Context, _ *Empty) (*ListUsersResponse, error) {
	p, err := middleware.RequireRole(ctx, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	idc := h.identity(p.TenantID)
	all, err := idc.Users.All(ctx)
	if err != nil {
		return nil, h.toStatus("list users", err)
	}
	out := make([]UserInfo, 0, len(all))
	for _, u := range all {
		roles, err := idc.RolesOf(ctx, u.ID)
		if err != nil {
			return nil, h.toStatus("list users", err)
		}
		out = append(out, UserInfo{ID: u.ID, UserName: u.UserName, Email: u.Email, Roles: roles})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return &ListUsersResponse{Users: out}, nil
}
