package domain

import (
	"context"
	"fmt"
)

type contextKey string

const CtxUserInfo contextKey = "userInfo"

const (
	CtxSystemAdminId = "_SYS_ADMIN_"
	CtxUnknownUserId = "_SYS_UNKNOWN_"
)

// ContextUserInfo represents the user that issued the current request.
// It is stored in the request context by the authentication middleware.
type ContextUserInfo struct {
	Id      UserIdentifier
	Tenant  TenantIdentifier
	IsAdmin bool
}

func (u *ContextUserInfo) String() string {
	return fmt.Sprintf("%s@%s|%t", u.Id, u.Tenant, u.IsAdmin)
}

func (u *ContextUserInfo) UserId() string {
	return string(u.Id)
}

func DefaultContextUserInfo() *ContextUserInfo {
	return &ContextUserInfo{
		Id:      CtxUnknownUserId,
		IsAdmin: false,
	}
}

// SystemAdminContextUserInfo returns the user info that is used for internal background jobs.
// System admins have access to all tenants.
func SystemAdminContextUserInfo() *ContextUserInfo {
	return &ContextUserInfo{
		Id:      CtxSystemAdminId,
		IsAdmin: true,
	}
}

func SetUserInfo(ctx context.Context, info *ContextUserInfo) context.Context {
	return context.WithValue(ctx, CtxUserInfo, info)
}

func GetUserInfo(ctx context.Context) *ContextUserInfo {
	rawInfo := ctx.Value(CtxUserInfo)
	if rawInfo == nil {
		return DefaultContextUserInfo()
	}

	if info, ok := rawInfo.(*ContextUserInfo); ok {
		return info
	}

	return DefaultContextUserInfo()
}

// ValidateAdminAccessRights ensures that the current user has administrative access rights.
func ValidateAdminAccessRights(ctx context.Context) error {
	currentUser := GetUserInfo(ctx)

	if currentUser.IsAdmin {
		return nil
	}

	return ErrNoPermission
}

// ValidateTenantAccessRights ensures that the current user is allowed to access data of the
// given tenant. System admins can access all tenants, normal admins only their own.
func ValidateTenantAccessRights(ctx context.Context, tenant TenantIdentifier) error {
	currentUser := GetUserInfo(ctx)

	if currentUser.Id == CtxSystemAdminId {
		return nil
	}

	if currentUser.Tenant == tenant {
		return nil
	}

	return ErrNoPermission
}

// ValidateUserAccessRights ensures that the current user is allowed to access data of the
// user with the given id. Admins can access all users of their tenant.
func ValidateUserAccessRights(ctx context.Context, id UserIdentifier) error {
	currentUser := GetUserInfo(ctx)

	if currentUser.Id == id {
		return nil
	}

	if currentUser.IsAdmin {
		return nil
	}

	return ErrNoPermission
}
