package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type TenantIdentifier string

type UserIdentifier string

// UserRole is the role of a user within its tenant.
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "SUPER_ADMIN"
	UserRoleAdmin      UserRole = "ADMIN"
	UserRoleMember     UserRole = "MEMBER"
	UserRoleViewer     UserRole = "VIEWER"
)

// IsAdminRole returns true for roles that grant administrative access to the tenant.
func (r UserRole) IsAdminRole() bool {
	return r == UserRoleSuperAdmin || r == UserRoleAdmin
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleSuperAdmin, UserRoleAdmin, UserRoleMember, UserRoleViewer:
		return true
	default:
		return false
	}
}

// User is the user model of the admin console. Every user belongs to exactly one tenant.
type User struct {
	BaseModel

	Identifier UserIdentifier   `gorm:"primaryKey;column:identifier"`
	Tenant     TenantIdentifier `gorm:"column:tenant_identifier;index:idx_user_tenant"`
	Email      string           `gorm:"column:email;index:idx_user_email"`
	Role       UserRole         `gorm:"column:role"`

	Permissions []string `gorm:"column:permissions;serializer:json"`

	Firstname  string
	Lastname   string
	Department string
	Notes      string

	Password PrivateString `gorm:"column:password"`

	Disabled       *time.Time `gorm:"index;column:disabled"` // if this field is set, the user can no longer log in
	DisabledReason string
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdminRole()
}

func (u *User) IsDisabled() bool {
	return u.Disabled != nil
}

func (u *User) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// HashPassword replaces the plaintext password with its bcrypt hash.
// An empty password is kept as-is, the caller decides whether that is allowed.
func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.Password = PrivateString(hash)
	return nil
}

// CheckPassword compares the stored bcrypt hash against the given plaintext password.
func (u *User) CheckPassword(password string) error {
	if u.Password == "" {
		return errors.New("no password set")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return errors.New("wrong password")
	}

	return nil
}

// EditAllowed checks whether the given update is permitted for the user.
func (u *User) EditAllowed(new *User) error {
	if u.Tenant != new.Tenant {
		return errors.New("cannot change user tenant")
	}
	if u.Identifier != new.Identifier {
		return errors.New("cannot change user identifier")
	}

	return nil
}

// CopyCalculatedAttributes transfers the database-managed attributes from src.
func (u *User) CopyCalculatedAttributes(src *User) {
	u.BaseModel = src.BaseModel
}
