package model

import (
	"github.com/opsboard/admin-portal/internal/domain"
)

type User struct {
	Identifier string `json:"Identifier"`
	Tenant     string `json:"Tenant"`
	Email      string `json:"Email"`
	Role       string `json:"Role"`

	Permissions []string `json:"Permissions"`

	Firstname  string `json:"Firstname"`
	Lastname   string `json:"Lastname"`
	Department string `json:"Department"`
	Notes      string `json:"Notes"`

	Password       string `json:"Password,omitempty"` // only ever filled on requests
	Disabled       bool   `json:"Disabled"`
	DisabledReason string `json:"DisabledReason"`
}

func NewUser(src *domain.User) *User {
	return &User{
		Identifier:     string(src.Identifier),
		Tenant:         string(src.Tenant),
		Email:          src.Email,
		Role:           string(src.Role),
		Permissions:    src.Permissions,
		Firstname:      src.Firstname,
		Lastname:       src.Lastname,
		Department:     src.Department,
		Notes:          src.Notes,
		Password:       "", // never expose the password hash
		Disabled:       src.IsDisabled(),
		DisabledReason: src.DisabledReason,
	}
}

func NewUsers(src []domain.User) []User {
	results := make([]User, len(src))
	for i := range src {
		results[i] = *NewUser(&src[i])
	}
	return results
}

func NewDomainUser(src *User) *domain.User {
	return &domain.User{
		Identifier:  domain.UserIdentifier(src.Identifier),
		Tenant:      domain.TenantIdentifier(src.Tenant),
		Email:       src.Email,
		Role:        domain.UserRole(src.Role),
		Permissions: src.Permissions,
		Firstname:   src.Firstname,
		Lastname:    src.Lastname,
		Department:  src.Department,
		Notes:       src.Notes,
		Password:    domain.PrivateString(src.Password),
	}
}

type UserRoleRequest struct {
	Role string `json:"Role" validate:"required,oneof=SUPER_ADMIN ADMIN MEMBER VIEWER"`
}

type UserPermissionsRequest struct {
	Permissions []string `json:"Permissions" validate:"required"`
}

type BulkDisableRequest struct {
	Users  []string `json:"Users" validate:"required,min=1"`
	Reason string   `json:"Reason"`
}

type BulkDisableResponse struct {
	Disabled int `json:"Disabled"`
}
