package user

import (
	"slices"

	userDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/user"
)

const (
	RoleViewer  = "viewer"
	RoleCreator = "creator"
	RolePayer   = "payer"
	RoleAdmin   = "admin"
)

const (
	StatusActive  = "active"
	StatusPending = "pending"
)

// Roles lists every assignable role.
var Roles = []string{RoleViewer, RoleCreator, RolePayer, RoleAdmin}

func IsValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) HasRole(roles ...string) bool {
	return slices.Contains(roles, u.Role)
}

// DefaultUsers is the seed set inserted into an empty user collection.
func DefaultUsers() []*User {
	return []*User{
		{ID: "1", Name: "John Viewer", Email: "viewer@company.com", Role: RoleViewer, Status: StatusActive},
		{ID: "2", Name: "Sarah Creator", Email: "creator@company.com", Role: RoleCreator, Status: StatusActive},
		{ID: "3", Name: "Mike Payer", Email: "payer@company.com", Role: RolePayer, Status: StatusActive},
		{ID: "admin-1", Name: "Admin User", Email: "admin@company.com", Role: RoleAdmin, Status: StatusActive},
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
