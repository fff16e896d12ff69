package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User represents the internal user model
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"` // Never expose password hash
	Role         Role       `json:"role"`
	IsActive     bool       `json:"is_active"`
	Archived     bool       `json:"archived"`
	Version      int64      `json:"version"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is what a successful authentication hands to the session layer.
type Identity struct {
	UserID      int64
	Username    string
	DisplayName string
	Role        Role
}

func (u *User) Identity() *Identity {
	return &Identity{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	row := &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	row.Archived = u.Archived
	row.Version = u.Version
	return row
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Role:         Role(u.Role),
		IsActive:     u.IsActive,
		Archived:     u.Archived,
		Version:      u.Version,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
