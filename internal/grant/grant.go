package grant

import (
	"time"

	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	"github.com/frahmantamala/inventory-management/internal/permission"
)

// Grant is one assignment of a permission to a user. A revoked grant stays
// in the ledger as an archived row.
type Grant struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	PermissionID int64     `json:"permission_id"`
	GrantedBy    *int64    `json:"granted_by,omitempty"`
	GrantedAt    time.Time `json:"granted_at"`
	Archived     bool      `json:"archived"`
	Version      int64     `json:"version"`
}

// ActiveGrant is a live grant joined with its non-archived permission.
type ActiveGrant struct {
	GrantID        int64     `json:"grant_id" gorm:"column:grant_id"`
	UserID         int64     `json:"user_id" gorm:"column:user_id"`
	PermissionID   int64     `json:"permission_id" gorm:"column:permission_id"`
	PermissionName string    `json:"permission_name" gorm:"column:permission_name"`
	Module         string    `json:"module" gorm:"column:module"`
	ScreenName     string    `json:"screen_name" gorm:"column:screen_name"`
	CanRead        bool      `json:"can_read" gorm:"column:can_read"`
	CanWrite       bool      `json:"can_write" gorm:"column:can_write"`
	CanDelete      bool      `json:"can_delete" gorm:"column:can_delete"`
	GrantedAt      time.Time `json:"granted_at" gorm:"column:granted_at"`
}

func (g *ActiveGrant) Capabilities() permission.Capabilities {
	return permission.Capabilities{Read: g.CanRead, Write: g.CanWrite, Delete: g.CanDelete}
}

// ScreenAccess is one desired screen state in a bulk reconciliation.
type ScreenAccess struct {
	ScreenName string `json:"screen_name" validate:"required"`
	HasAccess  bool   `json:"has_access"`
}

type ReconcileSummary struct {
	Granted   int `json:"granted"`
	Revoked   int `json:"revoked"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

func FromDataModel(g *permissionDatamodel.UserPermission) *Grant {
	return &Grant{
		ID:           g.ID,
		UserID:       g.UserID,
		PermissionID: g.PermissionID,
		GrantedBy:    g.GrantedBy,
		GrantedAt:    g.GrantedAt,
		Archived:     g.Archived,
		Version:      g.Version,
	}
}
