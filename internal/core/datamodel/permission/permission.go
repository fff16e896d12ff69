package permission

import (
	"time"

	"github.com/frahmantamala/inventory-management/internal/core/datamodel"
)

type Permission struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"column:name;not null;index"`
	Module     string `gorm:"column:module;not null"`
	ActionType string `gorm:"column:action_type;not null"`
	ScreenName string `gorm:"column:screen_name;not null;index"`
	CanRead    bool   `gorm:"column:can_read;not null"`
	CanWrite   bool   `gorm:"column:can_write;not null"`
	CanDelete  bool   `gorm:"column:can_delete;not null"`
	datamodel.Archivable
	datamodel.Versioned
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// UserPermission is one grant of a permission to a user. Revocation archives
// the row; a later re-grant inserts a new one.
type UserPermission struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;index"`
	PermissionID int64     `gorm:"column:permission_id;not null;index"`
	GrantedBy    *int64    `gorm:"column:granted_by"`
	GrantedAt    time.Time `gorm:"column:granted_at;not null"`
	datamodel.Archivable
	datamodel.Versioned
}

func (UserPermission) TableName() string {
	return "user_permissions"
}
