package permission

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
)

// AccessType is the kind of operation a caller wants to perform.
type AccessType string

const (
	AccessRead   AccessType = "read"
	AccessWrite  AccessType = "write"
	AccessDelete AccessType = "delete"
)

func ParseAccessType(raw string) (AccessType, error) {
	switch a := AccessType(strings.ToLower(strings.TrimSpace(raw))); a {
	case AccessRead, AccessWrite, AccessDelete:
		return a, nil
	}
	return "", internal.NewValidationFieldError("access",
		fmt.Sprintf("access must be one of read, write, delete (got %q)", raw),
		internal.ErrCodeInvalidAccess)
}

// Capabilities are the three independent bits a permission carries.
type Capabilities struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

func FullCapabilities() Capabilities {
	return Capabilities{Read: true, Write: true, Delete: true}
}

func (c Capabilities) Allows(access AccessType) bool {
	switch access {
	case AccessRead:
		return c.Read
	case AccessWrite:
		return c.Write
	case AccessDelete:
		return c.Delete
	}
	return false
}

// Merge ORs two capability sets.
func (c Capabilities) Merge(other Capabilities) Capabilities {
	return Capabilities{
		Read:   c.Read || other.Read,
		Write:  c.Write || other.Write,
		Delete: c.Delete || other.Delete,
	}
}

type Permission struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Module     string    `json:"module"`
	ActionType string    `json:"action_type"`
	ScreenName string    `json:"screen_name"`
	CanRead    bool      `json:"can_read"`
	CanWrite   bool      `json:"can_write"`
	CanDelete  bool      `json:"can_delete"`
	Archived   bool      `json:"archived"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Permission) Capabilities() Capabilities {
	return Capabilities{Read: p.CanRead, Write: p.CanWrite, Delete: p.CanDelete}
}

// Screen is one UI screen that at least one active permission guards.
type Screen struct {
	ScreenName string `json:"screen_name" db:"screen_name"`
	Module     string `json:"module" db:"module"`
}

func FromDataModel(p *permissionDatamodel.Permission) *Permission {
	return &Permission{
		ID:         p.ID,
		Name:       p.Name,
		Module:     p.Module,
		ActionType: p.ActionType,
		ScreenName: p.ScreenName,
		CanRead:    p.CanRead,
		CanWrite:   p.CanWrite,
		CanDelete:  p.CanDelete,
		Archived:   p.Archived,
		Version:    p.Version,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToDataModel(p *Permission) *permissionDatamodel.Permission {
	row := &permissionDatamodel.Permission{
		ID:         p.ID,
		Name:       p.Name,
		Module:     p.Module,
		ActionType: p.ActionType,
		ScreenName: p.ScreenName,
		CanRead:    p.CanRead,
		CanWrite:   p.CanWrite,
		CanDelete:  p.CanDelete,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	row.Archived = p.Archived
	row.Version = p.Version
	return row
}
