package permission

import (
	"strings"

	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Name       string `json:"name" validate:"required,max=120"`
	Module     string `json:"module" validate:"required,max=80"`
	ActionType string `json:"action_type" validate:"required,max=40"`
	ScreenName string `json:"screen_name" validate:"required,max=80"`
	CanRead    *bool  `json:"can_read" validate:"required"`
	CanWrite   *bool  `json:"can_write" validate:"required"`
	CanDelete  *bool  `json:"can_delete" validate:"required"`
}

func (d *CreatePermissionDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Module = strings.TrimSpace(d.Module)
	d.ActionType = strings.TrimSpace(d.ActionType)
	d.ScreenName = strings.TrimSpace(d.ScreenName)
}

func (d CreatePermissionDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// UpdatePermissionDTO is a partial update: nil fields keep their stored value.
type UpdatePermissionDTO struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=120"`
	Module     *string `json:"module" validate:"omitempty,min=1,max=80"`
	ActionType *string `json:"action_type" validate:"omitempty,min=1,max=40"`
	ScreenName *string `json:"screen_name" validate:"omitempty,min=1,max=80"`
	CanRead    *bool   `json:"can_read"`
	CanWrite   *bool   `json:"can_write"`
	CanDelete  *bool   `json:"can_delete"`
	Version    int64   `json:"version"`
}

func (d *UpdatePermissionDTO) Normalize() {
	for _, s := range []*string{d.Name, d.Module, d.ActionType, d.ScreenName} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (d UpdatePermissionDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// apply copies the non-nil fields onto p and returns the names of the
// columns that actually changed.
func (d UpdatePermissionDTO) apply(p *Permission) []string {
	var changed []string
	setString := func(column string, dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = append(changed, column)
		}
	}
	setBool := func(column string, dst *bool, src *bool) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = append(changed, column)
		}
	}

	setString("name", &p.Name, d.Name)
	setString("module", &p.Module, d.Module)
	setString("action_type", &p.ActionType, d.ActionType)
	setString("screen_name", &p.ScreenName, d.ScreenName)
	setBool("can_read", &p.CanRead, d.CanRead)
	setBool("can_write", &p.CanWrite, d.CanWrite)
	setBool("can_delete", &p.CanDelete, d.CanDelete)
	return changed
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}

type ScreensResponse struct {
	Screens []Screen `json:"screens"`
}
