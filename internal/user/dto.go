package user

import (
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
)

// SaveUserDTO creates a user when ID is zero and updates it otherwise.
// Version, when set, must match the stored version.
type SaveUserDTO struct {
	ID              int64  `json:"id"`
	Username        string `json:"username" validate:"required,max=80"`
	DisplayName     string `json:"display_name" validate:"max=120"`
	Role            string `json:"role" validate:"required,oneof=admin manager user"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Version         int64  `json:"version"`
}

func (d *SaveUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
}

func (d SaveUserDTO) IsCreate() bool {
	return d.ID == 0
}

func (d SaveUserDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}

	if d.IsCreate() && d.Password == "" {
		return internal.NewValidationFieldError("password", "password is required", internal.ErrCodeRequired)
	}

	if d.Password != "" {
		if err := validation.ValidatePassword(d.Password); err != nil {
			return err
		}
		if d.Password != d.ConfirmPassword {
			return internal.NewValidationFieldError("confirm_password", "passwords do not match", internal.ErrCodePasswordMismatch)
		}
	}

	return nil
}

type UsersResponse struct {
	Users []*User `json:"users"`
}
