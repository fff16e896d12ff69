package grant

import "github.com/frahmantamala/inventory-management/internal/core/common/validation"

type GrantDTO struct {
	PermissionID int64 `json:"permission_id" validate:"required,gt=0"`
}

func (d GrantDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type ScreenAccessDTO struct {
	Screens []ScreenAccess `json:"screens" validate:"required,dive"`
}

func (d ScreenAccessDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type ActiveGrantsResponse struct {
	Grants []*ActiveGrant `json:"grants"`
}

type HistoryResponse struct {
	Grants []*Grant `json:"grants"`
}
