package postgres

import (
	"context"
	"errors"
	"fmt"

	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"gorm.io/gorm"
)

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) grant.RepositoryAPI {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) RunInTx(ctx context.Context, fn func(repo grant.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GrantRepository{db: tx})
	})
}

func (r *GrantRepository) UserActive(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND archived = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return count > 0, nil
}

func (r *GrantRepository) PermissionActive(ctx context.Context, permissionID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&permissionDatamodel.Permission{}).
		Where("id = ? AND archived = ?", permissionID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check permission %d: %w", permissionID, err)
	}
	return count > 0, nil
}

func (r *GrantRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.UserPermission, error) {
	var g permissionDatamodel.UserPermission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get grant %d: %w", id, err)
	}
	return &g, nil
}

func (r *GrantRepository) FindActive(ctx context.Context, userID, permissionID int64) (*permissionDatamodel.UserPermission, error) {
	var g permissionDatamodel.UserPermission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ? AND archived = ?", userID, permissionID, false).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active grant: %w", err)
	}
	return &g, nil
}

func (r *GrantRepository) Create(ctx context.Context, g *permissionDatamodel.UserPermission) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

func (r *GrantRepository) ArchiveVersioned(ctx context.Context, g *permissionDatamodel.UserPermission, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&permissionDatamodel.UserPermission{}).
		Where("id = ? AND version = ? AND archived = ?", g.ID, expectedVersion, false).
		Updates(map[string]interface{}{
			"archived": true,
			"version":  expectedVersion + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("archive grant %d: %w", g.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	g.Version = expectedVersion + 1
	return true, nil
}

func (r *GrantRepository) ListActiveForUser(ctx context.Context, userID int64) ([]*grant.ActiveGrant, error) {
	var rows []*grant.ActiveGrant
	err := r.db.WithContext(ctx).
		Table("user_permissions AS up").
		Select(`up.id AS grant_id, up.user_id, up.permission_id, up.granted_at,
			p.name AS permission_name, p.module, p.screen_name, p.can_read, p.can_write, p.can_delete`).
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id = ? AND up.archived = ? AND p.archived = ?", userID, false, false).
		Order("up.granted_at ASC, up.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active grants for user %d: %w", userID, err)
	}
	return rows, nil
}

func (r *GrantRepository) History(ctx context.Context, userID int64) ([]*permissionDatamodel.UserPermission, error) {
	var rows []*permissionDatamodel.UserPermission
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("grant history for user %d: %w", userID, err)
	}
	return rows, nil
}

func (r *GrantRepository) FirstActivePermissionForScreen(ctx context.Context, screenName string) (*permissionDatamodel.Permission, error) {
	var p permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Where("screen_name = ? AND archived = ?", screenName, false).
		Order("id ASC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("permission for screen %q: %w", screenName, err)
	}
	return &p, nil
}
