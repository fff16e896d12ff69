package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) RunInTx(ctx context.Context, fn func(repo permission.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PermissionRepository{db: tx})
	})
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error) {
	var p permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get permission %d: %w", id, err)
	}
	return &p, nil
}

// likeEscaper keeps user input from acting as LIKE wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PermissionRepository) Search(ctx context.Context, id int64, name string) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	pattern := "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"

	err := r.db.WithContext(ctx).
		Where("archived = ?", false).
		Where(r.db.Where("id = ?", id).
			Or("name = ?", name).
			Or(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search permissions: %w", err)
	}
	return rows, nil
}

func (r *PermissionRepository) ListActive(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Where("archived = ?", false).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return rows, nil
}

func (r *PermissionRepository) ListScreens(ctx context.Context) ([]permission.Screen, error) {
	var screens []permission.Screen
	err := r.db.WithContext(ctx).Model(&permissionDatamodel.Permission{}).
		Distinct("screen_name", "module").
		Where("archived = ?", false).
		Order("module ASC, screen_name ASC").
		Scan(&screens).Error
	if err != nil {
		return nil, fmt.Errorf("list screens: %w", err)
	}
	return screens, nil
}

func (r *PermissionRepository) Create(ctx context.Context, p *permissionDatamodel.Permission) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

func (r *PermissionRepository) UpdateVersioned(ctx context.Context, p *permissionDatamodel.Permission, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&permissionDatamodel.Permission{}).
		Where("id = ? AND version = ?", p.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"module":      p.Module,
			"action_type": p.ActionType,
			"screen_name": p.ScreenName,
			"can_read":    p.CanRead,
			"can_write":   p.CanWrite,
			"can_delete":  p.CanDelete,
			"archived":    p.Archived,
			"version":     expectedVersion + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update permission %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.Version = expectedVersion + 1
	return true, nil
}
