package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"github.com/frahmantamala/inventory-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) RunInTx(ctx context.Context, fn func(repo user.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx})
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *UserRepository) GetActiveByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND archived = ?", username, false).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("LOWER(username) = ? AND archived = ? AND id <> ?", strings.ToLower(username), false, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context, includeArchived bool) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	q := r.db.WithContext(ctx).Order("username ASC")
	if !includeArchived {
		q = q.Where("archived = ?", false)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateVersioned writes u only if the stored version still equals
// expectedVersion, and bumps it.
func (r *UserRepository) UpdateVersioned(ctx context.Context, u *userDatamodel.User, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND version = ?", u.ID, expectedVersion).
		Updates(map[string]interface{}{
			"username":      u.Username,
			"display_name":  u.DisplayName,
			"role":          u.Role,
			"is_active":     u.IsActive,
			"password_hash": u.PasswordHash,
			"version":       expectedVersion + 1,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update user %d: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	u.Version = expectedVersion + 1
	return true, nil
}

func (r *UserRepository) Archive(ctx context.Context, id int64, at time.Time) (user.ArchiveResult, error) {
	var result user.ArchiveResult

	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": false,
			"archived":  true,
			"version":   gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return result, fmt.Errorf("archive user %d: %w", id, err)
	}

	sessions := r.db.WithContext(ctx).Model(&userDatamodel.UserSession{}).
		Where("user_id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":   false,
			"expiry_time": at,
		})
	if sessions.Error != nil {
		return result, fmt.Errorf("expire sessions for user %d: %w", id, sessions.Error)
	}
	result.ExpiredSessions = sessions.RowsAffected

	grants := r.db.WithContext(ctx).Model(&permissionDatamodel.UserPermission{}).
		Where("user_id = ? AND archived = ?", id, false).
		Updates(map[string]interface{}{
			"archived": true,
			"version":  gorm.Expr("version + 1"),
		})
	if grants.Error != nil {
		return result, fmt.Errorf("archive grants for user %d: %w", id, grants.Error)
	}
	result.RevokedGrants = grants.RowsAffected

	return result, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *UserRepository) CountDependents(ctx context.Context, id int64, at time.Time) (internal.DependentCounts, error) {
	var counts internal.DependentCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&permissionDatamodel.UserPermission{}).
		Where("user_id = ? AND archived = ?", id, false).
		Count(&counts.ActiveGrants).Error; err != nil {
		return counts, fmt.Errorf("count grants: %w", err)
	}

	if err := db.Model(&userDatamodel.UserSession{}).
		Where("user_id = ? AND is_active = ? AND expiry_time > ?", id, true, at).
		Count(&counts.ActiveSessions).Error; err != nil {
		return counts, fmt.Errorf("count sessions: %w", err)
	}

	if err := db.Model(&auditDatamodel.AuditLog{}).
		Where("actor_id = ? AND archived = ?", id, false).
		Count(&counts.AuditRecords).Error; err != nil {
		return counts, fmt.Errorf("count audit records: %w", err)
	}

	return counts, nil
}

func (r *UserRepository) HardDelete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", id).Delete(&userDatamodel.UserSession{}).Error; err != nil {
		return fmt.Errorf("delete sessions for user %d: %w", id, err)
	}
	if err := db.Where("id = ?", id).Delete(&userDatamodel.User{}).Error; err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
