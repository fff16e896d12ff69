package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/inventory-management/internal/audit"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, row *auditDatamodel.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListForRecord(ctx context.Context, table string, recordID int64) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.WithContext(ctx).
		Where("action_table = ? AND record_id = ? AND archived = ?", table, recordID, false).
		Order("action_timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit logs for %s/%d: %w", table, recordID, err)
	}
	return rows, nil
}
