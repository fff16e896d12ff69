package audit

import (
	"time"

	"github.com/frahmantamala/inventory-management/internal/core/datamodel"
)

type AuditLog struct {
	ID              int64     `gorm:"primaryKey"`
	ActorID         *int64    `gorm:"column:actor_id;index"`
	ActionType      string    `gorm:"column:action_type;not null"`
	ActionTable     string    `gorm:"column:action_table;not null"`
	RecordID        int64     `gorm:"column:record_id"`
	ActionDetails   string    `gorm:"column:action_details"`
	IPAddress       string    `gorm:"column:ip_address"`
	ActionTimestamp time.Time `gorm:"column:action_timestamp;not null"`
	datamodel.Archivable
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
