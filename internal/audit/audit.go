package audit

import (
	"encoding/json"
	"time"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
)

// Entry is one row of the audit trail.
type Entry struct {
	ID          int64                  `json:"id"`
	ActorID     *int64                 `json:"actor_id,omitempty"`
	ActionType  string                 `json:"action_type"`
	ActionTable string                 `json:"action_table"`
	RecordID    int64                  `json:"record_id"`
	Details     map[string]interface{} `json:"details"`
	IPAddress   string                 `json:"ip_address,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

func FromDataModel(row *auditDatamodel.AuditLog) *Entry {
	e := &Entry{
		ID:          row.ID,
		ActorID:     row.ActorID,
		ActionType:  row.ActionType,
		ActionTable: row.ActionTable,
		RecordID:    row.RecordID,
		IPAddress:   row.IPAddress,
		Timestamp:   row.ActionTimestamp,
	}
	if row.ActionDetails != "" {
		_ = json.Unmarshal([]byte(row.ActionDetails), &e.Details)
	}
	return e
}

func ToDataModel(e *Entry) (*auditDatamodel.AuditLog, error) {
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return &auditDatamodel.AuditLog{
		ActorID:         e.ActorID,
		ActionType:      e.ActionType,
		ActionTable:     e.ActionTable,
		RecordID:        e.RecordID,
		ActionDetails:   string(raw),
		IPAddress:       e.IPAddress,
		ActionTimestamp: e.Timestamp,
	}, nil
}
