package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserCreated        = "user.created"
	EventTypeUserUpdated        = "user.updated"
	EventTypeUserArchived       = "user.archived"
	EventTypeUserDeleted        = "user.deleted"
	EventTypePermissionCreated  = "permission.created"
	EventTypePermissionUpdated  = "permission.updated"
	EventTypePermissionArchived = "permission.archived"
	EventTypeGrantGranted       = "grant.granted"
	EventTypeGrantRevoked       = "grant.revoked"
	EventTypeSessionLogin       = "session.login"
	EventTypeSessionLogout      = "session.logout"
)

// AuditableTypes lists every event the audit trail records.
var AuditableTypes = []string{
	EventTypeUserCreated,
	EventTypeUserUpdated,
	EventTypeUserArchived,
	EventTypeUserDeleted,
	EventTypePermissionCreated,
	EventTypePermissionUpdated,
	EventTypePermissionArchived,
	EventTypeGrantGranted,
	EventTypeGrantRevoked,
	EventTypeSessionLogin,
	EventTypeSessionLogout,
}

// Publisher is the part of the bus that services depend on.
type Publisher interface {
	PublishSync(ctx context.Context, event Event) error
}

// AccessEvent records one change to an access-control table.
type AccessEvent struct {
	BaseEvent
	ActorID  int64  `json:"actor_id"`
	Table    string `json:"table"`
	RecordID int64  `json:"record_id"`
	Action   string `json:"action"`
}

func newAccessEvent(eventType, action, table string, actorID, recordID int64, details map[string]interface{}) *AccessEvent {
	if details == nil {
		details = map[string]interface{}{}
	}
	return &AccessEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      details,
		},
		ActorID:  actorID,
		Table:    table,
		RecordID: recordID,
		Action:   action,
	}
}

func NewUserCreatedEvent(actorID, userID int64, details map[string]interface{}) *AccessEvent {
	return newAccessEvent(EventTypeUserCreated, "CREATE", "users", actorID, userID, details)
}

func NewUserUpdatedEvent(actorID, userID int64, details map[string]interface{}) *AccessEvent {
	return newAccessEvent(EventTypeUserUpdated, "UPDATE", "users", actorID, userID, details)
}

func NewUserArchivedEvent(actorID, userID int64, expiredSessions int64) *AccessEvent {
	return newAccessEvent(EventTypeUserArchived, "ARCHIVE", "users", actorID, userID, map[string]interface{}{
		"expired_sessions": expiredSessions,
	})
}

func NewUserDeletedEvent(actorID, userID int64, username string) *AccessEvent {
	return newAccessEvent(EventTypeUserDeleted, "DELETE", "users", actorID, userID, map[string]interface{}{
		"username": username,
	})
}

func NewPermissionCreatedEvent(actorID, permissionID int64, name string) *AccessEvent {
	return newAccessEvent(EventTypePermissionCreated, "CREATE", "permissions", actorID, permissionID, map[string]interface{}{
		"name": name,
	})
}

func NewPermissionUpdatedEvent(actorID, permissionID int64, changed []string) *AccessEvent {
	return newAccessEvent(EventTypePermissionUpdated, "UPDATE", "permissions", actorID, permissionID, map[string]interface{}{
		"changed": changed,
	})
}

func NewPermissionArchivedEvent(actorID, permissionID int64) *AccessEvent {
	return newAccessEvent(EventTypePermissionArchived, "ARCHIVE", "permissions", actorID, permissionID, nil)
}

func NewGrantGrantedEvent(actorID, grantID, userID, permissionID int64) *AccessEvent {
	return newAccessEvent(EventTypeGrantGranted, "GRANT", "user_permissions", actorID, grantID, map[string]interface{}{
		"user_id":       userID,
		"permission_id": permissionID,
	})
}

func NewGrantRevokedEvent(actorID, grantID, userID, permissionID int64) *AccessEvent {
	return newAccessEvent(EventTypeGrantRevoked, "REVOKE", "user_permissions", actorID, grantID, map[string]interface{}{
		"user_id":       userID,
		"permission_id": permissionID,
	})
}

func NewSessionLoginEvent(userID, sessionID int64) *AccessEvent {
	return newAccessEvent(EventTypeSessionLogin, "LOGIN", "user_sessions", userID, sessionID, nil)
}

func NewSessionLogoutEvent(userID, sessionID int64) *AccessEvent {
	return newAccessEvent(EventTypeSessionLogout, "LOGOUT", "user_sessions", userID, sessionID, nil)
}
