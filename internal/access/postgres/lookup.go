package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/inventory-management/internal/access"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/jmoiron/sqlx"
)

const capabilitiesQuery = `
SELECT p.can_read, p.can_write, p.can_delete
FROM user_permissions up
JOIN permissions p ON p.id = up.permission_id
WHERE up.user_id = ? AND up.archived = ? AND p.archived = ? AND p.name = ?`

const screenQuery = `
SELECT COUNT(*)
FROM user_permissions up
JOIN permissions p ON p.id = up.permission_id
WHERE up.user_id = ? AND up.archived = ? AND p.archived = ? AND p.screen_name = ?`

type capabilityRow struct {
	CanRead   bool `db:"can_read"`
	CanWrite  bool `db:"can_write"`
	CanDelete bool `db:"can_delete"`
}

// LiveLookup runs access checks as plain SQL joins over the ledger.
type LiveLookup struct {
	db *sqlx.DB
}

func NewLiveLookup(db *sqlx.DB) access.LiveLookup {
	return &LiveLookup{db: db}
}

func (l *LiveLookup) Capabilities(ctx context.Context, userID int64, name string) (permission.Capabilities, bool, error) {
	var rows []capabilityRow
	if err := l.db.SelectContext(ctx, &rows, l.db.Rebind(capabilitiesQuery), userID, false, false, name); err != nil {
		return permission.Capabilities{}, false, fmt.Errorf("lookup capabilities for user %d: %w", userID, err)
	}
	if len(rows) == 0 {
		return permission.Capabilities{}, false, nil
	}

	var caps permission.Capabilities
	for _, row := range rows {
		caps = caps.Merge(permission.Capabilities{Read: row.CanRead, Write: row.CanWrite, Delete: row.CanDelete})
	}
	return caps, true, nil
}

func (l *LiveLookup) HasScreen(ctx context.Context, userID int64, screenName string) (bool, error) {
	var count int
	if err := l.db.GetContext(ctx, &count, l.db.Rebind(screenQuery), userID, false, false, screenName); err != nil {
		return false, fmt.Errorf("lookup screen for user %d: %w", userID, err)
	}
	return count > 0, nil
}
