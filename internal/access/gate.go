package access

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/grant"
	"github.com/frahmantamala/inventory-management/internal/permission"
	"github.com/frahmantamala/inventory-management/internal/session"
)

// LiveLookup answers checks straight from the grant ledger.
type LiveLookup interface {
	// Capabilities OR-merges the bits of every active grant of userID on a
	// non-archived permission called name. found is false when there is none.
	Capabilities(ctx context.Context, userID int64, name string) (caps permission.Capabilities, found bool, err error)
	HasScreen(ctx context.Context, userID int64, screenName string) (bool, error)
}

type Reconciler interface {
	ReconcileScreens(ctx context.Context, userID, grantedBy int64, entries []grant.ScreenAccess) (grant.ReconcileSummary, error)
}

type Gate struct {
	live       LiveLookup
	reconciler Reconciler
	logger     *slog.Logger
}

func NewGate(live LiveLookup, reconciler Reconciler, logger *slog.Logger) *Gate {
	return &Gate{
		live:       live,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Check decides whether sess may perform access on the permission called
// name. Sessions carrying a snapshot are answered from it; sessions without
// one fall back to the ledger. The returned error is only ever an
// infrastructure failure.
func (g *Gate) Check(ctx context.Context, sess *session.Session, name string, access permission.AccessType) (Decision, error) {
	if !sess.IsAuthenticated() {
		return Deny(ReasonUnauthenticated), nil
	}
	if sess.IsAdmin() {
		return Allow(ReasonAdmin), nil
	}

	var (
		caps  permission.Capabilities
		found bool
	)
	if sess.Snapshot != nil {
		caps, found = sess.Snapshot.Lookup(name)
	} else {
		var err error
		caps, found, err = g.live.Capabilities(ctx, sess.UserID, name)
		if err != nil {
			g.logger.ErrorContext(ctx, "live permission lookup failed", "user_id", sess.UserID, "permission", name, "error", err)
			return Decision{}, internal.NewInternalError("failed to check permission", err)
		}
	}

	if !found {
		return Deny(ReasonPermissionNotGranted), nil
	}
	if !caps.Allows(access) {
		return Deny(ReasonInsufficientCapability), nil
	}
	return Allow(ReasonGranted), nil
}

// CheckScreen always consults the ledger, so a revoke is visible at once.
func (g *Gate) CheckScreen(ctx context.Context, sess *session.Session, screenName string) (Decision, error) {
	if !sess.IsAuthenticated() {
		return Deny(ReasonUnauthenticated), nil
	}
	if sess.IsAdmin() {
		return Allow(ReasonAdmin), nil
	}

	ok, err := g.live.HasScreen(ctx, sess.UserID, screenName)
	if err != nil {
		g.logger.ErrorContext(ctx, "live screen lookup failed", "user_id", sess.UserID, "screen", screenName, "error", err)
		return Decision{}, internal.NewInternalError("failed to check screen access", err)
	}
	if !ok {
		return Deny(ReasonScreenNotAuthorized), nil
	}
	return Allow(ReasonGranted), nil
}

// ReconcileScreenAccess applies a bulk screen assignment for userID on
// behalf of the caller in sess.
func (g *Gate) ReconcileScreenAccess(ctx context.Context, sess *session.Session, userID int64, entries []grant.ScreenAccess) (grant.ReconcileSummary, error) {
	if !sess.IsAuthenticated() {
		return grant.ReconcileSummary{}, internal.ErrUnauthenticated
	}
	return g.reconciler.ReconcileScreens(ctx, userID, sess.UserID, entries)
}
