package grant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
)

type RepositoryAPI interface {
	RunInTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	UserActive(ctx context.Context, userID int64) (bool, error)
	PermissionActive(ctx context.Context, permissionID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*permissionDatamodel.UserPermission, error)
	FindActive(ctx context.Context, userID, permissionID int64) (*permissionDatamodel.UserPermission, error)
	Create(ctx context.Context, g *permissionDatamodel.UserPermission) error
	ArchiveVersioned(ctx context.Context, g *permissionDatamodel.UserPermission, expectedVersion int64) (bool, error)
	ListActiveForUser(ctx context.Context, userID int64) ([]*ActiveGrant, error)
	History(ctx context.Context, userID int64) ([]*permissionDatamodel.UserPermission, error)
	FirstActivePermissionForScreen(ctx context.Context, screenName string) (*permissionDatamodel.Permission, error)
}

type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
}

// Grant assigns a permission to a user. At most one active grant exists per
// (user, permission) pair; a concurrent duplicate loses on the unique index.
func (s *Service) Grant(ctx context.Context, userID, permissionID, grantedBy int64) (*Grant, error) {
	var row *permissionDatamodel.UserPermission
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		var err error
		row, err = s.grant(ctx, repo, userID, permissionID, grantedBy)
		return err
	})
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			return nil, internal.ErrAlreadyGranted
		}
		return nil, s.passThrough("failed to grant permission", err)
	}

	s.logger.InfoContext(ctx, "permission granted",
		"grant_id", row.ID,
		"user_id", userID,
		"permission_id", permissionID,
		"granted_by", grantedBy)
	s.publish(ctx, events.NewGrantGrantedEvent(grantedBy, row.ID, userID, permissionID))
	return FromDataModel(row), nil
}

func (s *Service) grant(ctx context.Context, repo RepositoryAPI, userID, permissionID, grantedBy int64) (*permissionDatamodel.UserPermission, error) {
	ok, err := repo.UserActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrUnknownUser
	}

	ok, err = repo.PermissionActive(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, internal.ErrUnknownPermission
	}

	existing, err := repo.FindActive(ctx, userID, permissionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, internal.ErrAlreadyGranted
	}

	row := &permissionDatamodel.UserPermission{
		UserID:       userID,
		PermissionID: permissionID,
		GrantedAt:    s.now(),
	}
	if grantedBy > 0 {
		row.GrantedBy = &grantedBy
	}
	row.Init()

	if err := repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Revoke archives a grant by id. Revoking an already revoked grant succeeds
// without touching the row.
func (s *Service) Revoke(ctx context.Context, grantID, actorID int64) error {
	var revoked *permissionDatamodel.UserPermission
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, grantID)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrGrantNotFound
		}
		if row.IsArchived() {
			return nil
		}
		changed, err := archive(ctx, repo, row)
		if err != nil {
			return err
		}
		if changed {
			revoked = row
		}
		return nil
	})
	if err != nil {
		return s.passThrough("failed to revoke grant", err)
	}

	s.afterRevoke(ctx, actorID, revoked)
	return nil
}

// RevokeByPair archives the active grant of permissionID to userID, if any.
func (s *Service) RevokeByPair(ctx context.Context, userID, permissionID, actorID int64) error {
	var revoked *permissionDatamodel.UserPermission
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.FindActive(ctx, userID, permissionID)
		if err != nil || row == nil {
			return err
		}
		changed, err := archive(ctx, repo, row)
		if err != nil {
			return err
		}
		if changed {
			revoked = row
		}
		return nil
	})
	if err != nil {
		return s.passThrough("failed to revoke grant", err)
	}

	s.afterRevoke(ctx, actorID, revoked)
	return nil
}

// archive reports false when a concurrent writer revoked the row first.
func archive(ctx context.Context, repo RepositoryAPI, row *permissionDatamodel.UserPermission) (bool, error) {
	expected := row.Version
	row.Archive()
	return repo.ArchiveVersioned(ctx, row, expected)
}

func (s *Service) afterRevoke(ctx context.Context, actorID int64, row *permissionDatamodel.UserPermission) {
	if row == nil {
		return
	}
	s.logger.InfoContext(ctx, "grant revoked",
		"grant_id", row.ID,
		"user_id", row.UserID,
		"permission_id", row.PermissionID,
		"actor_id", actorID)
	s.publish(ctx, events.NewGrantRevokedEvent(actorID, row.ID, row.UserID, row.PermissionID))
}

// ListActiveForUser returns the user's live grants ordered by grant time.
// Grants of archived permissions are left out.
func (s *Service) ListActiveForUser(ctx context.Context, userID int64) ([]*ActiveGrant, error) {
	grants, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, s.internal("failed to list grants", err)
	}
	if grants == nil {
		grants = []*ActiveGrant{}
	}
	return grants, nil
}

// History returns every grant row of the user, revoked ones included.
func (s *Service) History(ctx context.Context, userID int64) ([]*Grant, error) {
	rows, err := s.repo.History(ctx, userID)
	if err != nil {
		return nil, s.internal("failed to load grant history", err)
	}
	out := make([]*Grant, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// ReconcileScreens brings a user's screen grants in line with entries in a
// single transaction. Each screen resolves to its lowest-id active
// permission; screens with no such permission are skipped.
func (s *Service) ReconcileScreens(ctx context.Context, userID, grantedBy int64, entries []ScreenAccess) (ReconcileSummary, error) {
	var (
		summary ReconcileSummary
		pending []events.Event
	)
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		summary = ReconcileSummary{}
		pending = nil

		ok, err := repo.UserActive(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrUnknownUser
		}

		for _, entry := range entries {
			perm, err := repo.FirstActivePermissionForScreen(ctx, entry.ScreenName)
			if err != nil {
				return err
			}
			if perm == nil {
				summary.Skipped++
				continue
			}

			active, err := repo.FindActive(ctx, userID, perm.ID)
			if err != nil {
				return err
			}

			switch {
			case entry.HasAccess && active == nil:
				row, err := s.grant(ctx, repo, userID, perm.ID, grantedBy)
				if err != nil {
					return err
				}
				summary.Granted++
				pending = append(pending, events.NewGrantGrantedEvent(grantedBy, row.ID, userID, perm.ID))
			case !entry.HasAccess && active != nil:
				changed, err := archive(ctx, repo, active)
				if err != nil {
					return err
				}
				if !changed {
					summary.Unchanged++
					continue
				}
				summary.Revoked++
				pending = append(pending, events.NewGrantRevokedEvent(grantedBy, active.ID, userID, perm.ID))
			default:
				summary.Unchanged++
			}
		}
		return nil
	})
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			return ReconcileSummary{}, internal.ErrAlreadyGranted
		}
		return ReconcileSummary{}, s.passThrough("failed to reconcile screen access", err)
	}

	s.logger.InfoContext(ctx, "screen access reconciled",
		"user_id", userID,
		"granted_by", grantedBy,
		"granted", summary.Granted,
		"revoked", summary.Revoked,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped)
	for _, e := range pending {
		s.publish(ctx, e)
	}
	return summary, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish grant event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) passThrough(message string, err error) error {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return s.internal(message, err)
}

func (s *Service) internal(message string, err error) error {
	s.logger.Error(message, "error", err)
	return internal.NewInternalError(message, err)
}
