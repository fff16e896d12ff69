package permission

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	permissionDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/permission"
	"github.com/frahmantamala/inventory-management/internal/core/events"
)

type RepositoryAPI interface {
	RunInTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error)
	Search(ctx context.Context, id int64, name string) ([]*permissionDatamodel.Permission, error)
	ListActive(ctx context.Context) ([]*permissionDatamodel.Permission, error)
	ListScreens(ctx context.Context) ([]Screen, error)
	Create(ctx context.Context, p *permissionDatamodel.Permission) error
	UpdateVersioned(ctx context.Context, p *permissionDatamodel.Permission, expectedVersion int64) (bool, error)
}

type Service struct {
	repo   RepositoryAPI
	events events.Publisher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// Create adds a permission to the catalog. Two permissions may share a
// (module, screen_name, action_type) triple; callers keep those distinct.
func (s *Service) Create(ctx context.Context, actorID int64, dto CreatePermissionDTO) (*Permission, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &permissionDatamodel.Permission{
		Name:       dto.Name,
		Module:     dto.Module,
		ActionType: dto.ActionType,
		ScreenName: dto.ScreenName,
		CanRead:    *dto.CanRead,
		CanWrite:   *dto.CanWrite,
		CanDelete:  *dto.CanDelete,
	}
	row.Init()

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.internal("failed to create permission", err)
	}

	s.logger.InfoContext(ctx, "permission created", "permission_id", row.ID, "name", row.Name, "actor_id", actorID)
	s.publish(ctx, events.NewPermissionCreatedEvent(actorID, row.ID, row.Name))
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actorID, id int64, dto UpdatePermissionDTO) (*Permission, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var (
		updated *Permission
		changed []string
	)
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil || row.IsArchived() {
			return internal.ErrPermissionNotFound
		}
		if dto.Version != 0 && dto.Version != row.Version {
			return internal.ErrVersionConflict
		}

		p := FromDataModel(row)
		changed = dto.apply(p)

		next := ToDataModel(p)
		ok, err := repo.UpdateVersioned(ctx, next, row.Version)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrVersionConflict
		}
		updated = FromDataModel(next)
		return nil
	})
	if err != nil {
		return nil, s.passThrough("failed to update permission", err)
	}

	s.logger.InfoContext(ctx, "permission updated", "permission_id", id, "changed", changed, "actor_id", actorID)
	s.publish(ctx, events.NewPermissionUpdatedEvent(actorID, id, changed))
	return updated, nil
}

// Archive soft-deletes a permission. Grants that reference it stay as they
// are; every read path already ignores archived permissions.
func (s *Service) Archive(ctx context.Context, actorID, id int64) error {
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil || row.IsArchived() {
			return internal.ErrPermissionNotFound
		}

		expected := row.Version
		row.Archive()
		ok, err := repo.UpdateVersioned(ctx, row, expected)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return s.passThrough("failed to archive permission", err)
	}

	s.logger.InfoContext(ctx, "permission archived", "permission_id", id, "actor_id", actorID)
	s.publish(ctx, events.NewPermissionArchivedEvent(actorID, id))
	return nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*Permission, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal("failed to get permission", err)
	}
	if row == nil || row.IsArchived() {
		return nil, internal.ErrPermissionNotFound
	}
	return FromDataModel(row), nil
}

// FindByNameOrID matches a numeric identifier by id, and any identifier by
// name, exactly or as a case-insensitive substring.
func (s *Service) FindByNameOrID(ctx context.Context, identifier string) ([]*Permission, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, internal.NewValidationFieldError("q", "search term is required", internal.ErrCodeRequired)
	}

	var id int64
	if n, err := strconv.ParseInt(identifier, 10, 64); err == nil && n > 0 {
		id = n
	}

	rows, err := s.repo.Search(ctx, id, identifier)
	if err != nil {
		return nil, s.internal("failed to search permissions", err)
	}
	if len(rows) == 0 {
		return nil, internal.ErrPermissionNotFound
	}
	return fromRows(rows), nil
}

// ListActive returns every non-archived permission ordered by id.
func (s *Service) ListActive(ctx context.Context) ([]*Permission, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, s.internal("failed to list permissions", err)
	}
	return fromRows(rows), nil
}

func (s *Service) ListScreens(ctx context.Context) ([]Screen, error) {
	screens, err := s.repo.ListScreens(ctx)
	if err != nil {
		return nil, s.internal("failed to list screens", err)
	}
	if screens == nil {
		screens = []Screen{}
	}
	return screens, nil
}

func fromRows(rows []*permissionDatamodel.Permission) []*Permission {
	out := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish permission event", "event_type", event.EventType(), "error", err)
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
