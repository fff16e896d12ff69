package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	platformdb "github.com/frahmantamala/inventory-management/internal/platform/db"
	"golang.org/x/crypto/bcrypt"
)

// ArchiveResult counts what a user archival cascaded to.
type ArchiveResult struct {
	ExpiredSessions int64
	RevokedGrants   int64
}

type RepositoryAPI interface {
	RunInTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetActiveByUsername(ctx context.Context, username string) (*userDatamodel.User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	List(ctx context.Context, includeArchived bool) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	UpdateVersioned(ctx context.Context, u *userDatamodel.User, expectedVersion int64) (bool, error)
	Archive(ctx context.Context, id int64, at time.Time) (ArchiveResult, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	CountDependents(ctx context.Context, id int64, at time.Time) (internal.DependentCounts, error)
	HardDelete(ctx context.Context, id int64) error
}

type Service struct {
	repo       RepositoryAPI
	events     events.Publisher
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryAPI, publisher events.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		events:     publisher,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate checks a username/password pair. The username match is case
// sensitive and only considers non-archived users.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	row, err := s.repo.GetActiveByUsername(ctx, username)
	if err != nil {
		return nil, s.internal("failed to look up user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	if !row.IsActive {
		return nil, internal.ErrAccountDisabled
	}

	if err := s.repo.TouchLastLogin(ctx, row.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", row.ID, "error", err)
	}

	return FromDataModel(row).Identity(), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.internal("failed to get user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, includeArchived bool) ([]*User, error) {
	rows, err := s.repo.List(ctx, includeArchived)
	if err != nil {
		return nil, s.internal("failed to list users", err)
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

// Save creates or updates a user and records the role/active deltas.
func (s *Service) Save(ctx context.Context, actorID int64, dto SaveUserDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var hash string
	if dto.Password != "" {
		h, err := s.HashPassword(dto.Password)
		if err != nil {
			return nil, s.internal("failed to hash password", err)
		}
		hash = h
	}

	var (
		saved *userDatamodel.User
		event *events.AccessEvent
	)
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		taken, err := repo.UsernameTaken(ctx, dto.Username, dto.ID)
		if err != nil {
			return err
		}
		if taken {
			return internal.ErrUsernameTaken
		}

		if dto.IsCreate() {
			row := &userDatamodel.User{
				Username:     dto.Username,
				DisplayName:  dto.DisplayName,
				PasswordHash: hash,
				Role:         dto.Role,
				IsActive:     dto.IsActive == nil || *dto.IsActive,
			}
			row.Init()
			if err := repo.Create(ctx, row); err != nil {
				return err
			}
			saved = row
			event = events.NewUserCreatedEvent(actorID, row.ID, map[string]interface{}{
				"username":  row.Username,
				"role":      row.Role,
				"is_active": row.IsActive,
			})
			return nil
		}

		row, err := repo.GetByID(ctx, dto.ID)
		if err != nil {
			return err
		}
		if row == nil || row.IsArchived() {
			return internal.ErrUserNotFound
		}
		if dto.Version != 0 && dto.Version != row.Version {
			return internal.ErrVersionConflict
		}

		oldRole, oldActive := row.Role, row.IsActive
		expected := row.Version

		row.Username = dto.Username
		row.DisplayName = dto.DisplayName
		row.Role = dto.Role
		if dto.IsActive != nil {
			row.IsActive = *dto.IsActive
		}
		if hash != "" {
			row.PasswordHash = hash
		}

		ok, err := repo.UpdateVersioned(ctx, row, expected)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrVersionConflict
		}
		saved = row
		event = events.NewUserUpdatedEvent(actorID, row.ID, map[string]interface{}{
			"old_role":         oldRole,
			"new_role":         row.Role,
			"old_is_active":    oldActive,
			"new_is_active":    row.IsActive,
			"password_changed": hash != "",
		})
		return nil
	})
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			return nil, internal.ErrUsernameTaken
		}
		return nil, s.passThrough("failed to save user", err)
	}

	s.logger.InfoContext(ctx, "user saved", "user_id", saved.ID, "actor_id", actorID, "version", saved.Version)
	s.publish(ctx, event)
	return FromDataModel(saved), nil
}

// Archive soft-deletes a user, expires their sessions and archives their grants.
func (s *Service) Archive(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return internal.ErrSelfArchivalForbidden
	}

	var result ArchiveResult
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil || row.IsArchived() {
			return internal.ErrUserNotFound
		}
		result, err = repo.Archive(ctx, id, s.now())
		return err
	})
	if err != nil {
		return s.passThrough("failed to archive user", err)
	}

	s.logger.InfoContext(ctx, "user archived",
		"user_id", id,
		"actor_id", actorID,
		"expired_sessions", result.ExpiredSessions,
		"revoked_grants", result.RevokedGrants)
	s.publish(ctx, events.NewUserArchivedEvent(actorID, id, result.ExpiredSessions))
	return nil
}

// PermanentlyDelete removes a user row that nothing live depends on.
func (s *Service) PermanentlyDelete(ctx context.Context, id, actorID int64) error {
	var username string
	err := s.repo.RunInTx(ctx, func(repo RepositoryAPI) error {
		row, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return internal.ErrUserNotFound
		}
		counts, err := repo.CountDependents(ctx, id, s.now())
		if err != nil {
			return err
		}
		if counts.Any() {
			return internal.NewHasDependentsError(counts)
		}
		username = row.Username
		return repo.HardDelete(ctx, id)
	})
	if err != nil {
		return s.passThrough("failed to delete user", err)
	}

	s.logger.InfoContext(ctx, "user permanently deleted", "user_id", id, "actor_id", actorID)
	s.publish(ctx, events.NewUserDeletedEvent(actorID, id, username))
	return nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.events == nil || event == nil {
		return
	}
	if err := s.events.PublishSync(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish user event", "event_type", event.EventType(), "error", err)
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
