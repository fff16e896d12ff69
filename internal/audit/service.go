package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, row *auditDatamodel.AuditLog) error
	ListForRecord(ctx context.Context, table string, recordID int64) ([]*auditDatamodel.AuditLog, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record writes one audit row. A zero timestamp means now.
func (s *Service) Record(ctx context.Context, e *Entry) error {
	if e.ActionType == "" || e.ActionTable == "" {
		return internal.NewValidationError("audit entry requires action type and table", internal.ErrCodeValidationFailed)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	row, err := ToDataModel(e)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	e.ID = row.ID
	return nil
}

func (s *Service) ListForRecord(ctx context.Context, table string, recordID int64) ([]*Entry, error) {
	rows, err := s.repo.ListForRecord(ctx, table, recordID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit entries", "table", table, "record_id", recordID, "error", err)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}
	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	return entries, nil
}

// HandleAccessEvent turns an access-control event into an audit row. The
// client IP is taken from the publishing request's context.
func (s *Service) HandleAccessEvent(ctx context.Context, event events.Event) error {
	accessEvent, ok := event.(*events.AccessEvent)
	if !ok {
		s.logger.Error("invalid event type for audit handler", "event_type", event.EventType())
		return fmt.Errorf("expected AccessEvent, got %T", event)
	}

	entry := &Entry{
		ActionType:  accessEvent.Action,
		ActionTable: accessEvent.Table,
		RecordID:    accessEvent.RecordID,
		Details:     accessEvent.Data,
		IPAddress:   internal.ClientIPFromContext(ctx),
		Timestamp:   accessEvent.OccurredAt(),
	}
	if accessEvent.ActorID > 0 {
		actorID := accessEvent.ActorID
		entry.ActorID = &actorID
	}

	if err := s.Record(ctx, entry); err != nil {
		return fmt.Errorf("audit %s event %s: %w", event.EventType(), event.EventID(), err)
	}
	return nil
}

func (s *Service) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.SubscribeAll(events.AuditableTypes, s.HandleAccessEvent)

	s.logger.Info("audit event handlers registered", "handlers", events.AuditableTypes)
}
