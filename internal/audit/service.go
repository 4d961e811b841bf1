package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records who changed what. Callers should treat audit logging as
// best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.Subject == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAreaReassigned records a committed manager reassignment.
func (s *Service) LogAreaReassigned(ctx context.Context, actorID, actorRole, area, manager string, affected int64) error {
	meta, _ := json.Marshal(map[string]any{"manager": manager, "affected": affected})
	return s.Append(ctx, Event{
		Type:      EventTypeAreaReassigned,
		ActorID:   actorID,
		ActorRole: actorRole,
		Subject:   area,
		Message:   fmt.Sprintf("manager set to %s; %d open complaints moved", manager, affected),
		Metadata:  string(meta),
	})
}

func (s *Service) LogOperatorChanged(ctx context.Context, actorID, actorRole, operatorID, message string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeOperatorChanged,
		ActorID:   actorID,
		ActorRole: actorRole,
		Subject:   operatorID,
		Message:   message,
	})
}

func (s *Service) LogComplaintResolved(ctx context.Context, actorID, actorRole, complaintID, status string) error {
	return s.Append(ctx, Event{
		Type:      EventTypeComplaintResolved,
		ActorID:   actorID,
		ActorRole: actorRole,
		Subject:   complaintID,
		Message:   "status set to " + status,
	})
}
