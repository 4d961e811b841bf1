package areas

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"quality-desk/internal/complaints"
)

// Auditor records committed reassignments. Failures never undo the change.
type Auditor interface {
	LogAreaReassigned(ctx context.Context, actorID, actorRole, area, manager string, affected int64) error
}

type Service struct {
	repo  Repository
	audit Auditor
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, audit Auditor, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, audit: audit, log: log, clock: time.Now}
}

// Reassign hands area over to manager. Callers never observe the mapping
// without the cascade: both are one store operation.
func (s *Service) Reassign(ctx context.Context, actorID, actorRole, area, manager string) (Result, error) {
	if s.repo == nil {
		return Result{}, errors.New("areas: repository not configured")
	}
	area = strings.TrimSpace(area)
	manager = strings.TrimSpace(manager)
	if area == "" {
		return Result{}, &complaints.ValidationError{Field: "area", Reason: "required"}
	}
	if manager == "" {
		return Result{}, &complaints.ValidationError{Field: "manager", Reason: "required"}
	}

	res, err := s.repo.Reassign(ctx, area, manager, s.clock())
	if err != nil {
		return Result{}, err
	}
	s.log.Info("area reassigned", "area", area, "manager", manager, "affected", res.Affected)

	if s.audit != nil {
		if err := s.audit.LogAreaReassigned(ctx, actorID, actorRole, area, manager, res.Affected); err != nil {
			s.log.Warn("audit append failed", "err", err, "area", area)
		}
	}
	return res, nil
}

func (s *Service) List(ctx context.Context) ([]Assignment, error) {
	if s.repo == nil {
		return nil, errors.New("areas: repository not configured")
	}
	return s.repo.List(ctx)
}

// ManagerFor lets complaints.Service fill the manager of new records.
func (s *Service) ManagerFor(ctx context.Context, area string) (string, bool, error) {
	if s.repo == nil {
		return "", false, nil
	}
	return s.repo.ManagerFor(ctx, strings.TrimSpace(area))
}
