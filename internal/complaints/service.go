package complaints

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ManagerLookup resolves the current manager of an area.
type ManagerLookup interface {
	ManagerFor(ctx context.Context, area string) (string, bool, error)
}

type Service struct {
	repo     Repository
	managers ManagerLookup
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, managers ManagerLookup) *Service {
	return &Service{repo: repo, managers: managers, clock: time.Now}
}

// Create validates c and stores it. Records arrive with client-generated ids;
// a missing id gets a fresh uuid. Re-sending the same id updates the record.
func (s *Service) Create(ctx context.Context, c Complaint) (Complaint, error) {
	if s.repo == nil {
		return Complaint{}, errors.New("complaints: repository not configured")
	}
	out, err := Normalize(c, s.clock())
	if err != nil {
		return Complaint{}, err
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Manager == "" && s.managers != nil {
		// A replayed record keeps whatever manager the stored row has.
		stored, err := s.repo.Get(ctx, out.ID)
		switch {
		case err == nil:
			out.Manager = stored.Manager
		case errors.Is(err, ErrNotFound):
			m, ok, err := s.managers.ManagerFor(ctx, out.Area)
			if err != nil {
				return Complaint{}, err
			}
			if ok {
				out.Manager = m
			}
		case err != nil:
			return Complaint{}, err
		}
	}
	if err := s.repo.Upsert(ctx, out); err != nil {
		return Complaint{}, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, r Range) ([]Complaint, error) {
	if s.repo == nil {
		return nil, errors.New("complaints: repository not configured")
	}
	if err := ValidateRange(r); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, r)
}

func (s *Service) Get(ctx context.Context, id string) (Complaint, error) {
	if strings.TrimSpace(id) == "" {
		return Complaint{}, invalid("id", "required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Resolve(ctx context.Context, id string, r Resolution) (Complaint, error) {
	if s.repo == nil {
		return Complaint{}, errors.New("complaints: repository not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Complaint{}, invalid("id", "required")
	}
	if !r.Status.Valid() {
		return Complaint{}, invalid("status", "unknown status")
	}
	return s.repo.Resolve(ctx, id, r, s.clock())
}
