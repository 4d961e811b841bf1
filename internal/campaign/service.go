package campaign

import (
	"context"
	"errors"
	"time"

	"quality-desk/internal/complaints"
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, clock: time.Now} }

func (s *Service) Record(ctx context.Context, d DailyStats) (DailyStats, error) {
	if s.repo == nil {
		return DailyStats{}, errors.New("campaign: repository not configured")
	}
	out, err := Normalize(d, s.clock())
	if err != nil {
		return DailyStats{}, err
	}
	if err := s.repo.Upsert(ctx, out); err != nil {
		return DailyStats{}, err
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, r complaints.Range) ([]DailyStats, error) {
	if s.repo == nil {
		return nil, errors.New("campaign: repository not configured")
	}
	if err := complaints.ValidateRange(r); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, r)
}
