package reporting

import (
	"context"

	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
)

// MemoryRepo is a simple in-memory reporting repository for tests.
type MemoryRepo struct {
	Complaints []complaints.Complaint
	Days       []campaign.DailyStats
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListComplaints(ctx context.Context, rng complaints.Range) ([]complaints.Complaint, error) {
	out := make([]complaints.Complaint, 0, len(r.Complaints))
	for _, c := range r.Complaints {
		if rng.Contains(c.Date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListCampaign(ctx context.Context, rng complaints.Range) ([]campaign.DailyStats, error) {
	out := make([]campaign.DailyStats, 0, len(r.Days))
	for _, d := range r.Days {
		if rng.Contains(d.Date) {
			out = append(out, d)
		}
	}
	return out, nil
}
