package areas

import (
	"context"
	"sort"
	"sync"
	"time"

	"quality-desk/internal/complaints"
)

// MemoryRepo applies reassignments to a complaints.MemoryRepo with the same
// all-or-nothing rule as the Postgres implementation.
type MemoryRepo struct {
	mu          sync.Mutex
	assignments map[string]Assignment
	records     *complaints.MemoryRepo

	// FailCascade, when set, fails the cascade step after the mapping was
	// staged, forcing a rollback of both.
	FailCascade error
}

func NewMemoryRepo(records *complaints.MemoryRepo) *MemoryRepo {
	if records == nil {
		records = complaints.NewMemoryRepo()
	}
	return &MemoryRepo{assignments: map[string]Assignment{}, records: records}
}

func (r *MemoryRepo) Reassign(ctx context.Context, area, manager string, now time.Time) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := Assignment{Area: area, Manager: manager, UpdatedAt: now.UTC()}
	out := Result{Area: area, Manager: manager}
	err := r.records.Mutate(func(records map[string]complaints.Complaint) error {
		for id, c := range records {
			if c.Area != area || !complaints.EligibleForReassignment(c.Status) {
				continue
			}
			c.Manager = manager
			c.UpdatedAt = now.UTC()
			records[id] = c
			out.Affected++
		}
		return r.FailCascade
	})
	if err != nil {
		return Result{}, err
	}
	r.assignments[area] = staged
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Assignment, 0, len(r.assignments))
	for _, a := range r.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	return out, nil
}

func (r *MemoryRepo) ManagerFor(ctx context.Context, area string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[area]
	return a.Manager, ok, nil
}
