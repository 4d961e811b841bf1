package complaints

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Complaint

	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byID: map[string]Complaint{}} }

func (r *MemoryRepo) Upsert(ctx context.Context, c Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if prev, ok := r.byID[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
		c.Manager = keptManager(prev, c)
	}
	r.byID[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Complaint{}, r.Err
	}
	c, ok := r.byID[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, rng Range) ([]Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]Complaint, 0, len(r.byID))
	for _, c := range r.byID {
		if rng.Contains(c.Date) {
			out = append(out, c)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) Resolve(ctx context.Context, id string, res Resolution, now time.Time) (Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return Complaint{}, r.Err
	}
	cur, ok := r.byID[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	next, err := ApplyResolution(cur, res, now)
	if err != nil {
		return Complaint{}, err
	}
	r.byID[id] = next
	return next, nil
}

// Mutate runs fn against a copy of the stored records and commits the copy
// only when fn succeeds, giving callers all-or-nothing multi-record updates.
func (r *MemoryRepo) Mutate(fn func(records map[string]Complaint) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	work := make(map[string]Complaint, len(r.byID))
	for k, v := range r.byID {
		work[k] = v
	}
	if err := fn(work); err != nil {
		return err
	}
	r.byID = work
	return nil
}

// keptManager is the manager an upsert leaves on a stored row: a resolved
// row keeps its own, and a blank incoming manager changes nothing.
func keptManager(stored, incoming Complaint) string {
	if stored.Status == StatusResolved || incoming.Manager == "" {
		return stored.Manager
	}
	return incoming.Manager
}
