package operators

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Operator
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byID: map[string]Operator{}} }

func (r *MemoryRepo) Insert(ctx context.Context, o Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == o.Username {
			return ErrUsernameTaken
		}
	}
	r.byID[o.ID] = o
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, o Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[o.ID]; !ok {
		return ErrNotFound
	}
	r.byID[o.ID] = o
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return Operator{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.byID {
		if o.Username == username {
			return o, nil
		}
	}
	return Operator{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context) ([]Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Operator, 0, len(r.byID))
	for _, o := range r.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *MemoryRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}
