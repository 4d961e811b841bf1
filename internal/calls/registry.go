package calls

import "sync"

// Registry holds one Tracker per operator, created on first use.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	build    func(operatorID string) *Tracker
}

// NewRegistry uses build to create trackers. A nil build creates trackers
// with default options.
func NewRegistry(build func(operatorID string) *Tracker) *Registry {
	if build == nil {
		build = func(string) *Tracker { return NewTracker() }
	}
	return &Registry{trackers: map[string]*Tracker{}, build: build}
}

func (r *Registry) For(operatorID string) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[operatorID]
	if !ok {
		t = r.build(operatorID)
		r.trackers[operatorID] = t
	}
	return t
}
