package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps the desk's audit trail in process. It backs tests and
// deployments without Postgres; restarts lose the trail.
type MemoryRepo struct {
	mu  sync.Mutex
	log []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	r.log = append(r.log, e)
	r.mu.Unlock()
	return nil
}

// Events returns the whole trail in append order.
func (r *MemoryRepo) Events() []Event {
	return r.EventsFor("", "")
}

// EventsFor returns events of typ about subject, oldest first. An empty typ
// or subject matches any, so EventsFor(EventTypeComplaintResolved, "c-1")
// is the resolution history of one complaint.
func (r *MemoryRepo) EventsFor(typ EventType, subject string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.log {
		if typ != "" && e.Type != typ {
			continue
		}
		if subject != "" && e.Subject != subject {
			continue
		}
		out = append(out, e)
	}
	return out
}
