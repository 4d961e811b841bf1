package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrConflict rejects a session start while another session is current.
// The current session is kept.
var ErrConflict = errors.New("calls: a session is already in progress")

var ErrInvalidDirection = errors.New("calls: direction must be incoming or outgoing")

// DefaultHistoryCap bounds the finished-call history.
const DefaultHistoryCap = 50

// Guard extends the one-session rule beyond a single process. Acquire must
// return an error wrapping ErrConflict when another session holds the guard.
type Guard interface {
	Acquire(ctx context.Context, sessionID string) error
	Release(ctx context.Context, sessionID string) error
}

type Option func(*Tracker)

func WithHistoryCap(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.cap = n
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

func WithGuard(g Guard) Option {
	return func(t *Tracker) { t.guard = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Tracker is the session state machine:
//
//	none → ringing → active → ended (history) → none
//	ringing/active → failed → none (no history)
//
// Its only side effect is notifying subscribers.
type Tracker struct {
	mu      sync.Mutex
	current *CallSession
	history []CallSession
	// starting reserves the slot while OnSessionStart waits on the guard.
	starting bool

	cap   int
	clock func() time.Time
	guard Guard
	log   *slog.Logger

	subs   []subscriber
	nextID int
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{cap: DefaultHistoryCap, clock: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// OnSessionStart exposes a new ringing session as current.
func (t *Tracker) OnSessionStart(ctx context.Context, st Start) (CallSession, error) {
	if !st.Direction.Valid() {
		return CallSession{}, ErrInvalidDirection
	}

	t.mu.Lock()
	if t.current != nil {
		cur := *t.current
		t.mu.Unlock()
		return CallSession{}, fmt.Errorf("%w: %s is %s", ErrConflict, cur.ID, cur.Status)
	}
	if t.starting {
		t.mu.Unlock()
		return CallSession{}, fmt.Errorf("%w: a session is being started", ErrConflict)
	}
	id := st.ID
	if id == "" {
		id = uuid.NewString()
	}
	// The slot is reserved while the guard talks to its backend unlocked.
	t.starting = true
	t.mu.Unlock()

	if t.guard != nil {
		if err := t.guard.Acquire(ctx, id); err != nil {
			if errors.Is(err, ErrConflict) {
				t.mu.Lock()
				t.starting = false
				t.mu.Unlock()
				return CallSession{}, err
			}
			// The in-process rule still holds when the shared guard is down.
			t.log.Warn("session guard unavailable; using local guard only", "err", err, "session_id", id)
		}
	}

	t.mu.Lock()
	t.starting = false
	s := CallSession{
		ID:        id,
		Number:    st.Number,
		Status:    StatusRinging,
		Direction: st.Direction,
		StartedAt: t.clock().UTC(),
	}
	t.current = &s
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return s, nil
}

// OnAccepted moves a ringing session to active. With no ringing session it
// is a no-op and reports false.
func (t *Tracker) OnAccepted(ctx context.Context) bool {
	t.mu.Lock()
	if t.current == nil || t.current.Status != StatusRinging {
		t.mu.Unlock()
		return false
	}
	t.current.Status = StatusActive
	t.current.AcceptedAt = t.clock().UTC()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return true
}

// OnEnded finishes the current session, appends it to history and clears
// it. With no current session it is a no-op and reports false.
func (t *Tracker) OnEnded(ctx context.Context) bool {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return false
	}
	ended := *t.current
	ended.Status = StatusEnded
	ended.EndedAt = t.clock().UTC()
	t.history = append(t.history, ended)
	if over := len(t.history) - t.cap; over > 0 {
		t.history = append([]CallSession(nil), t.history[over:]...)
	}
	t.current = nil
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.release(ctx, ended.ID)
	t.notify(snap)
	return true
}

// OnFailed discards the current session without a history entry.
func (t *Tracker) OnFailed(ctx context.Context) bool {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return false
	}
	id := t.current.ID
	t.current = nil
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.release(ctx, id)
	t.notify(snap)
	return true
}

func (t *Tracker) Current() (CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return CallSession{}, false
	}
	return *t.current, true
}

// History returns finished sessions, oldest first.
func (t *Tracker) History() []CallSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CallSession(nil), t.history...)
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Subscribe registers fn for every state change. Call the returned func to
// stop receiving. fn runs on the goroutine that delivered the event and must
// not call back into the tracker's event methods.
func (t *Tracker) Subscribe(fn func(Snapshot)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs = append(t.subs, subscriber{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	now := t.clock().UTC()
	snap := Snapshot{History: append([]CallSession(nil), t.history...), At: now}
	if t.current != nil {
		cur := *t.current
		snap.Current = &cur
		snap.ElapsedSeconds = int(cur.Elapsed(now) / time.Second)
	}
	return snap
}

func (t *Tracker) notify(snap Snapshot) {
	t.mu.Lock()
	subs := append([]subscriber(nil), t.subs...)
	t.mu.Unlock()
	for _, s := range subs {
		s.fn(snap)
	}
}

func (t *Tracker) release(ctx context.Context, sessionID string) {
	if t.guard == nil {
		return
	}
	if err := t.guard.Release(ctx, sessionID); err != nil {
		t.log.Warn("session guard release failed", "err", err, "session_id", sessionID)
	}
}
