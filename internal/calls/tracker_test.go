package calls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1700000000, 0).UTC()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	tr := NewTracker(WithClock(clock.Now))

	s, err := tr.OnSessionStart(ctx, Start{Number: "5551234", Direction: DirectionIncoming})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.Status != StatusRinging || s.ID == "" {
		t.Fatalf("expected ringing session with id, got %+v", s)
	}

	clock.Advance(3 * time.Second)
	if !tr.OnAccepted(ctx) {
		t.Fatalf("expected accept to apply")
	}
	cur, _ := tr.Current()
	if cur.Status != StatusActive {
		t.Fatalf("expected active, got %s", cur.Status)
	}

	clock.Advance(42 * time.Second)
	if got := cur.Elapsed(clock.Now()); got != 42*time.Second {
		t.Fatalf("expected 42s elapsed, got %v", got)
	}

	if !tr.OnEnded(ctx) {
		t.Fatalf("expected end to apply")
	}
	if _, ok := tr.Current(); ok {
		t.Fatalf("current must be cleared")
	}
	h := tr.History()
	if len(h) != 1 || h[0].Status != StatusEnded || h[0].ID != s.ID {
		t.Fatalf("unexpected history: %+v", h)
	}

	clock.Advance(time.Hour)
	if got := h[0].Elapsed(clock.Now()); got != 42*time.Second {
		t.Fatalf("elapsed must freeze at end, got %v", got)
	}
}

func TestTracker_SecondStartIsRejected(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()

	a, err := tr.OnSessionStart(ctx, Start{ID: "A", Direction: DirectionOutgoing})
	if err != nil {
		t.Fatalf("start A: %v", err)
	}
	_, err = tr.OnSessionStart(ctx, Start{ID: "B", Direction: DirectionIncoming})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	cur, ok := tr.Current()
	if !ok || cur.ID != a.ID || cur.Status != StatusRinging {
		t.Fatalf("A must remain current, got %+v", cur)
	}
}

func TestTracker_FailedLeavesNoHistory(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	if _, err := tr.OnSessionStart(ctx, Start{Direction: DirectionOutgoing}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !tr.OnFailed(ctx) {
		t.Fatalf("expected failure to apply")
	}
	if _, ok := tr.Current(); ok {
		t.Fatalf("current must be cleared")
	}
	if len(tr.History()) != 0 {
		t.Fatalf("failed attempts must not enter history")
	}
}

func TestTracker_EventsWithoutSessionAreNoOps(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	notified := 0
	tr.Subscribe(func(Snapshot) { notified++ })

	if tr.OnAccepted(ctx) || tr.OnEnded(ctx) || tr.OnFailed(ctx) {
		t.Fatalf("events with no current session must be no-ops")
	}
	if notified != 0 || len(tr.History()) != 0 {
		t.Fatalf("no-ops must not notify or record")
	}
}

func TestTracker_RejectsUnknownDirection(t *testing.T) {
	if _, err := NewTracker().OnSessionStart(context.Background(), Start{Direction: "sideways"}); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}

func TestTracker_HistoryEvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()
	for i := 0; i < DefaultHistoryCap+10; i++ {
		if _, err := tr.OnSessionStart(ctx, Start{ID: fmt.Sprintf("call-%d", i), Direction: DirectionOutgoing}); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		tr.OnEnded(ctx)
	}
	h := tr.History()
	if len(h) != DefaultHistoryCap {
		t.Fatalf("expected %d entries, got %d", DefaultHistoryCap, len(h))
	}
	if h[0].ID != "call-10" || h[len(h)-1].ID != fmt.Sprintf("call-%d", DefaultHistoryCap+9) {
		t.Fatalf("unexpected window: first=%s last=%s", h[0].ID, h[len(h)-1].ID)
	}
}

// Random event sequences must keep the tracker's counting rules.
func TestTracker_RandomSequencesKeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 200; run++ {
		tr := NewTracker(WithHistoryCap(5))
		ended := 0
		for step := 0; step < 60; step++ {
			before := len(tr.History())
			_, hadCurrent := tr.Current()

			switch rng.Intn(4) {
			case 0:
				_, err := tr.OnSessionStart(ctx, Start{Direction: DirectionIncoming})
				if hadCurrent && !errors.Is(err, ErrConflict) {
					t.Fatalf("run %d: start over a current session must conflict", run)
				}
				if !hadCurrent && err != nil {
					t.Fatalf("run %d: start: %v", run, err)
				}
			case 1:
				tr.OnAccepted(ctx)
			case 2:
				applied := tr.OnEnded(ctx)
				if applied != hadCurrent {
					t.Fatalf("run %d: end applied=%v with current=%v", run, applied, hadCurrent)
				}
				if applied {
					ended++
					want := before + 1
					if want > 5 {
						want = 5
					}
					if got := len(tr.History()); got != want {
						t.Fatalf("run %d: expected history %d, got %d", run, want, got)
					}
				}
			case 3:
				tr.OnFailed(ctx)
				if got := len(tr.History()); got != before {
					t.Fatalf("run %d: failure changed history %d -> %d", run, before, got)
				}
			}
			if len(tr.History()) > 5 {
				t.Fatalf("run %d: history over cap", run)
			}
		}
		want := ended
		if want > 5 {
			want = 5
		}
		if got := len(tr.History()); got != want {
			t.Fatalf("run %d: expected %d history entries, got %d", run, want, got)
		}
	}
}

func TestTracker_SubscribersSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker()

	var seen []string
	cancel := tr.Subscribe(func(s Snapshot) {
		if s.Current == nil {
			seen = append(seen, "none")
			return
		}
		seen = append(seen, string(s.Current.Status))
	})

	_, _ = tr.OnSessionStart(ctx, Start{Direction: DirectionIncoming})
	tr.OnAccepted(ctx)
	tr.OnEnded(ctx)
	cancel()
	_, _ = tr.OnSessionStart(ctx, Start{Direction: DirectionIncoming})

	want := []string{"ringing", "active", "none"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
}

type fakeGuard struct {
	held     string
	released []string
}

func (g *fakeGuard) Acquire(ctx context.Context, id string) error {
	if g.held != "" {
		return fmt.Errorf("%w: held by %s", ErrConflict, g.held)
	}
	g.held = id
	return nil
}

func (g *fakeGuard) Release(ctx context.Context, id string) error {
	if g.held == id {
		g.held = ""
	}
	g.released = append(g.released, id)
	return nil
}

func TestTracker_GuardIsHeldForTheSessionLifetime(t *testing.T) {
	ctx := context.Background()
	g := &fakeGuard{}
	tr := NewTracker(WithGuard(g))

	s, err := tr.OnSessionStart(ctx, Start{Direction: DirectionOutgoing})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.held != s.ID {
		t.Fatalf("expected guard held by %s", s.ID)
	}
	tr.OnFailed(ctx)
	if g.held != "" || len(g.released) != 1 {
		t.Fatalf("expected guard released on failure")
	}
}

func TestTracker_GuardConflictKeepsTrackerEmpty(t *testing.T) {
	g := &fakeGuard{held: "other-replica"}
	tr := NewTracker(WithGuard(g))

	_, err := tr.OnSessionStart(context.Background(), Start{Direction: DirectionIncoming})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, ok := tr.Current(); ok {
		t.Fatalf("tracker must stay empty")
	}
}

type brokenGuard struct {
	// entered, when set, is closed once Acquire starts; Acquire then waits
	// for unblock.
	entered  chan struct{}
	unblock  chan struct{}
	released int
}

func (g *brokenGuard) Acquire(ctx context.Context, id string) error {
	if g.entered != nil {
		close(g.entered)
		<-g.unblock
	}
	return errors.New("redis: connection refused")
}

func (g *brokenGuard) Release(ctx context.Context, id string) error {
	g.released++
	return errors.New("redis: connection refused")
}

func TestTracker_GuardOutageFallsBackToLocalRule(t *testing.T) {
	ctx := context.Background()
	g := &brokenGuard{}
	tr := NewTracker(WithGuard(g), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	s, err := tr.OnSessionStart(ctx, Start{ID: "A", Direction: DirectionIncoming})
	if err != nil {
		t.Fatalf("expected start despite guard outage, got %v", err)
	}
	if cur, ok := tr.Current(); !ok || cur.ID != s.ID {
		t.Fatalf("expected A current, got %+v", cur)
	}
	if _, err := tr.OnSessionStart(ctx, Start{ID: "B", Direction: DirectionIncoming}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected local ErrConflict, got %v", err)
	}
	if !tr.OnEnded(ctx) || g.released != 1 {
		t.Fatalf("expected end to attempt a release, got %d", g.released)
	}
}

func TestTracker_GuardRunsOutsideTheLock(t *testing.T) {
	ctx := context.Background()
	g := &brokenGuard{entered: make(chan struct{}), unblock: make(chan struct{})}
	tr := NewTracker(WithGuard(g), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	started := make(chan error, 1)
	go func() {
		_, err := tr.OnSessionStart(ctx, Start{ID: "A", Direction: DirectionOutgoing})
		started <- err
	}()
	<-g.entered

	snapped := make(chan Snapshot, 1)
	go func() { snapped <- tr.Snapshot() }()
	select {
	case snap := <-snapped:
		if snap.Current != nil {
			t.Fatalf("session must not be current before the guard answers")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("snapshot blocked while the guard was waiting")
	}
	if _, err := tr.OnSessionStart(ctx, Start{ID: "B", Direction: DirectionIncoming}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while A is starting, got %v", err)
	}

	close(g.unblock)
	if err := <-started; err != nil {
		t.Fatalf("start: %v", err)
	}
	if cur, ok := tr.Current(); !ok || cur.ID != "A" {
		t.Fatalf("expected A current, got %+v", cur)
	}
}

func TestRegistry_ReturnsSameTrackerPerOperator(t *testing.T) {
	built := 0
	reg := NewRegistry(func(string) *Tracker { built++; return NewTracker() })
	a := reg.For("op-1")
	if reg.For("op-1") != a {
		t.Fatalf("expected same tracker")
	}
	if reg.For("op-2") == a {
		t.Fatalf("operators must not share trackers")
	}
	if built != 2 {
		t.Fatalf("expected 2 trackers built, got %d", built)
	}
}

func TestTicker_ReportsElapsedFromClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := newFakeClock()
	tr := NewTracker(WithClock(clock.Now))

	got := make(chan time.Duration, 16)
	go Ticker(ctx, tr, 5*time.Millisecond, func(d time.Duration) {
		select {
		case got <- d:
		default:
		}
	})

	// Ringing: no ticks expected.
	_, _ = tr.OnSessionStart(ctx, Start{Direction: DirectionIncoming})
	time.Sleep(30 * time.Millisecond)
	select {
	case d := <-got:
		t.Fatalf("unexpected tick while ringing: %v", d)
	default:
	}

	tr.OnAccepted(ctx)
	clock.Advance(7 * time.Second)

	// A tick may land between accept and advance and read zero.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case d := <-got:
			if d == 7*time.Second {
				return
			}
			if d != 0 {
				t.Fatalf("expected 0s or 7s, got %v", d)
			}
		case <-deadline:
			t.Fatalf("expected a 7s tick while active")
		}
	}
}
