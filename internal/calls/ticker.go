package calls

import (
	"context"
	"time"
)

// Ticker calls fn with the current talk time every interval while the
// tracker holds an active session. Values come from the tracker clock, so
// late timer fires never drift the reading. It returns when ctx is done.
func Ticker(ctx context.Context, t *Tracker, interval time.Duration, fn func(time.Duration)) {
	if interval <= 0 {
		interval = time.Second
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			cur, ok := t.Current()
			if !ok || cur.Status != StatusActive {
				continue
			}
			fn(cur.Elapsed(t.clock()))
		}
	}
}
