package telephony

import (
	"context"
	"fmt"

	"quality-desk/internal/calls"
)

// Apply routes ev to the tracker or the line. Session events without a
// current session are no-ops, not errors.
func Apply(ctx context.Context, ev Event, tracker *calls.Tracker, line *Line) error {
	switch e := ev.(type) {
	case SessionStarted:
		_, err := tracker.OnSessionStart(ctx, calls.Start{ID: e.ID, Number: e.Number, Direction: e.Direction})
		return err
	case SessionAccepted:
		tracker.OnAccepted(ctx)
	case SessionEnded:
		tracker.OnEnded(ctx)
	case SessionFailed:
		tracker.OnFailed(ctx)
	case LineConnected, LineDisconnected, LineRegistered, LineRegistrationFailed:
		line.Apply(ev)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidEvent, ev)
	}
	return nil
}
