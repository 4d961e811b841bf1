package telephony

import (
	"context"
	"errors"
	"testing"

	"quality-desk/internal/calls"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		raw  string
		want Kind
	}{
		{`{"kind":"session.started","direction":"incoming","number":"5551234"}`, KindSessionStarted},
		{`{"kind":"session.started","direction":"OUTGOING","id":"abc"}`, KindSessionStarted},
		{`{"kind":"session.accepted"}`, KindSessionAccepted},
		{`{"kind":"session.ended"}`, KindSessionEnded},
		{`{"kind":"session.failed","cause":"Busy"}`, KindSessionFailed},
		{`{"kind":"line.connected"}`, KindLineConnected},
		{`{"kind":"line.disconnected"}`, KindLineDisconnected},
		{`{"kind":"line.registered"}`, KindLineRegistered},
		{`{"kind":"line.registration_failed","cause":"403"}`, KindLineRegistrationFailed},
	}
	for _, tt := range tests {
		ev, err := ParseEvent([]byte(tt.raw))
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", tt.raw, err)
		}
		if ev.Kind() != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.raw, tt.want, ev.Kind())
		}
	}

	ev, _ := ParseEvent([]byte(`{"kind":"session.started","direction":"OUTGOING","id":" abc "}`))
	if s := ev.(SessionStarted); s.Direction != calls.DirectionOutgoing || s.ID != "abc" {
		t.Fatalf("unexpected payload: %+v", s)
	}
}

func TestParseEvent_Rejects(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{}`,
		`{"kind":"session.transferred"}`,
		`{"kind":"session.started","direction":"sideways"}`,
		`{"kind":"session.started"}`,
	} {
		if _, err := ParseEvent([]byte(raw)); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("%s: expected ErrInvalidEvent, got %v", raw, err)
		}
	}
}

func TestLine_Transitions(t *testing.T) {
	var seen []LineStatus
	l := NewLine(func(s LineStatus) { seen = append(seen, s) })
	if l.Status() != LineOffline {
		t.Fatalf("lines start offline")
	}

	steps := []struct {
		ev   Event
		want LineStatus
	}{
		{LineConnected{}, LineConnecting},
		{LineRegistered{}, LineOnline},
		{LineRegistered{}, LineOnline},
		{LineRegistrationFailed{}, LineOffline},
		{LineConnected{}, LineConnecting},
		{LineDisconnected{}, LineOffline},
	}
	for i, s := range steps {
		if !l.Apply(s.ev) {
			t.Fatalf("step %d: expected connection event handled", i)
		}
		if l.Status() != s.want {
			t.Fatalf("step %d: expected %s, got %s", i, s.want, l.Status())
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 change notifications (repeat suppressed), got %d", len(seen))
	}
	if l.Apply(SessionEnded{}) {
		t.Fatalf("session events must not move the line")
	}
}

func TestApply_RoutesEvents(t *testing.T) {
	ctx := context.Background()
	tr := calls.NewTracker()
	line := NewLine(nil)

	must := func(ev Event) {
		t.Helper()
		if err := Apply(ctx, ev, tr, line); err != nil {
			t.Fatalf("%s: %v", ev.Kind(), err)
		}
	}
	must(LineConnected{})
	must(LineRegistered{})
	must(SessionStarted{ID: "A", Direction: calls.DirectionIncoming})

	if err := Apply(ctx, SessionStarted{ID: "B", Direction: calls.DirectionIncoming}, tr, line); !errors.Is(err, calls.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	must(SessionAccepted{})
	must(SessionEnded{})
	must(SessionEnded{})

	if line.Status() != LineOnline {
		t.Fatalf("expected line online")
	}
	if h := tr.History(); len(h) != 1 || h[0].ID != "A" {
		t.Fatalf("unexpected history: %+v", h)
	}
}
