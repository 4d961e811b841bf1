package telephony

import (
	"context"
	"sync"
	"time"

	"quality-desk/internal/calls"
)

// State is what an operator's console shows: the session snapshot and the
// line status.
type State struct {
	Session calls.Snapshot `json:"session"`
	Line    LineStatus     `json:"line"`
}

// Update is the websocket message pushed on every change.
type Update struct {
	Type  string    `json:"type"`
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// Stations holds each operator's tracker and line, created on first use.
type Stations struct {
	trackers *calls.Registry
	hub      *Hub

	mu    sync.Mutex
	lines map[string]*Line
}

// NewStations builds trackers with build. When hub is not nil every tracker
// and line change is pushed to the operator's consoles.
func NewStations(build func(operatorID string) *calls.Tracker, hub *Hub) *Stations {
	if build == nil {
		build = func(string) *calls.Tracker { return calls.NewTracker() }
	}
	s := &Stations{hub: hub, lines: map[string]*Line{}}
	s.trackers = calls.NewRegistry(func(operatorID string) *calls.Tracker {
		t := build(operatorID)
		if hub != nil {
			t.Subscribe(func(snap calls.Snapshot) {
				hub.Publish(operatorID, Update{
					Type:  "session",
					State: State{Session: snap, Line: s.Line(operatorID).Status()},
					At:    snap.At,
				})
			})
		}
		return t
	})
	return s
}

func (s *Stations) Tracker(operatorID string) *calls.Tracker {
	return s.trackers.For(operatorID)
}

func (s *Stations) Line(operatorID string) *Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lines[operatorID]
	if !ok {
		l = NewLine(func(status LineStatus) {
			if s.hub == nil {
				return
			}
			s.hub.Publish(operatorID, Update{
				Type:  "line",
				State: State{Session: s.Tracker(operatorID).Snapshot(), Line: status},
				At:    time.Now().UTC(),
			})
		})
		s.lines[operatorID] = l
	}
	return l
}

// Handle applies a parsed event to the operator's station.
func (s *Stations) Handle(ctx context.Context, operatorID string, ev Event) error {
	return Apply(ctx, ev, s.Tracker(operatorID), s.Line(operatorID))
}

func (s *Stations) State(operatorID string) State {
	return State{Session: s.Tracker(operatorID).Snapshot(), Line: s.Line(operatorID).Status()}
}
