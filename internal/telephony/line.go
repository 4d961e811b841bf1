package telephony

import (
	"sync"
	"time"
)

type LineStatus string

const (
	LineOffline    LineStatus = "offline"
	LineConnecting LineStatus = "connecting"
	LineOnline     LineStatus = "online"
)

// Line tracks the softphone's connection to the switchboard.
type Line struct {
	mu       sync.Mutex
	status   LineStatus
	since    time.Time
	clock    func() time.Time
	onChange func(LineStatus)
}

func NewLine(onChange func(LineStatus)) *Line {
	l := &Line{status: LineOffline, clock: time.Now, onChange: onChange}
	l.since = l.clock().UTC()
	return l
}

func (l *Line) Status() LineStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Since is when the line entered its current status.
func (l *Line) Since() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.since
}

// Apply moves the line for connection events and ignores everything else.
// It reports whether ev was a connection event.
func (l *Line) Apply(ev Event) bool {
	var next LineStatus
	switch ev.(type) {
	case LineConnected:
		next = LineConnecting
	case LineRegistered:
		next = LineOnline
	case LineDisconnected, LineRegistrationFailed:
		next = LineOffline
	default:
		return false
	}

	l.mu.Lock()
	changed := l.status != next
	if changed {
		l.status = next
		l.since = l.clock().UTC()
	}
	cb := l.onChange
	l.mu.Unlock()

	if changed && cb != nil {
		cb(next)
	}
	return true
}
