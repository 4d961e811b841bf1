// Package calls tracks the call sessions of one desk operator: at most one
// live session plus a bounded history of finished ones.
package calls

import "time"

// CallSession is one telephony interaction, from ring to end.
type CallSession struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Status    Status    `json:"status"`
	Direction Direction `json:"direction"`

	StartedAt  time.Time `json:"started_at"`
	AcceptedAt time.Time `json:"accepted_at,omitempty"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
}

type Status string

const (
	StatusRinging Status = "ringing"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Elapsed is the talk time at now. It is zero until the call is accepted and
// stops at EndedAt. It is computed from timestamps, never counted.
func (s CallSession) Elapsed(now time.Time) time.Duration {
	if s.AcceptedAt.IsZero() {
		return 0
	}
	end := now
	if !s.EndedAt.IsZero() {
		end = s.EndedAt
	}
	if d := end.Sub(s.AcceptedAt); d > 0 {
		return d
	}
	return 0
}

// Start is the payload of a session-start event.
type Start struct {
	// ID is optional; the tracker generates one when empty.
	ID        string
	Number    string
	Direction Direction
}

// Snapshot is what subscribers receive after every state change.
type Snapshot struct {
	Current        *CallSession  `json:"current"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	History        []CallSession `json:"history"`
	At             time.Time     `json:"at"`
}
