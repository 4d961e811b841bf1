// Package telephony is the boundary between the softphone/SIP layer and the
// desk: it parses raw lifecycle events into a closed set of types, tracks
// line status, originates calls and streams session state to consoles.
package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quality-desk/internal/calls"
)

var ErrInvalidEvent = errors.New("telephony: invalid event")

type Kind string

const (
	KindSessionStarted  Kind = "session.started"
	KindSessionAccepted Kind = "session.accepted"
	KindSessionEnded    Kind = "session.ended"
	KindSessionFailed   Kind = "session.failed"

	KindLineConnected          Kind = "line.connected"
	KindLineDisconnected       Kind = "line.disconnected"
	KindLineRegistered         Kind = "line.registered"
	KindLineRegistrationFailed Kind = "line.registration_failed"
)

// Event is one of the types below. Internal code switches on the concrete
// type and never sees raw payloads.
type Event interface {
	Kind() Kind
	sealed()
}

type SessionStarted struct {
	ID        string
	Number    string
	Direction calls.Direction
}

type SessionAccepted struct{}

type SessionEnded struct{}

type SessionFailed struct{ Cause string }

type LineConnected struct{}

type LineDisconnected struct{ Cause string }

type LineRegistered struct{}

type LineRegistrationFailed struct{ Cause string }

func (SessionStarted) Kind() Kind         { return KindSessionStarted }
func (SessionAccepted) Kind() Kind        { return KindSessionAccepted }
func (SessionEnded) Kind() Kind           { return KindSessionEnded }
func (SessionFailed) Kind() Kind          { return KindSessionFailed }
func (LineConnected) Kind() Kind          { return KindLineConnected }
func (LineDisconnected) Kind() Kind       { return KindLineDisconnected }
func (LineRegistered) Kind() Kind         { return KindLineRegistered }
func (LineRegistrationFailed) Kind() Kind { return KindLineRegistrationFailed }

func (SessionStarted) sealed()         {}
func (SessionAccepted) sealed()        {}
func (SessionEnded) sealed()           {}
func (SessionFailed) sealed()          {}
func (LineConnected) sealed()          {}
func (LineDisconnected) sealed()       {}
func (LineRegistered) sealed()         {}
func (LineRegistrationFailed) sealed() {}

// envelope is the wire shape relayed by the desk softphone.
type envelope struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id,omitempty"`
	Number    string `json:"number,omitempty"`
	Direction string `json:"direction,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

// ParseEvent validates a raw JSON event once at ingress.
func ParseEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return env.event()
}

func (env envelope) event() (Event, error) {
	switch env.Kind {
	case KindSessionStarted:
		dir := calls.Direction(strings.ToLower(strings.TrimSpace(env.Direction)))
		if !dir.Valid() {
			return nil, fmt.Errorf("%w: direction %q", ErrInvalidEvent, env.Direction)
		}
		return SessionStarted{ID: strings.TrimSpace(env.ID), Number: strings.TrimSpace(env.Number), Direction: dir}, nil
	case KindSessionAccepted:
		return SessionAccepted{}, nil
	case KindSessionEnded:
		return SessionEnded{}, nil
	case KindSessionFailed:
		return SessionFailed{Cause: env.Cause}, nil
	case KindLineConnected:
		return LineConnected{}, nil
	case KindLineDisconnected:
		return LineDisconnected{Cause: env.Cause}, nil
	case KindLineRegistered:
		return LineRegistered{}, nil
	case KindLineRegistrationFailed:
		return LineRegistrationFailed{Cause: env.Cause}, nil
	case "":
		return nil, fmt.Errorf("%w: missing kind", ErrInvalidEvent)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, env.Kind)
	}
}
