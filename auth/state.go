package auth

import (
	"time"

	"github.com/jrsteele09/go-auth-session/oauthmodel"
)

// Status is the position of a session in the login state machine
type Status int

const (
	StatusAnonymous Status = iota
	StatusAwaitingCallback
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAwaitingCallback:
		return "awaiting_callback"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the process-local record of one client session
type State struct {
	Connected   bool
	Identity    *oauthmodel.Identity
	Credentials *oauthmodel.Credentials
	PendingFlow *oauthmodel.FlowState
	ExpiresAt   time.Time // end of the connected identity's validity
}

// Status derives the state machine position from the record
func (s State) Status() Status {
	switch {
	case s.Connected:
		return StatusAuthenticated
	case s.PendingFlow != nil:
		return StatusAwaitingCallback
	default:
		return StatusAnonymous
	}
}
