package mandate

import "errors"

// Status tracks where a client stands in the mandate lifecycle.
// The actual approval happens on the external tax portal; we only
// record what the humans attest to.

type Status string

const (
	StatusNone      Status = "NONE"
	StatusRequested Status = "REQUESTED"
	StatusSent      Status = "SENT"
	StatusCompleted Status = "COMPLETED"
)

var (
	ErrInvalidTransition = errors.New("invalid mandate transition")
	ErrPaymentRequired   = errors.New("valid payment required before requesting a mandate")
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNone, StatusRequested, StatusSent, StatusCompleted:
		return true
	default:
		return false
	}
}

// Normalize maps an absent status to NONE. Legacy rows may carry an
// empty string instead of an explicit NONE.
func Normalize(s Status) Status {
	if s == "" {
		return StatusNone
	}
	return s
}

// CanTransitionTo reports whether the forward step from s to next is allowed.
// Release (reset to NONE) is handled separately: it is not a forward step.
func (s Status) CanTransitionTo(next Status) bool {
	switch Normalize(s) {
	case StatusNone:
		return next == StatusRequested
	case StatusRequested:
		return next == StatusSent
	case StatusSent:
		return next == StatusCompleted
	default:
		return false
	}
}

// Active reports whether the client shows up on the accountant's list.
func (s Status) Active() bool {
	switch s {
	case StatusRequested, StatusSent, StatusCompleted:
		return true
	default:
		return false
	}
}
