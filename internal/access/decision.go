package access

import "github.com/frahmantamala/inventory-management/internal"

type Reason string

const (
	ReasonGranted                Reason = "GRANTED"
	ReasonAdmin                  Reason = "ADMIN"
	ReasonUnauthenticated        Reason = Reason(internal.ErrCodeUnauthenticated)
	ReasonPermissionNotGranted   Reason = Reason(internal.ErrCodePermissionNotGranted)
	ReasonInsufficientCapability Reason = Reason(internal.ErrCodeInsufficientCapability)
	ReasonScreenNotAuthorized    Reason = Reason(internal.ErrCodeScreenNotAuthorized)
)

// Decision is the outcome of one access check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err returns nil for an allow and the matching sentinel for a deny.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return internal.ErrUnauthenticated
	case ReasonInsufficientCapability:
		return internal.ErrInsufficientCapability
	case ReasonScreenNotAuthorized:
		return internal.ErrScreenNotAuthorized
	default:
		return internal.ErrPermissionNotGranted
	}
}
