package agent

import "fmt"

// ConnectionState enumerates the lifecycle of a provider connection check.
type ConnectionState int

const (
	// StateNotTested means no connectivity check has run yet.
	StateNotTested ConnectionState = iota

	// StatePending means a connectivity check is in flight.
	StatePending

	// StateConnected means the last connectivity check succeeded.
	StateConnected

	// StateFailed means a connectivity check failed. Failed is terminal for
	// the session: the agent does not retry on later queries.
	StateFailed
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	switch s {
	case StateNotTested:
		return "not tested"
	case StatePending:
		return "pending"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ConnectionState(%d)", int(s))
}

// ConnectionStatus pairs a [ConnectionState] with the failure reason, which
// is only meaningful when State is [StateFailed].
type ConnectionStatus struct {
	State  ConnectionState
	Reason string
}

// String implements fmt.Stringer.
func (s ConnectionStatus) String() string {
	if s.State == StateFailed && s.Reason != "" {
		return fmt.Sprintf("failed: %s", s.Reason)
	}
	return s.State.String()
}
