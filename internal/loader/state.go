package loader

import "fmt"

// State tracks a loader process through its lifecycle. No transition skips
// StateTerminating; StateExited is the only terminal state from which the
// channel and temporary directory may be released.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateTerminating
	StateExited
)

// String returns a human-readable representation of the State.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateExited:
		return "Exited"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}
