package persist

// State is the position restoration state of a Coordinator.
type State int

const (
	StateIdle State = iota
	StatePopulating
	StateAwaitingStabilization
	StateRestoringPositions
	StateSaveSuppressed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePopulating:
		return "populating"
	case StateAwaitingStabilization:
		return "awaiting-stabilization"
	case StateRestoringPositions:
		return "restoring-positions"
	case StateSaveSuppressed:
		return "save-suppressed"
	default:
		return "unknown"
	}
}
