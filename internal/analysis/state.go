package analysis

// State is the lifecycle of one analysis pass:
// Idle -> Reading -> Processing* -> Drained -> Closed.
type State int

const (
	StateIdle State = iota
	StateReading
	StateProcessing
	StateDrained
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateProcessing:
		return "processing"
	case StateDrained:
		return "drained"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
