package orchestrator

// State is the lifecycle position of a cut.
type State int32

const (
	Idle State = iota
	Validating
	Splitting
	Writing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Splitting:
		return "splitting"
	case Writing:
		return "writing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
