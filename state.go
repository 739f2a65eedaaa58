package saga

// State is the orchestrator's run state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSucceeded
	StateCompensating
	StateCompensatedFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateCompensating:
		return "compensating"
	case StateCompensatedFailure:
		return "compensated_failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether no run is in progress in this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCompensatedFailure
}

// StepState represents the execution state of a step within one run
type StepState int

const (
	StepStatePending StepState = iota
	StepStateRunning
	StepStateCompleted
	StepStateFailed
	StepStateUndoing
	StepStateUndone
	StepStateUndoFailed
)

func (s StepState) String() string {
	switch s {
	case StepStatePending:
		return "pending"
	case StepStateRunning:
		return "running"
	case StepStateCompleted:
		return "completed"
	case StepStateFailed:
		return "failed"
	case StepStateUndoing:
		return "undoing"
	case StepStateUndone:
		return "undone"
	case StepStateUndoFailed:
		return "undo_failed"
	default:
		return "unknown"
	}
}

// Phase distinguishes forward actions from compensations.
type Phase string

const (
	PhaseExecute    Phase = "execute"
	PhaseCompensate Phase = "compensate"
)
