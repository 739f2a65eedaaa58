package saga

import "time"

// Status is the terminal result of one saga run.
type Status string

const (
	StatusSucceeded          Status = "succeeded"
	StatusCompensatedFailure Status = "compensated_failure"
)

// ExecutionRecord tracks one call into a step
type ExecutionRecord struct {
	Step      StepName
	Index     int
	Phase     Phase
	StartTime time.Time
	EndTime   time.Time
	Status    StepState
	Error     error
}

// Duration returns how long the call took.
func (r ExecutionRecord) Duration() time.Duration {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Outcome describes a finished saga run.
type Outcome struct {
	SagaID      SagaID
	Status      Status
	Context     *ExecutionContext
	Completed   []StepName
	Compensated []StepName
	FailedStep  StepName
	StepStates  []StepState // indexed by declared step position
	Trace       []ExecutionRecord
	Log         *SagaLog
	Duration    time.Duration

	err *SagaExecutionError
}

// Succeeded reports whether every step completed.
func (o *Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Err returns the aggregate failure, or nil when the run succeeded.
func (o *Outcome) Err() *SagaExecutionError {
	return o.err
}

// CompensationComplete reports whether the run either succeeded or every
// completed step was undone without error.
func (o *Outcome) CompensationComplete() bool {
	return o.err == nil || o.err.CompensationComplete()
}

// ExecutionOrder returns the names of the steps whose forward action was attempted, in order.
func (o *Outcome) ExecutionOrder() []StepName {
	return o.namesFor(PhaseExecute)
}

// CompensationOrder returns the names of the steps whose compensation was attempted, in order.
func (o *Outcome) CompensationOrder() []StepName {
	return o.namesFor(PhaseCompensate)
}

func (o *Outcome) namesFor(phase Phase) []StepName {
	names := make([]StepName, 0, len(o.Trace))
	for _, record := range o.Trace {
		if record.Phase == phase {
			names = append(names, record.Step)
		}
	}
	return names
}
