package saga

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Sentinel errors for errors.Is() support
var (
	ErrStepFailed         = errors.New("step failed")
	ErrCompensationFailed = errors.New("compensation failed")
	ErrSagaFailed         = errors.New("saga failed")
	ErrRunInProgress      = errors.New("saga run already in progress")
	ErrInvalidStep        = errors.New("invalid step")
	ErrDuplicateStep      = errors.New("duplicate step name")
	ErrStepNotFound       = errors.New("step not found")
	ErrStepPanicked       = errors.New("step panicked")
	ErrInjected           = errors.New("error injected")
)

// StepExecutionError represents a failed forward action.
type StepExecutionError struct {
	Step  StepName
	Index int
	Err   error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %q (#%d) failed: %v", e.Step, e.Index, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

func (e *StepExecutionError) Is(target error) bool {
	return target == ErrStepFailed
}

// CompensationError represents a failed undo action. It never stops the
// compensation sweep; it is attached to the SagaExecutionError instead.
type CompensationError struct {
	Step  StepName
	Index int
	Err   error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("compensation for step %q (#%d) failed: %v", e.Step, e.Index, e.Err)
}

func (e *CompensationError) Unwrap() error {
	return e.Err
}

func (e *CompensationError) Is(target error) bool {
	return target == ErrCompensationFailed
}

// SagaExecutionError is returned by Orchestrator.Execute whenever a run
// fails. It carries the failing step, the original error and every error
// raised during the compensation sweep.
type SagaExecutionError struct {
	SagaID             SagaID
	Step               StepName
	Index              int
	Cause              error
	CompensationErrors *multierror.Error
}

func newSagaExecutionError(id SagaID, cause *StepExecutionError, compErrs *multierror.Error) *SagaExecutionError {
	return &SagaExecutionError{
		SagaID:             id,
		Step:               cause.Step,
		Index:              cause.Index,
		Cause:              cause,
		CompensationErrors: compErrs,
	}
}

func (e *SagaExecutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "saga %s failed at step %q: %v", e.SagaID, e.Step, e.Cause)
	if e.CompensationComplete() {
		sb.WriteString("; compensation completed")
		return sb.String()
	}
	fmt.Fprintf(&sb, "; %d compensation error(s):", len(e.CompensationErrors.Errors))
	for _, err := range e.CompensationErrors.Errors {
		sb.WriteString(" [")
		sb.WriteString(err.Error())
		sb.WriteString("]")
	}
	return sb.String()
}

// Unwrap exposes the original failure and each compensation failure.
func (e *SagaExecutionError) Unwrap() []error {
	errs := []error{e.Cause}
	if e.CompensationErrors != nil {
		errs = append(errs, e.CompensationErrors.Errors...)
	}
	return errs
}

func (e *SagaExecutionError) Is(target error) bool {
	return target == ErrSagaFailed
}

// CompensationComplete reports whether every completed step was undone without error.
func (e *SagaExecutionError) CompensationComplete() bool {
	return e.CompensationErrors == nil || len(e.CompensationErrors.Errors) == 0
}

// FailedCompensations returns the names of the steps whose compensation failed, in sweep order.
func (e *SagaExecutionError) FailedCompensations() []StepName {
	if e.CompensationComplete() {
		return nil
	}
	names := make([]StepName, 0, len(e.CompensationErrors.Errors))
	for _, err := range e.CompensationErrors.Errors {
		var compErr *CompensationError
		if errors.As(err, &compErr) {
			names = append(names, compErr.Step)
		}
	}
	return names
}
