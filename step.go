package saga

import (
	"context"
	"fmt"
)

// StepName represents a unique name for a saga Step.
type StepName string

// String returns the string representation of the StepName.
func (n StepName) String() string {
	return string(n)
}

// Step represents the building blocks of sagas.
//
// Execute performs the forward action and records whatever it needs to undo
// itself in its Scope. Compensate reverses that action. Compensate must be a
// silent no-op when the values written by Execute are absent from the Scope.
type Step interface {
	Name() StepName
	Execute(ctx context.Context, scope *Scope) error
	Compensate(ctx context.Context, scope *Scope) error
}

type ExecuteFunc func(ctx context.Context, scope *Scope) error
type CompensateFunc func(ctx context.Context, scope *Scope) error

// StepFunc is an implementation of Step that uses ordinary functions.
type StepFunc struct {
	name           StepName
	executeFunc    ExecuteFunc
	compensateFunc CompensateFunc
}

// NewStepFunc constructs a new StepFunc from a pair of functions.
func NewStepFunc(name StepName, executeFunc ExecuteFunc, compensateFunc CompensateFunc) *StepFunc {
	if compensateFunc == nil {
		compensateFunc = NoOpCompensate
	}
	return &StepFunc{
		name:           name,
		executeFunc:    executeFunc,
		compensateFunc: compensateFunc,
	}
}

func NoOpCompensate(_ context.Context, _ *Scope) error {
	return nil
}

// NewStepFuncWithNoOpCompensate constructs a new StepFunc whose compensation does nothing.
func NewStepFuncWithNoOpCompensate(name StepName, executeFunc ExecuteFunc) *StepFunc {
	return NewStepFunc(name, executeFunc, NoOpCompensate)
}

// Execute implements the Step interface for StepFunc.
func (sf *StepFunc) Execute(ctx context.Context, scope *Scope) error {
	if sf.executeFunc == nil {
		return nil
	}
	return sf.executeFunc(ctx, scope)
}

// Compensate implements the Step interface for StepFunc.
func (sf *StepFunc) Compensate(ctx context.Context, scope *Scope) error {
	return sf.compensateFunc(ctx, scope)
}

// Name implements the Step interface for StepFunc.
func (sf *StepFunc) Name() StepName {
	return sf.name
}

// String implements the fmt.Stringer interface for StepFunc.
func (sf *StepFunc) String() string {
	return fmt.Sprintf("StepFunc[%s]", sf.name)
}
