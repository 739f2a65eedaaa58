package saga

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// FaultInjector decides whether a step call should be replaced by a
// simulated failure. A non-nil error from ExecuteFault means the step's
// forward action is not invoked and the step counts as failed. A non-nil
// error from CompensateFault replaces the step's undo action.
type FaultInjector interface {
	ExecuteFault(index int, name StepName) error
	CompensateFault(index int, name StepName) error
}

// NoFaults never injects anything.
type NoFaults struct{}

func (NoFaults) ExecuteFault(int, StepName) error    { return nil }
func (NoFaults) CompensateFault(int, StepName) error { return nil }

// InjectedError wraps ErrInjected with the phase and step it was injected into.
func InjectedError(phase Phase, name StepName) error {
	return fmt.Errorf("%s %s: %w", phase, name, ErrInjected)
}

// Faults injects failures at fixed steps, selected by name or by 0-based index.
type Faults struct {
	ExecuteSteps      []StepName
	ExecuteIndexes    []int
	CompensateSteps   []StepName
	CompensateIndexes []int
}

// FailAt returns a Faults that fails the forward action of the step at index.
func FailAt(index int) *Faults {
	return &Faults{ExecuteIndexes: []int{index}}
}

// FailStep returns a Faults that fails the forward action of the named step.
func FailStep(name StepName) *Faults {
	return &Faults{ExecuteSteps: []StepName{name}}
}

// FailCompensationOf adds compensation failures for the named steps.
func (f *Faults) FailCompensationOf(names ...StepName) *Faults {
	f.CompensateSteps = append(f.CompensateSteps, names...)
	return f
}

func (f *Faults) ExecuteFault(index int, name StepName) error {
	if matches(index, name, f.ExecuteIndexes, f.ExecuteSteps) {
		return InjectedError(PhaseExecute, name)
	}
	return nil
}

func (f *Faults) CompensateFault(index int, name StepName) error {
	if matches(index, name, f.CompensateIndexes, f.CompensateSteps) {
		return InjectedError(PhaseCompensate, name)
	}
	return nil
}

func matches(index int, name StepName, indexes []int, names []StepName) bool {
	for _, i := range indexes {
		if i == index {
			return true
		}
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// RandomFaults fails each forward action with probability Rate.
// Compensations are never failed.
type RandomFaults struct {
	rate float64
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewRandomFaults creates a RandomFaults seeded with seed, so runs are reproducible.
func NewRandomFaults(rate float64, seed uint64) *RandomFaults {
	return &RandomFaults{
		rate: rate,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *RandomFaults) ExecuteFault(_ int, name StepName) error {
	r.mu.Lock()
	roll := r.rng.Float64()
	r.mu.Unlock()
	if roll < r.rate {
		return InjectedError(PhaseExecute, name)
	}
	return nil
}

func (r *RandomFaults) CompensateFault(int, StepName) error {
	return nil
}
