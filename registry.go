package saga

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// StepFactory creates a fresh Step instance.
type StepFactory func() Step

// StepRegistry is a registry of step factories that can be used to assemble
// orchestrators from a list of names, for example one read from configuration.
type StepRegistry struct {
	factories *xsync.MapOf[StepName, StepFactory]
}

// NewStepRegistry creates a new StepRegistry.
func NewStepRegistry() *StepRegistry {
	return &StepRegistry{
		factories: xsync.NewMapOf[StepName, StepFactory](),
	}
}

// Register adds a factory under name.
func (r *StepRegistry) Register(name StepName, factory StepFactory) error {
	if name == "" || factory == nil {
		return fmt.Errorf("%w: registration needs a name and a factory", ErrInvalidStep)
	}
	if _, loaded := r.factories.LoadOrStore(name, factory); loaded {
		return fmt.Errorf("step with name '%s' already registered", name)
	}
	return nil
}

// Get creates the step registered under name.
func (r *StepRegistry) Get(name StepName) (Step, error) {
	factory, ok := r.factories.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStepNotFound, name)
	}
	step := factory()
	if step == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrInvalidStep, name)
	}
	if step.Name() != name {
		return nil, fmt.Errorf("%w: factory for %q built step %q", ErrInvalidStep, name, step.Name())
	}
	return step, nil
}

// Build creates the named steps in the given order.
func (r *StepRegistry) Build(names ...StepName) ([]Step, error) {
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		step, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Names returns every registered name in sorted order.
func (r *StepRegistry) Names() []StepName {
	names := make([]StepName, 0, r.factories.Size())
	r.factories.Range(func(name StepName, _ StepFactory) bool {
		names = append(names, name)
		return true
	})
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
