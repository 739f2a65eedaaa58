package saga

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithName sets the saga name used in logs and in the exported plan.
func WithName(name string) Option {
	return func(o *Orchestrator) {
		o.name = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithHooks sets lifecycle hooks.
func WithHooks(hooks *Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithFaultInjector sets the fault injector consulted before every step call.
func WithFaultInjector(faults FaultInjector) Option {
	return func(o *Orchestrator) {
		if faults == nil {
			faults = NoFaults{}
		}
		o.faults = faults
	}
}

// Orchestrator executes an ordered list of steps and, when one fails,
// compensates every completed step in reverse order.
//
// An Orchestrator can be executed any number of times, but only one run
// may be in progress at once.
type Orchestrator struct {
	name   string
	steps  []Step
	plan   *Plan
	logger zerolog.Logger
	hooks  *Hooks
	faults FaultInjector

	state atomic.Int32
}

// NewOrchestrator creates an orchestrator for steps. The order of steps is
// fixed for the orchestrator's lifetime. Step names must be non-empty and
// unique.
func NewOrchestrator(steps []Step, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		name:   "saga",
		steps:  append([]Step(nil), steps...),
		logger: zerolog.Nop(),
		faults: NoFaults{},
	}
	for _, opt := range opts {
		opt(o)
	}

	plan, err := newPlan(o.name, o.steps)
	if err != nil {
		return nil, err
	}
	o.plan = plan
	return o, nil
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Steps returns the step names in execution order.
func (o *Orchestrator) Steps() []StepName {
	return o.plan.Steps()
}

// Plan returns the execution graph.
func (o *Orchestrator) Plan() *Plan {
	return o.plan
}

// begin moves the orchestrator into StateRunning, unless a run is already in progress.
func (o *Orchestrator) begin() error {
	for {
		current := State(o.state.Load())
		if current != StateIdle && !current.Terminal() {
			return fmt.Errorf("%w: orchestrator is %s", ErrRunInProgress, current)
		}
		if o.state.CompareAndSwap(int32(current), int32(StateRunning)) {
			return nil
		}
	}
}

func (o *Orchestrator) transition(to State) {
	o.state.Store(int32(to))
}

// run is the state of a single execution.
type run struct {
	id        SagaID
	execCtx   *ExecutionContext
	nodes     []StepState
	completed []int
	undone    []int
	trace     []ExecutionRecord
	log       *SagaLog
	logger    zerolog.Logger
	startedAt time.Time
}

// Execute runs the saga. When every step succeeds it returns an Outcome
// with StatusSucceeded and a nil error. When a step fails it compensates
// the completed steps and returns an Outcome with StatusCompensatedFailure
// together with a *SagaExecutionError. Step errors never escape unwrapped.
//
// Execute does not cancel steps itself; ctx is handed to every step call.
func (o *Orchestrator) Execute(ctx context.Context) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}

	r := &run{
		id:        NewSagaID(),
		execCtx:   NewExecutionContext(),
		nodes:     make([]StepState, len(o.steps)),
		completed: make([]int, 0, len(o.steps)),
		trace:     make([]ExecutionRecord, 0, len(o.steps)),
		startedAt: time.Now(),
	}
	r.log = NewEmptySagaLog(r.id)
	r.logger = o.logger.With().
		Str("saga", o.name).
		Str("saga_id", r.id.String()).
		Logger()

	emitHook(o.hooks, func() {
		if o.hooks.OnSagaStart != nil {
			o.hooks.OnSagaStart(r.id, o.plan.Steps())
		}
	})
	r.logger.Info().Int("steps", len(o.steps)).Msg("saga started")

	for _, index := range o.plan.order {
		if stepErr := o.executeStep(ctx, r, index); stepErr != nil {
			o.transition(StateCompensating)
			r.logger.Warn().
				Err(stepErr.Err).
				Str("step", string(stepErr.Step)).
				Int("index", stepErr.Index).
				Int("to_compensate", len(r.completed)).
				Msg("step failed, compensating")

			compErrs := o.compensate(ctx, r)
			sagaErr := newSagaExecutionError(r.id, stepErr, compErrs)

			o.transition(StateCompensatedFailure)
			outcome := r.outcome(o, StatusCompensatedFailure, sagaErr)

			emitHook(o.hooks, func() {
				if o.hooks.OnSagaFailed != nil {
					o.hooks.OnSagaFailed(r.id, sagaErr, outcome.Duration)
				}
			})
			level := zerolog.WarnLevel
			if !sagaErr.CompensationComplete() {
				level = zerolog.ErrorLevel
			}
			r.logger.WithLevel(level).
				Str("failed_step", string(sagaErr.Step)).
				Bool("compensation_complete", sagaErr.CompensationComplete()).
				Dur("duration", outcome.Duration).
				Msg("saga failed")
			return outcome, sagaErr
		}
		r.completed = append(r.completed, index)
	}

	o.transition(StateSucceeded)
	outcome := r.outcome(o, StatusSucceeded, nil)
	emitHook(o.hooks, func() {
		if o.hooks.OnSagaComplete != nil {
			o.hooks.OnSagaComplete(r.id, outcome.Duration)
		}
	})
	r.logger.Info().Dur("duration", outcome.Duration).Msg("saga completed")
	return outcome, nil
}

// executeStep runs the forward action of the step at index.
func (o *Orchestrator) executeStep(ctx context.Context, r *run, index int) *StepExecutionError {
	step := o.steps[index]
	name := step.Name()
	r.nodes[index] = StepStateRunning
	r.record(index, name, EventStarted)

	emitHook(o.hooks, func() {
		if o.hooks.OnStepStart != nil {
			o.hooks.OnStepStart(name)
		}
	})

	startTime := time.Now()
	err := o.faults.ExecuteFault(index, name)
	if err == nil {
		err = safeCall(func() error {
			return step.Execute(ctx, r.execCtx.Scope(name))
		})
	}
	endTime := time.Now()

	status := StepStateCompleted
	if err != nil {
		status = StepStateFailed
	}
	r.nodes[index] = status
	r.trace = append(r.trace, ExecutionRecord{
		Step:      name,
		Index:     index,
		Phase:     PhaseExecute,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    status,
		Error:     err,
	})

	if err != nil {
		r.record(index, name, EventFailed)
		emitHook(o.hooks, func() {
			if o.hooks.OnStepFailed != nil {
				o.hooks.OnStepFailed(name, err, endTime.Sub(startTime))
			}
		})
		return &StepExecutionError{Step: name, Index: index, Err: err}
	}

	r.record(index, name, EventSucceeded)
	emitHook(o.hooks, func() {
		if o.hooks.OnStepComplete != nil {
			o.hooks.OnStepComplete(name, endTime.Sub(startTime))
		}
	})
	r.logger.Debug().Str("step", string(name)).Int("index", index).Msg("step completed")
	return nil
}

// compensate undoes completed steps in reverse order. Every completed step
// gets exactly one attempt; failures are collected, never returned early.
func (o *Orchestrator) compensate(ctx context.Context, r *run) *multierror.Error {
	var errs *multierror.Error
	for i := len(r.completed) - 1; i >= 0; i-- {
		index := r.completed[i]
		if err := o.undoStep(ctx, r, index); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// undoStep runs the compensation of the step at index.
func (o *Orchestrator) undoStep(ctx context.Context, r *run, index int) *CompensationError {
	step := o.steps[index]
	name := step.Name()
	r.nodes[index] = StepStateUndoing
	r.record(index, name, EventUndoStarted)

	emitHook(o.hooks, func() {
		if o.hooks.OnCompensationStart != nil {
			o.hooks.OnCompensationStart(name)
		}
	})

	startTime := time.Now()
	err := o.faults.CompensateFault(index, name)
	if err == nil {
		err = safeCall(func() error {
			return step.Compensate(ctx, r.execCtx.Scope(name))
		})
	}
	endTime := time.Now()

	status := StepStateUndone
	if err != nil {
		status = StepStateUndoFailed
	}
	r.nodes[index] = status
	r.trace = append(r.trace, ExecutionRecord{
		Step:      name,
		Index:     index,
		Phase:     PhaseCompensate,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    status,
		Error:     err,
	})

	if err != nil {
		r.record(index, name, EventUndoFailed)
		r.logger.Error().
			Err(err).
			Str("step", string(name)).
			Int("index", index).
			Msg("compensation failed, continuing sweep")
		emitHook(o.hooks, func() {
			if o.hooks.OnCompensationFailed != nil {
				o.hooks.OnCompensationFailed(name, err, endTime.Sub(startTime))
			}
		})
		return &CompensationError{Step: name, Index: index, Err: err}
	}

	r.undone = append(r.undone, index)
	r.record(index, name, EventUndoFinished)
	emitHook(o.hooks, func() {
		if o.hooks.OnCompensationComplete != nil {
			o.hooks.OnCompensationComplete(name, endTime.Sub(startTime))
		}
	})
	r.logger.Debug().Str("step", string(name)).Int("index", index).Msg("step compensated")
	return nil
}

// record appends to the run log. The orchestrator only emits legal
// sequences, so a rejection is logged rather than returned.
func (r *run) record(index int, name StepName, eventType SagaNodeEventType) {
	err := r.log.Record(&SagaNodeEvent{
		SagaID:    r.id,
		Index:     index,
		Step:      name,
		EventType: eventType,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("saga log rejected event")
	}
}

func (r *run) outcome(o *Orchestrator, status Status, sagaErr *SagaExecutionError) *Outcome {
	outcome := &Outcome{
		SagaID:      r.id,
		Status:      status,
		Context:     r.execCtx,
		Completed:   o.namesOf(r.completed),
		Compensated: o.namesOf(r.undone),
		StepStates:  append([]StepState(nil), r.nodes...),
		Trace:       r.trace,
		Log:         r.log,
		Duration:    time.Since(r.startedAt),
		err:         sagaErr,
	}
	if sagaErr != nil {
		outcome.FailedStep = sagaErr.Step
	}
	return outcome
}

func (o *Orchestrator) namesOf(indexes []int) []StepName {
	names := make([]StepName, len(indexes))
	for i, index := range indexes {
		names[i] = o.steps[index].Name()
	}
	return names
}

// safeCall runs fn, turning a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, p)
		}
	}()
	return fn()
}
