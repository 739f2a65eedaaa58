package saga

import "time"

// Hooks provides callbacks for observability and monitoring.
// All callbacks are optional - only set the ones you need.
// Hooks are called synchronously but wrapped in panic recovery,
// so a panicking hook won't break the saga flow.
//
// Example:
//
//	hooks := &saga.Hooks{
//	    OnStepComplete: func(name saga.StepName, d time.Duration) {
//	        log.Printf("step %s completed in %v", name, d)
//	    },
//	    OnCompensationFailed: func(name saga.StepName, err error, _ time.Duration) {
//	        alerting.Send("compensation for %s failed: %v", name, err)
//	    },
//	}
type Hooks struct {
	// Saga lifecycle
	OnSagaStart    func(id SagaID, steps []StepName)
	OnSagaComplete func(id SagaID, duration time.Duration)
	OnSagaFailed   func(id SagaID, err *SagaExecutionError, duration time.Duration)

	// Step lifecycle
	OnStepStart    func(name StepName)
	OnStepComplete func(name StepName, duration time.Duration)
	OnStepFailed   func(name StepName, err error, duration time.Duration)

	// Compensation lifecycle
	OnCompensationStart    func(name StepName)
	OnCompensationComplete func(name StepName, duration time.Duration)
	OnCompensationFailed   func(name StepName, err error, duration time.Duration)
}

// emitHook safely calls a hook, catching any panics.
func emitHook(hooks *Hooks, handler func()) {
	if hooks == nil || handler == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	handler()
}
