// Package saga provides a sequential saga orchestrator.
//
// A saga is an ordered list of steps. Each step has a forward action and a
// compensating action. The orchestrator runs the forward actions in order;
// when one fails it runs the compensating actions of every step that already
// completed, most recent first, and reports a single *SagaExecutionError.
//
// Overview
//
//  1. Define your steps:
//     - Implement the Step interface, or
//     - Use NewStepFunc to package an execute and a compensate function.
//  2. Keep what you need to undo in the Scope handed to the step. A scope
//     only exposes the values written by its own step.
//  3. Create an Orchestrator with NewOrchestrator. Options add a zerolog
//     logger, lifecycle Hooks and a FaultInjector for tests and drills.
//  4. Call Execute. Inspect the returned Outcome, and on failure the
//     *SagaExecutionError, which names the failing step, wraps the original
//     error and lists every compensation error.
//
// Example:
//
//	payment := saga.NewStepFunc("payment",
//	    func(ctx context.Context, s *saga.Scope) error {
//	        id, err := gateway.Charge(ctx, amount)
//	        if err != nil {
//	            return err
//	        }
//	        s.Set("payment_id", id)
//	        return nil
//	    },
//	    func(ctx context.Context, s *saga.Scope) error {
//	        id, ok := saga.Lookup[string](s, "payment_id")
//	        if !ok {
//	            return nil
//	        }
//	        return gateway.Refund(ctx, id)
//	    },
//	)
//	orch, _ := saga.NewOrchestrator([]saga.Step{payment, inventory, shipping})
//	outcome, err := orch.Execute(ctx)
package saga
