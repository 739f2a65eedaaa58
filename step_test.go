package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepFunc(t *testing.T) {
	scope := NewExecutionContext().Scope("payment")
	fail := errors.New("declined")

	step := NewStepFunc("payment",
		func(ctx context.Context, s *Scope) error { return fail },
		nil,
	)
	assert.Equal(t, StepName("payment"), step.Name())
	assert.Equal(t, "StepFunc[payment]", step.String())
	assert.ErrorIs(t, step.Execute(context.Background(), scope), fail)
	assert.NoError(t, step.Compensate(context.Background(), scope), "nil compensate defaults to a no-op")

	empty := NewStepFuncWithNoOpCompensate("empty", nil)
	assert.NoError(t, empty.Execute(context.Background(), scope))
	assert.NoError(t, empty.Compensate(context.Background(), scope))
}
