package saga

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	registry := NewStepRegistry()

	require.NoError(t, registry.Register("payment", func() Step { return noopStep("payment") }))
	require.NoError(t, registry.Register("shipping", func() Step { return noopStep("shipping") }))

	err := registry.Register("payment", func() Step { return noopStep("payment") })
	assert.Error(t, err, "duplicate registration")

	assert.ErrorIs(t, registry.Register("", func() Step { return noopStep("x") }), ErrInvalidStep)
	assert.ErrorIs(t, registry.Register("x", nil), ErrInvalidStep)

	assert.Equal(t, []StepName{"payment", "shipping"}, registry.Names())

	step, err := registry.Get("payment")
	require.NoError(t, err)
	assert.Equal(t, StepName("payment"), step.Name())

	_, err = registry.Get("inventory")
	assert.ErrorIs(t, err, ErrStepNotFound)

	steps, err := registry.Build("shipping", "payment")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, StepName("shipping"), steps[0].Name())
	assert.Equal(t, StepName("payment"), steps[1].Name())

	_, err = registry.Build("payment", "inventory")
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestStepRegistryRejectsBadFactories(t *testing.T) {
	registry := NewStepRegistry()
	require.NoError(t, registry.Register("nil", func() Step { return nil }))
	require.NoError(t, registry.Register("mismatch", func() Step { return noopStep("other") }))

	_, err := registry.Get("nil")
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = registry.Get("mismatch")
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestStepRegistryBuildsFreshSteps(t *testing.T) {
	registry := NewStepRegistry()
	runs := 0
	require.NoError(t, registry.Register("count", func() Step {
		return NewStepFuncWithNoOpCompensate("count", func(context.Context, *Scope) error {
			runs++
			return nil
		})
	}))

	first, err := registry.Get("count")
	require.NoError(t, err)
	second, err := registry.Get("count")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	o, err := NewOrchestrator([]Step{first})
	require.NoError(t, err)
	_, err = o.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}
