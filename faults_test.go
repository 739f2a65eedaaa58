package saga

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaults(t *testing.T) {
	faults := FailAt(1)
	assert.NoError(t, faults.ExecuteFault(0, "a"))
	assert.ErrorIs(t, faults.ExecuteFault(1, "b"), ErrInjected)
	assert.NoError(t, faults.CompensateFault(1, "b"))

	faults = FailStep("shipping").FailCompensationOf("payment", "inventory")
	err := faults.ExecuteFault(2, "shipping")
	assert.ErrorIs(t, err, ErrInjected)
	assert.EqualError(t, err, "execute shipping: error injected")
	assert.NoError(t, faults.ExecuteFault(0, "payment"))

	err = faults.CompensateFault(0, "payment")
	assert.EqualError(t, err, "compensate payment: error injected")
	assert.ErrorIs(t, faults.CompensateFault(1, "inventory"), ErrInjected)
	assert.NoError(t, faults.CompensateFault(2, "shipping"))

	assert.NoError(t, NoFaults{}.ExecuteFault(0, "a"))
	assert.NoError(t, NoFaults{}.CompensateFault(0, "a"))
}

func TestRandomFaultsAreReproducible(t *testing.T) {
	rolls := func(seed uint64) []bool {
		faults := NewRandomFaults(0.3, seed)
		out := make([]bool, 50)
		for i := range out {
			out[i] = faults.ExecuteFault(i, "step") != nil
		}
		return out
	}

	first := rolls(7)
	assert.Equal(t, first, rolls(7))
	assert.Contains(t, first, true)
	assert.Contains(t, first, false)
}

func TestRandomFaultsBounds(t *testing.T) {
	never := NewRandomFaults(0, 1)
	always := NewRandomFaults(1, 1)
	for i := 0; i < 20; i++ {
		assert.NoError(t, never.ExecuteFault(i, "step"))
		assert.ErrorIs(t, always.ExecuteFault(i, "step"), ErrInjected)
		assert.NoError(t, always.CompensateFault(i, "step"))
	}
}
