package deltacycle_test

import (
	"testing"

	"github.com/cjdrake/deltacycle-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeltaCycleRegisterFile mirrors a tiny hardware register file: a
// writer stages several updates in one slot, and readers observe only
// the previously-committed values until the slot's commit phase runs.
func TestDeltaCycleRegisterFile(t *testing.T) {
	k := deltacycle.NewKernel()
	regs := deltacycle.NewAggregate[int, int](k, 0)

	k.CreateTask("writer", func(y *deltacycle.Yielder) (any, error) {
		regs.SetNext(0, 1)
		regs.SetNext(1, 2)
		assert.Equal(t, 0, regs.Value(0), "same-cycle read must not see the uncommitted write")
		assert.Equal(t, 0, regs.Value(1))
		assert.Equal(t, 1, regs.Next(0))
		return nil, nil
	})

	_, err := deltacycle.Run(nil, k)
	require.NoError(t, err)
	assert.Equal(t, 1, regs.Value(0))
	assert.Equal(t, 2, regs.Value(1))
}

func TestSingularAwaitWakesOnMatchingPredicate(t *testing.T) {
	k := deltacycle.NewKernel()
	v := deltacycle.NewSingular(k, 0)
	var wokeAt deltacycle.Time

	k.CreateTask("waiter", func(y *deltacycle.Yielder) (any, error) {
		require.NoError(t, v.Await(y, func() bool { return v.Value() == 3 }))
		wokeAt = y.Kernel().Now()
		return nil, nil
	})
	k.CreateTask("writer", func(y *deltacycle.Yielder) (any, error) {
		require.NoError(t, deltacycle.Sleep(y, 1))
		v.SetNext(1)
		require.NoError(t, deltacycle.Sleep(y, 1))
		v.SetNext(3)
		return nil, nil
	})

	_, err := deltacycle.Run(nil, k)
	require.NoError(t, err)
	assert.Equal(t, deltacycle.Time(2), wokeAt)
}
