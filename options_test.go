package deltacycle_test

import (
	"testing"

	"github.com/cjdrake/deltacycle-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTaskIndexPrefixNamesAnonymousTasks(t *testing.T) {
	k := deltacycle.NewKernel(deltacycle.WithTaskIndexPrefix("worker-"))
	a := k.CreateTask("", func(y *deltacycle.Yielder) (any, error) { return nil, nil })
	b := k.CreateTask("", func(y *deltacycle.Yielder) (any, error) { return nil, nil })
	named := k.CreateTask("explicit", func(y *deltacycle.Yielder) (any, error) { return nil, nil })
	assert.Equal(t, "worker-0", a.Name())
	assert.Equal(t, "worker-1", b.Name())
	assert.Equal(t, "explicit", named.Name())
}

func TestWithRunLimitPanicPanicsInsteadOfErroring(t *testing.T) {
	k := deltacycle.NewKernel(deltacycle.WithRunLimitPanic(true))
	k.CreateTask("noop", func(y *deltacycle.Yielder) (any, error) { return nil, nil })
	_, err := deltacycle.Run(nil, k)
	require.NoError(t, err)
	assert.Equal(t, deltacycle.KernelCompleted, k.State())

	assert.Panics(t, func() {
		_, _ = deltacycle.Run(nil, k)
	})
}
