package deltacycle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned at the await boundary where a cancelled task
// was suspended. A task body may recover from it by returning a nil
// error, in which case the task completes normally instead of as
// cancelled.
var ErrCancelled = errors.New("deltacycle: task cancelled")

// ErrFinish is the sentinel a task returns to unwind the dispatcher
// without running the rest of the current time slot. It is never wrapped
// and never surfaces as a task's terminal error; Finish handles it
// specially.
var ErrFinish = errors.New("deltacycle: simulation finished")

// ErrInvalidSemaphoreValue reports a negative semaphore starting value.
// No function in this package returns it: NewSemaphore and
// NewBoundedSemaphore do not check their value and have no error return.
var ErrInvalidSemaphoreValue = errors.New("deltacycle: semaphore value must be >= 0")

// ErrInvalidContainerN is returned by Container.Get/Put/TryGet/TryPut when
// asked to move a non-positive or over-capacity number of units.
var ErrInvalidContainerN = errors.New("deltacycle: container n must be in (0, capacity]")

// ErrNoCoroutine reports that Run was given nothing to run. No function
// in this package returns it: Run with a nil body and no main task drains
// whatever is scheduled on the kernel and returns (nil, nil).
var ErrNoCoroutine = errors.New("deltacycle: nothing to run")

// ErrUnknownCombinator reports an AllOf/AnyOf call with no Blocking
// arguments. No function in this package returns it: AllOf with no
// arguments returns an empty slice and AnyOf returns a nil Sendable.
var ErrUnknownCombinator = errors.New("deltacycle: no blocking conditions given")

// ErrNoRunningKernel is returned by GetRunningKernel when no kernel has
// been installed via SetKernel, and by GetCurrentTask when given a nil
// kernel.
var ErrNoRunningKernel = errors.New("deltacycle: no running kernel")

// ErrKernelNotRunning is returned by GetCurrentTask when the given kernel
// has no task currently dispatching.
var ErrKernelNotRunning = errors.New("deltacycle: kernel is not running")

// InvalidStateError reports an operation attempted against a Task or
// Kernel that is not in a state that permits it (e.g. reading the result
// of a task that has not finished, or cancelling one that has).
type InvalidStateError struct {
	Op    string
	State fmt.Stringer
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("deltacycle: invalid state for %s: %s", e.Op, e.State)
}

// TimingError reports a dispatcher invariant violation: an attempt to
// schedule something at a time earlier than the kernel's current virtual
// clock, or a non-monotonic advance observed during dispatch.
type TimingError struct {
	Op      string
	Current Time
	Given   Time
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("deltacycle: %s: time %d is not >= current time %d", e.Op, e.Given, e.Current)
}

// OverflowError reports a capacity violation on a bounded primitive. Only
// Semaphore.Put returns it, for a BoundedSemaphore or Lock already at
// capacity; Container and Queue suspend or report false instead.
type OverflowError struct {
	Kind     string
	Capacity int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("deltacycle: %s at capacity %d", e.Kind, e.Capacity)
}

// CancelledError is the concrete error value carried by a cancelled
// task's terminal state. It wraps ErrCancelled so callers can match it
// with errors.Is(err, ErrCancelled), and carries the message passed to
// Task.Cancel.
type CancelledError struct {
	Msg string
}

func (e *CancelledError) Error() string {
	if e.Msg == "" {
		return ErrCancelled.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCancelled.Error(), e.Msg)
}

func (e *CancelledError) Unwrap() error { return ErrCancelled }

// AggregateError collects the errors raised by a set of tasks run
// together, e.g. the non-winning members of a TaskGroup that were
// cancelled after a sibling failed. Is reports true for a target that
// matches ANY of the wrapped errors, mirroring ES2022's AggregateError.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("deltacycle: %d error(s): %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errs }

func (e *AggregateError) Is(target error) bool {
	for _, err := range e.Errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// newAggregateError flattens a slice that may contain nils, returning
// nil if nothing remains, the lone error if exactly one remains, or an
// *AggregateError otherwise.
func newAggregateError(errs []error) error {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return &AggregateError{Errs: out}
	}
}
