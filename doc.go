// Package deltacycle provides a single-threaded, cooperative discrete-event
// simulation kernel: a priority-ordered, time-indexed scheduler for
// coroutine-style tasks, with a two-phase "delta cycle" update model for
// hardware-style concurrent variable assignment.
//
// # Architecture
//
// The kernel ([Kernel]) owns a virtual clock, a min-heap event queue keyed
// by (time, priority, seq), and the bookkeeping that links parked tasks to
// the wait queues and timers they depend on. A [Task] wraps a user-supplied
// [TaskFunc] running on its own goroutine; the kernel and exactly one task
// goroutine hand off control through an unbuffered channel pair at every
// suspension point ([Sleep] and the primitives' Wait/Get/Put/Await
// methods), so only one of them is ever runnable
// at a time — true cooperative scheduling, not an emulation built on
// locks. Synchronization primitives ([Event], [Semaphore], [Queue],
// [Container], [Singular], [Aggregate]) are all built on the same
// suspend/resume protocol via the internal Blocking abstraction, which is
// also what [AllOf] and [AnyOf] race against.
//
// # Execution Model
//
// Each time slot executes in two passes:
//  1. Every task scheduled for the current time runs, in ascending
//     (priority, seq) order, until it suspends or terminates.
//  2. Every [Variable] touched during the slot commits its staged value
//     (next -> prev); this pass never schedules new tasks, since
//     predicate-gated wakeups are posted synchronously by the writer.
//
// # Usage
//
//	k := deltacycle.NewKernel()
//	k.CreateMain(func(y *deltacycle.Yielder) (any, error) {
//	    if err := deltacycle.Sleep(y, 2); err != nil {
//	        return nil, err
//	    }
//	    return 42, nil
//	})
//	result, err := deltacycle.Run(nil, k) // result == 42
package deltacycle
