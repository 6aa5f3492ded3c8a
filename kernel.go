package deltacycle

import (
	"errors"
	"fmt"
)

// Variable is anything with a staged value that commits once per time
// slot, after every task scheduled for that slot has run to completion
// or suspended. Singular and Aggregate both implement it.
type Variable interface {
	update()
}

// Kernel is a single-threaded discrete-event dispatcher: a virtual
// clock, a time-and-priority-ordered event queue, and the bookkeeping
// that lets synchronization primitives park and wake tasks.
type Kernel struct {
	state KernelState
	now   Time

	queue   eventQueue
	main    *Task
	running *Task

	forks   map[*Task]map[*Blocking]struct{}
	touched map[Variable]struct{}

	logger Logger

	taskIndexPrefix string
	taskIndex       int
	runLimitPanic   bool
}

// NewKernel constructs a Kernel at StartTime, ready to have tasks
// created on it.
func NewKernel(opts ...KernelOption) *Kernel {
	k := &Kernel{
		state:           KernelInit,
		now:             StartTime,
		forks:           make(map[*Task]map[*Blocking]struct{}),
		touched:         make(map[Variable]struct{}),
		taskIndexPrefix: "Task-",
	}
	resolveKernelOptions(k, opts)
	return k
}

// State returns the kernel's lifecycle state.
func (k *Kernel) State() KernelState { return k.state }

// Now returns the kernel's current virtual time, or InitTime if the
// kernel has not yet dispatched anything.
func (k *Kernel) Now() Time {
	if k.state == KernelInit {
		return InitTime
	}
	return k.now
}

func (k *Kernel) setState(next KernelState) {
	if !k.state.canTransitionTo(next) {
		panic(fmt.Sprintf("deltacycle: kernel illegal transition %s -> %s", k.state, next))
	}
	k.state = next
}

// CreateTask constructs and schedules a new Task to run at the current
// virtual time. An empty name is replaced with an auto-generated one
// using the kernel's task index prefix (WithTaskIndexPrefix), e.g.
// "Task-0", "Task-1", ...
func (k *Kernel) CreateTask(name string, fn TaskFunc) *Task {
	if name == "" {
		name = fmt.Sprintf("%s%d", k.taskIndexPrefix, k.taskIndex)
		k.taskIndex++
	}
	t := newTask(k, name, fn)
	k.callSoon(t, taskArgs{cmd: CmdStart})
	return t
}

// CreateMain constructs the kernel's main task: the one whose result Run
// returns. It may only be called once per kernel.
func (k *Kernel) CreateMain(fn TaskFunc) *Task {
	if k.main != nil {
		panic("deltacycle: Kernel.CreateMain called twice on the same kernel")
	}
	t := newTask(k, "main", fn)
	k.main = t
	k.callSoon(t, taskArgs{cmd: CmdStart})
	return t
}

// Main returns the task created by CreateMain, or nil if none was.
func (k *Kernel) Main() *Task { return k.main }

// Task returns the task currently being dispatched. It panics if called
// outside a dispatch (i.e. from outside a running task body).
func (k *Kernel) Task() *Task {
	if k.running == nil {
		panic("deltacycle: Kernel.Task called with no task running")
	}
	return k.running
}

// Done reports whether the kernel has reached a terminal state
// (Completed or Finished).
func (k *Kernel) Done() bool {
	return k.state == KernelCompleted || k.state == KernelFinished
}

// Finish returns the sentinel error a task returns to unwind the
// dispatcher immediately, dropping every other pending task without
// running them.
func (k *Kernel) Finish() error { return ErrFinish }

func (k *Kernel) schedule(time Time, priority Priority, t *Task, args taskArgs) {
	t.setState(TaskPending)
	k.queue.push(time, priority, t, args)
}

func (k *Kernel) callSoon(t *Task, args taskArgs) {
	k.schedule(k.now, 0, t, args)
}

func (k *Kernel) callLater(delay Time, t *Task, args taskArgs) {
	k.schedule(k.now+delay, 0, t, args)
}

func (k *Kernel) callAt(time Time, t *Task, args taskArgs) error {
	if time < k.now {
		return &TimingError{Op: "callAt", Current: k.now, Given: time}
	}
	k.schedule(time, 0, t, args)
	return nil
}

// CallSoon schedules t to resume at the current virtual time with value,
// as if t had just woken from a suspension. Runs in the same time slot,
// after whatever is already queued for it.
func (k *Kernel) CallSoon(t *Task, value any) {
	k.callSoon(t, taskArgs{cmd: CmdResume, payload: value})
}

// CallLater schedules t to resume delay units of virtual time from now.
func (k *Kernel) CallLater(delay Time, t *Task, value any) {
	k.callLater(delay, t, taskArgs{cmd: CmdResume, payload: value})
}

// CallAt schedules t to resume at an absolute virtual time, which must
// not be earlier than the kernel's current time.
func (k *Kernel) CallAt(when Time, t *Task, value any) error {
	return k.callAt(when, t, taskArgs{cmd: CmdResume, payload: value})
}

// fork snapshots the task's current wait-links as a cancellable set: if
// one of them fires, the rest are detached. Used by AnyOf.
func (k *Kernel) fork(t *Task) {
	cs := make(map[*Blocking]struct{}, len(t.waitLinks))
	for b := range t.waitLinks {
		cs[b] = struct{}{}
	}
	k.forks[t] = cs
}

// joinAny cancels every Blocking t had forked except winner, which
// already fired on its own.
func (k *Kernel) joinAny(t *Task, winner *Blocking) {
	cs, ok := k.forks[t]
	if !ok {
		return
	}
	delete(cs, winner)
	for c := range cs {
		c.waitDrop(t)
		delete(t.waitLinks, c)
	}
	delete(k.forks, t)
}

// wake resumes a parked task with value, clearing its wait-link for b
// and cancelling any sibling it had forked via AnyOf. If t is already
// PENDING — only possible when AllOf has it parked on several Blockings
// at once and an earlier one in the same time slot already scheduled its
// resume — value is stashed instead of scheduling a second resume, since
// only one resume can be delivered per suspension.
func (k *Kernel) wake(t *Task, b *Blocking, value any) {
	delete(t.waitLinks, b)
	k.joinAny(t, b)
	if t.state == TaskPending {
		t.coalesced = append(t.coalesced, value)
		return
	}
	k.callSoon(t, taskArgs{cmd: CmdResume, payload: value})
}

// touch marks v as modified during the current time slot, so its staged
// value commits once the slot finishes running.
func (k *Kernel) touch(v Variable) {
	k.touched[v] = struct{}{}
}

func (k *Kernel) commitTouched() {
	if len(k.touched) == 0 {
		return
	}
	touched := k.touched
	k.touched = make(map[Variable]struct{})
	for v := range touched {
		v.update()
	}
}

func (k *Kernel) finishAbort() {
	k.queue.clear()
	k.forks = make(map[*Task]map[*Blocking]struct{})
	k.touched = make(map[Variable]struct{})
	k.setState(KernelFinished)
}

func (k *Kernel) dispatchOne(item *eventItem) {
	t := item.task
	k.running = t
	done, value, err := t.doRun(item.args)
	k.running = nil
	if !done {
		return
	}
	if errors.Is(err, ErrFinish) {
		k.log(LogLevelInfo, t.name, "finish", nil)
		k.finishAbort()
		return
	}
	var cancelled *CancelledError
	switch {
	case err == nil:
		t.setState(TaskComplete)
		t.value = value
		k.log(LogLevelDebug, t.name, "complete", nil)
	case errors.As(err, &cancelled):
		t.setState(TaskCancelled)
		t.result = err
		k.log(LogLevelDebug, t.name, "cancelled", err)
	default:
		t.setState(TaskExcepted)
		t.result = err
		k.log(LogLevelWarn, t.name, "excepted", err)
	}
	blk := t.blocking()
	for !t.joiners.empty() {
		joiner := t.joiners.pop()
		k.wake(joiner, blk, t)
	}
}

// runTimeSlot drains every item scheduled for time, including ones
// freshly scheduled by tasks that ran earlier in the same slot.
func (k *Kernel) runTimeSlot(time Time) {
	for {
		pt, ok := k.queue.peekTime()
		if !ok || pt != time {
			return
		}
		item := k.queue.pop()
		k.dispatchOne(item)
		if k.state == KernelFinished {
			return
		}
	}
}

// runLimit drives the dispatcher forward until the event queue drains, a
// task calls Finish, or limit is reached. Reaching limit leaves the
// kernel RUNNING, so a later call can pick up where it left off; only
// genuine queue exhaustion transitions to COMPLETED. A kernel that has
// already reached COMPLETED or FINISHED refuses a further call: restarting
// a completed or finished kernel is not allowed, only resuming a RUNNING
// one that merely hit a limit.
func (k *Kernel) runLimit(limit RunLimit) error {
	if k.state != KernelInit && k.state != KernelRunning {
		if k.runLimitPanic {
			panic(fmt.Sprintf("deltacycle: Kernel.Run called on a %s kernel", k.state))
		}
		return &InvalidStateError{Op: "Kernel.Run", State: k.state}
	}
	if k.state != KernelRunning {
		k.setState(KernelRunning)
	}
	ticks := 0
	for {
		pt, ok := k.queue.peekTime()
		if !ok {
			k.setState(KernelCompleted)
			return nil
		}
		if limit.hasUntil && pt > limit.Until {
			return nil
		}
		if limit.Ticks > 0 && ticks >= limit.Ticks {
			return nil
		}
		if pt < k.now {
			return &TimingError{Op: "dispatch", Current: k.now, Given: pt}
		}
		k.now = pt
		k.runTimeSlot(pt)
		if k.state == KernelFinished {
			return nil
		}
		k.commitTouched()
		ticks++
	}
}

// Step advances the dispatcher by exactly one time slot (if the event
// queue is non-empty), returning the virtual time that was processed.
// The second return is false once the queue has drained.
func (k *Kernel) Step() (Time, bool, error) {
	if k.state != KernelInit && k.state != KernelRunning {
		return 0, false, &InvalidStateError{Op: "Kernel.Step", State: k.state}
	}
	if k.state != KernelRunning {
		k.setState(KernelRunning)
	}
	pt, ok := k.queue.peekTime()
	if !ok {
		k.setState(KernelCompleted)
		return 0, false, nil
	}
	if pt < k.now {
		return 0, false, &TimingError{Op: "step", Current: k.now, Given: pt}
	}
	k.now = pt
	k.runTimeSlot(pt)
	if k.state == KernelFinished {
		return pt, false, nil
	}
	k.commitTouched()
	if k.queue.empty() {
		k.setState(KernelCompleted)
		return pt, false, nil
	}
	return pt, true, nil
}
