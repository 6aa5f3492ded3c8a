package deltacycle

import "fmt"

// TaskFunc is the body of a Task. y is used to suspend at await points;
// the returned value becomes the task's result, or the returned error
// becomes its terminal exception.
type TaskFunc func(y *Yielder) (any, error)

// Yielder is a task's handle back into the kernel. It is only valid for
// the lifetime of the TaskFunc call it was passed to, and must not be
// retained past the call returning.
type Yielder struct {
	kernel *Kernel
	task   *Task
}

// Kernel returns the kernel running this task.
func (y *Yielder) Kernel() *Kernel { return y.kernel }

// Task returns the task this Yielder belongs to.
func (y *Yielder) Task() *Task { return y.task }

// suspend hands control back to the kernel and blocks until it is
// resumed, returning either the resume value or the thrown error.
func (y *Yielder) suspend() (any, error) {
	y.task.yieldCh <- yieldMsg{suspended: true}
	msg := <-y.task.resumeCh
	if msg.cmd == CmdThrow {
		return nil, msg.err
	}
	return msg.payload, nil
}

// Command tags what a resumption delivers to a suspended task.
type Command uint8

const (
	CmdStart Command = iota
	CmdResume
	CmdThrow
)

// taskArgs is what the dispatcher delivers when it runs a scheduled
// item: either the first run, a plain resume value, or an error to
// raise at the task's current await point.
type taskArgs struct {
	cmd     Command
	payload any
	err     error
}

type resumeMsg struct {
	cmd     Command
	payload any
	err     error
}

type yieldMsg struct {
	suspended bool
	result    any
	err       error
}

// Task is one coroutine-style unit of execution inside a Kernel. Exactly
// one of {the kernel, this task's goroutine} is ever runnable at a time;
// they hand off control through resumeCh/yieldCh at each suspension
// point.
type Task struct {
	kernel *Kernel
	name   string
	fn     TaskFunc

	state TaskState

	started  bool
	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg

	result error // terminal error (nil on normal completion)
	value  any   // terminal result value

	waitLinks map[*Blocking]struct{}
	joiners   fifoQueue
	blk       *Blocking

	// coalesced holds Sendable values from wake() calls that arrived while
	// this task was already PENDING from an earlier wake in the same time
	// slot — only possible when a task is parked on several Blockings at
	// once, via AllOf. AllOf drains this between suspensions instead of
	// relying on one resume per parked item.
	coalesced []Sendable
}

func newTask(k *Kernel, name string, fn TaskFunc) *Task {
	return &Task{
		kernel:    k,
		name:      name,
		fn:        fn,
		state:     TaskInit,
		resumeCh:  make(chan resumeMsg),
		yieldCh:   make(chan yieldMsg),
		waitLinks: make(map[*Blocking]struct{}),
	}
}

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState { return t.state }

// Done reports whether the task has reached a terminal state.
func (t *Task) Done() bool { return t.state.Done() }

func (t *Task) setState(next TaskState) {
	if !t.state.canTransitionTo(next) {
		panic(fmt.Sprintf("deltacycle: task %q illegal transition %s -> %s", t.name, t.state, next))
	}
	t.state = next
}

// park registers that this task is suspended on b, so that Cancel can
// detach it from every wait structure it's parked in.
func (t *Task) park(b *Blocking) {
	t.waitLinks[b] = struct{}{}
	if t.state != TaskWaiting {
		t.setState(TaskWaiting)
	}
}

func (t *Task) unpark(b *Blocking) {
	delete(t.waitLinks, b)
}

// drainCoalesced removes and returns every value stashed by wake() while
// this task was already PENDING, in arrival order.
func (t *Task) drainCoalesced() []Sendable {
	c := t.coalesced
	t.coalesced = nil
	return c
}

// renege detaches this task from every Blocking it is currently parked
// on, without resuming it. Used when cancelling a WAITING task.
func (t *Task) renege() {
	links := t.waitLinks
	t.waitLinks = make(map[*Blocking]struct{})
	for b := range links {
		b.waitDrop(t)
	}
}

// Result returns the task's final value, or an error if it has not
// finished, was cancelled, or raised.
func (t *Task) Result() (any, error) {
	if !t.Done() {
		return nil, &InvalidStateError{Op: "Task.Result", State: t.state}
	}
	return t.value, t.result
}

// blocking returns the stable Blocking identity used to await this
// task's completion: a joiner is parked on t.joiners until t reaches a
// terminal state, then woken with t itself as the Sendable regardless of
// outcome (the joiner reads Result to learn it).
func (t *Task) blocking() *Blocking {
	if t.blk == nil {
		t.blk = &Blocking{
			x: t,
			tryBlock: func(p *Task) bool {
				if t.Done() {
					return false
				}
				t.joiners.push(p)
				return true
			},
			waitDrop: func(p *Task) { t.joiners.drop(p) },
		}
	}
	return t.blk
}

// Blocking exposes this task as something AllOf/AnyOf can race against;
// it fires once the task reaches a terminal state.
func (t *Task) Blocking() *Blocking { return t.blocking() }

// Await suspends the calling task until t finishes, then returns t's
// result (or re-raises its terminal error).
func (t *Task) Await(y *Yielder) (any, error) {
	if _, err := awaitBlocking(y, t.blocking()); err != nil {
		return nil, err
	}
	return t.Result()
}

// Cancel requests cancellation of a PENDING or WAITING task. msg becomes
// part of the resulting CancelledError. It is an error to cancel a task
// that is RUNNING, CANCELLING, or already terminal.
func (t *Task) Cancel(msg string) error {
	switch t.state {
	case TaskWaiting:
		t.setState(TaskCancelling)
		t.renege()
		t.kernel.callSoon(t, taskArgs{cmd: CmdThrow, err: &CancelledError{Msg: msg}})
		return nil
	case TaskPending:
		t.setState(TaskCancelling)
		t.kernel.queue.drop(t)
		delete(t.kernel.forks, t)
		t.kernel.callSoon(t, taskArgs{cmd: CmdThrow, err: &CancelledError{Msg: msg}})
		return nil
	default:
		return &InvalidStateError{Op: "Task.Cancel", State: t.state}
	}
}

// doRun drives the task's goroutine through one resumption: starting it
// if this is its first run, or delivering a resume value/thrown error
// otherwise. It blocks until the task suspends again or terminates.
func (t *Task) doRun(args taskArgs) (done bool, value any, err error) {
	t.setState(TaskRunning)
	if args.cmd == CmdThrow && !t.started {
		// Never ran at all: there is no goroutine to throw into, so the
		// cancellation takes effect immediately.
		return true, nil, args.err
	}
	if args.cmd == CmdStart {
		t.started = true
		go t.runBody()
	} else if args.cmd == CmdThrow {
		t.resumeCh <- resumeMsg{cmd: CmdThrow, err: args.err}
	} else {
		t.resumeCh <- resumeMsg{cmd: CmdResume, payload: args.payload}
	}
	ym := <-t.yieldCh
	if ym.suspended {
		return false, nil, nil
	}
	return true, ym.result, ym.err
}

func (t *Task) runBody() {
	y := &Yielder{kernel: t.kernel, task: t}
	value, err := t.fn(y)
	t.yieldCh <- yieldMsg{suspended: false, result: value, err: err}
}
