package deltacycle

// Event is a level-triggered flag: once Set, every past and
// future Wait returns immediately until Clear resets it.
type Event struct {
	kernel  *Kernel
	flag    bool
	waiters fifoQueue
	blk     *Blocking
}

// NewEvent constructs an unset Event.
func NewEvent(k *Kernel) *Event {
	e := &Event{kernel: k}
	e.blk = &Blocking{
		x: e,
		tryBlock: func(t *Task) bool {
			if e.flag {
				return false
			}
			e.waiters.push(t)
			return true
		},
		waitDrop: func(t *Task) { e.waiters.drop(t) },
	}
	return e
}

// IsSet reports whether the event has been Set since the last Clear.
func (e *Event) IsSet() bool { return e.flag }

// Set marks the event and wakes every task currently parked on Wait.
func (e *Event) Set() {
	if e.flag {
		return
	}
	e.flag = true
	for !e.waiters.empty() {
		t := e.waiters.pop()
		e.kernel.wake(t, e.blk, e)
	}
}

// Clear resets the event to unset. It does not affect tasks already
// woken by a prior Set.
func (e *Event) Clear() { e.flag = false }

// Wait suspends the calling task until the event is Set.
func (e *Event) Wait(y *Yielder) error {
	_, err := awaitBlocking(y, e.blk)
	return err
}

// Blocking exposes this event as something AllOf/AnyOf can race against.
func (e *Event) Blocking() *Blocking { return e.blk }
