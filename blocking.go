package deltacycle

// Sendable is the value handed back to a task when the Blocking it was
// parked on becomes ready. By convention it is the primitive itself
// (*Event, *Task, *Queue[T], ...), which is how AllOf/AnyOf identify
// which of several raced items actually fired.
type Sendable = any

// Blocking is the uniform suspension point every synchronization
// primitive in this package is built on. tryBlock attempts to either
// satisfy the wait immediately (returns false, no side effects beyond
// whatever "acquire" the primitive performs) or park the task (returns
// true). waitDrop detaches an already-parked task without resuming it,
// used both for direct cancellation and for dropping the losers of an
// AnyOf race.
type Blocking struct {
	x        Sendable
	tryBlock func(*Task) bool
	waitDrop func(*Task)
}

// awaitBlocking is the single suspension primitive every primitive's
// direct Wait/Get/Put style method is built on: try to proceed
// immediately, and if that's not possible, park on b and suspend until
// the kernel resumes or throws into this task.
func awaitBlocking(y *Yielder, b *Blocking) (Sendable, error) {
	t := y.task
	if !b.tryBlock(t) {
		return b.x, nil
	}
	t.park(b)
	return y.suspend()
}

// AllOf parks the current task on every item in bs that isn't already
// satisfiable, and resumes once all of them have fired, in no particular
// order. If the task is cancelled while waiting, the remaining items are
// detached and the cancellation error is returned.
//
// Two or more parked items can fire in the same time slot, before this
// task is actually dispatched to consume either one — e.g. two other
// tasks each Set() a different Event this call is waiting on. Only one
// resume is ever delivered per suspension, so every resume is followed by
// a drain of whatever else the kernel stashed on the task in the
// meantime (see Kernel.wake), instead of assuming exactly one item fired
// per suspend/resume round trip.
func AllOf(y *Yielder, bs ...*Blocking) ([]Sendable, error) {
	t := y.task
	pending := make(map[*Blocking]struct{}, len(bs))
	results := make([]Sendable, 0, len(bs))
	match := func(v Sendable) bool {
		for b := range pending {
			if b.x == v {
				delete(pending, b)
				results = append(results, v)
				return true
			}
		}
		return false
	}
	for _, b := range bs {
		if b.tryBlock(t) {
			pending[b] = struct{}{}
			t.park(b)
		} else {
			results = append(results, b.x)
		}
	}
	if len(pending) == 0 {
		return results, nil
	}
	for len(pending) > 0 {
		v, err := y.suspend()
		if err != nil {
			// Cancellation already reneged every parked Blocking; nothing
			// left to detach here.
			return nil, err
		}
		match(v)
		for _, cv := range t.drainCoalesced() {
			match(cv)
		}
	}
	return results, nil
}

// AnyOf parks the current task on every item in bs that isn't already
// satisfiable, and resumes as soon as the first one fires; the rest are
// detached automatically. It returns the Sendable identity of whichever
// item won the race.
func AnyOf(y *Yielder, bs ...*Blocking) (Sendable, error) {
	t := y.task
	pending := make(map[*Blocking]struct{}, len(bs))
	for _, b := range bs {
		if b.tryBlock(t) {
			pending[b] = struct{}{}
			t.park(b)
		} else {
			for p := range pending {
				p.waitDrop(t)
				delete(t.waitLinks, p)
			}
			return b.x, nil
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	y.kernel.fork(t)
	return y.suspend()
}
