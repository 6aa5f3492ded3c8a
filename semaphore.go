package deltacycle

// Semaphore is a counting resource gate: Get blocks while the count is
// zero, Put releases one unit, and parked waiters are served in
// ascending (priority, arrival) order rather than strictly FIFO.
type Semaphore struct {
	kernel   *Kernel
	cnt      int
	value    int
	capacity int
	bounded  bool
	waiters  priorityQueue
}

// NewSemaphore constructs a Semaphore starting with value units
// available. A plain Semaphore's count is never bounded above: Put
// always succeeds.
func NewSemaphore(k *Kernel, value int) *Semaphore {
	return &Semaphore{kernel: k, cnt: value, value: value}
}

// Value returns the semaphore's initial count.
func (s *Semaphore) Value() int { return s.value }

// Count returns the number of units currently available.
func (s *Semaphore) Count() int { return s.cnt }

func (s *Semaphore) makeBlocking(priority Priority) *Blocking {
	b := &Blocking{x: s}
	b.tryBlock = func(t *Task) bool {
		if s.cnt > 0 {
			s.cnt--
			return false
		}
		s.waiters.push(priority, t, b)
		return true
	}
	b.waitDrop = func(t *Task) { s.waiters.dropTask(t) }
	return b
}

// Get acquires one unit, suspending the calling task if none is
// available. priority breaks ties among waiters contending for the same
// release; lower values are served first.
func (s *Semaphore) Get(y *Yielder, priority Priority) error {
	_, err := awaitBlocking(y, s.makeBlocking(priority))
	return err
}

// TryGet acquires one unit without suspending, reporting whether a unit
// was available.
func (s *Semaphore) TryGet() bool {
	if s.cnt > 0 {
		s.cnt--
		return true
	}
	return false
}

// Len returns the number of tasks currently parked on Get.
func (s *Semaphore) Len() int { return s.waiters.Len() }

// Put releases one unit, waking the highest-priority waiter if any is
// parked, and otherwise incrementing the available count. It returns an
// *OverflowError if this is a BoundedSemaphore already at capacity with
// no one waiting.
func (s *Semaphore) Put() error {
	if !s.waiters.empty() {
		w := s.waiters.pop()
		s.kernel.wake(w.task, w.b, s)
		return nil
	}
	if s.bounded && s.cnt == s.capacity {
		return &OverflowError{Kind: "Semaphore.Put", Capacity: s.capacity}
	}
	s.cnt++
	return nil
}

// Req acquires one unit and returns a release function that puts it
// back, for scoped use: `release, err := sem.Req(y, 0); defer release()`.
func (s *Semaphore) Req(y *Yielder, priority Priority) (func(), error) {
	if err := s.Get(y, priority); err != nil {
		return nil, err
	}
	return func() { _ = s.Put() }, nil
}

// BoundedSemaphore is a Semaphore whose count may never exceed capacity;
// Put fails with *OverflowError instead of growing past it.
type BoundedSemaphore struct {
	*Semaphore
}

// NewBoundedSemaphore constructs a BoundedSemaphore starting at value
// units, capped at capacity. If capacity <= 0, it defaults to value,
// matching a semaphore that can only ever return to its starting count.
func NewBoundedSemaphore(k *Kernel, value, capacity int) *BoundedSemaphore {
	if capacity <= 0 {
		capacity = value
	}
	return &BoundedSemaphore{Semaphore: &Semaphore{
		kernel: k, cnt: value, value: value, capacity: capacity, bounded: true,
	}}
}

// Lock is a BoundedSemaphore of capacity 1: Get acquires exclusive
// access, Put releases it.
type Lock struct {
	*BoundedSemaphore
}

// NewLock constructs an unheld Lock.
func NewLock(k *Kernel) *Lock {
	return &Lock{BoundedSemaphore: NewBoundedSemaphore(k, 1, 1)}
}

// Acquire is Get with priority 0, the common case for a Lock.
func (l *Lock) Acquire(y *Yielder) error { return l.Get(y, 0) }

// Release is Put, named to match Acquire.
func (l *Lock) Release() error { return l.Put() }
