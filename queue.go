package deltacycle

// Queue is a FIFO channel of items with an optional maximum size: Get
// suspends while empty, Put suspends while full (for a bounded queue).
type Queue[T any] struct {
	kernel   *Kernel
	items    []T
	maxsize  int // 0 means unbounded
	getWait  fifoQueue
	putWait  fifoQueue
	getBlk   *Blocking
	putBlk   *Blocking
}

// NewQueue constructs a Queue. maxsize <= 0 means unbounded: Put never
// suspends.
func NewQueue[T any](k *Kernel, maxsize int) *Queue[T] {
	q := &Queue[T]{kernel: k, maxsize: maxsize}
	q.getBlk = &Blocking{
		x: q,
		tryBlock: func(t *Task) bool {
			if len(q.items) > 0 {
				return false
			}
			q.getWait.push(t)
			return true
		},
		waitDrop: func(t *Task) { q.getWait.drop(t) },
	}
	q.putBlk = &Blocking{
		x: q,
		tryBlock: func(t *Task) bool {
			if !q.full() {
				return false
			}
			q.putWait.push(t)
			return true
		},
		waitDrop: func(t *Task) { q.putWait.drop(t) },
	}
	return q
}

func (q *Queue[T]) full() bool { return q.maxsize > 0 && len(q.items) >= q.maxsize }

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int { return len(q.items) }

// MaxSize returns the maxsize given to NewQueue; a value <= 0 means
// unbounded.
func (q *Queue[T]) MaxSize() int { return q.maxsize }

// Empty reports whether the queue currently holds no items.
func (q *Queue[T]) Empty() bool { return len(q.items) == 0 }

// Full reports whether the queue is at its bound.
func (q *Queue[T]) Full() bool { return q.full() }

// Put appends item, suspending the calling task if the queue is at its
// bound until room frees up. A woken waiter re-checks before writing,
// since another task may have raced it to the freed slot in the
// meantime.
func (q *Queue[T]) Put(y *Yielder, item T) error {
	for q.full() {
		if _, err := awaitBlocking(y, q.putBlk); err != nil {
			return err
		}
	}
	q.items = append(q.items, item)
	if !q.getWait.empty() {
		t := q.getWait.pop()
		q.kernel.wake(t, q.getBlk, q)
	}
	return nil
}

// Get removes and returns the oldest item, suspending the calling task
// if the queue is empty until one arrives. A woken waiter re-checks
// before reading, since another task may have raced it to the item in
// the meantime.
func (q *Queue[T]) Get(y *Yielder) (T, error) {
	var zero T
	for len(q.items) == 0 {
		if _, err := awaitBlocking(y, q.getBlk); err != nil {
			return zero, err
		}
	}
	item := q.items[0]
	q.items = q.items[1:]
	if !q.full() && !q.putWait.empty() {
		t := q.putWait.pop()
		q.kernel.wake(t, q.putBlk, q)
	}
	return item, nil
}

// TryPut appends item without suspending, reporting whether there was
// room.
func (q *Queue[T]) TryPut(item T) bool {
	if q.full() {
		return false
	}
	q.items = append(q.items, item)
	if !q.getWait.empty() {
		t := q.getWait.pop()
		q.kernel.wake(t, q.getBlk, q)
	}
	return true
}

// TryGet removes and returns the oldest item without suspending. ok is
// false if the queue was empty.
func (q *Queue[T]) TryGet() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	if !q.full() && !q.putWait.empty() {
		t := q.putWait.pop()
		q.kernel.wake(t, q.putBlk, q)
	}
	return item, true
}

// BlockingGet exposes the "has an item" condition for use with
// AllOf/AnyOf. Note the resumed task must still call Get to consume one;
// another racer or direct caller may win it first.
func (q *Queue[T]) BlockingGet() *Blocking { return q.getBlk }

// BlockingPut exposes the "has room" condition for use with
// AllOf/AnyOf.
func (q *Queue[T]) BlockingPut() *Blocking { return q.putBlk }
