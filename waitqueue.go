package deltacycle

import "container/heap"

// fifoQueue is an ordered, identity-removable queue of parked tasks. It
// backs Event, Queue and Task-join waits, which all wake in arrival
// order.
type fifoQueue struct {
	tasks []*Task
}

func (q *fifoQueue) push(t *Task) { q.tasks = append(q.tasks, t) }

func (q *fifoQueue) pop() *Task {
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t
}

func (q *fifoQueue) drop(t *Task) {
	for i, x := range q.tasks {
		if x == t {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return
		}
	}
}

func (q *fifoQueue) empty() bool { return len(q.tasks) == 0 }

func (q *fifoQueue) len() int { return len(q.tasks) }

// priorityWaiter is one entry in a priorityQueue: a task parked at a
// given priority, carrying the Blocking it's waiting on so the waker can
// report the right Sendable and clear the task's wait-link bookkeeping.
type priorityWaiter struct {
	priority Priority
	seq      uint64
	task     *Task
	b        *Blocking
	index    int
}

// priorityQueue is a priority-ordered, identity-removable queue of
// parked tasks, breaking ties by arrival order. It backs Semaphore and
// Lock waiters.
type priorityQueue struct {
	items []*priorityWaiter
	seq   uint64
}

func (q *priorityQueue) Len() int { return len(q.items) }

func (q *priorityQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (q *priorityQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *priorityQueue) Push(x any) {
	w := x.(*priorityWaiter)
	w.index = len(q.items)
	q.items = append(q.items, w)
}

func (q *priorityQueue) Pop() any {
	old := q.items
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	q.items = old[:n-1]
	return w
}

func (q *priorityQueue) push(priority Priority, t *Task, b *Blocking) {
	heap.Push(q, &priorityWaiter{priority: priority, seq: q.seq, task: t, b: b})
	q.seq++
}

func (q *priorityQueue) pop() *priorityWaiter {
	return heap.Pop(q).(*priorityWaiter)
}

func (q *priorityQueue) dropTask(t *Task) {
	for i, w := range q.items {
		if w.task == t {
			heap.Remove(q, i)
			return
		}
	}
}

func (q *priorityQueue) empty() bool { return len(q.items) == 0 }

// predicateEntry pairs a parked task's wakeup predicate with the
// Blocking it registered through, so Variable can both evaluate
// readiness and report the right identity when waking it.
type predicateEntry struct {
	pred func() bool
	b    *Blocking
}

// predicateSet backs Variable waits: an unordered collection of tasks
// each parked on their own arbitrary predicate over the variable's
// staged value.
type predicateSet struct {
	entries map[*Task]predicateEntry
}

func (p *predicateSet) push(t *Task, pred func() bool, b *Blocking) {
	if p.entries == nil {
		p.entries = make(map[*Task]predicateEntry)
	}
	p.entries[t] = predicateEntry{pred: pred, b: b}
}

func (p *predicateSet) drop(t *Task) { delete(p.entries, t) }

// armedWaiter is a task whose predicate fired, paired with the Blocking
// it parked through.
type armedWaiter struct {
	task *Task
	b    *Blocking
}

// armed detaches and returns every (task, Blocking) pair whose predicate
// currently holds.
func (p *predicateSet) armed() []armedWaiter {
	var out []armedWaiter
	for t, e := range p.entries {
		if e.pred() {
			out = append(out, armedWaiter{task: t, b: e.b})
			delete(p.entries, t)
		}
	}
	return out
}
