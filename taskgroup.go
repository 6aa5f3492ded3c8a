package deltacycle

// TaskGroup provides structured concurrency: every task spawned through
// it is tracked, and Wait does not return until all of them have
// finished. If any child fails (excepted or cancelled), the remaining
// children are cancelled and every failure is reported together.
type TaskGroup struct {
	kernel   *Kernel
	children []*Task
}

// NewTaskGroup constructs an empty TaskGroup bound to k.
func NewTaskGroup(k *Kernel) *TaskGroup {
	return &TaskGroup{kernel: k}
}

// Spawn creates a task under this group's supervision.
func (g *TaskGroup) Spawn(name string, fn TaskFunc) *Task {
	t := g.kernel.CreateTask(name, fn)
	g.children = append(g.children, t)
	return t
}

// Wait suspends until every spawned task finishes. As soon as one fails
// (excepted, or cancelled by something other than this Wait), every
// still-running sibling is cancelled; Wait still suspends until they've
// actually unwound before returning their combined error via
// *AggregateError (or the lone error, if only one failed).
//
// If the calling task is itself cancelled while inside Wait, every
// pending child is cancelled and the cancellation error is returned
// without collecting child results.
func (g *TaskGroup) Wait(y *Yielder) error {
	pending := make([]*Task, 0, len(g.children))
	for _, t := range g.children {
		if !t.Done() {
			pending = append(pending, t)
		}
	}
	var failures []error
	failedEarly := false
	for len(pending) > 0 {
		bs := make([]*Blocking, len(pending))
		for i, t := range pending {
			bs[i] = t.Blocking()
		}
		winner, err := AnyOf(y, bs...)
		if err != nil {
			for _, t := range pending {
				_ = t.Cancel("task group wait cancelled")
			}
			return err
		}
		wt := winner.(*Task)
		for i, t := range pending {
			if t == wt {
				pending = append(pending[:i], pending[i+1:]...)
				break
			}
		}
		if _, rerr := wt.Result(); rerr != nil {
			failures = append(failures, rerr)
			if !failedEarly {
				failedEarly = true
				for _, t := range pending {
					_ = t.Cancel("sibling failed")
				}
			}
		}
	}
	return newAggregateError(failures)
}
