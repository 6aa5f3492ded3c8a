package deltacycle

import "sync"

// This file is the thin public facade: free functions that read better
// at a task body's call sites than the equivalent Kernel/Yielder methods
// they forward to. Apart from the current-kernel registry at the end of
// the file, each one takes an explicit *Yielder or *Kernel rather than
// relying on implicit "currently running kernel" state, so a task body
// never has a hidden dependency on how it was scheduled.

// Now returns k's current virtual time.
func Now(k *Kernel) Time { return k.Now() }

// CreateTask schedules a new task on the same kernel as the calling
// task.
func CreateTask(y *Yielder, name string, fn TaskFunc) *Task {
	return y.kernel.CreateTask(name, fn)
}

// Sleep suspends the calling task for delay units of virtual time.
func Sleep(y *Yielder, delay Time) error {
	t := y.task
	y.kernel.callLater(delay, t, taskArgs{cmd: CmdResume})
	_, err := y.suspend()
	return err
}

// Finish returns ErrFinish. A task body that returns it as its error
// unwinds the dispatcher: every other pending task is dropped without
// running, and the kernel transitions to KernelFinished.
func Finish(y *Yielder) error { return y.kernel.Finish() }

// Run drives k to completion (or until a task calls Finish), optionally
// seeding it with a main task, and returns that main task's result. If
// main is nil, Run honors a main task already installed via CreateMain
// (if any); otherwise it just drains whatever was already scheduled on k
// and returns (nil, nil). It also returns (nil, nil) if the main task has
// not finished when dispatch stops, e.g. because a task called Finish.
func Run(main TaskFunc, k *Kernel, opts ...KernelOption) (any, error) {
	resolveKernelOptions(k, opts)
	t := k.main
	if main != nil {
		t = k.CreateMain(main)
	}
	if err := k.runLimit(Forever()); err != nil {
		return nil, err
	}
	if t == nil || !t.Done() {
		return nil, nil
	}
	return t.Result()
}

// RunLimited is Run with an explicit bound on how far the dispatcher may
// advance.
func RunLimited(main TaskFunc, k *Kernel, limit RunLimit) (any, error) {
	t := k.main
	if main != nil {
		t = k.CreateMain(main)
	}
	if err := k.runLimit(limit); err != nil {
		return nil, err
	}
	if t == nil || !t.Done() {
		return nil, nil
	}
	return t.Result()
}

// Step advances k by exactly one time slot; ok is false once nothing
// remains scheduled.
func Step(k *Kernel) (Time, bool, error) {
	return k.Step()
}

var currentKernel struct {
	sync.RWMutex
	k *Kernel
}

// SetKernel installs k as the process-wide "current kernel", letting
// code that doesn't carry a *Kernel/*Yielder explicitly (e.g. top-level
// test helpers) reach it via GetKernel/GetRunningKernel.
func SetKernel(k *Kernel) {
	currentKernel.Lock()
	defer currentKernel.Unlock()
	currentKernel.k = k
}

// GetKernel returns the kernel installed via SetKernel, or nil if none.
func GetKernel() *Kernel {
	currentKernel.RLock()
	defer currentKernel.RUnlock()
	return currentKernel.k
}

// GetRunningKernel returns the installed kernel, requiring it to exist.
func GetRunningKernel() (*Kernel, error) {
	k := GetKernel()
	if k == nil {
		return nil, ErrNoRunningKernel
	}
	return k, nil
}

// GetCurrentTask returns the task k is currently dispatching.
func GetCurrentTask(k *Kernel) (*Task, error) {
	if k == nil {
		return nil, ErrNoRunningKernel
	}
	if k.running == nil {
		return nil, ErrKernelNotRunning
	}
	return k.running, nil
}
