package taskgraph

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// yieldKind describes why a task's driver goroutine handed control back to
// whichever worker is driving it.
type yieldKind uint8

const (
	yieldSuspended yieldKind = iota
	yieldCompleted
)

type yieldMsg struct {
	kind yieldKind
}

// core is the untyped base of every task: the bookkeeping that doesn't
// depend on the task's result type. A typed wrapper (promise[T]) embeds it
// and adds the result slot.
//
// core's driver goroutine is started once, at construction, and parked
// waiting for the first resume signal — no work happens until a Scheduler
// actually runs the task (this is the "initial suspend" half of the
// original coroutine model: construction never executes the body).
type core struct {
	status *fastStatus

	// refcount is incremented whenever a structural holder (the scheduler
	// queue, or another task's dependency list) takes a reference, and
	// decremented when that holder is done with it. It exists for
	// observability and invariant testing; it is not what actually
	// releases the driver goroutine. See abandon, below.
	refcount atomic.Int64

	// depsMu guards deps. Lock order: a Scheduler's queueMu, when both are
	// needed, is acquired before depsMu, and no two tasks' depsMu are ever
	// held at once.
	depsMu sync.Mutex
	deps   []*core

	// resume is sent to by whatever is driving this task (a Scheduler
	// worker) to let its body proceed to the next suspension or to
	// completion. yield is sent to by the body's own goroutine to report
	// what happened.
	resume chan struct{}
	yield  chan yieldMsg

	// abort is closed to tell a parked driver goroutine to give up and
	// exit, without ever reaching a resume signal again. Only used by
	// abandon.
	abort chan struct{}

	abandonOnce sync.Once

	// panicVal holds a recovered panic from the task body, if any. Read
	// only after status is Completed.
	panicVal any
}

func newCore() *core {
	c := &core{
		status: newFastStatus(Initial),
		resume: make(chan struct{}),
		yield:  make(chan yieldMsg),
		abort:  make(chan struct{}),
	}
	runtime.SetFinalizer(c, (*core).finalize)
	return c
}

// finalize is invoked by the garbage collector if a core becomes unreachable
// without ever completing — e.g. a task is constructed, submitted to no
// scheduler, and dropped. It unparks the driver goroutine so it can exit
// instead of leaking forever.
func (c *core) finalize() {
	c.abandon()
}

// abandon signals the driver goroutine to give up, idempotently.
func (c *core) abandon() {
	c.abandonOnce.Do(func() {
		close(c.abort)
	})
}

func (c *core) retain() {
	c.refcount.Add(1)
}

func (c *core) releaseRef() {
	c.refcount.Add(-1)
}

func (c *core) refs() int64 {
	return c.refcount.Load()
}

// IsComplete reports whether the task has finished running.
func (c *core) IsComplete() bool {
	return c.status.Load() == Completed
}

// HasDependencies reports whether the task has any dependencies registered.
// The list is only cleared when the task is next promoted, so it may include
// dependencies that have already completed.
func (c *core) HasDependencies() bool {
	c.depsMu.Lock()
	defer c.depsMu.Unlock()
	return len(c.deps) > 0
}

// addDependency registers dep as something this task awaits before it may
// run again. Must be called only from the task's own body goroutine.
func (c *core) addDependency(dep *core) {
	dep.retain()
	c.depsMu.Lock()
	c.deps = append(c.deps, dep)
	c.depsMu.Unlock()
}

// addDependencies registers several dependencies in a single locked batch —
// used by tuple/fan-in awaiters so the deps list is never observed
// partially populated.
func (c *core) addDependencies(deps ...*core) {
	for _, dep := range deps {
		dep.retain()
	}
	c.depsMu.Lock()
	c.deps = append(c.deps, deps...)
	c.depsMu.Unlock()
}

// depsReady reports whether every registered dependency has completed.
func (c *core) depsReady() bool {
	c.depsMu.Lock()
	defer c.depsMu.Unlock()
	for _, dep := range c.deps {
		if !dep.IsComplete() {
			return false
		}
	}
	return true
}

// clearDeps drops the dependency list (releasing this task's references to
// each), called once a task is promoted to run again.
func (c *core) clearDeps() {
	c.depsMu.Lock()
	deps := c.deps
	c.deps = nil
	c.depsMu.Unlock()
	for _, dep := range deps {
		dep.releaseRef()
	}
}

// run drives the task body for one step: it asserts the task is
// InProgress, lets the body proceed, and blocks until the body either
// suspends itself (by awaiting an incomplete dependency) or completes.
// It reports whether the task is now complete.
func (c *core) run() bool {
	debugAssert(c.status.Load() == InProgress, "run called on a task that is not InProgress")
	select {
	case c.resume <- struct{}{}:
	case <-c.abort:
		return true
	}
	select {
	case msg := <-c.yield:
		switch msg.kind {
		case yieldCompleted:
			c.status.Store(Completed)
			return true
		default:
			return false
		}
	case <-c.abort:
		return true
	}
}

// parkForResume blocks the calling (body) goroutine until it is either
// resumed by a worker or told to abort. It reports whether the goroutine
// should abort rather than continue.
func (c *core) parkForResume() (abort bool) {
	select {
	case <-c.resume:
		return false
	case <-c.abort:
		return true
	}
}

// suspend reports this task's body has hit an await on an incomplete
// dependency, then parks until resumed. It reports whether the goroutine
// should abort rather than continue.
func (c *core) suspend() (abort bool) {
	select {
	case c.yield <- yieldMsg{kind: yieldSuspended}:
	case <-c.abort:
		return true
	}
	return c.parkForResume()
}

// complete reports this task's body has returned.
func (c *core) complete() {
	select {
	case c.yield <- yieldMsg{kind: yieldCompleted}:
	case <-c.abort:
	}
}
