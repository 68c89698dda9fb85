package taskgraph

// Void is the result type for tasks created with NewVoid, standing in for
// "no result" the way an empty struct conventionally does in Go.
type Void struct{}

// promise is the typed core of a task: the untyped bookkeeping in *core,
// plus a slot for the body's eventual result. It embeds *core (not core by
// value) so that the finalizer registered on construction tracks the
// reachability of the actual shared core, not a throwaway copy.
type promise[T any] struct {
	*core
	result T
}

// Task is a handle to a unit of work, typed by its eventual result. The
// zero value is not a valid Task; construct one with [New] or [NewVoid].
type Task[T any] struct {
	p *promise[T]
}

// Awaitable is satisfied by any Task, regardless of its result type. It is
// the type accepted by [Scheduler.Submit].
type Awaitable interface {
	core() *core
}

func (t Task[T]) core() *core {
	if t.p == nil {
		return nil
	}
	return t.p.core
}

// New constructs a task running body, which receives a [*Ctx] it can use to
// await other tasks. The task does not start running until it is submitted
// to a [Scheduler] (or the default, package-level scheduler) and a worker
// reaches it; construction only starts the driver goroutine, parked waiting
// for that first run.
func New[T any](body func(ctx *Ctx) T) Task[T] {
	p := &promise[T]{core: newCore()}
	t := Task[T]{p: p}
	ctx := &Ctx{owner: p.core}
	go func() {
		if p.core.parkForResume() {
			return
		}
		aborted := false
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(abortSignal); ok {
					aborted = true
					return
				}
				p.core.panicVal = r
			}
			if !aborted {
				p.core.complete()
			}
		}()
		p.result = body(ctx)
	}()
	return t
}

// NewVoid constructs a task running body for its side effects only.
func NewVoid(body func(ctx *Ctx)) Task[Void] {
	return New(func(ctx *Ctx) Void {
		body(ctx)
		return Void{}
	})
}

// IsComplete reports whether the task's body has finished running.
func (t Task[T]) IsComplete() bool {
	return t.p.core.IsComplete()
}

// HasDependencies reports whether the task currently has dependencies
// registered, i.e. it suspended awaiting something and has not yet been
// promoted to run again. Registered dependencies may already be complete.
func (t Task[T]) HasDependencies() bool {
	return t.p.core.HasDependencies()
}

// GetResult returns the task's result. Calling it before the task has
// completed returns the zero value of T; callers should check IsComplete,
// or obtain the result via [Await] from within another task's body, which
// guarantees completion first.
func (t Task[T]) GetResult() T {
	return t.p.result
}

// Handle is a type-erased reference to a task, used for introspection (see
// [Current]) where the result type isn't statically known.
type Handle struct {
	c *core
}

// IsComplete reports whether the referenced task has finished running.
func (h Handle) IsComplete() bool {
	return h.c.IsComplete()
}

// HasDependencies reports whether the referenced task currently has
// dependencies registered (which may already be complete).
func (h Handle) HasDependencies() bool {
	return h.c.HasDependencies()
}
