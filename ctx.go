package taskgraph

// abortSignal is panicked with, from within a task body, when its driver
// goroutine is told to abandon (see core.abandon). It unwinds the body to
// the recover in New, and must never be recovered or observed by user code.
type abortSignal struct{}

// Ctx is passed to every task body, and is how it awaits other tasks. A Ctx
// is only valid for the duration of, and must only be used by, the body
// goroutine it was created for.
type Ctx struct {
	owner *core
}

// awaitCores returns at once, registering nothing, if every one of deps is
// already complete. Otherwise it registers all of deps as dependencies of the
// current task in a single locked batch, then suspends.
// Per spec.md §4.3, already-complete elements of a multi-dependency await
// are registered too, not filtered out — they satisfy instantly on the next
// promotion check, so registering them costs nothing but keeps the deps
// list (and the refcount bookkeeping it drives) a faithful record of what
// this suspension actually awaited. This is the one place that implements
// the suspend/resume protocol; every Await variant funnels through it.
func awaitCores(ctx *Ctx, deps []*core) {
	allComplete := true
	for _, d := range deps {
		if !d.IsComplete() {
			allComplete = false
			break
		}
	}
	if allComplete {
		return
	}
	ctx.owner.addDependencies(deps...)
	if ctx.owner.suspend() {
		panic(abortSignal{})
	}
}

// Await suspends the current task until t has completed, then returns its
// result.
func Await[T any](ctx *Ctx, t Task[T]) T {
	awaitCores(ctx, []*core{t.core()})
	return t.GetResult()
}

// Await2 suspends the current task until both a and b have completed, then
// returns both results.
func Await2[A, B any](ctx *Ctx, a Task[A], b Task[B]) (A, B) {
	awaitCores(ctx, []*core{a.core(), b.core()})
	return a.GetResult(), b.GetResult()
}

// Await3 suspends the current task until a, b, and c have all completed,
// then returns all three results.
func Await3[A, B, C any](ctx *Ctx, a Task[A], b Task[B], c Task[C]) (A, B, C) {
	awaitCores(ctx, []*core{a.core(), b.core(), c.core()})
	return a.GetResult(), b.GetResult(), c.GetResult()
}

// AwaitAll suspends the current task until every task in tasks has
// completed, then returns their results in the same order. It is the
// fan-in form for a homogeneous slice of tasks, where the arity-specific
// AwaitN functions don't fit.
func AwaitAll[T any](ctx *Ctx, tasks ...Task[T]) []T {
	deps := make([]*core, len(tasks))
	for i, t := range tasks {
		deps[i] = t.core()
	}
	awaitCores(ctx, deps)
	results := make([]T, len(tasks))
	for i, t := range tasks {
		results[i] = t.GetResult()
	}
	return results
}

// Current returns a type-erased handle to the task currently running —
// i.e. the one owning ctx. It never suspends.
func Current(ctx *Ctx) Handle {
	return Handle{c: ctx.owner}
}
