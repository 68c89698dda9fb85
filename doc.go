// Package taskgraph implements a dependency-aware, multi-threaded scheduler
// for cooperative tasks.
//
// A task is a unit of work expressed as a Go function taking a [*Ctx], used
// to await other tasks. Unlike a plain goroutine, a task can suspend itself
// by awaiting another task's result, and is only resumed once that
// dependency completes — without blocking the worker that was running it.
// This is the same "stackless coroutine" shape as generator-based
// schedulers in other languages, expressed with goroutines parked on
// channel handoffs instead of a language-level coroutine primitive.
//
// # Architecture
//
// A [Scheduler] owns a queue of tasks and a fixed pool of worker goroutines.
// Workers repeatedly scan a window of the queue for a task whose
// dependencies have all completed, promote it to running, and drive its
// body to either completion or the next suspension point. A task that
// suspends (by awaiting an incomplete dependency) is re-queued rather than
// blocking the worker.
//
// # Thread Safety
//
// All exported types are safe for concurrent use unless documented
// otherwise. The queue is guarded by a single mutex; each task's dependency
// list is guarded by its own mutex. Code that needs both always acquires the
// queue mutex first — see the lock-order comments in scheduler.go and
// core.go.
//
// # Execution Model
//
//   - A task body runs in its own goroutine, but only one worker drives it
//     at a time; resumption is an explicit handoff, not concurrent
//     execution of the same body.
//   - Suspending a task (via [Await], [Await2], [Await3], or [AwaitAll])
//     registers the awaited task(s) as dependencies and returns control to
//     the worker, which moves on to other ready work.
//   - A task becomes ready to run again only once every registered
//     dependency has completed.
//   - A cyclic dependency graph is not detected: the workers wait forever
//     for a task that never becomes ready, and Wait never returns. Build
//     task graphs acyclically.
//
// # Usage
//
//	sched := taskgraph.Create(4)
//	defer sched.Destroy()
//
//	a := taskgraph.New(func(ctx *taskgraph.Ctx) int { return 21 })
//	b := taskgraph.New(func(ctx *taskgraph.Ctx) int {
//		return taskgraph.Await(ctx, a) * 2
//	})
//	sched.Submit(a)
//	sched.Submit(b)
//	sched.Wait()
//	fmt.Println(b.GetResult()) // 42
//
// # Error Types
//
//   - [ErrNilTask]: a nil task was submitted.
//   - [ErrSchedulerTerminated]: an operation was attempted after Destroy.
//   - [PanicError]: wraps a panic recovered from a task body.
package taskgraph
