package taskgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNilTask is returned by Submit when given a nil task handle.
	ErrNilTask = errors.New("taskgraph: nil task")

	// ErrSchedulerTerminated is returned by Submit when called after
	// Destroy.
	ErrSchedulerTerminated = errors.New("taskgraph: scheduler terminated")

	// ErrAlreadySubmitted is returned by Submit when a task has already
	// been queued or run.
	ErrAlreadySubmitted = errors.New("taskgraph: task already submitted")
)

// debugAssert panics with msg, prefixed identically to every other internal
// invariant check, if cond is false. It is the one place internal invariant
// violations (programmer error, not a recoverable runtime condition — see
// spec.md §7) funnel through, mirroring the original's assert() discipline.
// There is no Go "release build" flag, so unlike the original, debugAssert
// always panics; this is a deliberate strengthening of "undefined behavior"
// to "deterministic panic".
func debugAssert(cond bool, msg string) {
	if !cond {
		panic("taskgraph: " + msg)
	}
}

// PanicError wraps a value recovered from a panicking task body. Internal
// invariant violations detected via debugAssert (e.g. core.run called on a
// task that isn't InProgress) still panic directly and are never wrapped as
// a PanicError; this type is only ever produced by a failure inside
// user-supplied task body code, which is recovered rather than allowed to
// crash a worker.
//
// A nil task passed to [Scheduler.Submit] is reported as [ErrNilTask], not a
// panic: Submit is a boundary the scheduler can always check cheaply, unlike
// the original's internal assert on the same condition.
//
// Using a [*Ctx] from a goroutine other than the one its task body was
// given it on is also a contract violation, but — like a cycle in the
// dependency graph (spec.md §9 Open Question 3) — it is not detected: doing
// so silently corrupts the unrelated task's dependency list rather than
// panicking. Detecting it would require tracking goroutine identity, which
// falls under spec.md §1's exclusion of thread-id hashing helpers from the
// core; callers must not share a Ctx across goroutines.
type PanicError struct {
	// Cause is the recovered panic value, or an error wrapping it if the
	// recovered value was not itself an error.
	Cause error
	// Task identifies which task panicked, for logging.
	Task Handle
}

func (e *PanicError) Error() string {
	if e == nil || e.Cause == nil {
		return "taskgraph: task body panicked"
	}
	return fmt.Sprintf("taskgraph: task body panicked: %v", e.Cause)
}

func (e *PanicError) Unwrap() error {
	return e.Cause
}

// newPanicError normalizes a recovered panic value into a PanicError,
// wrapping it in an error if it wasn't already one.
func newPanicError(task Handle, recovered any) *PanicError {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return &PanicError{Cause: cause, Task: task}
}
