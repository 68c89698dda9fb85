package taskgraph

import "sync/atomic"

// Status represents the lifecycle stage of a task.
//
// State Machine:
//
//	Initial (0)   → InQueue (1)     [Scheduler.Submit]
//	InQueue (1)   → InProgress (2)  [Scheduler.promoteLocked, CAS]
//	InProgress (2) → InQueue (1)    [task suspends itself, self-requeue]
//	InProgress (2) → Completed (3)  [task body returns]
//
// Transitions between InQueue and InProgress are always performed with a
// compare-and-swap; a failed CAS means another goroutine already moved the
// task, and the caller must not retry.
type Status uint32

const (
	// Initial indicates a task has been constructed but not yet submitted.
	Initial Status = iota
	// InQueue indicates a task is queued, waiting for its dependencies.
	InQueue
	// InProgress indicates a task is currently being driven by a worker.
	InProgress
	// Completed indicates a task's body has returned (or panicked).
	Completed
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case Initial:
		return "Initial"
	case InQueue:
		return "InQueue"
	case InProgress:
		return "InProgress"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// fastStatus is a lock-free status cell for a single task.
type fastStatus struct {
	v atomic.Uint32
}

func newFastStatus(initial Status) *fastStatus {
	s := &fastStatus{}
	s.v.Store(uint32(initial))
	return s
}

// Load returns the current status atomically.
func (s *fastStatus) Load() Status {
	return Status(s.v.Load())
}

// Store atomically stores a new status, without validating the transition.
func (s *fastStatus) Store(status Status) {
	s.v.Store(uint32(status))
}

// TryTransition attempts to atomically move from one status to another,
// reporting whether it succeeded.
func (s *fastStatus) TryTransition(from, to Status) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
