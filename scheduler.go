package taskgraph

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// scanWindow bounds how many queued tasks a worker inspects per promotion
// attempt before giving up and waiting for a signal — the same
// fixed-size-window scan the underlying dependency scheduler uses, rather
// than scanning the whole queue on every attempt.
const scanWindow = 8

// overloadThreshold is the queue depth past which Submit emits a
// rate-limited diagnostic warning.
const overloadThreshold = 1024

// Scheduler executes submitted tasks across a fixed pool of worker
// goroutines, running each only once every dependency it has registered (by
// awaiting, from within its own body) has completed.
//
// Lock order: queueMu is always acquired before any task's depsMu (see
// core.depsReady, called from promoteLocked while holding queueMu). Never
// acquire two tasks' depsMu at once.
type Scheduler struct {
	opts *schedulerOptions

	queueMu sync.Mutex
	cond    *sync.Cond
	queue   []*core

	inFlight atomic.Int64
	looping  atomic.Bool
	wg       sync.WaitGroup
}

func clampWorkers(n int) int {
	switch {
	case n < 1:
		return 1
	case n > 32:
		return 32
	default:
		return n
	}
}

// Create builds a Scheduler with nThreads worker goroutines, clamped to the
// range [1, 32]. The workers start immediately and idle until work is
// submitted. nThreads always wins over any [WithWorkerCount] option passed
// in opts; that option only applies to [CreateDefault] and [Instance].
func Create(nThreads int, opts ...Option) *Scheduler {
	return newScheduler(nThreads, resolveSchedulerOptions(opts))
}

// CreateDefault builds a Scheduler sized to [WithWorkerCount], if given, or
// else runtime.GOMAXPROCS(0), clamped to [1, 32] the same way [Create] is.
// It is the standalone-constructor counterpart to [Instance]'s lazily
// created singleton — the package-level convenience spec.md §9 describes.
func CreateDefault(opts ...Option) *Scheduler {
	cfg := resolveSchedulerOptions(opts)
	n := cfg.workerCount
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return newScheduler(n, cfg)
}

func newScheduler(nThreads int, cfg *schedulerOptions) *Scheduler {
	n := clampWorkers(nThreads)
	s := &Scheduler{opts: cfg}
	s.cond = sync.NewCond(&s.queueMu)
	s.looping.Store(true)
	s.wg.Add(n)
	for i := 0; i < n; i++ {
		go s.workerLoop(i)
	}
	s.opts.logger.Info("scheduler started", Int("workers", n))
	return s
}

// Submit enqueues t to run on the Scheduler. It returns ErrNilTask for a nil
// task, ErrAlreadySubmitted if t has already been submitted (to any
// Scheduler) or has already run, and ErrSchedulerTerminated if called after
// Destroy.
func (s *Scheduler) Submit(t Awaitable) error {
	if t == nil {
		return ErrNilTask
	}
	c := t.core()
	if c == nil {
		return ErrNilTask
	}
	if !s.looping.Load() {
		return ErrSchedulerTerminated
	}
	if !c.status.TryTransition(Initial, InQueue) {
		return ErrAlreadySubmitted
	}
	c.retain()

	s.queueMu.Lock()
	s.queue = append(s.queue, c)
	s.inFlight.Add(1)
	n := len(s.queue)
	s.cond.Broadcast()
	s.queueMu.Unlock()

	if n > overloadThreshold && s.allow("overload") {
		s.opts.logger.Warn("scheduler queue overloaded", Int("queue_len", n))
	}
	return nil
}

// Wait blocks until every task submitted so far has completed. It does not
// stop the worker pool; further tasks may be submitted afterward, including
// from within this call's caller concurrently with other goroutines.
func (s *Scheduler) Wait() {
	s.queueMu.Lock()
	for s.inFlight.Load() > 0 {
		s.cond.Wait()
	}
	s.queueMu.Unlock()
}

// Destroy waits for all outstanding work to finish, then stops and joins
// every worker goroutine. The Scheduler must not be used afterward.
func (s *Scheduler) Destroy() {
	s.Wait()
	s.looping.Store(false)
	s.queueMu.Lock()
	s.cond.Broadcast()
	s.queueMu.Unlock()
	s.wg.Wait()
	s.opts.logger.Info("scheduler destroyed")
}

func (s *Scheduler) allow(category string) bool {
	if s.opts.limiter == nil {
		return true
	}
	_, ok := s.opts.limiter.Allow(category)
	return ok
}

func (s *Scheduler) workerLoop(id int) {
	defer s.wg.Done()
	s.opts.logger.Debug("worker started", Int("worker", id))
	defer s.opts.logger.Debug("worker stopped", Int("worker", id))
	for {
		c := s.waitForReady(id)
		if c == nil {
			return
		}
		s.runOne(c)
	}
}

// waitForReady blocks until a ready task can be promoted to InProgress, or
// the Scheduler is stopped (in which case it returns nil).
func (s *Scheduler) waitForReady(seed int) *core {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	for {
		if !s.looping.Load() {
			return nil
		}
		if c, ok := s.promoteLocked(seed); ok {
			return c
		}
		s.cond.Wait()
	}
}

// promoteLocked scans up to scanWindow queued tasks, starting at seed, for
// one whose dependencies have all completed. The first such task is
// promoted to InProgress and removed from the queue (swap-remove, so order
// is not preserved). Must be called with queueMu held.
func (s *Scheduler) promoteLocked(seed int) (*core, bool) {
	n := len(s.queue)
	if n == 0 {
		return nil, false
	}
	window := scanWindow
	if window > n {
		window = n
	}
	for i := 0; i < window; i++ {
		idx := (seed + i) % n
		c := s.queue[idx]
		if !c.depsReady() {
			continue
		}
		if !c.status.TryTransition(InQueue, InProgress) {
			continue
		}
		c.clearDeps()
		last := n - 1
		s.queue[idx] = s.queue[last]
		s.queue = s.queue[:last]
		c.releaseRef()
		return c, true
	}
	return nil, false
}

// runOne drives a promoted task for one step, then either records its
// completion or re-queues it (having suspended itself awaiting a
// dependency).
func (s *Scheduler) runOne(c *core) {
	complete := c.run()

	s.queueMu.Lock()
	if complete {
		s.inFlight.Add(-1)
	} else {
		ok := c.status.TryTransition(InProgress, InQueue)
		if !ok {
			s.queueMu.Unlock()
		}
		debugAssert(ok, "inconsistent status on self-requeue")
		c.retain()
		s.queue = append(s.queue, c)
	}
	s.cond.Broadcast()
	s.queueMu.Unlock()

	if complete && c.panicVal != nil {
		s.reportPanic(c)
	}
}

func (s *Scheduler) reportPanic(c *core) {
	h := Handle{c: c}
	pe := newPanicError(h, c.panicVal)
	if s.allow("panic") {
		s.opts.logger.Warn("task body panicked", ErrField(pe))
	}
}

var (
	instanceMu sync.Mutex
	instance   *Scheduler
)

// Instance returns the package-level default Scheduler, creating it via
// [CreateDefault] on first use. opts are only consulted on that first call;
// once created, the singleton's configuration (including worker count) is
// fixed, and later calls ignore opts and return the existing instance.
func Instance(opts ...Option) *Scheduler {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = CreateDefault(opts...)
	}
	return instance
}

// Destroy stops and joins the package-level default Scheduler, if one has
// been created. It is safe to call even if Instance was never called.
func Destroy() {
	instanceMu.Lock()
	s := instance
	instance = nil
	instanceMu.Unlock()
	if s != nil {
		s.Destroy()
	}
}
