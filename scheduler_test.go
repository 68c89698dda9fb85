package taskgraph

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// workerCountLogger records the "workers" field of every "scheduler started"
// log line, i.e. the worker pool size each Scheduler was built with.
type workerCountLogger struct {
	noopLogger
	mu      sync.Mutex
	workers []int
}

func (l *workerCountLogger) Info(msg string, fields ...Field) {
	if msg != "scheduler started" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range fields {
		if f.key == "workers" {
			l.workers = append(l.workers, f.val.(int))
		}
	}
}

func TestCreateClampsWorkerCount(t *testing.T) {
	require.Equal(t, 1, clampWorkers(0))
	require.Equal(t, 1, clampWorkers(-5))
	require.Equal(t, 32, clampWorkers(1000))
	require.Equal(t, 4, clampWorkers(4))

	// a scheduler built at either boundary must still run work correctly.
	s := Create(0)
	defer s.Destroy()
	task := New(func(ctx *Ctx) int { return 7 })
	require.NoError(t, s.Submit(task))
	s.Wait()
	require.Equal(t, 7, task.GetResult())
}

func TestWaitReturnsImmediatelyWhenEmpty(t *testing.T) {
	s := Create(2)
	defer s.Destroy()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait() on an empty scheduler did not return promptly")
	}
}

func TestSingleTask(t *testing.T) {
	s := Create(2)
	defer s.Destroy()

	task := New(func(ctx *Ctx) int { return 42 })
	require.NoError(t, s.Submit(task))
	s.Wait()

	require.True(t, task.IsComplete())
	require.Equal(t, 42, task.GetResult())
}

func TestLinearChain(t *testing.T) {
	s := Create(2)
	defer s.Destroy()

	a := New(func(ctx *Ctx) int { return 10 })
	b := New(func(ctx *Ctx) int { return Await(ctx, a) + 5 })
	c := New(func(ctx *Ctx) int { return Await(ctx, b) * 2 })

	require.NoError(t, s.Submit(c))
	require.NoError(t, s.Submit(b))
	require.NoError(t, s.Submit(a))
	s.Wait()

	require.Equal(t, 10, a.GetResult())
	require.Equal(t, 15, b.GetResult())
	require.Equal(t, 30, c.GetResult())
}

func TestDiamondDependencyViaTupleAwait(t *testing.T) {
	s := Create(4)
	defer s.Destroy()

	root := New(func(ctx *Ctx) int { return 1 })
	left := New(func(ctx *Ctx) int { return Await(ctx, root) + 1 })
	right := New(func(ctx *Ctx) int { return Await(ctx, root) + 2 })
	join := New(func(ctx *Ctx) int {
		l, r := Await2(ctx, left, right)
		return l + r
	})

	for _, tsk := range []Awaitable{join, left, right, root} {
		require.NoError(t, s.Submit(tsk))
	}
	s.Wait()

	require.Equal(t, 2, left.GetResult())
	require.Equal(t, 3, right.GetResult())
	require.Equal(t, 5, join.GetResult())
}

func TestAwaitAllFanIn(t *testing.T) {
	s := Create(4)
	defer s.Destroy()

	const n = 100
	tasks := make([]Task[int], n)
	for i := range tasks {
		i := i
		tasks[i] = New(func(ctx *Ctx) int { return i * i })
	}
	sum := New(func(ctx *Ctx) int {
		results := AwaitAll(ctx, tasks...)
		total := 0
		for _, r := range results {
			total += r
		}
		return total
	})

	require.NoError(t, s.Submit(sum))
	for _, tsk := range tasks {
		require.NoError(t, s.Submit(tsk))
	}
	s.Wait()

	expected := 0
	for i := 0; i < n; i++ {
		expected += i * i
	}
	require.Equal(t, expected, sum.GetResult())
}

func TestTaskSubmittedBeforeItsDependencies(t *testing.T) {
	s := Create(4)
	defer s.Destroy()

	dep := New(func(ctx *Ctx) string { return "dep" })
	main := New(func(ctx *Ctx) string { return Await(ctx, dep) + "-main" })

	// submit the dependent task first; it must suspend and wait, not fail.
	require.NoError(t, s.Submit(main))
	require.NoError(t, s.Submit(dep))
	s.Wait()

	require.Equal(t, "dep-main", main.GetResult())
}

func TestSelfRequeueOnSuspension(t *testing.T) {
	s := Create(1)
	defer s.Destroy()

	gate := New(func(ctx *Ctx) struct{} { return struct{}{} })
	dependent := New(func(ctx *Ctx) bool {
		Await(ctx, gate)
		return true
	})

	require.NoError(t, s.Submit(dependent))
	// give the single worker a chance to promote `dependent`, find it not
	// ready (gate isn't submitted yet), suspend it, and requeue it.
	time.Sleep(10 * time.Millisecond)
	require.True(t, dependent.HasDependencies())
	require.False(t, dependent.IsComplete())

	require.NoError(t, s.Submit(gate))
	s.Wait()

	require.True(t, dependent.IsComplete())
	require.True(t, dependent.GetResult())
}

func TestManyWorkersManyTasks(t *testing.T) {
	s := Create(4)
	defer s.Destroy()

	const n = 100
	var mu sync.Mutex
	seen := make(map[int]bool, n)

	var tasks []Task[int]
	for i := 0; i < n; i++ {
		i := i
		tasks = append(tasks, New(func(ctx *Ctx) int {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
			return i
		}))
	}
	for _, tsk := range tasks {
		require.NoError(t, s.Submit(tsk))
	}
	s.Wait()

	require.Len(t, seen, n)
	for i, tsk := range tasks {
		require.True(t, tsk.IsComplete())
		require.Equal(t, i, tsk.GetResult())
	}
}

func TestSubmitNilTask(t *testing.T) {
	s := Create(1)
	defer s.Destroy()

	require.ErrorIs(t, s.Submit(nil), ErrNilTask)
	require.ErrorIs(t, s.Submit(Task[int]{}), ErrNilTask)
}

func TestSubmitTwiceFails(t *testing.T) {
	s := Create(1)
	defer s.Destroy()

	task := New(func(ctx *Ctx) int { return 1 })
	require.NoError(t, s.Submit(task))
	require.ErrorIs(t, s.Submit(task), ErrAlreadySubmitted)
	s.Wait()
}

func TestSubmitAfterDestroyFails(t *testing.T) {
	s := Create(1)
	s.Destroy()

	task := New(func(ctx *Ctx) int { return 1 })
	require.ErrorIs(t, s.Submit(task), ErrSchedulerTerminated)
}

func TestBodyPanicIsSwallowed(t *testing.T) {
	s := Create(2)
	defer s.Destroy()

	task := New(func(ctx *Ctx) int {
		panic("deliberate failure")
	})
	require.NoError(t, s.Submit(task))
	s.Wait()

	require.True(t, task.IsComplete())
	require.Equal(t, 0, task.GetResult())
}

func TestInstanceSingleton(t *testing.T) {
	defer Destroy()
	a := Instance()
	b := Instance()
	require.Same(t, a, b)
}

func TestCreateDefaultUsesGOMAXPROCSWithoutWithWorkerCount(t *testing.T) {
	l := &workerCountLogger{}
	s := CreateDefault(WithLogger(l))
	defer s.Destroy()
	require.Equal(t, []int{clampWorkers(runtime.GOMAXPROCS(0))}, l.workers)
	task := New(func(ctx *Ctx) int { return 9 })
	require.NoError(t, s.Submit(task))
	s.Wait()
	require.Equal(t, 9, task.GetResult())
}

func TestCreateDefaultHonorsWithWorkerCount(t *testing.T) {
	l := &workerCountLogger{}
	s := CreateDefault(WithLogger(l), WithWorkerCount(3))
	defer s.Destroy()
	require.Equal(t, []int{3}, l.workers)
	task := New(func(ctx *Ctx) int { return 3 })
	require.NoError(t, s.Submit(task))
	s.Wait()
	require.Equal(t, 3, task.GetResult())
}

func TestInstanceHonorsWithWorkerCountOnFirstCall(t *testing.T) {
	defer Destroy()
	l := &workerCountLogger{}
	a := Instance(WithLogger(l), WithWorkerCount(2))
	b := Instance(WithWorkerCount(17))
	require.Same(t, a, b, "opts passed to a later Instance() call must not affect an already-created singleton")
	require.Equal(t, []int{2}, l.workers)
}

func TestCreateExplicitNThreadsOverridesWithWorkerCount(t *testing.T) {
	l := &workerCountLogger{}
	s := Create(5, WithLogger(l), WithWorkerCount(1))
	defer s.Destroy()
	require.Equal(t, []int{5}, l.workers)
	task := New(func(ctx *Ctx) int { return 1 })
	require.NoError(t, s.Submit(task))
	s.Wait()
	require.Equal(t, 1, task.GetResult())
}

func TestRunPanicsWhenNotInProgress(t *testing.T) {
	c := newCore()
	require.Panics(t, func() { c.run() })
}
