package taskgraph

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// schedulerOptions holds configuration resolved from a set of Option values.
type schedulerOptions struct {
	logger         Logger
	limiter        *catrate.Limiter
	disableLimiter bool
	workerCount    int
}

// Option configures a Scheduler at construction time.
type Option interface {
	applyScheduler(*schedulerOptions)
}

type optionFunc func(*schedulerOptions)

func (f optionFunc) applyScheduler(o *schedulerOptions) { f(o) }

// WithLogger sets the Logger a Scheduler reports lifecycle and diagnostic
// events to. Without this option, a Scheduler logs nothing.
func WithLogger(logger Logger) Option {
	return optionFunc(func(o *schedulerOptions) {
		o.logger = logger
	})
}

// WithOverloadRateLimiter sets the [*catrate.Limiter] used to throttle
// repeated diagnostic log lines (queue overload warnings, swallowed task
// panics) so that a sustained burst of either doesn't flood the Logger.
// Pass nil to disable rate limiting entirely (every event is logged).
func WithOverloadRateLimiter(limiter *catrate.Limiter) Option {
	return optionFunc(func(o *schedulerOptions) {
		o.limiter = limiter
		o.disableLimiter = limiter == nil
	})
}

// WithWorkerCount sets the worker pool size used by [CreateDefault] and the
// package-level singleton accessed via [Instance]. It has no effect on
// [Create], whose nThreads parameter always wins since it's supplied
// explicitly. n == 0 counts as unset, so [CreateDefault] falls back to
// runtime.GOMAXPROCS(0); any other n is clamped to [1, 32] the same way
// [Create]'s parameter is.
func WithWorkerCount(n int) Option {
	return optionFunc(func(o *schedulerOptions) {
		o.workerCount = n
	})
}

// resolveSchedulerOptions applies opts over the default configuration: a
// noop Logger, and a default rate limiter allowing at most one log line of
// a given category per second, ten per minute.
func resolveSchedulerOptions(opts []Option) *schedulerOptions {
	cfg := &schedulerOptions{
		logger: noopLogger{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyScheduler(cfg)
	}
	if cfg.limiter == nil && !cfg.disableLimiter {
		cfg.limiter = catrate.NewLimiter(map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		})
	}
	return cfg
}
