package taskgraph

import "testing"

func TestResolveSchedulerOptionsDefaults(t *testing.T) {
	cfg := resolveSchedulerOptions(nil)
	if cfg.logger == nil {
		t.Fatal("expected a default noop logger")
	}
	if cfg.limiter == nil {
		t.Fatal("expected a default rate limiter")
	}
}

func TestWithLoggerOverridesDefault(t *testing.T) {
	custom := noopLogger{}
	cfg := resolveSchedulerOptions([]Option{WithLogger(custom)})
	if cfg.logger != Logger(custom) {
		t.Fatal("expected WithLogger to override the default logger")
	}
}

func TestWithOverloadRateLimiterNilDisables(t *testing.T) {
	cfg := resolveSchedulerOptions([]Option{WithOverloadRateLimiter(nil)})
	if cfg.limiter != nil {
		t.Fatal("expected a nil limiter option to leave the limiter disabled")
	}
	if !cfg.disableLimiter {
		t.Fatal("expected disableLimiter to be set")
	}
}

func TestResolveSchedulerOptionsSkipsNilOption(t *testing.T) {
	cfg := resolveSchedulerOptions([]Option{nil, WithLogger(noopLogger{})})
	if cfg.logger == nil {
		t.Fatal("expected nil options to be skipped without panicking")
	}
}

func TestWithWorkerCountSetsConfig(t *testing.T) {
	cfg := resolveSchedulerOptions([]Option{WithWorkerCount(7)})
	if cfg.workerCount != 7 {
		t.Fatalf("expected workerCount 7, got %d", cfg.workerCount)
	}
}

func TestResolveSchedulerOptionsDefaultWorkerCountIsZero(t *testing.T) {
	cfg := resolveSchedulerOptions(nil)
	if cfg.workerCount != 0 {
		t.Fatalf("expected unset workerCount (0, meaning GOMAXPROCS), got %d", cfg.workerCount)
	}
}
