package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/lookingforlove/internal/domain/model"
	"github.com/okian/lookingforlove/pkg/logger"
	"github.com/okian/lookingforlove/pkg/metrics"
)

const (
	defaultTaskTimeout        = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Task is one unit of periodic work.
type Task func(ctx context.Context) error

// Worker is a background job with explicit lifecycle.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the running task to finish.
	Shutdown(ctx context.Context) error
}

// PeriodicWorker runs a Task on a fixed interval.
type PeriodicWorker struct {
	task        Task
	interval    time.Duration
	name        string
	runOnStart  bool
	taskTimeout time.Duration

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

var _ Worker = (*PeriodicWorker)(nil)

// NewPeriodicWorker creates a worker. A non-positive interval yields a worker
// whose Run returns immediately.
func NewPeriodicWorker(task Task, interval time.Duration, opts ...Option) *PeriodicWorker {
	w := &PeriodicWorker{
		task:        task,
		interval:    interval,
		name:        "worker",
		taskTimeout: defaultTaskTimeout,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *PeriodicWorker) Run(ctx context.Context) {
	defer close(w.done)

	if w.interval <= 0 {
		w.logger.Info(ctx, "worker disabled")
		return
	}

	if w.runOnStart {
		w.execute(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-ticker.C:
			w.execute(ctx)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *PeriodicWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *PeriodicWorker) execute(ctx context.Context) {
	taskCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	defer cancel()

	if err := w.task(taskCtx); err != nil {
		metrics.RecordErrorByComponent(w.name, "task_failed")
		w.logger.Error(ctx, "periodic task failed", logger.Error(err))
	}
}

// Refresher recomputes the statistics snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (model.StatisticsSnapshot, error)
}

// NewStatsRefresher returns a worker that refreshes statistics every interval.
// The first refresh runs immediately so the snapshot exists after startup.
func NewStatsRefresher(r Refresher, interval time.Duration, opts ...Option) *PeriodicWorker {
	task := func(ctx context.Context) error {
		_, err := r.Refresh(ctx)
		return err
	}
	opts = append([]Option{WithName("stats-refresher"), WithRunOnStart(true)}, opts...)
	return NewPeriodicWorker(task, interval, opts...)
}

// NewSystemSampler returns a worker that publishes runtime memory, goroutine
// and GC gauges every interval.
func NewSystemSampler(interval time.Duration, opts ...Option) *PeriodicWorker {
	opts = append([]Option{WithName("system-sampler")}, opts...)
	return NewPeriodicWorker(func(context.Context) error {
		sampleSystem()
		return nil
	}, interval, opts...)
}

func sampleSystem() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// Pool manages a set of workers.
type Pool struct {
	workers []Worker
	logger  logger.Logger
}

// NewPool creates a pool over workers.
func NewPool(workers ...Worker) *Pool {
	return &Pool{
		workers: workers,
		logger:  logger.Get().Named("worker-pool"),
	}
}

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "workers started", logger.Int("count", len(p.workers)))
}

// Stop shuts every worker down, returning the first error.
func (p *Pool) Stop(ctx context.Context) error {
	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
