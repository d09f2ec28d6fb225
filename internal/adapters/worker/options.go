// Package worker runs periodic background jobs such as statistics refreshes.
package worker

import (
	"time"

	"github.com/okian/lookingforlove/pkg/logger"
)

// Option applies a configuration option to the PeriodicWorker.
type Option func(*PeriodicWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *PeriodicWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *PeriodicWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRunOnStart runs the task once as soon as Run is called.
func WithRunOnStart(enabled bool) Option {
	return func(w *PeriodicWorker) {
		w.runOnStart = enabled
	}
}

// WithTaskTimeout bounds a single task execution.
func WithTaskTimeout(d time.Duration) Option {
	return func(w *PeriodicWorker) {
		if d > 0 {
			w.taskTimeout = d
		}
	}
}
