package worker

import (
	"github.com/grafixr/site/internal/adapters/mq/queue"
	"github.com/grafixr/site/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobDone registers a callback invoked after each job.
func WithJobDone(fn func(queue.Job, Report)) Option {
	return func(w *InMemoryWorker) {
		w.onDone = fn
	}
}
