package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/grafixr/site/internal/adapters/mq/queue"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

// Default cleanup configuration constants.
const (
	defaultDeleteAttempts = 3
	defaultRetryBackoff   = 200 * time.Millisecond
)

// RefChecker reports whether a media key is still referenced.
type RefChecker interface {
	FileInUse(ctx context.Context, key string) (bool, error)
}

// Deleter removes media by key.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Report summarizes one cleanup job.
type Report struct {
	Deleted  []string
	Retained []string
	Failed   []string
}

// Cleaner releases the media keys of a job. Keys still referenced by an item
// are kept; failed deletes are retried with linear backoff.
type Cleaner struct {
	refs     RefChecker
	deleter  Deleter
	attempts int
	backoff  time.Duration
	clock    clockwork.Clock
	lock     sync.Locker
	logger   logger.Logger
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithAttempts bounds delete attempts per key.
func WithAttempts(n int) CleanerOption {
	return func(c *Cleaner) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBackoff sets the base delay; attempt n waits n*d before retrying.
func WithBackoff(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithClock sets the clock used for backoff waits.
func WithClock(clock clockwork.Clock) CleanerOption {
	return func(c *Cleaner) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLock makes every reference check and the delete that follows it one
// critical section under l. Writers that add references hold the other side.
func WithLock(l sync.Locker) CleanerOption {
	return func(c *Cleaner) {
		if l != nil {
			c.lock = l
		}
	}
}

// WithCleanerLogger sets the cleaner logger.
func WithCleanerLogger(l logger.Logger) CleanerOption {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCleaner creates a Cleaner over a reference checker and a media deleter.
func NewCleaner(refs RefChecker, deleter Deleter, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		refs:     refs,
		deleter:  deleter,
		attempts: defaultDeleteAttempts,
		backoff:  defaultRetryBackoff,
		clock:    clockwork.NewRealClock(),
		lock:     &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("media-cleaner")
	}
	return c
}

// Clean processes every key of job and reports what happened to each.
func (c *Cleaner) Clean(ctx context.Context, job queue.Job) Report {
	start := c.clock.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(c.clock.Since(start).Milliseconds()))
	}()

	var rep Report
	for _, key := range job.Keys {
		retained, err := c.release(ctx, key)
		switch {
		case err != nil:
			rep.Failed = append(rep.Failed, key)
			metrics.RecordErrorByComponent("worker", "delete_failed")
			c.logger.Error(ctx, "media delete gave up",
				logger.String("job_id", job.ID),
				logger.String("key", key),
				logger.Error(err))
		case retained:
			rep.Retained = append(rep.Retained, key)
			metrics.RecordMediaRetained()
		default:
			rep.Deleted = append(rep.Deleted, key)
			metrics.RecordMediaDeleted()
		}
	}
	if len(rep.Failed) > 0 {
		metrics.RecordWorkerError()
	}
	c.logger.Debug(ctx, "media cleanup job done",
		logger.String("job_id", job.ID),
		logger.String("reason", job.Reason),
		logger.Int("deleted", len(rep.Deleted)),
		logger.Int("retained", len(rep.Retained)),
		logger.Int("failed", len(rep.Failed)))
	return rep
}

// release deletes key unless it is referenced. The reference check runs on
// every attempt since an upload may claim the key meanwhile.
func (c *Cleaner) release(ctx context.Context, key string) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			metrics.RecordMediaDeleteRetry()
			select {
			case <-ctx.Done():
				return false, fmt.Errorf("%s: %w", key, ctx.Err())
			case <-c.clock.After(time.Duration(attempt-1) * c.backoff):
			}
		}

		retained, err := c.tryRelease(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		return retained, nil
	}
	return false, fmt.Errorf("%s after %d attempts: %w", key, c.attempts, lastErr)
}

// tryRelease checks references and deletes key while holding the lock.
func (c *Cleaner) tryRelease(ctx context.Context, key string) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	inUse, err := c.refs.FileInUse(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check references: %w", err)
	}
	if inUse {
		return true, nil
	}
	if err := c.deleter.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}
	return false, nil
}
