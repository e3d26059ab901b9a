// Package app provides the core service that implements the dependencies
// required by the HTTP API and the site.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/adapters/mq/queue"
	"github.com/grafixr/site/internal/adapters/mq/worker"
	"github.com/grafixr/site/internal/adapters/repository"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount    = 2
	defaultQueueSize      = 1024
	defaultDeleteAttempts = 3
	defaultRetryBackoff   = 200 * time.Millisecond
	stopTimeout           = 10 * time.Second
)

// Cleanup reasons attached to media jobs.
const (
	reasonItemDeleted  = "item_deleted"
	reasonUploadFailed = "upload_failed"
)

// ErrNoMediaStore is returned by Start when no media store was configured.
var ErrNoMediaStore = errors.New("media store not configured")

// Service implements the API and site dependencies for the portfolio.
type Service struct {
	mu sync.RWMutex

	// mediaGate is held shared from the first Save until the item is stored,
	// and exclusively by the cleaner from a reference check to its delete.
	// Content-addressed keys let a new upload reuse a file being released.
	mediaGate sync.RWMutex

	// Core components
	store   repository.Store
	media   media.Store
	clock   clockwork.Clock
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	cleaner *worker.Cleaner
	newID   func() string

	// Configuration
	workerCount    int
	queueSize      int
	deleteAttempts int
	retryBackoff   time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the catalog store. The in-memory store is used otherwise.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMediaStore sets where uploaded files are written.
func WithMediaStore(store media.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.media = store
		}
	}
}

// WithClock sets the clock used for timestamps and retry backoff.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides UUID generation for entity IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithWorkerCount sets the number of media cleanup workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the media cleanup queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDeleteAttempts bounds delete attempts per media key.
func WithDeleteAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.deleteAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between delete attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryBackoff = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:          clockwork.NewRealClock(),
		newID:          uuid.NewString,
		workerCount:    defaultWorkerCount,
		queueSize:      defaultQueueSize,
		deleteAttempts: defaultDeleteAttempts,
		retryBackoff:   defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

// Start initializes and starts the media cleanup workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.media == nil {
		return ErrNoMediaStore
	}

	s.logger.Info(ctx, "starting portfolio service...")

	s.cleaner = s.newCleaner()
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithClock(s.clock.Now),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.cleaner,
		worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "portfolio service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("deleteAttempts", s.deleteAttempts),
	)
	return nil
}

func (s *Service) newCleaner() *worker.Cleaner {
	return worker.NewCleaner(s.store, s.media,
		worker.WithAttempts(s.deleteAttempts),
		worker.WithBackoff(s.retryBackoff),
		worker.WithClock(s.clock),
		worker.WithLock(&s.mediaGate),
		worker.WithCleanerLogger(s.logger.Named("media")),
	)
}

// Stop drains pending media jobs and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping portfolio service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "media workers did not drain", logger.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "portfolio service stopped")
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// Categories

// ListCategories returns all categories in creation order.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, main string, subs []string) (model.Category, error) {
	main, subs, err := catalog.ValidateCategory(main, subs)
	if err != nil {
		return model.Category{}, err
	}
	now := s.now()
	c := model.Category{
		ID:            s.newID(),
		MainCategory:  main,
		SubCategories: subs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	s.logger.Info(ctx, "category created",
		logger.String("id", c.ID),
		logger.String("mainCategory", c.MainCategory),
		logger.Strings("subCategories", c.SubCategories))
	return c, nil
}

// UpdateSubCategories replaces the subcategories of a category.
func (s *Service) UpdateSubCategories(ctx context.Context, id string, subs []string) (model.Category, error) {
	subs, err := catalog.ValidateSubCategories(subs)
	if err != nil {
		return model.Category{}, err
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	c.SubCategories = subs
	c.UpdatedAt = s.now()
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes a category. Items keep their category names.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "category deleted", logger.String("id", id))
	return nil
}

// Items

// ListItems returns the items selected by q.
func (s *Service) ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error) {
	return s.store.ListItems(ctx, q)
}

// GetItem returns a single item.
func (s *Service) GetItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	return s.store.GetItem(ctx, id)
}

// FeaturedItems returns the newest n items.
func (s *Service) FeaturedItems(ctx context.Context, n int) ([]model.PortfolioItem, error) {
	if n <= 0 {
		return []model.PortfolioItem{}, nil
	}
	q := catalog.DefaultQuery()
	q.Limit = n
	return s.store.ListItems(ctx, q)
}

// CreateItem validates the draft and its files, stores the files and then the
// item. Files stored before a failure are handed to the cleanup workers.
func (s *Service) CreateItem(ctx context.Context, d model.ItemDraft, uploads []media.Upload) (model.PortfolioItem, error) {
	if s.media == nil {
		return model.PortfolioItem{}, ErrNoMediaStore
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return model.PortfolioItem{}, err
	}

	metas := make([]catalog.FileMeta, len(uploads))
	for i, u := range uploads {
		metas[i] = catalog.FileMeta{Name: u.Name, ContentType: u.ContentType, Size: u.Size}
	}
	d, mediaType, err := catalog.ValidateItem(d, categories, metas)
	if err != nil {
		metrics.RecordUploadError("validation")
		return model.PortfolioItem{}, err
	}

	item := model.PortfolioItem{
		ID:           s.newID(),
		Title:        d.Title,
		Description:  d.Description,
		MainCategory: d.MainCategory,
		SubCategory:  d.SubCategory,
		MediaType:    mediaType,
		CreatedAt:    s.now(),
	}
	written, err := s.storeItem(ctx, &item, uploads)
	if err != nil {
		s.releaseMedia(ctx, item.Files, reasonUploadFailed)
		return model.PortfolioItem{}, err
	}

	metrics.RecordUpload(string(mediaType))
	metrics.RecordUploadBytes(written)
	s.logger.Info(ctx, "portfolio item created",
		logger.String("id", item.ID),
		logger.String("title", item.Title),
		logger.String("mediaType", string(item.MediaType)),
		logger.Int("files", len(item.Files)),
		logger.Int64("bytesWritten", written))
	return item, nil
}

// storeItem saves the uploads and then item under the shared media gate.
// item.Files holds the keys saved so far, also on error; they must be released
// after the gate is dropped since an inline cleanup takes it exclusively.
func (s *Service) storeItem(ctx context.Context, item *model.PortfolioItem, uploads []media.Upload) (int64, error) {
	s.mediaGate.RLock()
	defer s.mediaGate.RUnlock()

	item.Files = make([]string, 0, len(uploads))
	var written int64
	for _, u := range uploads {
		obj, err := s.media.Save(ctx, u)
		if err != nil {
			metrics.RecordUploadError("storage")
			return 0, fmt.Errorf("store %s: %w", u.Name, err)
		}
		item.Files = append(item.Files, obj.Key)
		if obj.Created {
			written += obj.Size
		}
	}
	if err := s.store.CreateItem(ctx, *item); err != nil {
		metrics.RecordUploadError("store")
		return 0, err
	}
	return written, nil
}

// DeleteItem removes an item and queues its media for release.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	item, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return err
	}
	metrics.RecordItemDeleted()
	s.logger.Info(ctx, "portfolio item deleted", logger.String("id", id))
	s.releaseMedia(ctx, item.Files, reasonItemDeleted)
	return nil
}

// releaseMedia queues keys for cleanup, falling back to an inline cleanup
// when the service is stopped or the queue is full.
func (s *Service) releaseMedia(ctx context.Context, keys []string, reason string) {
	if len(keys) == 0 {
		return
	}
	job := queue.Job{ID: s.newID(), Keys: keys, Reason: reason}

	s.mu.RLock()
	q, cleaner := s.queue, s.cleaner
	started := s.started
	s.mu.RUnlock()

	if started {
		err := q.Enqueue(ctx, job)
		if err == nil {
			return
		}
		s.logger.Warn(ctx, "media queue rejected job, cleaning inline",
			logger.String("job_id", job.ID),
			logger.Error(err))
	}
	if cleaner == nil {
		cleaner = s.newCleaner()
	}
	cleaner.Clean(ctx, job)
}

// Inquiries

// SubmitInquiry validates and stores a contact form submission.
func (s *Service) SubmitInquiry(ctx context.Context, d model.InquiryDraft) (model.Inquiry, error) {
	in, err := catalog.ValidateInquiry(d)
	if err != nil {
		return model.Inquiry{}, err
	}
	in.ID = s.newID()
	in.CreatedAt = s.now()
	if err := s.store.CreateInquiry(ctx, in); err != nil {
		return model.Inquiry{}, err
	}
	metrics.RecordInquiry()
	s.logger.Info(ctx, "inquiry received",
		logger.String("id", in.ID),
		logger.String("projectType", string(in.ProjectType)))
	return in, nil
}

// ListInquiries returns stored inquiries, newest first.
func (s *Service) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	return s.store.ListInquiries(ctx)
}

// Stats is a snapshot of service state for monitoring.
type Stats struct {
	Started       bool `json:"started"`
	WorkerCount   int  `json:"workerCount"`
	QueueLength   int  `json:"queueLength"`
	QueueCapacity int  `json:"queueCapacity"`
	Items         int  `json:"items"`
	Categories    int  `json:"categories"`
	Inquiries     int  `json:"inquiries"`
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	stats := Stats{
		Started:       s.started,
		WorkerCount:   s.workerCount,
		QueueCapacity: s.queueSize,
	}
	if s.started {
		stats.QueueLength = s.queue.Len(ctx)
	}
	s.mu.RUnlock()

	var err error
	if stats.Items, err = s.store.CountItems(ctx); err != nil {
		return Stats{}, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.Categories = len(categories)
	if stats.Inquiries, err = s.store.CountInquiries(ctx); err != nil {
		return Stats{}, err
	}
	return stats, nil
}
