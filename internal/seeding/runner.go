package seeding

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grafixr/site/internal/apiclient"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
)

// API is the part of the REST client the runner needs.
type API interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, main string, subs []string) (model.Category, error)
	UpdateSubCategories(ctx context.Context, id string, subs []string) (model.Category, error)
	AdminListItems(ctx context.Context) ([]model.PortfolioItem, error)
	Upload(ctx context.Context, draft model.ItemDraft, files []apiclient.File) (model.PortfolioItem, error)
}

// Report counts what a run did, or would do in dry-run mode.
type Report struct {
	CategoriesCreated int
	CategoriesUpdated int
	ItemsUploaded     int
	ItemsSkipped      int
}

// Runner applies a Manifest.
type Runner struct {
	api    API
	dryRun bool
	log    logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun reports planned changes without writing.
func WithDryRun(dry bool) Option {
	return func(r *Runner) { r.dryRun = dry }
}

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a Runner over api.
func NewRunner(api API, opts ...Option) *Runner {
	r := &Runner{api: api}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("seed")
	}
	return r
}

// Run creates missing categories, merges subcategories into existing ones
// and uploads items whose title is not present yet. It stops at the first
// failure and returns the counts so far.
func (r *Runner) Run(ctx context.Context, m *Manifest) (Report, error) {
	var rep Report
	if err := r.seedCategories(ctx, m, &rep); err != nil {
		return rep, err
	}
	if err := r.seedItems(ctx, m, &rep); err != nil {
		return rep, err
	}
	r.log.Info(ctx, "seed finished",
		logger.Bool("dryRun", r.dryRun),
		logger.Int("categoriesCreated", rep.CategoriesCreated),
		logger.Int("categoriesUpdated", rep.CategoriesUpdated),
		logger.Int("itemsUploaded", rep.ItemsUploaded),
		logger.Int("itemsSkipped", rep.ItemsSkipped))
	return rep, nil
}

func (r *Runner) seedCategories(ctx context.Context, m *Manifest, rep *Report) error {
	existing, err := r.api.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	for _, spec := range m.Categories {
		cat, ok := catalog.FindCategory(existing, spec.MainCategory)
		if !ok {
			r.log.Info(ctx, "creating category",
				logger.String("mainCategory", spec.MainCategory),
				logger.Strings("subCategories", spec.SubCategories))
			if r.dryRun {
				rep.CategoriesCreated++
				continue
			}
			created, err := r.api.CreateCategory(ctx, spec.MainCategory, spec.SubCategories)
			if err != nil {
				return fmt.Errorf("create category %q: %w", spec.MainCategory, err)
			}
			rep.CategoriesCreated++
			existing = append(existing, created)
			continue
		}

		merged, changed := mergeTags(cat.SubCategories, spec.SubCategories)
		if !changed {
			continue
		}
		r.log.Info(ctx, "merging subcategories",
			logger.String("mainCategory", cat.MainCategory),
			logger.Strings("subCategories", merged))
		if !r.dryRun {
			if _, err := r.api.UpdateSubCategories(ctx, cat.ID, merged); err != nil {
				return fmt.Errorf("update category %q: %w", cat.MainCategory, err)
			}
		}
		rep.CategoriesUpdated++
	}
	return nil
}

func (r *Runner) seedItems(ctx context.Context, m *Manifest, rep *Report) error {
	items, err := r.api.AdminListItems(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		seen[titleKey(it.Title)] = true
	}

	for _, spec := range m.Items {
		if seen[titleKey(spec.Title)] {
			rep.ItemsSkipped++
			r.log.Debug(ctx, "item exists", logger.String("title", spec.Title))
			continue
		}
		paths := make([]string, len(spec.Files))
		for i, f := range spec.Files {
			paths[i] = m.Path(f)
			if _, err := os.Stat(paths[i]); err != nil {
				return fmt.Errorf("item %q: %w", spec.Title, err)
			}
		}
		r.log.Info(ctx, "uploading item",
			logger.String("title", spec.Title),
			logger.Strings("files", paths))
		if !r.dryRun {
			if err := r.upload(ctx, spec, paths); err != nil {
				return fmt.Errorf("upload %q: %w", spec.Title, err)
			}
		}
		rep.ItemsUploaded++
		seen[titleKey(spec.Title)] = true
	}
	return nil
}

func (r *Runner) upload(ctx context.Context, spec ItemSpec, paths []string) error {
	files := make([]apiclient.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		files = append(files, apiclient.File{Name: filepath.Base(p), Body: f})
	}
	_, err := r.api.Upload(ctx, model.ItemDraft{
		Title:        spec.Title,
		Description:  spec.Description,
		MainCategory: spec.MainCategory,
		SubCategory:  spec.SubCategory,
		MediaType:    spec.MediaType,
	}, files)
	return err
}

// mergeTags appends the tags of add missing from base, ignoring case.
func mergeTags(base, add []string) ([]string, bool) {
	out := append([]string(nil), base...)
	for _, t := range add {
		out = catalog.AddTag(out, t)
	}
	return out, len(out) != len(base)
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
