package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/metrics"
)

// MemStore is an in-memory Store guarded by a single RWMutex.
type MemStore struct {
	mu            sync.RWMutex
	categories    map[string]model.Category
	categoryOrder []string
	items         map[string]model.PortfolioItem
	inquiries     []model.Inquiry
	closed        bool
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		categories: make(map[string]model.Category),
		items:      make(map[string]model.PortfolioItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publishLocked()
	return s
}

// publishLocked pushes catalog gauges. Callers hold s.mu.
func (s *MemStore) publishLocked() {
	metrics.UpdateItemsTotal(len(s.items))
	metrics.UpdateCategoriesTotal(len(s.categories))
	metrics.UpdateInquiriesTotal(len(s.inquiries))
}

func (s *MemStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Categories

func (s *MemStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		out = append(out, cloneCategory(s.categories[id]))
	}
	return out, nil
}

func (s *MemStore) GetCategory(ctx context.Context, id string) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.Category{}, err
	}
	c, ok := s.categories[id]
	if !ok {
		return model.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return cloneCategory(c), nil
}

func (s *MemStore) CreateCategory(ctx context.Context, c model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("category %s: %w", c.ID, ErrConflict)
	}
	for _, existing := range s.categories {
		if strings.EqualFold(existing.MainCategory, c.MainCategory) {
			return fmt.Errorf("category %q: %w", c.MainCategory, ErrConflict)
		}
	}
	s.categories[c.ID] = cloneCategory(c)
	s.categoryOrder = append(s.categoryOrder, c.ID)
	s.publishLocked()
	return nil
}

func (s *MemStore) UpdateCategory(ctx context.Context, c model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	cur, ok := s.categories[c.ID]
	if !ok {
		return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	cur.SubCategories = append([]string(nil), c.SubCategories...)
	cur.UpdatedAt = c.UpdatedAt
	s.categories[c.ID] = cur
	return nil
}

func (s *MemStore) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	delete(s.categories, id)
	for i, cid := range s.categoryOrder {
		if cid == id {
			s.categoryOrder = append(s.categoryOrder[:i], s.categoryOrder[i+1:]...)
			break
		}
	}
	s.publishLocked()
	return nil
}

// Items

func (s *MemStore) ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	all := make([]model.PortfolioItem, 0, len(s.items))
	for _, it := range s.items {
		all = append(all, it)
	}
	// map order is random; settle it before the stable sort
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := catalog.Apply(all, q)
	for i := range out {
		out[i] = cloneItem(out[i])
	}
	return out, nil
}

func (s *MemStore) GetItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.PortfolioItem{}, err
	}
	it, ok := s.items[id]
	if !ok {
		return model.PortfolioItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return cloneItem(it), nil
}

func (s *MemStore) CreateItem(ctx context.Context, item model.PortfolioItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, ok := s.items[item.ID]; ok {
		return fmt.Errorf("item %s: %w", item.ID, ErrConflict)
	}
	s.items[item.ID] = cloneItem(item)
	s.publishLocked()
	return nil
}

func (s *MemStore) DeleteItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return model.PortfolioItem{}, err
	}
	it, ok := s.items[id]
	if !ok {
		return model.PortfolioItem{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	s.publishLocked()
	return it, nil
}

func (s *MemStore) CountItems(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return len(s.items), nil
}

// FileInUse scans items for key.
func (s *MemStore) FileInUse(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	for _, it := range s.items {
		for _, f := range it.Files {
			if f == key {
				return true, nil
			}
		}
	}
	return false, nil
}

// Inquiries

func (s *MemStore) CreateInquiry(ctx context.Context, in model.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	for _, existing := range s.inquiries {
		if existing.ID == in.ID {
			return fmt.Errorf("inquiry %s: %w", in.ID, ErrConflict)
		}
	}
	s.inquiries = append(s.inquiries, in)
	s.publishLocked()
	return nil
}

func (s *MemStore) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Inquiry, len(s.inquiries))
	for i, in := range s.inquiries {
		out[len(out)-1-i] = in
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) CountInquiries(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	return len(s.inquiries), nil
}

func cloneCategory(c model.Category) model.Category {
	c.SubCategories = append([]string(nil), c.SubCategories...)
	return c
}

func cloneItem(it model.PortfolioItem) model.PortfolioItem {
	it.Files = append([]string(nil), it.Files...)
	return it
}
