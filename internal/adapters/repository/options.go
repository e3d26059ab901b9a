package repository

import "github.com/grafixr/site/internal/domain/model"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCategories preloads categories in the given order.
func WithCategories(categories ...model.Category) Option {
	return func(s *MemStore) {
		for _, c := range categories {
			if _, ok := s.categories[c.ID]; ok || c.ID == "" {
				continue
			}
			s.categories[c.ID] = cloneCategory(c)
			s.categoryOrder = append(s.categoryOrder, c.ID)
		}
	}
}

// WithItems preloads portfolio items.
func WithItems(items ...model.PortfolioItem) Option {
	return func(s *MemStore) {
		for _, it := range items {
			if it.ID != "" {
				s.items[it.ID] = cloneItem(it)
			}
		}
	}
}
