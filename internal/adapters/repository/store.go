// Package repository defines the catalog store interfaces, their errors and
// the in-memory implementation.
package repository

import (
	"context"

	"github.com/grafixr/site/internal/domain/model"
)

// CategoryStore persists categories. Main category names are unique,
// ignoring case.
type CategoryStore interface {
	// ListCategories returns categories in creation order.
	ListCategories(ctx context.Context) ([]model.Category, error)
	// GetCategory returns ErrNotFound for an unknown id.
	GetCategory(ctx context.Context, id string) (model.Category, error)
	// CreateCategory returns ErrConflict when the id or main category exists.
	CreateCategory(ctx context.Context, c model.Category) error
	// UpdateCategory replaces subcategories and UpdatedAt of an existing category.
	UpdateCategory(ctx context.Context, c model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// ItemStore persists portfolio items.
type ItemStore interface {
	// ListItems returns the items selected by q, filtered and ordered by catalog rules.
	ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error)
	GetItem(ctx context.Context, id string) (model.PortfolioItem, error)
	CreateItem(ctx context.Context, item model.PortfolioItem) error
	// DeleteItem removes the item and returns it so its media can be released.
	DeleteItem(ctx context.Context, id string) (model.PortfolioItem, error)
	CountItems(ctx context.Context) (int, error)
}

// InquiryStore persists contact form submissions.
type InquiryStore interface {
	CreateInquiry(ctx context.Context, in model.Inquiry) error
	// ListInquiries returns inquiries newest first.
	ListInquiries(ctx context.Context) ([]model.Inquiry, error)
	CountInquiries(ctx context.Context) (int, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	CategoryStore
	ItemStore
	InquiryStore

	// FileInUse reports whether any item still references the media key.
	FileInUse(ctx context.Context, key string) (bool, error)
	Close() error
}
