package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/grafixr/site/internal/domain/model"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemStore_Categories(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	if err := store.CreateCategory(ctx, model.Category{ID: "c1", MainCategory: "Branding", SubCategories: []string{"Logos"}, CreatedAt: t0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.CreateCategory(ctx, model.Category{ID: "c2", MainCategory: "Web", CreatedAt: t0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duplicate main category, ignoring case
	err := store.CreateCategory(ctx, model.Category{ID: "c3", MainCategory: "branding"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	cats, err := store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "c1" || cats[1].ID != "c2" {
		t.Fatalf("expected creation order [c1 c2], got %+v", cats)
	}

	// Returned slices are copies
	cats[0].SubCategories[0] = "mutated"
	got, _ := store.GetCategory(ctx, "c1")
	if got.SubCategories[0] != "Logos" {
		t.Errorf("store state leaked through returned slice: %v", got.SubCategories)
	}

	later := t0.Add(time.Hour)
	if err := store.UpdateCategory(ctx, model.Category{ID: "c1", MainCategory: "ignored", SubCategories: []string{"Logos", "Identity"}, UpdatedAt: later}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = store.GetCategory(ctx, "c1")
	if got.MainCategory != "Branding" || len(got.SubCategories) != 2 || !got.UpdatedAt.Equal(later) {
		t.Errorf("unexpected category after update: %+v", got)
	}

	if err := store.UpdateCategory(ctx, model.Category{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.DeleteCategory(ctx, "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetCategory(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteCategory(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	cats, _ = store.ListCategories(ctx)
	if len(cats) != 1 || cats[0].ID != "c2" {
		t.Errorf("expected [c2], got %+v", cats)
	}
}

func TestMemStore_Items(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(WithItems(
		model.PortfolioItem{ID: "a", Title: "Alpha", MainCategory: "Web", Files: []string{"uploads/shared.png"}, CreatedAt: t0},
		model.PortfolioItem{ID: "b", Title: "beta", MainCategory: "Print", Files: []string{"uploads/shared.png", "uploads/b.png"}, CreatedAt: t0.Add(time.Minute)},
	))

	if n, _ := store.CountItems(ctx); n != 2 {
		t.Fatalf("expected 2 items, got %d", n)
	}

	items, err := store.ListItems(ctx, model.ItemQuery{SortBy: model.SortByCreatedAt, SortOrder: model.SortDesc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "b" {
		t.Errorf("expected newest first, got %+v", items)
	}

	items, _ = store.ListItems(ctx, model.ItemQuery{MainCategory: "web"})
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("expected only item a, got %+v", items)
	}

	if err := store.CreateItem(ctx, model.PortfolioItem{ID: "a"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	inUse, _ := store.FileInUse(ctx, "uploads/shared.png")
	if !inUse {
		t.Error("shared file should be in use")
	}

	deleted, err := store.DeleteItem(ctx, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted.Files) != 2 {
		t.Errorf("expected deleted item files, got %v", deleted.Files)
	}

	if inUse, _ := store.FileInUse(ctx, "uploads/b.png"); inUse {
		t.Error("b.png should no longer be in use")
	}
	if inUse, _ := store.FileInUse(ctx, "uploads/shared.png"); !inUse {
		t.Error("shared.png is still referenced by item a")
	}

	if _, err := store.GetItem(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.DeleteItem(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStore_Inquiries(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	for i := 0; i < 3; i++ {
		in := model.Inquiry{ID: fmt.Sprintf("q%d", i), Name: "n", CreatedAt: t0.Add(time.Duration(i) * time.Hour)}
		if err := store.CreateInquiry(ctx, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.CreateInquiry(ctx, model.Inquiry{ID: "q1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	list, err := store.ListInquiries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[0].ID != "q2" || list[2].ID != "q0" {
		t.Errorf("expected newest first, got %+v", list)
	}
	if n, _ := store.CountInquiries(ctx); n != 3 {
		t.Errorf("expected 3 inquiries, got %d", n)
	}
}

func TestMemStore_ClosedAndCancelled(t *testing.T) {
	store := NewMemStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListCategories(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.CountItems(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMemStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("item-%d", i)
			_ = store.CreateItem(ctx, model.PortfolioItem{ID: id, Title: id, CreatedAt: t0, Files: []string{"uploads/" + id}})
			_, _ = store.ListItems(ctx, model.ItemQuery{Search: "item"})
			_, _ = store.FileInUse(ctx, "uploads/"+id)
		}(i)
	}
	wg.Wait()

	if n, _ := store.CountItems(ctx); n != 50 {
		t.Errorf("expected 50 items, got %d", n)
	}
}
