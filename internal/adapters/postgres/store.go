package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grafixr/site/internal/adapters/repository"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

const uniqueViolation = "23505"

// Store is a repository.Store backed by a pgx pool.
type Store struct {
	pool     *pgxpool.Pool
	log      logger.Logger
	ownsPool bool
}

var _ repository.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New wraps an existing pool. Close leaves the pool open.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, log: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to databaseURL, applies migrations and returns a Store that
// owns its pool.
func Open(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	s := New(nil, opts...)
	pool, err := Connect(ctx, databaseURL, s.log)
	if err != nil {
		return nil, err
	}
	if err := RunMigrationsWithLock(ctx, pool, s.log); err != nil {
		pool.Close()
		return nil, err
	}
	s.pool = pool
	s.ownsPool = true
	s.publish(ctx)
	return s, nil
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}

// publish refreshes the catalog gauges. Failures only cost freshness.
func (s *Store) publish(ctx context.Context) {
	var items, categories, inquiries int
	err := s.pool.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM portfolio_items),
		(SELECT count(*) FROM categories),
		(SELECT count(*) FROM inquiries)`).Scan(&items, &categories, &inquiries)
	if err != nil {
		s.log.Debug(ctx, "catalog gauge refresh failed", logger.Error(err))
		return
	}
	metrics.UpdateItemsTotal(items)
	metrics.UpdateCategoriesTotal(categories)
	metrics.UpdateInquiriesTotal(inquiries)
}

func mapErr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, repository.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// Categories

const categoryColumns = `id, main_category, sub_categories, created_at, updated_at`

func scanCategory(row pgx.Row) (model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.MainCategory, &c.SubCategories, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return model.Category{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err, "list categories")
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapErr(err, "scan category")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list categories")
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (model.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		return model.Category{}, mapErr(err, "category "+id)
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c model.Category) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.MainCategory, nonNil(c.SubCategories), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return mapErr(err, fmt.Sprintf("category %q", c.MainCategory))
	}
	s.publish(ctx)
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c model.Category) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET sub_categories = $2, updated_at = $3 WHERE id = $1`,
		c.ID, nonNil(c.SubCategories), c.UpdatedAt)
	if err != nil {
		return mapErr(err, "category "+c.ID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", c.ID, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "category "+id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, repository.ErrNotFound)
	}
	s.publish(ctx)
	return nil
}

// Items

const itemColumns = `id, title, description, main_category, sub_category, media_type, files, created_at`

func scanItem(row pgx.Row) (model.PortfolioItem, error) {
	var (
		it        model.PortfolioItem
		mediaType string
	)
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &it.MainCategory, &it.SubCategory, &mediaType, &it.Files, &it.CreatedAt); err != nil {
		return model.PortfolioItem{}, err
	}
	it.MediaType = model.MediaType(mediaType)
	it.CreatedAt = it.CreatedAt.UTC()
	return it, nil
}

// listItemsSQL renders the query for q. Title ordering uses the C collation
// so it agrees with the byte-wise ordering of the in-memory store.
func listItemsSQL(q model.ItemQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q.MainCategory != "" {
		where = append(where, "lower(main_category) = lower("+arg(q.MainCategory)+")")
	}
	if q.SubCategory != "" {
		where = append(where, "lower(sub_category) = lower("+arg(q.SubCategory)+")")
	}
	if q.Search != "" {
		p := arg(q.Search)
		where = append(where, "(strpos(lower(title), lower("+p+")) > 0 OR strpos(lower(description), lower("+p+")) > 0)")
	}

	dir := "DESC"
	if q.SortOrder == model.SortAsc {
		dir = "ASC"
	}
	order := "created_at " + dir + ", id " + dir
	if q.SortBy == model.SortByTitle {
		order = `lower(title) COLLATE "C" ` + dir + ", " + order
	}

	var b strings.Builder
	b.WriteString("SELECT " + itemColumns + " FROM portfolio_items")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + order)
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + arg(q.Limit))
	}
	return b.String(), args
}

func (s *Store) ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error) {
	sql, args := listItemsSQL(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err, "list items")
	}
	defer rows.Close()

	out := []model.PortfolioItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, mapErr(err, "scan item")
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list items")
	}
	return out, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM portfolio_items WHERE id = $1`, id))
	if err != nil {
		return model.PortfolioItem{}, mapErr(err, "item "+id)
	}
	return it, nil
}

func (s *Store) CreateItem(ctx context.Context, it model.PortfolioItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO portfolio_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.Title, it.Description, it.MainCategory, it.SubCategory, string(it.MediaType), nonNil(it.Files), it.CreatedAt)
	if err != nil {
		return mapErr(err, "item "+it.ID)
	}
	s.publish(ctx)
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `DELETE FROM portfolio_items WHERE id = $1 RETURNING `+itemColumns, id))
	if err != nil {
		return model.PortfolioItem{}, mapErr(err, "item "+id)
	}
	s.publish(ctx)
	return it, nil
}

func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM portfolio_items`).Scan(&n); err != nil {
		return 0, mapErr(err, "count items")
	}
	return n, nil
}

func (s *Store) FileInUse(ctx context.Context, key string) (bool, error) {
	var inUse bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM portfolio_items WHERE files @> ARRAY[$1]::text[])`, key).Scan(&inUse)
	if err != nil {
		return false, mapErr(err, "file in use")
	}
	return inUse, nil
}

// Inquiries

const inquiryColumns = `id, name, email, phone, project_type, budget, deadline, requirements, created_at`

func (s *Store) CreateInquiry(ctx context.Context, in model.Inquiry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO inquiries (`+inquiryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		in.ID, in.Name, in.Email, in.Phone, string(in.ProjectType), in.Budget, in.Deadline, in.Requirements, in.CreatedAt)
	if err != nil {
		return mapErr(err, "inquiry "+in.ID)
	}
	s.publish(ctx)
	return nil
}

func (s *Store) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, mapErr(err, "list inquiries")
	}
	defer rows.Close()

	out := []model.Inquiry{}
	for rows.Next() {
		var (
			in          model.Inquiry
			projectType string
			createdAt   time.Time
		)
		if err := rows.Scan(&in.ID, &in.Name, &in.Email, &in.Phone, &projectType, &in.Budget, &in.Deadline, &in.Requirements, &createdAt); err != nil {
			return nil, mapErr(err, "scan inquiry")
		}
		in.ProjectType = model.ProjectType(projectType)
		in.CreatedAt = createdAt.UTC()
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err, "list inquiries")
	}
	return out, nil
}

func (s *Store) CountInquiries(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM inquiries`).Scan(&n); err != nil {
		return 0, mapErr(err, "count inquiries")
	}
	return n, nil
}
