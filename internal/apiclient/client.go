// Package apiclient is a Go client for the portfolio REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grafixr/site/internal/adapters/http/api"
	"github.com/grafixr/site/internal/app"
	"github.com/grafixr/site/internal/domain/catalog"
	"github.com/grafixr/site/internal/domain/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to a running site over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the admin bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New returns a client for the site at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// File is one upload part.
type File struct {
	Name string
	Body io.Reader
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", nil)
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (app.Stats, error) {
	var out app.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, "", &out)
	return out, err
}

// ListItems fetches GET /api/portfolio with q encoded as query parameters.
func (c *Client) ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error) {
	path := "/api/portfolio"
	if enc := catalog.Encode(q); enc != "" {
		path += "?" + enc
	}
	var out []model.PortfolioItem
	err := c.do(ctx, http.MethodGet, path, nil, "", &out)
	return out, err
}

// GetItem fetches GET /api/portfolio/{id}.
func (c *Client) GetItem(ctx context.Context, id string) (model.PortfolioItem, error) {
	var out model.PortfolioItem
	err := c.do(ctx, http.MethodGet, "/api/portfolio/"+url.PathEscape(id), nil, "", &out)
	return out, err
}

// ListCategories fetches GET /api/categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, "", &out)
	return out, err
}

// SubmitInquiry posts a contact form to POST /api/inquiries.
func (c *Client) SubmitInquiry(ctx context.Context, draft model.InquiryDraft) (model.Inquiry, error) {
	var out model.Inquiry
	err := c.doJSON(ctx, http.MethodPost, "/api/inquiries", draft, &out)
	return out, err
}

// AdminListItems fetches GET /api/admin/list.
func (c *Client) AdminListItems(ctx context.Context) ([]model.PortfolioItem, error) {
	var out []model.PortfolioItem
	err := c.do(ctx, http.MethodGet, "/api/admin/list", nil, "", &out)
	return out, err
}

// CreateCategory calls POST /api/admin/categories.
func (c *Client) CreateCategory(ctx context.Context, main string, subs []string) (model.Category, error) {
	var out model.Category
	body := map[string]any{"mainCategory": main, "subCategories": nonNil(subs)}
	err := c.doJSON(ctx, http.MethodPost, "/api/admin/categories", body, &out)
	return out, err
}

// UpdateSubCategories calls PUT /api/admin/categories/{id}.
func (c *Client) UpdateSubCategories(ctx context.Context, id string, subs []string) (model.Category, error) {
	var out model.Category
	body := map[string]any{"subCategories": nonNil(subs)}
	err := c.doJSON(ctx, http.MethodPut, "/api/admin/categories/"+url.PathEscape(id), body, &out)
	return out, err
}

// DeleteCategory calls DELETE /api/admin/categories/{id}.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/categories/"+url.PathEscape(id), nil, "", nil)
}

// Upload creates an item through POST /api/admin/upload.
func (c *Client) Upload(ctx context.Context, draft model.ItemDraft, files []File) (model.PortfolioItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{api.FormTitle, draft.Title},
		{api.FormDescription, draft.Description},
		{api.FormMainCategory, draft.MainCategory},
		{api.FormSubCategory, draft.SubCategory},
		{api.FormMediaType, draft.MediaType},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return model.PortfolioItem{}, fmt.Errorf("%w: %w", ErrRequest, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(api.FormFiles, f.Name)
		if err != nil {
			return model.PortfolioItem{}, fmt.Errorf("%w: %w", ErrRequest, err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return model.PortfolioItem{}, fmt.Errorf("%w: read %s: %w", ErrRequest, f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return model.PortfolioItem{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	var out model.PortfolioItem
	err := c.do(ctx, http.MethodPost, "/api/admin/upload", &buf, mw.FormDataContentType(), &out)
	return out, err
}

// DeleteItem calls DELETE /api/admin/delete/{id}.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/delete/"+url.PathEscape(id), nil, "", nil)
}

// ListInquiries fetches GET /api/admin/inquiries.
func (c *Client) ListInquiries(ctx context.Context) ([]model.Inquiry, error) {
	var out []model.Inquiry
	err := c.do(ctx, http.MethodGet, "/api/admin/inquiries", nil, "", &out)
	return out, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode body: %w", ErrRequest, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRequest, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", ErrRequest, method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
