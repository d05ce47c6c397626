// Package client is a typed HTTP client for the company REST API.
//
// One Client talks to one server; For binds it to an entity kind:
//
//	c := client.NewClient("http://localhost:8080")
//	employees := client.For(c, models.EmployeeKind)
//	created, err := employees.Create(ctx, &models.Employee{FirstName: "Ada"})
//
// Non 2xx answers come back as *APIError carrying the decoded error body.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/hrdemo/company/pkg/models"
	"github.com/hrdemo/company/pkg/responder"
	"github.com/hrdemo/company/pkg/service"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL, e.g.
// "http://localhost:8080", with a 30 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client, e.g. the one of an
// httptest server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// APIError is a non 2xx response.
type APIError struct {
	Status     int    `json:"status"`
	Message    string `json:"error"`
	ErrorKey   string `json:"errorKey"`
	EntityName string `json:"entityName"`
}

func (e *APIError) Error() string {
	if e.ErrorKey == "" {
		return fmt.Sprintf("API error: status=%d", e.Status)
	}
	return fmt.Sprintf("API error: status=%d, key=%s: %s", e.Status, e.ErrorKey, e.Message)
}

// StatusOf returns the HTTP status of an *APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", responder.ContentTypeJSON)
	}
	if accept == "" {
		accept = responder.ContentTypeJSON
	}
	req.Header.Set("Accept", accept)
	return c.httpClient.Do(req)
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
		apiErr.Status = resp.StatusCode
	}
	return apiErr
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return err
	}
	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) (http.Header, error) {
	resp, err := c.doRequest(ctx, method, path, body, "")
	if err != nil {
		return nil, err
	}
	return resp.Header, decodeResponse(resp, target)
}

// Health fetches /api/health.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var result map[string]any
	_, err := c.call(ctx, http.MethodGet, "/api/health", nil, &result)
	return result, err
}

// SyncStatus fetches the store and index counts of every kind.
func (c *Client) SyncStatus(ctx context.Context) ([]service.SyncStatus, error) {
	var result []service.SyncStatus
	_, err := c.call(ctx, http.MethodGet, "/api/management/sync", nil, &result)
	return result, err
}

// Reindex rebuilds the index of the kind at path, or of all kinds when path
// is empty.
func (c *Client) Reindex(ctx context.Context, path string) ([]service.ReindexResult, error) {
	target := "/api/management/reindex"
	if path != "" {
		target += "/" + url.PathEscape(path)
	}
	var result []service.ReindexResult
	_, err := c.call(ctx, http.MethodPost, target, nil, &result)
	return result, err
}

// Resource is the client side of one entity kind.
type Resource[E models.Entity] struct {
	c    *Client
	desc models.Descriptor[E]
}

// For binds c to the entity kind described by desc.
func For[E models.Entity](c *Client, desc models.Descriptor[E]) *Resource[E] {
	return &Resource[E]{c: c, desc: desc}
}

func (r *Resource[E]) path() string {
	return "/api/" + r.desc.Path
}

func (r *Resource[E]) one(ctx context.Context, method, path string, body any) (E, error) {
	entity := r.desc.New()
	if _, err := r.c.call(ctx, method, path, body, entity); err != nil {
		var zero E
		return zero, err
	}
	return entity, nil
}

// Create posts a new entity and returns it with its assigned identifier.
func (r *Resource[E]) Create(ctx context.Context, entity E) (E, error) {
	return r.one(ctx, http.MethodPost, r.path(), entity)
}

// Update replaces an existing entity. The identifier must be set.
func (r *Resource[E]) Update(ctx context.Context, entity E) (E, error) {
	return r.one(ctx, http.MethodPut, r.path(), entity)
}

// Get fetches one entity; a missing one is an *APIError with status 404.
func (r *Resource[E]) Get(ctx context.Context, id models.ID) (E, error) {
	return r.one(ctx, http.MethodGet, r.path()+"/"+url.PathEscape(id.String()), nil)
}

// Delete removes an entity. Deleting a missing entity succeeds.
func (r *Resource[E]) Delete(ctx context.Context, id models.ID) error {
	_, err := r.c.call(ctx, http.MethodDelete, r.path()+"/"+url.PathEscape(id.String()), nil, nil)
	return err
}

// List fetches the whole collection of an unpaged kind.
func (r *Resource[E]) List(ctx context.Context) ([]E, error) {
	var items []E
	_, err := r.c.call(ctx, http.MethodGet, r.path(), nil, &items)
	return items, err
}

// PageRequest selects one page; Sort entries read "field[,asc|desc]".
type PageRequest struct {
	Page int
	Size int
	Sort []string
}

func (p PageRequest) query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	for _, s := range p.Sort {
		q.Add("sort", s)
	}
	return q
}

// Page is one page of results with the server side total.
type Page[E any] struct {
	Items []E
	Total int64
	Links string
}

func (r *Resource[E]) page(ctx context.Context, path string, q url.Values) (Page[E], error) {
	var out Page[E]
	header, err := r.c.call(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &out.Items)
	if err != nil {
		return out, err
	}
	if v := header.Get(responder.HeaderTotalCount); v != "" {
		if out.Total, err = strconv.ParseInt(v, 10, 64); err != nil {
			return out, fmt.Errorf("invalid %s header %q: %w", responder.HeaderTotalCount, v, err)
		}
	}
	out.Links = header.Get(responder.HeaderLink)
	return out, nil
}

// Page fetches one page of the collection with its total count.
func (r *Resource[E]) Page(ctx context.Context, p PageRequest) (Page[E], error) {
	return r.page(ctx, r.path(), p.query())
}

// Search runs query against the index and returns every hit.
func (r *Resource[E]) Search(ctx context.Context, query string) ([]E, error) {
	var items []E
	q := url.Values{"query": {query}}
	_, err := r.c.call(ctx, http.MethodGet, "/api/_search/"+r.desc.Path+"?"+q.Encode(), nil, &items)
	return items, err
}

// SearchPage runs query and returns one page of hits with the total number
// of matches.
func (r *Resource[E]) SearchPage(ctx context.Context, query string, p PageRequest) (Page[E], error) {
	q := p.query()
	q.Set("query", query)
	return r.page(ctx, "/api/_search/"+r.desc.Path, q)
}

// Stream reads the collection as a stream of JSON lines. Stopping the
// iteration closes the connection.
func (r *Resource[E]) Stream(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E
		resp, err := r.c.doRequest(ctx, http.MethodGet, r.path(), nil, responder.ContentTypeStream)
		if err != nil {
			yield(zero, err)
			return
		}
		defer resp.Body.Close()
		if err := checkResponse(resp); err != nil {
			yield(zero, err)
			return
		}

		dec := json.NewDecoder(resp.Body)
		for {
			entity := r.desc.New()
			if err := dec.Decode(entity); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(zero, fmt.Errorf("failed to decode stream: %w", err))
				return
			}
			if !yield(entity, nil) {
				return
			}
		}
	}
}
