// Package catalogclient implements the catalog collaborators against an
// OpenMetadata-compatible REST API.
package catalogclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/metrics"
)

var _ domain.CatalogClient = (*Client)(nil)

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxConcurrency = 8
	maxResponseBytes      = 32 << 20
	maxErrorBodyBytes     = 512
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxConcurrency int
	HTTPClient     *http.Client // replaces the default transport; Timeout still bounds each request
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Client talks to the catalog API. Identical concurrent GETs share a single
// upstream request.
type Client struct {
	baseURL        string
	token          string
	http           *http.Client
	timeout        time.Duration
	maxConcurrency int
	group          singleflight.Group
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// New creates a Client for the catalog at opts.BaseURL.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog base URL %q", opts.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("catalog base URL must use http or https, got %q", u.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConnsPerHost: 16,
			},
		}
	}
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		token:          opts.Token,
		http:           hc,
		timeout:        timeout,
		maxConcurrency: maxConcurrency,
		metrics:        opts.Metrics,
		logger:         logger.With("component", "catalog-client"),
	}, nil
}

// GetTable loads a table with the fields the summary needs.
func (c *Client) GetTable(ctx context.Context, fqn string) (*domain.Table, error) {
	q := url.Values{}
	q.Set("fields", "columns,tableConstraints,tags,owner,usageSummary,profile")
	q.Set("include", string(domain.IncludeAll))

	var t domain.Table
	if err := c.get(ctx, "get_table", "/api/v1/tables/name/"+url.PathEscape(fqn), q, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetDashboard loads a dashboard with its chart references.
func (c *Client) GetDashboard(ctx context.Context, fqn string) (*domain.Dashboard, error) {
	q := url.Values{}
	q.Set("fields", "owner,tags,charts")
	q.Set("include", string(domain.IncludeAll))

	var d domain.Dashboard
	if err := c.get(ctx, "get_dashboard", "/api/v1/dashboards/name/"+url.PathEscape(fqn), q, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// FetchCharts resolves every chart reference concurrently. Charts that fail
// to load are dropped; the result keeps the order of refs. An error is
// returned only when every reference failed.
func (c *Client) FetchCharts(ctx context.Context, refs []domain.EntityReference) ([]domain.Chart, error) {
	if len(refs) == 0 {
		return []domain.Chart{}, nil
	}

	results := make([]*domain.Chart, len(refs))
	errs := make([]error, len(refs))

	var g errgroup.Group
	g.SetLimit(c.maxConcurrency)
	for i := range refs {
		ref := refs[i]
		g.Go(func() error {
			q := url.Values{}
			q.Set("fields", "tags")
			var ch domain.Chart
			if err := c.get(ctx, "get_chart", "/api/v1/charts/"+url.PathEscape(ref.ID), q, &ch); err != nil {
				c.logger.Debug("chart fetch failed", "chart_id", ref.ID, "error", err)
				errs[i] = err
				return nil // keep the other charts
			}
			results[i] = &ch
			return nil
		})
	}
	_ = g.Wait()

	charts := make([]domain.Chart, 0, len(refs))
	for _, ch := range results {
		if ch != nil {
			charts = append(charts, *ch)
		}
	}
	if len(charts) == 0 {
		return nil, fmt.Errorf("all %d chart fetches failed: %w", len(refs), errors.Join(errs...))
	}
	return charts, nil
}

// LatestProfile returns the latest profile of the table fqn. The catalog
// answers 404 when the table has never been profiled.
func (c *Client) LatestProfile(ctx context.Context, fqn string) (*domain.ProfileSnapshot, error) {
	var body struct {
		Profile *domain.ProfileSnapshot `json:"profile"`
	}
	if err := c.get(ctx, "latest_profile", "/api/v1/tables/"+url.PathEscape(fqn)+"/tableProfile/latest", nil, &body); err != nil {
		return nil, err
	}
	return body.Profile, nil
}

// TableQueries returns the queries recorded against the table tableID.
func (c *Client) TableQueries(ctx context.Context, tableID string) ([]domain.TableQuery, error) {
	q := url.Values{}
	q.Set("fields", "tableQueries")

	var body struct {
		TableQueries []domain.TableQuery `json:"tableQueries"`
	}
	if err := c.get(ctx, "table_queries", "/api/v1/tables/"+url.PathEscape(tableID), q, &body); err != nil {
		return nil, err
	}
	return body.TableQueries, nil
}

// ListTestCases lists test cases matching filter.
func (c *Client) ListTestCases(ctx context.Context, filter domain.TestCaseFilter) ([]domain.TestCase, error) {
	q := url.Values{}
	if len(filter.Fields) > 0 {
		q.Set("fields", strings.Join(filter.Fields, ","))
	}
	if filter.EntityLink != "" {
		q.Set("entityLink", filter.EntityLink)
	}
	if filter.IncludeAllTests {
		q.Set("includeAllTests", "true")
	}
	if filter.Include != "" {
		q.Set("include", string(filter.Include))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var body struct {
		Data []domain.TestCase `json:"data"`
	}
	if err := c.get(ctx, "list_test_cases", "/api/v1/dataQuality/testCases", q, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// get performs a GET, sharing the response body between identical
// in-flight requests, and decodes it into out.
//
// The shared request is detached from the caller that started it and bounded
// by the client timeout; each caller stops waiting when its own ctx is done.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ch := c.group.DoChan(target, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fetchCtx, op, target)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return domain.ErrFetch(op, 0, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Shared {
		c.logger.Debug("shared in-flight request", "op", op)
	}
	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return domain.ErrFetch(op, http.StatusOK, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, op, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.ErrFetch(op, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, "error", time.Since(start))
		return nil, domain.ErrFetch(op, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	c.metrics.ObserveUpstream(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound("%s: not found", op)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, domain.ErrFetch(op, resp.StatusCode, errors.New(upstreamMessage(snippet, resp.Status)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.ErrFetch(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	return body, nil
}

// upstreamMessage extracts the "message" of an OpenMetadata error body,
// falling back to the HTTP status line.
func upstreamMessage(body []byte, status string) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	return status
}
