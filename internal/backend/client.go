// Package backend is the HTTP adapter for the search collaborator. The
// backend is opaque: the client only knows the /search, /filter and /export
// endpoints and the JSON shapes they return.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client talks to the search backend and caches filter responses so
// re-applying the same bounds on the same result set costs no round-trip.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	filterCache *cache.Cache
	log         *zap.Logger
}

// New creates a Client for the given base URL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		// Filter responses only stay valid while their query_key does;
		// a fresh search flushes the cache wholesale.
		filterCache: cache.New(10*time.Minute, time.Minute),
		log:         log,
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

// searchResponse is the wire shape shared by /search and /filter.
type searchResponse struct {
	Results    []domain.ResultItem `json:"results"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
	QueryKey   string              `json:"query_key,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// Search issues POST /search with the raw query text. Date filtering is
// never folded into this call; it is a separate /filter step with its own
// caching lifetime on the backend.
func (c *Client) Search(ctx context.Context, query string) (*domain.ResultPage, error) {
	body, err := json.Marshal(searchRequest{Query: query})
	if err != nil {
		return nil, domain.NewNetworkError(fmt.Errorf("failed to marshal request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	page, err := c.doSearch(req)
	if err != nil {
		return nil, err
	}

	// New search, new query_key: every cached filter window is stale now.
	c.filterCache.Flush()

	c.log.Debug("search completed",
		zap.String("query", query),
		zap.Int("total", page.TotalCount),
		zap.String("query_key", page.ContinuationToken))
	return page, nil
}

// Filter issues GET /filter reusing the continuation token from a prior
// search. Identical (token, page, bounds) calls are served from the local
// cache.
func (c *Client) Filter(ctx context.Context, token string, page int, dates domain.DateRange) (*domain.ResultPage, error) {
	key := filterKey(token, page, dates)
	if hit, found := c.filterCache.Get(key); found {
		c.log.Debug("filter served from cache", zap.String("key", key))
		return clonePage(hit.(*domain.ResultPage)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/filter?"+filterParams(token, page, dates).Encode(), nil)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}

	result, err := c.doSearch(req)
	if err != nil {
		return nil, err
	}

	// /filter responses carry no query_key; the token stays valid.
	result.ContinuationToken = token
	c.filterCache.Set(key, result, cache.DefaultExpiration)

	c.log.Debug("filter completed",
		zap.String("query_key", token),
		zap.Int("page", page),
		zap.Int("total", result.TotalCount))
	return clonePage(result), nil
}

// Export downloads the /export payload for the given token and bounds into
// outputPath. The response is opaque (CSV); nothing is parsed.
func (c *Client) Export(ctx context.Context, token string, dates domain.DateRange, outputPath string) error {
	params := url.Values{}
	params.Set("query_key", token)
	if !dates.IsZero() {
		params.Set("start_date", dates.Start)
		params.Set("end_date", dates.End)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/export?"+params.Encode(), nil)
	if err != nil {
		return domain.NewNetworkError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewServerError(fmt.Sprintf("export failed with status %d", resp.StatusCode))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	c.log.Debug("export downloaded", zap.String("path", outputPath))
	return nil
}

func (c *Client) doSearch(req *http.Request) (*domain.ResultPage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return nil, domain.NewServerError(fmt.Sprintf("backend returned status %d", resp.StatusCode))
		}
		return nil, domain.NewNetworkError(fmt.Errorf("failed to parse response: %w", err))
	}

	if parsed.Error != "" {
		return nil, domain.NewServerError(parsed.Error)
	}
	if resp.StatusCode >= 400 {
		return nil, domain.NewServerError(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}

	return &domain.ResultPage{
		Items:             parsed.Results,
		TotalCount:        parsed.Total,
		TotalPages:        parsed.TotalPages,
		PageNumber:        1,
		ContinuationToken: parsed.QueryKey,
	}, nil
}

func filterParams(token string, page int, dates domain.DateRange) url.Values {
	params := url.Values{}
	params.Set("query_key", token)
	params.Set("page", strconv.Itoa(page))
	if !dates.IsZero() {
		params.Set("start_date", dates.Start)
		params.Set("end_date", dates.End)
	}
	return params
}

func filterKey(token string, page int, dates domain.DateRange) string {
	return token + "|" + strconv.Itoa(page) + "|" + dates.Start + "|" + dates.End
}

func clonePage(p *domain.ResultPage) *domain.ResultPage {
	out := *p
	out.Items = append([]domain.ResultItem(nil), p.Items...)
	return &out
}
