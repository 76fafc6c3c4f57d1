package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/cevizenes/recipeapp/internal/logging"
	"github.com/cevizenes/recipeapp/internal/metrics"
	"github.com/cevizenes/recipeapp/internal/outcome"
	"github.com/cevizenes/recipeapp/internal/recipe"
)

// DefaultBaseURL is the public Spoonacular endpoint.
const DefaultBaseURL = "https://api.spoonacular.com"

// searchPageSize is the number of results requested per search.
const searchPageSize = 20

// APIError is a non-2xx response from the catalog.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error (status %d)", e.StatusCode)
}

// Client talks to the Spoonacular REST API. It implements Gateway.
type Client struct {
	apiKey   string
	baseURL  string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	recorder metrics.Recorder
	backoffs []time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithPageSize sets the number of search results requested.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRateLimit allows one request per interval.
func WithRateLimit(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithRecorder reports every request to r.
func WithRecorder(r metrics.Recorder) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		pageSize: searchPageSize,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		recorder: metrics.NoopRecorder{},
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available returns true if an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// SearchRecipes runs a complex search. Filters left empty are not sent.
func (c *Client) SearchRecipes(ctx context.Context, q Query) outcome.Outcome[[]recipe.Recipe] {
	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("number", strconv.Itoa(c.pageSize))
	params.Set("offset", "0")
	params.Set("addRecipeInformation", "true")
	params.Set("fillIngredients", "true")
	if q.Cuisine != "" {
		params.Set("cuisine", q.Cuisine)
	}
	if q.Diet != "" {
		params.Set("diet", q.Diet)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.MaxReadyTime > 0 {
		params.Set("maxReadyTime", strconv.Itoa(q.MaxReadyTime))
	}

	var resp searchResponse
	if err := c.get(ctx, "search", "/recipes/complexSearch", params, &resp); err != nil {
		return outcome.Fail[[]recipe.Recipe](err)
	}
	return outcome.Success(toRecipes(resp.Results))
}

// RecipeDetail fetches one recipe with nutrition.
func (c *Client) RecipeDetail(ctx context.Context, id int) outcome.Outcome[recipe.RecipeDetail] {
	params := url.Values{}
	params.Set("includeNutrition", "true")

	var resp detailDTO
	path := fmt.Sprintf("/recipes/%d/information", id)
	if err := c.get(ctx, "detail", path, params, &resp); err != nil {
		return outcome.Fail[recipe.RecipeDetail](err)
	}
	return outcome.Success(resp.toDetail())
}

// RandomRecipes fetches count random recipes.
func (c *Client) RandomRecipes(ctx context.Context, count int) outcome.Outcome[[]recipe.Recipe] {
	params := url.Values{}
	params.Set("number", strconv.Itoa(count))

	var resp randomResponse
	if err := c.get(ctx, "random", "/recipes/random", params, &resp); err != nil {
		return outcome.Fail[[]recipe.Recipe](err)
	}
	recipes := make([]recipe.Recipe, 0, len(resp.Recipes))
	for _, d := range resp.Recipes {
		recipes = append(recipes, d.recipeDTO.toRecipe())
	}
	return outcome.Success(recipes)
}

// get performs a throttled GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		c.recorder.GatewayRequest(op, err, time.Since(start))
		if err != nil {
			logging.Warn("Catalog request failed", "op", op, "path", path, "error", err)
		}
	}()

	endpoint := c.baseURL + path + "?" + params.Encode()

	body, err := c.doWithRetry(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// doWithRetry retries up to 3 times on HTTP 429, 5xx or transport errors,
// backing off 1s, 2s, 4s. Retry-After is honored on 429 (capped at 30s).
// Each attempt waits on the limiter.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	maxRetries := len(c.backoffs)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		// Kept out of the URL so transport errors never print it.
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if err := c.wait(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			if err := c.wait(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: truncate(string(body), 512)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = apiErr
			var retryAfter time.Duration
			if resp.StatusCode == http.StatusTooManyRequests {
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			}
			if err := c.wait(ctx, attempt, retryAfter); err != nil {
				return nil, err
			}
			continue
		}

		// 401, 402 (quota), 404 and friends are not retried.
		return nil, apiErr
	}

	return nil, fmt.Errorf("catalog request failed after %d retries: %w", maxRetries, lastErr)
}

// wait sleeps before the next attempt. It is a no-op after the last one.
func (c *Client) wait(ctx context.Context, attempt int, override time.Duration) error {
	if attempt >= len(c.backoffs) {
		return nil
	}
	delay := c.backoffs[attempt]
	if override > 0 {
		delay = override
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP-date.
func parseRetryAfter(v string) time.Duration {
	var delay time.Duration
	if seconds, err := strconv.Atoi(v); err == nil {
		delay = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		delay = time.Until(at)
	}
	if delay <= 0 {
		return 0
	}
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
