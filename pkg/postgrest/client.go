// Package postgrest is a small client for PostgREST-style table APIs such as the one fronting a
// hosted Supabase project. It covers the calls this service makes: filtered selects and inserts.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/atelier-waitlist/pkg/circuitbreaker"
)

const restPath = "/rest/v1/"

// maxErrorBody caps how much of an error response is read for decoding.
const maxErrorBody = 64 << 10

type Config struct {
	URL    string
	APIKey string

	// Timeout applies per HTTP call. Zero leaves calls bounded only by the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    circuitbreaker.CircuitBreaker
}

// ConfigError reports unusable client settings. A client is never returned alongside it.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return "postgrest: missing required settings: " + strings.Join(e.Missing, ", ")
	}
	return "postgrest: " + e.Reason
}

type Client struct {
	restURL *url.URL
	apiKey  string
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker
}

func NewClient(cfg Config) (*Client, error) {
	rawURL := strings.TrimSpace(cfg.URL)
	apiKey := strings.TrimSpace(cfg.APIKey)

	var missing []string
	if rawURL == "" {
		missing = append(missing, "URL")
	}
	if apiKey == "" {
		missing = append(missing, "APIKey")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid URL %q: %v", rawURL, err)}
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported URL scheme %q; use http or https", base.Scheme)}
	}
	if base.Host == "" {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid URL %q: missing host", rawURL)}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breakerCfg := circuitbreaker.DefaultConfig()
		breakerCfg.IsFailure = countsAgainstBreaker
		breaker = circuitbreaker.NewCircuitBreaker(breakerCfg)
	}

	return &Client{
		restURL: base.JoinPath(restPath),
		apiKey:  apiKey,
		http:    httpClient,
		breaker: breaker,
	}, nil
}

// Close releases idle keep-alive connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) BreakerState() circuitbreaker.CircuitState {
	return c.breaker.State()
}

func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{client: c, table: table, params: url.Values{}}
}

type QueryBuilder struct {
	client *Client
	table  string
	params url.Values
}

func (q *QueryBuilder) Select(columns ...string) *QueryBuilder {
	if len(columns) == 0 {
		q.params.Set("select", "*")
	} else {
		q.params.Set("select", strings.Join(columns, ","))
	}
	return q
}

func (q *QueryBuilder) Eq(column, value string) *QueryBuilder {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.params.Set("limit", strconv.Itoa(n))
	return q
}

// Execute runs the select and decodes the JSON array of rows into dst.
func (q *QueryBuilder) Execute(ctx context.Context, dst any) error {
	if !q.params.Has("select") {
		q.Select()
	}

	return q.client.do(ctx, http.MethodGet, q.table, q.params, nil, nil, dst)
}

// Insert posts rows (a struct or slice of structs) without asking for the representation back.
func (q *QueryBuilder) Insert(ctx context.Context, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("postgrest: encode insert for %s: %w", q.table, err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Prefer", "return=minimal")

	return q.client.do(ctx, http.MethodPost, q.table, nil, headers, body, nil)
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, headers http.Header, body []byte, dst any) error {
	endpoint := c.restURL.JoinPath(table)
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	return c.breaker.Call(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
		if err != nil {
			return fmt.Errorf("postgrest: build request: %w", err)
		}

		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("postgrest: %s %s: %w", method, table, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return decodeAPIError(resp)
		}

		if dst == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("postgrest: decode %s response: %w", table, err)
		}
		return nil
	})
}

// countsAgainstBreaker excludes 4xx replies: the service answered, the request was just refused.
func countsAgainstBreaker(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}
