// Package recommend queries the book recommendation service and recovers from
// every failure with generated or fixed fallback content.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/csheth/readowl/internal/books"
	"github.com/csheth/readowl/internal/llm"
	"github.com/csheth/readowl/internal/logging"
)

// Source reports where a result set came from.
type Source string

const (
	SourceService   Source = "service"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

const (
	DefaultBaseURL          = "http://localhost:8000"
	DefaultPath             = "/api/get_books"
	DefaultTimeout          = 20 * time.Second
	DefaultFailureThreshold = 3
	DefaultOpenTimeout      = 30 * time.Second

	maxErrorBody = 512
)

// Result is what a search hands back to the session. Err records why Books did
// not come from the service; callers never need to act on it.
type Result struct {
	Books  []books.Book
	Source Source
	Err    error
}

// StatusError is a non-2xx answer from the recommendation service.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("recommendation service error: %s", e.Status)
	}
	return fmt.Sprintf("recommendation service error: %s (%s)", e.Status, e.Body)
}

// Config describes how to reach the service and what to do when it fails.
type Config struct {
	BaseURL          string
	Path             string
	Timeout          time.Duration
	HTTPClient       *http.Client
	Generator        llm.Client
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client is safe for concurrent use. It holds no per-call state.
type Client struct {
	endpoint   *url.URL
	http       *http.Client
	generator  llm.Client
	breaker    *gobreaker.CircuitBreaker[[]books.Book]
	service    *books.Normalizer
	generated  *books.Normalizer
	fallbackFn func() []books.Book
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	endpoint, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("service url %q must be http or https", base)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = DefaultOpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        "recommendation-service",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log := logging.With("recommend")
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Client{
		endpoint:   endpoint,
		http:       httpClient,
		generator:  cfg.Generator,
		breaker:    gobreaker.NewCircuitBreaker[[]books.Book](settings),
		service:    books.NewNormalizer(books.PrefixService),
		generated:  books.NewNormalizer(books.PrefixGenerated),
		fallbackFn: books.Fallback,
	}, nil
}

// Search never fails: any problem with the service is turned into generated or
// fixed fallback content, with the cause kept in Result.Err.
func (c *Client) Search(ctx context.Context, params books.SearchParams) Result {
	log := logging.With("recommend")

	list, err := c.breaker.Execute(func() ([]books.Book, error) {
		return c.fetch(ctx, params)
	})
	if err == nil {
		log.Info().Str("source", string(SourceService)).Int("count", len(list)).Str("query", params.Query).Msg("search completed")
		return Result{Books: list, Source: SourceService}
	}

	log.Warn().Err(err).Str("query", params.Query).Msg("recommendation service unavailable")
	if generated, genErr := c.generate(ctx, params); genErr == nil {
		log.Info().Str("source", string(SourceGenerated)).Int("count", len(generated)).Msg("search completed")
		return Result{Books: generated, Source: SourceGenerated, Err: err}
	} else if !errors.Is(genErr, llm.ErrNoProvider) {
		log.Warn().Err(genErr).Msg("generative fallback failed")
	}

	fallback := c.fallbackFn()
	log.Info().Str("source", string(SourceFallback)).Int("count", len(fallback)).Msg("search completed")
	return Result{Books: fallback, Source: SourceFallback, Err: err}
}

// RequestURL is the service URL a search for params would hit.
func (c *Client) RequestURL(params books.SearchParams) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("query", params.Query)
	q.Set("category", string(params.Category))
	q.Set("tone", string(params.Tone))
	u.RawQuery = q.Encode()
	return u.String()
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// GeneratorName names the generative recommender, or "" when none is set.
func (c *Client) GeneratorName() string {
	if c.generator == nil {
		return ""
	}
	return c.generator.Name()
}

func (c *Client) fetch(ctx context.Context, params books.SearchParams) ([]books.Book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(params), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query recommendation service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read recommendation response: %w", err)
	}
	return c.service.Normalize(raw)
}

func (c *Client) generate(ctx context.Context, params books.SearchParams) ([]books.Book, error) {
	if c.generator == nil {
		return nil, llm.ErrNoProvider
	}
	raw, err := c.generator.Recommend(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.generator.Name(), err)
	}
	list, err := c.generated.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.generator.Name(), err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s returned no books", c.generator.Name())
	}
	return list, nil
}
