package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnreachable reports transport failures, timeouts and non-2xx replies.
	ErrUnreachable = errors.New("jikan: provider unreachable")
	// ErrMalformed reports undecodable bodies or a missing data member.
	ErrMalformed = errors.New("jikan: malformed response")
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
)

var tracer = otel.Tracer("animeimporter/jikan")

// Client talks to a Jikan-compatible API.
type Client struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request, connection and body read included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// New creates a client rooted at baseURL, e.g. https://api.jikan.moe/v4.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("jikan base url required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse jikan base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("jikan base url must use http or https, got %q", parsed.Scheme)
	}

	client := &Client{
		baseURL:    baseURL,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}

	// Copy so the timeout never leaks into a caller-owned client.
	hc := *client.httpClient
	hc.Timeout = client.timeout
	client.httpClient = &hc
	return client, nil
}

// BaseURL reports the root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAnimeFull fetches /anime/{id}/full. The id is path-escaped as given.
func (c *Client) GetAnimeFull(ctx context.Context, id string) (*Anime, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("anime id must not be empty")
	}
	ctx, span := tracer.Start(ctx, "jikan.GetAnimeFull", trace.WithAttributes(attribute.String("jikan.anime_id", id)))
	defer span.End()

	var payload fullResponse
	if err := c.getJSON(ctx, "/anime/"+url.PathEscape(id)+"/full", nil, &payload); err != nil {
		recordError(span, err)
		return nil, err
	}
	if payload.Data == nil {
		err := fmt.Errorf("%w: anime %s: data missing", ErrMalformed, id)
		recordError(span, err)
		return nil, err
	}
	return payload.Data, nil
}

// SearchAnime performs a title search and returns the first page of results.
// A response with an empty data array yields an empty, non-nil slice.
func (c *Client) SearchAnime(ctx context.Context, query string) ([]Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	ctx, span := tracer.Start(ctx, "jikan.SearchAnime", trace.WithAttributes(attribute.Int("jikan.query_length", len(query))))
	defer span.End()

	params := url.Values{}
	params.Set("q", query)

	var payload searchResponse
	if err := c.getJSON(ctx, "/anime", params, &payload); err != nil {
		recordError(span, err)
		return nil, err
	}
	if payload.Data == nil {
		err := fmt.Errorf("%w: search: data missing", ErrMalformed)
		recordError(span, err)
		return nil, err
	}
	results := *payload.Data
	if results == nil {
		results = []Anime{}
	}
	span.SetAttributes(attribute.Int("jikan.results", len(results)))
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse jikan url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("%w: execute request (latency=%v): %w", ErrUnreachable, latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return fmt.Errorf("%w: %s returned %d (latency=%v)", ErrUnreachable, path, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(dest); err != nil {
		if isTransportError(ctx, err) {
			return fmt.Errorf("%w: read body: %w", ErrUnreachable, err)
		}
		return fmt.Errorf("%w: decode %s: %w", ErrMalformed, path, err)
	}
	return nil
}

// isTransportError separates a body read that timed out or was cancelled from
// a body that arrived but did not parse.
func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
