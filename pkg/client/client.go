// Package client provides the WB API request executor: it builds the request
// URL from the configured host and API version, performs exactly one HTTP
// round trip and decodes the JSON response.
package client

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

	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/Sternrassler/wb-api-client/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the WB marketplace API host.
	DefaultBaseURL = "https://marketplace-api.wildberries.ru"

	// DefaultAPIVersion is the path prefix placed between host and resource path.
	DefaultAPIVersion = "api/v3"

	// DefaultTimeout bounds a single round trip when no HTTPClient is supplied.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response body is kept on the error.
	maxErrorBody = 4096
)

// HTTPClient performs HTTP requests. *http.Client implements it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the executor configuration.
type Config struct {
	// BaseURL is the upstream host (REQUIRED), e.g. "https://marketplace-api.wildberries.ru".
	BaseURL string

	// APIVersion is the version prefix (REQUIRED), e.g. "api/v3".
	APIVersion string

	// Timeout for the default HTTP client. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the transport (optional).
	HTTPClient HTTPClient
}

// DefaultConfig returns a configuration pointing at the WB marketplace API.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
	}
}

// Request describes one upstream call. It is built fresh per call.
type Request struct {
	// Service names the calling action; used in errors, logs and metrics.
	Service string

	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// Header carries the auth header set.
	Header http.Header
}

// Result is the outcome of an asynchronous call.
type Result struct {
	Data any
	Err  error
}

// Client is the WB API request executor.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	apiVersion string
	config     Config
	logger     zerolog.Logger
}

// New creates a new executor.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, cfg.BaseURL)
	}

	apiVersion := strings.Trim(cfg.APIVersion, "/")
	if apiVersion == "" {
		return nil, fmt.Errorf("%w: api version is required", ErrInvalidConfig)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiVersion: apiVersion,
		config:     cfg,
		logger:     logging.NewLogger("wb-client"),
	}, nil
}

// URL builds {base_url}/{api_version}/{path}?{query}.
func (c *Client) URL(path string, query url.Values) string {
	target := c.baseURL + "/" + c.apiVersion + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// Do performs exactly one HTTP round trip and returns the decoded JSON body.
//
// A status outside [200, 400) yields a *DataRetrievalError. A 204 response,
// or a success response with an empty body, yields an empty object.
func (c *Client) Do(ctx context.Context, r Request) (any, error) {
	service := r.Service
	if service == "" {
		service = "default"
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.URL(r.Path, r.Query)

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request body: %w", service, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range r.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	logger := c.logger.With().
		Str("service", service).
		Str("request_id", requestID).
		Logger()

	logger.Debug().
		Str("method", method).
		Str("url", target).
		Msg("Executing WB API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	metrics.RequestDuration.WithLabelValues(service).Observe(duration.Seconds())

	if err != nil {
		metrics.TransportErrors.WithLabelValues(service).Inc()
		logger.Error().Err(err).Str("url", target).Msg("HTTP request failed")
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	logging.LogResponse(logger, method, target, resp.StatusCode, duration)
	metrics.RequestsTotal.WithLabelValues(service, strconv.Itoa(resp.StatusCode)).Inc()

	return decodeResponse(service, method, target, resp)
}

// DoAsync runs Do on a separate goroutine. The returned channel receives
// exactly one Result and is then closed.
func (c *Client) DoAsync(ctx context.Context, r Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		data, err := c.Do(ctx, r)
		out <- Result{Data: data, Err: err}
	}()
	return out
}

// IsSuccess reports whether status is in [200, 400).
func IsSuccess(status int) bool {
	return status >= 200 && status < 400
}

func decodeResponse(service, method, target string, resp *http.Response) (any, error) {
	if !IsSuccess(resp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.DataRetrievalErrors.WithLabelValues(service).Inc()
		return nil, &DataRetrievalError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        target,
			Body:       string(snippet),
		}
	}

	if resp.StatusCode == http.StatusNoContent {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("decode %s response: %w", service, err)
	}

	return data, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}
