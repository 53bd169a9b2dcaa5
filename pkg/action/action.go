// Package action runs WB API resources: it authenticates the request,
// follows pagination cursors when enabled, normalizes keys to snake_case and
// extracts the declared data field.
package action

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Sternrassler/wb-api-client/pkg/client"
	"github.com/Sternrassler/wb-api-client/pkg/credentials"
	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/Sternrassler/wb-api-client/pkg/normalize"
	"github.com/Sternrassler/wb-api-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// Executor performs one upstream request. *client.Client implements it.
type Executor interface {
	Do(ctx context.Context, req client.Request) (any, error)
}

// Resource describes one WB endpoint. Resources are plain data; the same
// Action code runs all of them.
type Resource struct {
	Name     string
	HelpText string

	Method string
	Path   string

	// Paginated enables cursor pagination (limit/next query parameters).
	Paginated bool

	// DataField, when set, selects a single top-level field of the result.
	DataField string

	// Scope is the token scope the endpoint belongs to (informational).
	Scope string

	// Query holds static query parameters sent with every request.
	Query url.Values

	// Body is sent as JSON when non-nil.
	Body any
}

// Result is the outcome of FetchAsync.
type Result struct {
	Data any
	Err  error
}

// Action runs one Resource with one connector. The page cursor belongs to
// the action and must not be shared between concurrent fetches.
type Action struct {
	resource  Resource
	exec      Executor
	connector credentials.Connector
	page      int
	logger    zerolog.Logger
}

// New creates an action. page is the first page to request; 0 disables
// pagination even for paginated resources.
func New(exec Executor, connector credentials.Connector, resource Resource, page int) (*Action, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if resource.Name == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	if page < 0 {
		return nil, fmt.Errorf("page must be >= 0 (got %d)", page)
	}
	if resource.Method == "" {
		resource.Method = http.MethodGet
	}

	return &Action{
		resource:  resource,
		exec:      exec,
		connector: connector,
		page:      page,
		logger:    logging.NewLogger("action").With().Str("service", resource.Name).Logger(),
	}, nil
}

// String describes the service.
func (a *Action) String() string {
	if a.resource.HelpText == "" {
		return "WB service " + a.resource.Name
	}
	return "WB service " + a.resource.Name + "\n" + a.resource.HelpText
}

// Resource returns the resource the action runs.
func (a *Action) Resource() Resource {
	return a.resource
}

// Page returns the current cursor: the starting page before a fetch, the
// last requested page after a paginated fetch.
func (a *Action) Page() int {
	return a.page
}

// Paginated reports whether Fetch will follow pagination cursors.
func (a *Action) Paginated() bool {
	return a.resource.Paginated && a.page > 0
}

// Fetch performs the action and blocks until the result is available.
func (a *Action) Fetch(ctx context.Context) (any, error) {
	return a.run(ctx)
}

// FetchAsync performs the action on a separate goroutine. The returned
// channel receives exactly one Result and is then closed.
func (a *Action) FetchAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		data, err := a.Fetch(ctx)
		out <- Result{Data: data, Err: err}
	}()
	return out
}

func (a *Action) run(ctx context.Context) (any, error) {
	if !a.connector.HasScope(a.resource.Scope) {
		a.logger.Warn().
			Str("scope", a.resource.Scope).
			Strs("granted", a.connector.Scopes).
			Msg("API key lacks the resource scope - upstream will likely refuse")
	}

	var data any
	if a.Paginated() {
		acc := pagination.NewAccumulator(a.resource.Name, func(ctx context.Context, page int) (map[string]any, error) {
			body, err := a.exec.Do(ctx, a.request(page))
			if err != nil {
				return nil, err
			}
			obj, ok := body.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("WB service %s: page %d is %T, want JSON object", a.resource.Name, page, body)
			}
			return obj, nil
		})

		merged, last, err := acc.Run(ctx, a.page)
		a.page = last
		if err != nil {
			return nil, err
		}
		data = merged
	} else {
		body, err := a.exec.Do(ctx, a.request(0))
		if err != nil {
			return nil, err
		}
		data = body
	}

	return Extract(a.resource.Name, normalize.Keys(data), a.resource.DataField)
}

// request builds the descriptor for one call. page 0 omits pagination parameters.
func (a *Action) request(page int) client.Request {
	query := url.Values{}
	for k, v := range a.resource.Query {
		query[k] = append([]string(nil), v...)
	}
	if page > 0 {
		for k, v := range pagination.QueryParams(page) {
			query[k] = v
		}
	}

	return client.Request{
		Service: a.resource.Name,
		Method:  a.resource.Method,
		Path:    a.resource.Path,
		Query:   query,
		Body:    a.resource.Body,
		Header:  a.connector.AuthHeaders(),
	}
}
