package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Sternrassler/wb-api-client/pkg/action"
	"github.com/Sternrassler/wb-api-client/pkg/client"
	"github.com/Sternrassler/wb-api-client/pkg/credentials"
	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/Sternrassler/wb-api-client/pkg/resources"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve catalog resources as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(root)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Serve.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.redis != nil {
				if err := a.redis.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("connect to redis at %s: %w", a.cfg.Credentials.Redis.Addr, err)
				}
				a.logger.Info().Str("addr", a.cfg.Credentials.Redis.Addr).Msg("Connected to Redis credential store")
			}

			p := &proxy{
				exec:    a.exec,
				source:  a.source,
				timeout: a.cfg.Serve.RequestTimeout,
				logger:  logging.NewLogger("wbctl-serve"),
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           p.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", addr).Msg("Starting WB proxy server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			a.logger.Info().Msg("Shutting down WB proxy server")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// proxy exposes catalog resources over HTTP.
type proxy struct {
	exec    action.Executor
	source  credentials.Source
	timeout time.Duration
	logger  zerolog.Logger
}

func (p *proxy) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /resources", p.listHandler)
	mux.HandleFunc("GET /resources/{name}", p.resourceHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

type resourceInfo struct {
	Name      string `json:"name"`
	Help      string `json:"help"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Paginated bool   `json:"paginated"`
	DataField string `json:"data_field,omitempty"`
}

func (p *proxy) listHandler(w http.ResponseWriter, r *http.Request) {
	all := resources.All()
	out := make([]resourceInfo, 0, len(all))
	for _, res := range all {
		out = append(out, resourceInfo{
			Name:      res.Name,
			Help:      res.HelpText,
			Method:    res.Method,
			Path:      res.Path,
			Paginated: res.Paginated,
			DataField: res.DataField,
		})
	}
	p.respond(w, http.StatusOK, out)
}

func (p *proxy) resourceHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	resource, ok := resources.Lookup(name)
	if !ok {
		p.fail(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", name))
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			p.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid page %q", raw))
			return
		}
		page = n
	}

	ctx := r.Context()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	conn, err := p.source.Connector(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load credentials")
		p.fail(w, http.StatusInternalServerError, "credentials unavailable")
		return
	}

	act, err := action.New(p.exec, conn, resource, page)
	if err != nil {
		p.fail(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := act.Fetch(ctx)
	if err != nil {
		p.fetchFailed(w, err)
		return
	}

	p.respond(w, http.StatusOK, data)
}

type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	Field          string `json:"field,omitempty"`
}

// fetchFailed maps a fetch error onto a proxy response. Upstream and
// extraction failures are reported as 502, timeouts as 504.
func (p *proxy) fetchFailed(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusBadGateway

	var missing *action.MissingFieldError
	if dre, ok := client.AsDataRetrievalError(err); ok {
		resp.UpstreamStatus = dre.StatusCode
	} else if errors.As(err, &missing) {
		resp.Field = missing.Field
	} else if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	p.logger.Warn().Err(err).Int("status", status).Msg("Resource fetch failed")
	p.respond(w, status, resp)
}

func (p *proxy) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (p *proxy) fail(w http.ResponseWriter, status int, msg string) {
	p.respond(w, status, errorResponse{Error: msg})
}
