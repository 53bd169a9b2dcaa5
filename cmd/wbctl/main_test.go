package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sternrassler/wb-api-client/internal/testutil"
	"github.com/Sternrassler/wb-api-client/pkg/client"
	"github.com/Sternrassler/wb-api-client/pkg/credentials"
	"github.com/Sternrassler/wb-api-client/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProxy(t *testing.T, mock *testutil.MockWB, source credentials.Source) http.Handler {
	t.Helper()

	c, err := client.New(client.Config{BaseURL: mock.URL(), APIVersion: "api/v3"})
	require.NoError(t, err)

	p := &proxy{
		exec:   c,
		source: source,
		logger: logging.NewLogger("wbctl-test"),
	}
	return p.routes()
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	h := newTestProxy(t, mock, credentials.Static{APIKey: "k"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestResourcesList(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	h := newTestProxy(t, mock, credentials.Static{APIKey: "k"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/resources", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var list []resourceInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.NotEmpty(t, list)

	names := make([]string, 0, len(list))
	for _, r := range list {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "orders")
	assert.Contains(t, names, "warehouses")
}

func TestResourceHandler_Paginated(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	mock.SetPages("/api/v3/orders", map[int]string{
		1: `{"orders":[{"orderId":1}],"next":2}`,
		2: `{"orders":[{"orderId":2}],"next":0}`,
	})

	h := newTestProxy(t, mock, credentials.Static{APIKey: "secret-key"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/resources/orders", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[{"order_id":1},{"order_id":2}]`, w.Body.String())
	assert.Equal(t, 2, mock.GetRequestCount())

	last, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "secret-key", last.Header.Get("Authorization"))
}

func TestResourceHandler_PageZeroDisablesPagination(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	mock.SetResponse("/api/v3/orders", testutil.NewJSONResponse(`{"orders":[{"orderId":5}],"next":9}`))

	h := newTestProxy(t, mock, credentials.Static{APIKey: "k"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/resources/orders?page=0", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[{"order_id":5}]`, w.Body.String())

	last, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Empty(t, last.Query.Get("next"))
}

func TestResourceHandler_Errors(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	mock.SetResponse("/api/v3/warehouses", testutil.NewErrorResponse(http.StatusUnauthorized))
	mock.SetResponse("/api/v3/orders/new", testutil.NewJSONResponse(`{"items":[]}`))

	h := newTestProxy(t, mock, credentials.Static{APIKey: "k"})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   errorResponse
	}{
		{
			name:       "unknown resource",
			path:       "/resources/nope",
			wantStatus: http.StatusNotFound,
			wantBody:   errorResponse{Error: `unknown resource "nope"`},
		},
		{
			name:       "invalid page",
			path:       "/resources/orders?page=abc",
			wantStatus: http.StatusBadRequest,
			wantBody:   errorResponse{Error: `invalid page "abc"`},
		},
		{
			name:       "negative page",
			path:       "/resources/orders?page=-1",
			wantStatus: http.StatusBadRequest,
			wantBody:   errorResponse{Error: `invalid page "-1"`},
		},
		{
			name:       "upstream failure",
			path:       "/resources/warehouses",
			wantStatus: http.StatusBadGateway,
			wantBody: errorResponse{
				Error:          "WB service warehouses failed to retrieve data (status 401)",
				UpstreamStatus: http.StatusUnauthorized,
			},
		},
		{
			name:       "missing data field",
			path:       "/resources/new_orders",
			wantStatus: http.StatusBadGateway,
			wantBody: errorResponse{
				Error: `WB service new_orders: field "orders" missing from response`,
				Field: "orders",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var got errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

func TestResourceHandler_NoCredentials(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	h := newTestProxy(t, mock, credentials.Static{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/resources/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 0, mock.GetRequestCount())
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wbctl.yaml")
	raw := "api:\n" +
		"  base_url: " + baseURL + "\n" +
		"credentials:\n" +
		"  api_key: cli-key\n" +
		"  scopes: [marketplace]\n" +
		"log:\n" +
		"  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_Resources(t *testing.T) {
	out, err := runCLI(t, "resources")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "supplies")
}

func TestCLI_Fetch(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	mock.SetPages("/api/v3/supplies", map[int]string{
		1: `{"supplies":[{"supplyId":"WB-1"}],"next":3}`,
		3: `{"supplies":[{"supplyId":"WB-2"}],"next":3}`,
	})

	cfg := writeConfig(t, mock.URL())

	for _, async := range []bool{false, true} {
		args := []string{"--config", cfg, "fetch", "supplies"}
		if async {
			args = append(args, "--async")
		}

		out, err := runCLI(t, args...)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"supply_id":"WB-1"},{"supply_id":"WB-2"}]`, out)
	}

	last, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "cli-key", last.Header.Get("Authorization"))
	assert.Equal(t, "100", last.Query.Get("limit"))
}

func TestCLI_FetchErrors(t *testing.T) {
	mock := testutil.NewMockWB()
	defer mock.Close()

	cfg := writeConfig(t, mock.URL())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown resource", []string{"--config", cfg, "fetch", "nope"}, `unknown resource "nope"`},
		{"period on wrong resource", []string{"--config", cfg, "fetch", "offices", "--from", "2024-01-01T00:00:00Z"}, "only apply to orders"},
		{"bad period", []string{"--config", cfg, "fetch", "orders", "--from", "yesterday"}, "parse --from"},
		{"upstream 404", []string{"--config", cfg, "fetch", "offices"}, "status 404"},
		{"negative page", []string{"--config", cfg, "fetch", "orders", "--page=-2"}, "page must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCLI_CredentialsShow(t *testing.T) {
	cfg := writeConfig(t, "https://example.test")

	out, err := runCLI(t, "--config", cfg, "credentials", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "cli-key")
}

func TestCLI_CredentialsSetRequiresRedis(t *testing.T) {
	cfg := writeConfig(t, "https://example.test")

	_, err := runCLI(t, "--config", cfg, "credentials", "set", "--key", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestParsePeriod(t *testing.T) {
	from, to, err := parsePeriod("2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(86400), to.Unix()-from.Unix())

	_, _, err = parsePeriod("", "2024-01-02T00:00:00Z")
	assert.Error(t, err)

	_, _, err = parsePeriod("2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z")
	assert.Error(t, err)
}
