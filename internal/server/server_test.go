// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"context-resolver/internal/common/logger"
	"context-resolver/internal/defaults"
	"context-resolver/internal/disambiguation"
	"context-resolver/internal/engine"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver"
	"context-resolver/internal/resolver/search"
)

func newTestServer(t *testing.T, checks []HealthCheck) *httptest.Server {
	t.Helper()
	log := logger.NewTestLogger(t)

	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{ID: "cust-1", DisplayName: "Acme Corp", PaymentTerms: "Net 30"})
	store.AddProjects(models.Project{
		ID: "proj-1", Name: "Acme Platform", Status: models.ProjectStatusCompleted,
		HourlyRateCents: 4000, CustomerID: "cust-1",
	})
	store.AddTasks(models.Task{
		ID: "task-1", Title: "Platform work", Status: models.TaskStatusCompleted,
		ActualHours: 5, ProjectID: "proj-1", TaskType: "development",
	})

	res := resolver.New(store, resolver.NewMemoryCache(5*time.Minute, nil), resolver.DefaultOptions(), log)
	def := defaults.New(store, defaults.DefaultConfig(), nil, log)
	router := disambiguation.NewRouter(store, 30, log)
	eng := engine.New(res, def, router, nil, 0.5, 10, log)

	srv := httptest.NewServer(New(eng, checks, log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestResolveEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/resolve", `{"text": "Create invoice for Acme Corp"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cmd models.ResolvedCommand
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cmd))
	assert.Equal(t, models.IntentCreateInvoice, cmd.Intent)
	assert.NotEmpty(t, cmd.RequestID)
	require.Len(t, cmd.Context.Customers, 1)
}

func TestResolveEndpoint_AllFilterAccepted(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/resolve", `{"text": "Create invoice for Acme Corp", "entityTypeFilter": "all"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cmd models.ResolvedCommand
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cmd))
	require.Len(t, cmd.Context.Customers, 1, `"all" searches every collection`)
}

func TestResolveEndpoint_ValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing text", `{}`},
		{"empty text", `{"text": ""}`},
		{"bad filter", `{"text": "hi", "entityTypeFilter": "nonsense"}`},
		{"limit too high", `{"text": "hi", "limit": 1000}`},
		{"extra field", `{"text": "hi", "surprise": true}`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/resolve", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var payload struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
			assert.Equal(t, "INVALID_QUERY", payload.Error.Code)
		})
	}
}

func TestInvoiceOptionsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/invoice-options", `{"customerId": "cust-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bundle models.InvoiceOptionsBundle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))
	assert.Equal(t, "Acme Corp", bundle.Customer.DisplayName)
	assert.Equal(t, int64(20000), bundle.Options["A"].TotalCents)
}

func TestInvoiceOptionsEndpoint_UnknownCustomer(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/invoice-options", `{"customerId": "missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCacheClearEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/api/v1/cache/clear", `{}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(t, []HealthCheck{
		{Name: "store", Check: func(context.Context) error { return nil }},
	})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload.Status)
	assert.Equal(t, "ok", payload.Dependencies["store"])
}

func TestHealthzEndpoint_DegradedDependency(t *testing.T) {
	srv := newTestServer(t, []HealthCheck{
		{Name: "store", Check: func(context.Context) error { return assert.AnError }},
	})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
