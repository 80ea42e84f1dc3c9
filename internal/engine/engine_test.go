// internal/engine/engine_test.go
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/defaults"
	"context-resolver/internal/disambiguation"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver"
	"context-resolver/internal/resolver/search"
)

func newTestEngine(t *testing.T, client search.Client) *Engine {
	t.Helper()
	log := logger.NewTestLogger(t)

	res := resolver.New(client, resolver.NewMemoryCache(5*time.Minute, nil), resolver.DefaultOptions(), log)
	def := defaults.New(client, defaults.DefaultConfig(), nil, log)
	router := disambiguation.NewRouter(client, 30, log)
	return New(res, def, router, nil, 0.5, 10, log)
}

// The golden path: one customer, one completed uninvoiced 5h task at $40/h.
func invoiceScenarioStore() *search.MemoryStore {
	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{
		ID: "cust-1", DisplayName: "Acme Corp", PaymentTerms: "Net 30", Currency: "USD",
	})
	store.AddProjects(models.Project{
		ID: "proj-1", Name: "Acme Platform", Status: models.ProjectStatusCompleted,
		HourlyRateCents: 4000, CustomerID: "cust-1",
	})
	store.AddTasks(models.Task{
		ID: "task-1", Title: "Platform work", Status: models.TaskStatusCompleted,
		ActualHours: 5, ProjectID: "proj-1", TaskType: "development",
	})
	return store
}

func TestResolve_CreateInvoiceEndToEnd(t *testing.T) {
	eng := newTestEngine(t, invoiceScenarioStore())

	cmd, err := eng.Resolve(context.Background(), Request{Text: "Create invoice for Acme Corp"})
	require.NoError(t, err)

	assert.NotEmpty(t, cmd.RequestID)
	assert.Equal(t, models.IntentCreateInvoice, cmd.Intent)
	assert.GreaterOrEqual(t, cmd.Context.Confidence, 0.8)
	assert.False(t, cmd.RequiresConfirmation)
	assert.Nil(t, cmd.PendingChoice, "no disambiguation branch fires on the clean path")

	require.Contains(t, cmd.SuggestedParameters, "invoiceOptions")
	bundle := cmd.SuggestedParameters["invoiceOptions"].(*models.InvoiceOptionsBundle)
	assert.Equal(t, int64(20000), bundle.Options["A"].TotalCents)
	assert.Contains(t, []string{"A", "B"}, bundle.Recommended)
	assert.True(t, bundle.Defaults.Provisional)
}

func TestResolve_MultipleCustomersYieldPendingChoice(t *testing.T) {
	store := invoiceScenarioStore()
	store.AddCustomers(models.Customer{ID: "cust-2", DisplayName: "Acme West"})
	eng := newTestEngine(t, store)

	cmd, err := eng.Resolve(context.Background(), Request{Text: "Create invoice for Acme"})
	require.NoError(t, err)

	require.NotNil(t, cmd.PendingChoice)
	assert.Equal(t, disambiguation.BranchCustomerDisambiguation, cmd.PendingChoice.Kind)
	assert.True(t, cmd.RequiresConfirmation)
	assert.NotContains(t, cmd.SuggestedParameters, "invoiceOptions")
}

func TestResolve_CreateProjectAttachesDefaults(t *testing.T) {
	eng := newTestEngine(t, search.NewMemoryStore())

	cmd, err := eng.Resolve(context.Background(), Request{
		Text:        "start a new project for the urgent checkout fix",
		CurrentUser: &models.TeamMember{ID: "tm-1", Role: "admin"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.IntentCreateProject, cmd.Intent)
	require.Contains(t, cmd.SuggestedParameters, "defaults")
	d := cmd.SuggestedParameters["defaults"].(defaults.ProjectDefaults)
	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, "tm-1", d.OwnerID)
}

func TestResolve_CreateTaskAttachesDefaults(t *testing.T) {
	eng := newTestEngine(t, search.NewMemoryStore())

	cmd, err := eng.Resolve(context.Background(), Request{Text: "add a task to review the contract"})
	require.NoError(t, err)

	assert.Equal(t, models.IntentCreateTask, cmd.Intent)
	require.Contains(t, cmd.SuggestedParameters, "defaults")
	d := cmd.SuggestedParameters["defaults"].(defaults.TaskDefaults)
	assert.Greater(t, d.EstimatedHours, 0.0)
	assert.NotEmpty(t, d.DueDate)
}

func TestResolve_GeneralIntentNoParameters(t *testing.T) {
	eng := newTestEngine(t, search.NewMemoryStore())

	cmd, err := eng.Resolve(context.Background(), Request{Text: "hello there"})
	require.NoError(t, err)

	assert.Equal(t, models.IntentGeneral, cmd.Intent)
	assert.Nil(t, cmd.SuggestedParameters)
	assert.Nil(t, cmd.PendingChoice)
}

func TestResolve_BlankTextRejected(t *testing.T) {
	eng := newTestEngine(t, search.NewMemoryStore())

	_, err := eng.Resolve(context.Background(), Request{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidQuery, apperrors.CodeOf(err))
}

func TestResolve_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := newTestEngine(t, invoiceScenarioStore())
	_, err := eng.Resolve(ctx, Request{Text: "Create invoice for Acme Corp"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildInvoiceOptionsPassthrough(t *testing.T) {
	eng := newTestEngine(t, invoiceScenarioStore())

	bundle, err := eng.BuildInvoiceOptions(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", bundle.Customer.DisplayName)
}

func TestClearCachePassthrough(t *testing.T) {
	eng := newTestEngine(t, invoiceScenarioStore())
	assert.NoError(t, eng.ClearCache(context.Background()))
}
