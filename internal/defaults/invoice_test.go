// internal/defaults/invoice_test.go
package defaults

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, client search.Client) *Engine {
	t.Helper()
	return New(client, DefaultConfig(), func() time.Time { return testNow }, logger.NewTestLogger(t))
}

func TestNormalizePaymentTerms(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	tests := []struct {
		raw  string
		want string
	}{
		{"Net 30", "net_30"},
		{"NET-45", "net_45"},
		{"net15", "net_15"},
		{"Due on receipt", "due_on_receipt"},
		{"immediate", "due_on_receipt"},
		{"COD", "due_on_receipt"},
		{"whenever", "net_30"},
		{"", "net_30"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, e.NormalizePaymentTerms(tt.raw))
		})
	}
}

func TestComputeInvoiceDefaults(t *testing.T) {
	store := search.NewMemoryStore()
	store.AddInvoices(
		models.Invoice{ID: "inv-1", InvoiceNumber: "INV-2026-0007", CustomerID: "cust-1"},
		models.Invoice{ID: "inv-2", InvoiceNumber: "INV-2026-0012", CustomerID: "cust-2"},
		models.Invoice{ID: "inv-3", InvoiceNumber: "INV-2025-0099", CustomerID: "cust-1"},
		models.Invoice{ID: "inv-4", InvoiceNumber: "LEGACY-17", CustomerID: "cust-1"},
	)
	e := newTestEngine(t, store)

	d := e.ComputeInvoiceDefaults(context.Background(), models.Customer{
		ID: "cust-1", PaymentTerms: "Net 45", Currency: "EUR", TaxRatePercent: 19,
	})

	assert.True(t, d.Provisional)
	assert.Equal(t, "2026-09-01", d.InvoiceDate)
	assert.Equal(t, "2026-10-16", d.DueDate)
	assert.Equal(t, "net_45", d.PaymentTerms)
	assert.Equal(t, "EUR", d.Currency)
	assert.Equal(t, 19.0, d.TaxRatePercent)
	assert.Equal(t, "INV-2026-0013", d.InvoiceNumber, "max sequence of the year plus one")
}

func TestComputeInvoiceDefaults_Fallbacks(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	d := e.ComputeInvoiceDefaults(context.Background(), models.Customer{ID: "cust-1"})

	assert.Equal(t, "USD", d.Currency)
	assert.Equal(t, "net_30", d.PaymentTerms)
	assert.Equal(t, "2026-10-01", d.DueDate)
	assert.Equal(t, "INV-2026-0001", d.InvoiceNumber, "no invoices yet starts the sequence")
}

func TestComputeInvoiceDefaults_DueOnReceipt(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	d := e.ComputeInvoiceDefaults(context.Background(), models.Customer{ID: "cust-1", PaymentTerms: "due on receipt"})
	assert.Equal(t, d.InvoiceDate, d.DueDate)
}

func TestComputeInvoiceDefaults_ScanFailureOmitsNumber(t *testing.T) {
	e := newTestEngine(t, erroringClient{})

	d := e.ComputeInvoiceDefaults(context.Background(), models.Customer{ID: "cust-1"})
	assert.Empty(t, d.InvoiceNumber)
	assert.Equal(t, "2026-09-01", d.InvoiceDate, "the rest of the defaults still compute")
}

func billableStore() *search.MemoryStore {
	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{ID: "cust-1", DisplayName: "Acme Corp", PaymentTerms: "Net 30"})
	store.AddProjects(
		models.Project{ID: "proj-done", Name: "Website", Status: models.ProjectStatusCompleted, HourlyRateCents: 5000, CustomerID: "cust-1"},
		models.Project{ID: "proj-live", Name: "Mobile App", Status: "active", HourlyRateCents: 7000, CustomerID: "cust-1"},
	)
	store.AddTasks(
		models.Task{ID: "t1", Title: "Backend API", Status: models.TaskStatusCompleted, ActualHours: 4, ProjectID: "proj-done", TaskType: "development"},
		models.Task{ID: "t2", Title: "Frontend", Status: models.TaskStatusCompleted, ActualHours: 6, ProjectID: "proj-done", TaskType: "development"},
		models.Task{ID: "t3", Title: "App design", Status: models.TaskStatusCompleted, EstimatedHours: 3, ProjectID: "proj-live", TaskType: "design"},
	)
	return store
}

func TestBuildInvoiceOptionsForCustomer(t *testing.T) {
	e := newTestEngine(t, billableStore())

	bundle, err := e.BuildInvoiceOptionsForCustomer(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", bundle.Customer.DisplayName)

	// A bills only the completed project: 4h + 6h development at $50/h.
	optA := bundle.Options["A"]
	require.Len(t, optA.Items, 1)
	assert.Equal(t, int64(10), optA.Items[0].Quantity)
	assert.Equal(t, int64(5000), optA.Items[0].UnitPriceCents)
	assert.Equal(t, int64(50000), optA.TotalCents)

	// B adds the in-flight project's design work: 3h at $70/h.
	optB := bundle.Options["B"]
	require.Len(t, optB.Items, 2)
	assert.Equal(t, int64(50000+21000), optB.TotalCents)

	// C offers B's item set for manual curation.
	assert.Equal(t, optB.Items, bundle.Options["C"].Items)
	assert.Equal(t, optB.TotalCents, bundle.Options["C"].TotalCents)

	assert.Equal(t, "A", bundle.Recommended, "a completed project with nonzero total wins")
	assert.True(t, bundle.Defaults.Provisional)
	assert.Contains(t, bundle.Summary, "[RECOMMENDED]")
	assert.Contains(t, bundle.Summary, "Website")
}

func TestBuildInvoiceOptions_RecommendsBWithoutCompletedProjects(t *testing.T) {
	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{ID: "cust-1", DisplayName: "Acme Corp"})
	store.AddProjects(models.Project{ID: "proj-live", Name: "Mobile App", Status: "active", HourlyRateCents: 7000, CustomerID: "cust-1"})
	store.AddTasks(models.Task{ID: "t1", Title: "App design", Status: models.TaskStatusCompleted, ActualHours: 3, ProjectID: "proj-live", TaskType: "design"})
	e := newTestEngine(t, store)

	bundle, err := e.BuildInvoiceOptionsForCustomer(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Zero(t, bundle.Options["A"].TotalCents)
	assert.Equal(t, int64(21000), bundle.Options["B"].TotalCents)
	assert.Equal(t, "B", bundle.Recommended)
}

func TestBuildInvoiceOptions_RecommendsCWhenNothingBillable(t *testing.T) {
	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{ID: "cust-1", DisplayName: "Acme Corp"})
	e := newTestEngine(t, store)

	bundle, err := e.BuildInvoiceOptionsForCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "C", bundle.Recommended)
}

func TestBuildInvoiceOptions_MeanRateAcrossProjects(t *testing.T) {
	store := search.NewMemoryStore()
	store.AddCustomers(models.Customer{ID: "cust-1", DisplayName: "Acme Corp"})
	store.AddProjects(
		models.Project{ID: "p1", Name: "One", Status: models.ProjectStatusCompleted, HourlyRateCents: 4000, CustomerID: "cust-1"},
		models.Project{ID: "p2", Name: "Two", Status: models.ProjectStatusCompleted, HourlyRateCents: 6000, CustomerID: "cust-1"},
	)
	store.AddTasks(
		models.Task{ID: "t1", Title: "Work one", Status: models.TaskStatusCompleted, ActualHours: 2, ProjectID: "p1", TaskType: "development"},
		models.Task{ID: "t2", Title: "Work two", Status: models.TaskStatusCompleted, ActualHours: 2, ProjectID: "p2", TaskType: "development"},
	)
	e := newTestEngine(t, store)

	bundle, err := e.BuildInvoiceOptionsForCustomer(context.Background(), "cust-1")
	require.NoError(t, err)

	optB := bundle.Options["B"]
	require.Len(t, optB.Items, 1)
	assert.Equal(t, int64(5000), optB.Items[0].UnitPriceCents, "mean of the distinct project rates")
	assert.Equal(t, int64(4*5000), optB.Items[0].AmountCents)
}

func TestBuildInvoiceOptions_UnknownCustomer(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	_, err := e.BuildInvoiceOptionsForCustomer(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCustomerNotFound, apperrors.CodeOf(err))
}

// erroringClient fails every lookup; it exercises the degrade-to-default
// paths.
type erroringClient struct{}

func (erroringClient) Customer(context.Context, string) (*models.Customer, error) {
	return nil, assert.AnError
}
func (erroringClient) Customers(context.Context, string, int) ([]models.Customer, error) {
	return nil, assert.AnError
}
func (erroringClient) Projects(context.Context, search.ProjectFilter, int) ([]models.Project, error) {
	return nil, assert.AnError
}
func (erroringClient) Tasks(context.Context, search.TaskFilter, int) ([]models.Task, error) {
	return nil, assert.AnError
}
func (erroringClient) Invoices(context.Context, search.InvoiceFilter, int) ([]models.Invoice, error) {
	return nil, assert.AnError
}
func (erroringClient) TeamMembers(context.Context, string, int) ([]models.TeamMember, error) {
	return nil, assert.AnError
}
