// internal/resolver/search/postgres_test.go
package search

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
)

func newPGStoreWithMock(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db, logger.NewTestLogger(t)), mock
}

func TestPGStore_Customers(t *testing.T) {
	store, mock := newPGStoreWithMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "display_name", "company_name", "email", "payment_terms",
		"due_amount_cents", "currency", "tax_rate_percent",
	}).AddRow("cust-1", "Acme Corp", "Acme Corporation", "billing@acme.test", "Net 30", int64(0), "USD", 8.5)

	mock.ExpectQuery("FROM customers").
		WithArgs("%acme%", 10).
		WillReturnRows(rows)

	customers, err := store.Customers(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme Corp", customers[0].DisplayName)
	assert.Equal(t, 8.5, customers[0].TaxRatePercent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_Customer_NotFound(t *testing.T) {
	store, mock := newPGStoreWithMock(t)

	mock.ExpectQuery("FROM customers WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Customer(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCustomerNotFound, apperrors.CodeOf(err))
}

func TestPGStore_Tasks_CustomerFilterJoinsProjects(t *testing.T) {
	store, mock := newPGStoreWithMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "title", "status", "priority", "assignee_id", "due_date",
		"estimated_hours", "actual_hours", "project_id", "task_type", "invoiced",
	}).AddRow("task-1", "API integration", "completed", "high", "tm-1", "2026-08-01", 4.0, 5.0, "proj-1", "development", false)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN projects p ON p.id = t.project_id")).
		WithArgs("cust-1", "completed", false, 20).
		WillReturnRows(rows)

	invoiced := false
	tasks, err := store.Tasks(context.Background(), TaskFilter{
		CustomerID: "cust-1",
		Status:     "completed",
		Invoiced:   &invoiced,
	}, 20)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "API integration", tasks[0].Title)
	assert.Equal(t, 5.0, tasks[0].ActualHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_Invoices_YearUsesNumberPrefix(t *testing.T) {
	store, mock := newPGStoreWithMock(t)

	rows := sqlmock.NewRows([]string{
		"id", "invoice_number", "status", "total_amount_cents", "balance_due_cents",
		"due_date", "invoice_date", "days_overdue", "customer_id",
	}).AddRow("inv-1", "INV-2026-0007", "sent", int64(120000), int64(120000), "2026-09-15", "2026-08-15", 0, "cust-1")

	mock.ExpectQuery("FROM invoices").
		WithArgs("INV-2026-%", 100).
		WillReturnRows(rows)

	invoices, err := store.Invoices(context.Background(), InvoiceFilter{Year: 2026}, 100)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-2026-0007", invoices[0].InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_QueryErrorPropagates(t *testing.T) {
	store, mock := newPGStoreWithMock(t)

	mock.ExpectQuery("FROM team_members").
		WillReturnError(assert.AnError)

	_, err := store.TeamMembers(context.Background(), "maria", 5)
	assert.ErrorContains(t, err, "query team members")
}
