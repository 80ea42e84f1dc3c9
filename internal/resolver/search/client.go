// internal/resolver/search/client.go

// Package search is the thin query layer over the backend collections. All
// implementations are read-only and relevance-ranked by the backing store;
// cross-term de-duplication belongs to the resolver, not here.
package search

import (
	"context"

	"context-resolver/internal/models"
)

// ProjectFilter narrows a project query. Term and CustomerID may be combined.
type ProjectFilter struct {
	Term       string
	CustomerID string
}

// TaskFilter narrows a task query.
type TaskFilter struct {
	Term       string
	ProjectID  string
	CustomerID string
	Status     string
	Invoiced   *bool
}

// InvoiceFilter narrows an invoice query. Year restricts to invoice numbers
// issued that year and sorts newest first, for the numbering scan.
type InvoiceFilter struct {
	Term       string
	CustomerID string
	ProjectID  string
	Year       int
}

// Client is the generic query interface over the external collections.
type Client interface {
	Customer(ctx context.Context, id string) (*models.Customer, error)
	Customers(ctx context.Context, term string, limit int) ([]models.Customer, error)
	Projects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error)
	Tasks(ctx context.Context, f TaskFilter, limit int) ([]models.Task, error)
	Invoices(ctx context.Context, f InvoiceFilter, limit int) ([]models.Invoice, error)
	TeamMembers(ctx context.Context, term string, limit int) ([]models.TeamMember, error)
}

// BoolPtr is a convenience for TaskFilter.Invoiced.
func BoolPtr(b bool) *bool { return &b }
