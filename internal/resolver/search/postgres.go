// internal/resolver/search/postgres.go
package search

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/models"
)

// PGStore implements Client against PostgreSQL with ILIKE matching. It is the
// fallback driver for deployments without an Elasticsearch cluster; result
// order is name/date based rather than relevance-ranked.
type PGStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPGStore(db *sql.DB, log logger.Logger) *PGStore {
	return &PGStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
	}
}

func likePattern(term string) string {
	return "%" + term + "%"
}

// Customer fetches one customer row by id.
func (s *PGStore) Customer(ctx context.Context, id string) (*models.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, company_name, email, payment_terms, due_amount_cents, currency, tax_rate_percent
		FROM customers WHERE id = $1`, id)

	var c models.Customer
	if err := row.Scan(&c.ID, &c.DisplayName, &c.CompanyName, &c.Email, &c.PaymentTerms, &c.DueAmountCents, &c.Currency, &c.TaxRatePercent); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewCustomerNotFoundError(id)
		}
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	return &c, nil
}

func (s *PGStore) Customers(ctx context.Context, term string, limit int) ([]models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, company_name, email, payment_terms, due_amount_cents, currency, tax_rate_percent
		FROM customers
		WHERE display_name ILIKE $1 OR company_name ILIKE $1 OR email ILIKE $1
		ORDER BY display_name
		LIMIT $2`, likePattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.DisplayName, &c.CompanyName, &c.Email, &c.PaymentTerms, &c.DueAmountCents, &c.Currency, &c.TaxRatePercent); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) Projects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error) {
	query := `
		SELECT id, name, status, priority, budget_cents, hourly_rate_cents, start_date, customer_id, owner_id
		FROM projects
		WHERE 1=1`
	args := []interface{}{}

	if f.Term != "" {
		args = append(args, likePattern(f.Term))
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.Priority, &p.BudgetCents, &p.HourlyRateCents, &p.StartDate, &p.CustomerID, &p.OwnerID); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGStore) Tasks(ctx context.Context, f TaskFilter, limit int) ([]models.Task, error) {
	query := `
		SELECT t.id, t.title, t.status, t.priority, t.assignee_id, t.due_date, t.estimated_hours, t.actual_hours, t.project_id, t.task_type, t.invoiced
		FROM tasks t`
	args := []interface{}{}

	if f.CustomerID != "" {
		query += ` JOIN projects p ON p.id = t.project_id`
	}
	query += ` WHERE 1=1`

	if f.Term != "" {
		args = append(args, likePattern(f.Term))
		query += fmt.Sprintf(" AND t.title ILIKE $%d", len(args))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" AND t.project_id = $%d", len(args))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND p.customer_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND t.status = $%d", len(args))
	}
	if f.Invoiced != nil {
		args = append(args, *f.Invoiced)
		query += fmt.Sprintf(" AND t.invoiced = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY t.due_date LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Priority, &t.AssigneeID, &t.DueDate, &t.EstimatedHours, &t.ActualHours, &t.ProjectID, &t.TaskType, &t.Invoiced); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) Invoices(ctx context.Context, f InvoiceFilter, limit int) ([]models.Invoice, error) {
	query := `
		SELECT id, invoice_number, status, total_amount_cents, balance_due_cents, due_date, invoice_date, days_overdue, customer_id
		FROM invoices
		WHERE 1=1`
	args := []interface{}{}

	if f.Term != "" {
		args = append(args, likePattern(f.Term))
		query += fmt.Sprintf(" AND invoice_number ILIKE $%d", len(args))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		query += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if f.Year != 0 {
		args = append(args, invoiceNumberPrefix(f.Year)+"%")
		query += fmt.Sprintf(" AND invoice_number LIKE $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY invoice_date DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var out []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.InvoiceNumber, &inv.Status, &inv.TotalAmountCents, &inv.BalanceDueCents, &inv.DueDate, &inv.InvoiceDate, &inv.DaysOverdue, &inv.CustomerID); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *PGStore) TeamMembers(ctx context.Context, term string, limit int) ([]models.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, full_name, role, email, current_workload_hours
		FROM team_members
		WHERE username ILIKE $1 OR full_name ILIKE $1 OR role ILIKE $1
		ORDER BY full_name
		LIMIT $2`, likePattern(term), limit)
	if err != nil {
		return nil, fmt.Errorf("query team members: %w", err)
	}
	defer rows.Close()

	var out []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.Username, &m.FullName, &m.Role, &m.Email, &m.CurrentWorkloadHours); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
