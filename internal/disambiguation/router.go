// internal/disambiguation/router.go

// Package disambiguation turns risky or ambiguous invoice resolutions into
// structured choice prompts instead of letting the engine act on them.
package disambiguation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"context-resolver/internal/common/logger"
	"context-resolver/internal/common/metrics"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

// Branch kinds reported in PendingChoice.Kind and the metrics label.
const (
	BranchCustomerDisambiguation = "customer_disambiguation"
	BranchNoBillableWork         = "no_billable_work"
	BranchCreditRiskAlert        = "credit_risk_alert"
)

// Router evaluates the mutually exclusive disambiguation branches for
// CREATE_INVOICE resolutions. Branches are checked in priority order and the
// first match short-circuits the rest; at most one fires per resolution.
type Router struct {
	client      search.Client
	overdueDays int
	logger      logger.Logger
}

func NewRouter(client search.Client, overdueDays int, log logger.Logger) *Router {
	return &Router{
		client:      client,
		overdueDays: overdueDays,
		logger:      log.WithFields(map[string]interface{}{"component": "disambiguation"}),
	}
}

// Route returns the pending choice for the resolution, or nil when no branch
// fires and the caller may proceed to defaults computation.
func (r *Router) Route(ctx context.Context, rc *models.ResolvedContext) *models.PendingChoice {
	if len(rc.Customers) == 0 {
		return nil
	}

	if len(rc.Customers) > 1 {
		return r.fire(r.multipleCustomers(ctx, rc.Customers))
	}

	customer := rc.Customers[0]

	if unbilled, ok := r.unbilledAmount(ctx, customer.ID); ok && unbilled == 0 {
		return r.fire(r.noBillableWork(customer))
	}

	if overdue := r.overdueInvoices(ctx, customer.ID); len(overdue) > 0 {
		return r.fire(r.creditRiskAlert(customer, overdue))
	}

	return nil
}

func (r *Router) fire(choice *models.PendingChoice) *models.PendingChoice {
	metrics.DisambiguationBranches.WithLabelValues(choice.Kind).Inc()
	r.logger.Info("disambiguation branch fired", map[string]interface{}{"branch": choice.Kind})
	return choice
}

// multipleCustomers renders the numbered candidate list: id, display name,
// last invoice summary and unbilled amount per candidate.
func (r *Router) multipleCustomers(ctx context.Context, customers []models.Customer) *models.PendingChoice {
	var b strings.Builder
	b.WriteString("Multiple customers match. Reply with a number to choose:\n")

	choices := make([]models.Choice, 0, len(customers))
	candidates := make([]map[string]interface{}, 0, len(customers))
	for i, c := range customers {
		key := fmt.Sprintf("%d", i+1)
		choices = append(choices, models.Choice{Key: key, Label: c.DisplayName})

		lastInvoice := r.lastInvoiceSummary(ctx, c.ID)
		unbilledText := "unbilled work unknown"
		var unbilledCents int64
		if amount, ok := r.unbilledAmount(ctx, c.ID); ok {
			unbilledCents = amount
			unbilledText = fmt.Sprintf("%s unbilled", formatCents(amount))
		}

		fmt.Fprintf(&b, "  %s. %s (%s) | %s | %s\n", key, c.DisplayName, c.ID, lastInvoice, unbilledText)
		candidates = append(candidates, map[string]interface{}{
			"customerId":    c.ID,
			"displayName":   c.DisplayName,
			"unbilledCents": unbilledCents,
		})
	}

	return &models.PendingChoice{
		Kind:         BranchCustomerDisambiguation,
		Presentation: b.String(),
		Choices:      choices,
		Payload:      map[string]interface{}{"candidates": candidates},
	}
}

func (r *Router) noBillableWork(customer models.Customer) *models.PendingChoice {
	presentation := fmt.Sprintf(
		"%s has no completed, uninvoiced work. What would you like to do?\n"+
			"  1. Create a manual invoice\n"+
			"  2. Mark tasks as billable\n"+
			"  3. View invoice history\n"+
			"  4. Wait until work is completed\n",
		customer.DisplayName)

	return &models.PendingChoice{
		Kind:         BranchNoBillableWork,
		Presentation: presentation,
		Choices: []models.Choice{
			{Key: "1", Label: "Create a manual invoice"},
			{Key: "2", Label: "Mark tasks as billable"},
			{Key: "3", Label: "View invoice history"},
			{Key: "4", Label: "Wait until work is completed"},
		},
		Payload: map[string]interface{}{"customerId": customer.ID},
	}
}

func (r *Router) creditRiskAlert(customer models.Customer, overdue []models.Invoice) *models.PendingChoice {
	var outstanding int64
	var b strings.Builder
	fmt.Fprintf(&b, "Warning: %s has overdue invoices:\n", customer.DisplayName)
	for _, inv := range overdue {
		outstanding += inv.BalanceDueCents
		fmt.Fprintf(&b, "  %s: %s outstanding, %d days overdue\n",
			inv.InvoiceNumber, formatCents(inv.BalanceDueCents), inv.DaysOverdue)
	}
	fmt.Fprintf(&b, "Total outstanding: %s. Proceed anyway?\n", formatCents(outstanding))
	b.WriteString(
		"  1. Proceed with the new invoice\n" +
			"  2. Send a payment reminder first\n" +
			"  3. View invoice history\n" +
			"  4. Cancel\n")

	invoiceNumbers := make([]string, 0, len(overdue))
	for _, inv := range overdue {
		invoiceNumbers = append(invoiceNumbers, inv.InvoiceNumber)
	}

	return &models.PendingChoice{
		Kind:         BranchCreditRiskAlert,
		Presentation: b.String(),
		Choices: []models.Choice{
			{Key: "1", Label: "Proceed with the new invoice"},
			{Key: "2", Label: "Send a payment reminder first"},
			{Key: "3", Label: "View invoice history"},
			{Key: "4", Label: "Cancel"},
		},
		Payload: map[string]interface{}{
			"customerId":       customer.ID,
			"overdueInvoices":  invoiceNumbers,
			"outstandingCents": outstanding,
			"overdueThreshold": r.overdueDays,
		},
	}
}

// unbilledAmount sums round(hours) * rate over the customer's completed,
// uninvoiced tasks. A failed lookup returns ok=false so the no-billable-work
// branch never fires on unknown data.
func (r *Router) unbilledAmount(ctx context.Context, customerID string) (int64, bool) {
	projects, err := r.client.Projects(ctx, search.ProjectFilter{CustomerID: customerID}, 50)
	if err != nil {
		r.logger.Warn("project lookup failed, skipping unbilled computation", map[string]interface{}{
			"customerId": customerID, "error": err.Error(),
		})
		return 0, false
	}
	rateByProject := make(map[string]int64, len(projects))
	for _, p := range projects {
		rateByProject[p.ID] = p.HourlyRateCents
	}

	tasks, err := r.client.Tasks(ctx, search.TaskFilter{
		CustomerID: customerID,
		Status:     models.TaskStatusCompleted,
		Invoiced:   search.BoolPtr(false),
	}, 200)
	if err != nil {
		r.logger.Warn("task lookup failed, skipping unbilled computation", map[string]interface{}{
			"customerId": customerID, "error": err.Error(),
		})
		return 0, false
	}

	var total int64
	for _, t := range tasks {
		total += int64(math.Round(t.BillableHours())) * rateByProject[t.ProjectID]
	}
	return total, true
}

// lastInvoiceSummary renders the customer's most recent invoice, if any.
func (r *Router) lastInvoiceSummary(ctx context.Context, customerID string) string {
	invoices, err := r.client.Invoices(ctx, search.InvoiceFilter{CustomerID: customerID}, 1)
	if err != nil {
		r.logger.Warn("invoice lookup failed for candidate summary", map[string]interface{}{
			"customerId": customerID, "error": err.Error(),
		})
		return "last invoice unknown"
	}
	if len(invoices) == 0 {
		return "no invoices yet"
	}
	inv := invoices[0]
	return fmt.Sprintf("last invoice %s (%s, %s)", inv.InvoiceNumber, inv.Status, formatCents(inv.TotalAmountCents))
}

// overdueInvoices lists invoices at or past the overdue threshold. Lookup
// failures degrade to an empty list; the alert never fires on unknown data.
func (r *Router) overdueInvoices(ctx context.Context, customerID string) []models.Invoice {
	invoices, err := r.client.Invoices(ctx, search.InvoiceFilter{CustomerID: customerID}, 50)
	if err != nil {
		r.logger.Warn("invoice lookup failed, skipping credit risk check", map[string]interface{}{
			"customerId": customerID, "error": err.Error(),
		})
		return nil
	}

	var overdue []models.Invoice
	for _, inv := range invoices {
		if inv.DaysOverdue >= r.overdueDays && inv.BalanceDueCents > 0 {
			overdue = append(overdue, inv)
		}
	}
	return overdue
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
