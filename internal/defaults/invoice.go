// internal/defaults/invoice.go
package defaults

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

var (
	netTermsPattern      = regexp.MustCompile(`(?i)net\s*[-_ ]?\s*(\d+)`)
	invoiceNumberPattern = regexp.MustCompile(`^INV-(\d{4})-(\d+)$`)
)

// NormalizePaymentTerms maps a customer's raw terms string to the canonical
// token: net_<N> or due_on_receipt. Unrecognized input falls back to the
// configured net days.
func (e *Engine) NormalizePaymentTerms(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(lowered, "receipt") || strings.Contains(lowered, "immediate") || lowered == "cod" {
		return "due_on_receipt"
	}
	if m := netTermsPattern.FindStringSubmatch(lowered); m != nil {
		return "net_" + m[1]
	}
	return fmt.Sprintf("net_%d", e.cfg.DefaultNetDays)
}

// netDays parses the day count back out of a canonical terms token.
func (e *Engine) netDays(canonical string) int {
	if canonical == "due_on_receipt" {
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(canonical, "net_")); err == nil {
		return n
	}
	return e.cfg.DefaultNetDays
}

// ComputeInvoiceDefaults derives the preview values for a new invoice. The
// invoice number comes from a bounded max-sequence scan and is provisional:
// two concurrent resolutions can compute the same number, so commit-time
// allocation stays authoritative.
func (e *Engine) ComputeInvoiceDefaults(ctx context.Context, customer models.Customer) models.InvoiceDefaults {
	invoiceDate := e.now()
	terms := e.NormalizePaymentTerms(customer.PaymentTerms)
	dueDate := invoiceDate.AddDate(0, 0, e.netDays(terms))

	currency := customer.Currency
	if currency == "" {
		currency = e.cfg.DefaultCurrency
	}

	d := models.InvoiceDefaults{
		Provisional:    true,
		InvoiceDate:    invoiceDate.Format(dateLayout),
		DueDate:        dueDate.Format(dateLayout),
		Currency:       currency,
		PaymentTerms:   terms,
		TaxRatePercent: customer.TaxRatePercent,
	}

	if number, ok := e.nextInvoiceNumber(ctx, invoiceDate.Year()); ok {
		d.InvoiceNumber = number
	}
	return d
}

// nextInvoiceNumber scans the most recent invoices of the year and returns
// max sequence + 1. The scan is capped at the configured page size, so very
// large tenants can under-count; that is why the number is provisional.
func (e *Engine) nextInvoiceNumber(ctx context.Context, year int) (string, bool) {
	invoices, err := e.client.Invoices(ctx, search.InvoiceFilter{Year: year}, e.cfg.InvoiceScanLimit)
	if err != nil {
		e.logger.Warn("invoice number scan failed, omitting number", map[string]interface{}{"error": err.Error()})
		return "", false
	}

	maxSeq := 0
	for _, inv := range invoices {
		m := invoiceNumberPattern.FindStringSubmatch(inv.InvoiceNumber)
		if m == nil {
			continue
		}
		if y, _ := strconv.Atoi(m[1]); y != year {
			continue
		}
		if seq, err := strconv.Atoi(m[2]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("INV-%d-%04d", year, maxSeq+1), true
}

// BuildInvoiceOptionsForCustomer assembles the three alternative billing
// scopes for a customer:
//
//	A: completed, uninvoiced tasks on fully completed projects
//	B: all completed, uninvoiced tasks
//	C: B's item set, offered for manual curation
func (e *Engine) BuildInvoiceOptionsForCustomer(ctx context.Context, customerID string) (*models.InvoiceOptionsBundle, error) {
	customer, err := e.client.Customer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	projects, err := e.client.Projects(ctx, search.ProjectFilter{CustomerID: customerID}, 50)
	if err != nil {
		e.logger.Warn("project lookup failed, building empty options", map[string]interface{}{
			"customerId": customerID, "error": err.Error(),
		})
		projects = nil
	}

	projectByID := make(map[string]models.Project, len(projects))
	var billable []models.Task
	for _, p := range projects {
		projectByID[p.ID] = p
		tasks, err := e.client.Tasks(ctx, search.TaskFilter{
			ProjectID: p.ID,
			Status:    models.TaskStatusCompleted,
			Invoiced:  search.BoolPtr(false),
		}, 100)
		if err != nil {
			e.logger.Warn("task lookup failed for project", map[string]interface{}{
				"projectId": p.ID, "error": err.Error(),
			})
			continue
		}
		billable = append(billable, tasks...)
	}

	var completedProjectTasks []models.Task
	for _, t := range billable {
		if p, ok := projectByID[t.ProjectID]; ok && p.Status == models.ProjectStatusCompleted {
			completedProjectTasks = append(completedProjectTasks, t)
		}
	}

	itemsA := e.buildLineItems(completedProjectTasks, projectByID)
	itemsB := e.buildLineItems(billable, projectByID)

	options := map[string]models.InvoiceOption{
		"A": {
			Key:         "A",
			Title:       "Completed projects only",
			Description: "Bill finished work on projects that are fully wrapped up",
			Items:       itemsA,
			TotalCents:  totalOf(itemsA),
		},
		"B": {
			Key:         "B",
			Title:       "All completed work",
			Description: "Bill every completed task, including work on projects still in flight",
			Items:       itemsB,
			TotalCents:  totalOf(itemsB),
		},
		"C": {
			Key:         "C",
			Title:       "Custom selection",
			Description: "Start from all completed work and pick the lines yourself",
			Items:       itemsB,
			TotalCents:  totalOf(itemsB),
		},
	}

	anyProjectCompleted := false
	for _, p := range projects {
		if p.Status == models.ProjectStatusCompleted {
			anyProjectCompleted = true
			break
		}
	}

	recommended := "C"
	if anyProjectCompleted && options["A"].TotalCents > 0 {
		recommended = "A"
	} else if options["B"].TotalCents > 0 {
		recommended = "B"
	}

	bundle := &models.InvoiceOptionsBundle{
		Customer:    *customer,
		Options:     options,
		Recommended: recommended,
		Defaults:    e.ComputeInvoiceDefaults(ctx, *customer),
	}
	bundle.Summary = e.renderSummary(bundle, projects, billable)
	return bundle, nil
}

// buildLineItems groups tasks by work-type label. Quantity is the rounded
// hour sum; the unit price is the project rate when the group spans one
// project, otherwise the mean rate of the distinct projects in the group.
func (e *Engine) buildLineItems(tasks []models.Task, projectByID map[string]models.Project) []models.InvoiceLineItem {
	type group struct {
		hours    float64
		projects map[string]bool
		taskIDs  []string
	}

	groups := map[string]*group{}
	var order []string
	for _, t := range tasks {
		label := t.TaskType
		if label == "" {
			label = "general"
		}
		g, ok := groups[label]
		if !ok {
			g = &group{projects: map[string]bool{}}
			groups[label] = g
			order = append(order, label)
		}
		g.hours += t.BillableHours()
		g.projects[t.ProjectID] = true
		g.taskIDs = append(g.taskIDs, t.ID)
	}

	items := []models.InvoiceLineItem{}
	for _, label := range order {
		g := groups[label]

		var rateCents int64
		if len(g.projects) == 1 {
			for id := range g.projects {
				rateCents = projectByID[id].HourlyRateCents
			}
		} else {
			var sum int64
			var ids []string
			for id := range g.projects {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				sum += projectByID[id].HourlyRateCents
			}
			rateCents = sum / int64(len(ids))
		}

		quantity := int64(math.Round(g.hours))
		items = append(items, models.InvoiceLineItem{
			Description:    fmt.Sprintf("%s (%d tasks, %.1fh)", titleCase(label), len(g.taskIDs), g.hours),
			Quantity:       quantity,
			UnitPriceCents: rateCents,
			AmountCents:    quantity * rateCents,
			Hours:          g.hours,
			TaskIDs:        g.taskIDs,
		})
	}
	return items
}

func totalOf(items []models.InvoiceLineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.AmountCents
	}
	return total
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// renderSummary is the human-readable rendering of the bundle: completed
// projects with their ready-to-invoice amounts, then the three options.
func (e *Engine) renderSummary(bundle *models.InvoiceOptionsBundle, projects []models.Project, billable []models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice options for %s\n", bundle.Customer.DisplayName)

	for _, p := range projects {
		if p.Status != models.ProjectStatusCompleted {
			continue
		}
		var amount int64
		for _, t := range billable {
			if t.ProjectID == p.ID {
				amount += int64(math.Round(t.BillableHours())) * p.HourlyRateCents
			}
		}
		fmt.Fprintf(&b, "  Completed project %q: %s ready to invoice\n", p.Name, formatCents(amount))
	}

	for _, key := range []string{"A", "B", "C"} {
		opt := bundle.Options[key]
		tag := ""
		if key == bundle.Recommended {
			tag = " [RECOMMENDED]"
		}
		fmt.Fprintf(&b, "  %s. %s: %s%s\n", key, opt.Title, formatCents(opt.TotalCents), tag)
	}
	return b.String()
}
