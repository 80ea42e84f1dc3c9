// internal/models/entities.go
package models

// Customer is a billable account resolved from the customers collection.
type Customer struct {
	ID             string  `json:"id"`
	DisplayName    string  `json:"displayName"`
	CompanyName    string  `json:"companyName"`
	Email          string  `json:"email"`
	PaymentTerms   string  `json:"paymentTerms"` // raw terms string, e.g. "NET 30"
	DueAmountCents int64   `json:"dueAmountCents"`
	Currency       string  `json:"currency"`
	TaxRatePercent float64 `json:"taxRatePercent"`
}

type Project struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"` // planning, active, completed, on_hold
	Priority        string `json:"priority"`
	BudgetCents     int64  `json:"budgetCents"`
	HourlyRateCents int64  `json:"hourlyRateCents"`
	StartDate       string `json:"startDate"` // YYYY-MM-DD
	CustomerID      string `json:"customerId"`
	OwnerID         string `json:"ownerId"`
}

type Task struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Status         string  `json:"status"` // todo, in_progress, completed
	Priority       string  `json:"priority"`
	AssigneeID     string  `json:"assigneeId"`
	DueDate        string  `json:"dueDate"` // YYYY-MM-DD
	EstimatedHours float64 `json:"estimatedHours"`
	ActualHours    float64 `json:"actualHours"`
	ProjectID      string  `json:"projectId"`
	TaskType       string  `json:"taskType"` // work-type label, e.g. "development"
	Invoiced       bool    `json:"invoiced"`
}

type Invoice struct {
	ID               string `json:"id"`
	InvoiceNumber    string `json:"invoiceNumber"` // INV-<year>-<seq>
	Status           string `json:"status"`        // draft, sent, paid, overdue
	TotalAmountCents int64  `json:"totalAmountCents"`
	BalanceDueCents  int64  `json:"balanceDueCents"`
	DueDate          string `json:"dueDate"`     // YYYY-MM-DD
	InvoiceDate      string `json:"invoiceDate"` // YYYY-MM-DD
	DaysOverdue      int    `json:"daysOverdue"`
	CustomerID       string `json:"customerId"`
}

type TeamMember struct {
	ID                   string  `json:"id"`
	Username             string  `json:"username"`
	FullName             string  `json:"fullName"`
	Role                 string  `json:"role"` // admin, manager, project_manager, developer, ...
	Email                string  `json:"email"`
	CurrentWorkloadHours float64 `json:"currentWorkloadHours"`
}

// BillableHours returns the hours used for invoicing a task: actuals when
// recorded, the estimate otherwise.
func (t Task) BillableHours() float64 {
	if t.ActualHours > 0 {
		return t.ActualHours
	}
	return t.EstimatedHours
}

// ReadyToInvoice reports whether the task is completed and not yet billed.
func (t Task) ReadyToInvoice() bool {
	return t.Status == TaskStatusCompleted && !t.Invoiced
}

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	ProjectStatusCompleted = "completed"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)
