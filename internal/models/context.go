// internal/models/context.go
package models

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentCreateInvoice Intent = "CREATE_INVOICE"
	IntentUpdateStatus  Intent = "UPDATE_STATUS"
	IntentAssignTask    Intent = "ASSIGN_TASK"
	IntentShowOverdue   Intent = "SHOW_OVERDUE"
	IntentCreateProject Intent = "CREATE_PROJECT"
	IntentCreateTask    Intent = "CREATE_TASK"
	IntentGeneral       Intent = "GENERAL"
)

// EntityClass names one of the searchable collections.
type EntityClass string

const (
	ClassCustomer EntityClass = "customer"
	ClassProject  EntityClass = "project"
	ClassTask     EntityClass = "task"
	ClassInvoice  EntityClass = "invoice"
	ClassTeam     EntityClass = "team"

	// ClassAll is the explicit "no filter" value; it behaves exactly like
	// leaving the filter empty.
	ClassAll EntityClass = "all"
)

// AllEntityClasses is the default search order when nothing narrows it down.
var AllEntityClasses = []EntityClass{ClassCustomer, ClassProject, ClassTask, ClassInvoice, ClassTeam}

// ExtractedEntities maps an entity class to its raw candidate substrings, in
// order of appearance in the text. Duplicates are allowed here; the resolver
// de-duplicates after search.
type ExtractedEntities map[EntityClass][]string

// Total counts candidates across all classes.
func (e ExtractedEntities) Total() int {
	n := 0
	for _, terms := range e {
		n += len(terms)
	}
	return n
}

// ContextQuery is one immutable resolution request.
type ContextQuery struct {
	Text             string      `json:"text"`
	EntityTypeFilter EntityClass `json:"entityTypeFilter,omitempty"` // empty means all
	Limit            int         `json:"limit"`
}

// ResolvedContext is the accumulated search result for a query. Every entity
// slice is de-duplicated by id; Confidence stays within [0,1].
type ResolvedContext struct {
	Customers   []Customer   `json:"customers"`
	Projects    []Project    `json:"projects"`
	Tasks       []Task       `json:"tasks"`
	Invoices    []Invoice    `json:"invoices"`
	TeamMembers []TeamMember `json:"teamMembers"`
	Confidence  float64      `json:"confidence"`
	Suggestions []string     `json:"suggestions"`
}

// TotalResults counts resolved entities across all classes.
func (c *ResolvedContext) TotalResults() int {
	return len(c.Customers) + len(c.Projects) + len(c.Tasks) + len(c.Invoices) + len(c.TeamMembers)
}

// EmptyContext returns the degraded context used when resolution fails as a
// whole: zero confidence and a single generic suggestion.
func EmptyContext() *ResolvedContext {
	return &ResolvedContext{
		Customers:   []Customer{},
		Projects:    []Project{},
		Tasks:       []Task{},
		Invoices:    []Invoice{},
		TeamMembers: []TeamMember{},
		Confidence:  0,
		Suggestions: []string{"unable to resolve context, please be more specific"},
	}
}

// ResolvedCommand is the engine's output for one utterance. The caller owns
// it after return; the engine keeps no reference.
type ResolvedCommand struct {
	RequestID            string                 `json:"requestId"`
	OriginalText         string                 `json:"originalText"`
	Intent               Intent                 `json:"intent"`
	Entities             ExtractedEntities      `json:"entities"`
	Context              *ResolvedContext       `json:"context"`
	SuggestedParameters  map[string]interface{} `json:"suggestedParameters,omitempty"`
	PendingChoice        *PendingChoice         `json:"pendingChoice,omitempty"`
	RequiresConfirmation bool                   `json:"requiresConfirmation"`
}

// PendingChoice is a disambiguation prompt the caller must put to the user
// before acting. Presentation is the numbered plain-text rendering; Choices
// carries the stable keys the user's next reply is matched against.
type PendingChoice struct {
	Kind         string                 `json:"kind"` // customer_disambiguation, no_billable_work, credit_risk_alert
	Presentation string                 `json:"presentation"`
	Choices      []Choice               `json:"choices"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

type Choice struct {
	Key   string `json:"key"` // single character: "1".."9" or "A".."D"
	Label string `json:"label"`
}

// InvoiceDefaults are the computed preview values for a new invoice.
// InvoiceNumber is provisional: it is derived from a non-atomic max-sequence
// scan and must be re-allocated at commit time.
type InvoiceDefaults struct {
	InvoiceNumber  string  `json:"invoiceNumber,omitempty"`
	Provisional    bool    `json:"provisional"`
	InvoiceDate    string  `json:"invoiceDate"` // YYYY-MM-DD
	DueDate        string  `json:"dueDate"`     // invoiceDate + N days from paymentTerms
	Currency       string  `json:"currency"`
	PaymentTerms   string  `json:"paymentTerms"` // canonical: net_<N> or due_on_receipt
	TaxRatePercent float64 `json:"taxRatePercent"`
}

// InvoiceLineItem is one line of a proposed invoice, grouped by work type.
type InvoiceLineItem struct {
	Description    string   `json:"description"`
	Quantity       int64    `json:"quantity"` // rounded hours
	UnitPriceCents int64    `json:"unitPriceCents"`
	AmountCents    int64    `json:"amountCents"`
	Hours          float64  `json:"hours"`
	TaskIDs        []string `json:"taskIds"`
}

// InvoiceOption is one of the three alternative billing scopes.
type InvoiceOption struct {
	Key         string            `json:"key"` // A, B or C
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Items       []InvoiceLineItem `json:"items"`
	TotalCents  int64             `json:"totalCents"`
}

// InvoiceOptionsBundle is the A/B/C offer for a customer. Recommended is
// always a key present in Options.
type InvoiceOptionsBundle struct {
	Customer    Customer                 `json:"customer"`
	Options     map[string]InvoiceOption `json:"options"`
	Recommended string                   `json:"recommended"`
	Defaults    InvoiceDefaults          `json:"defaults"`
	Summary     string                   `json:"summary"`
}
