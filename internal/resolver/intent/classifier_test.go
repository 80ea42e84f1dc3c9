// internal/resolver/intent/classifier_test.go
package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"context-resolver/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Intent
	}{
		{"create invoice", "create invoice for Acme", models.IntentCreateInvoice},
		{"generate invoice", "please generate the monthly invoice", models.IntentCreateInvoice},
		{"bill customer", "bill the customer for last month", models.IntentCreateInvoice},
		{"show overdue", "show my overdue tasks", models.IntentShowOverdue},
		{"past due", "which invoices are past due?", models.IntentShowOverdue},
		{"assign", "assign the code review to @maria", models.IntentAssignTask},
		{"hand task", "hand this task over to Bob", models.IntentAssignTask},
		{"update status", "update the status of the migration project", models.IntentUpdateStatus},
		{"mark done", "mark the landing page as done", models.IntentUpdateStatus},
		{"new project", "start a new project for Globex", models.IntentCreateProject},
		{"kick off", "let's kick off the redesign", models.IntentCreateProject},
		{"new task", "add a task to review the contract", models.IntentCreateTask},
		{"remind me", "remind me to call the accountant", models.IntentCreateTask},
		{"small talk", "how are you today?", models.IntentGeneral},
		{"empty", "", models.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

// Overdue phrasing mentions tasks too; the more specific intent must win over
// the task patterns.
func TestClassify_OverdueBeatsTaskPatterns(t *testing.T) {
	assert.Equal(t, models.IntentShowOverdue, Classify("show overdue tasks for this project"))
}

func TestClassify_InvoiceBeatsCreateTask(t *testing.T) {
	// "create" appears, but the invoice wording decides.
	assert.Equal(t, models.IntentCreateInvoice, Classify("create an invoice for the design task"))
}
