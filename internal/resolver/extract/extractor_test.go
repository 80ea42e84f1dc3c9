// internal/resolver/extract/extractor_test.go
package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"context-resolver/internal/models"
)

func TestExtract_CustomerFromInvoicePhrase(t *testing.T) {
	entities := Extract("Create invoice for Acme Corp")

	assert.Contains(t, entities[models.ClassCustomer], "Acme Corp")
}

func TestExtract_CustomerNamedForms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"customer keyword", "look up customer Globex", "Globex"},
		{"client called", "the client called Initech Ltd owes us", "Initech Ltd"},
		{"bill to", "bill to Stark Industries today", "Stark Industries"},
		{"corporate suffix", "the report is for Wayne Inc", "Wayne Inc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Extract(tt.text)
			assert.Contains(t, entities[models.ClassCustomer], tt.want)
		})
	}
}

func TestExtract_ProjectAndTask(t *testing.T) {
	entities := Extract(`add the "fix login flow" task on the Website Redesign project`)

	assert.Contains(t, entities[models.ClassProject], "Website Redesign")
	assert.Contains(t, entities[models.ClassTask], "fix login flow")
}

func TestExtract_InvoiceNumber(t *testing.T) {
	entities := Extract("what happened to INV-2026-0042?")

	assert.Equal(t, []string{"INV-2026-0042"}, entities[models.ClassInvoice])
}

func TestExtract_TeamMention(t *testing.T) {
	entities := Extract("assign the review task to @maria.lopez")

	assert.Contains(t, entities[models.ClassTeam], "maria.lopez")
}

func TestExtract_CandidateLengthBounds(t *testing.T) {
	// Single-character capture is below the minimum length.
	entities := Extract("send invoice to A")
	assert.Empty(t, entities[models.ClassCustomer])
}

func TestExtract_EmptyListsNeverNil(t *testing.T) {
	entities := Extract("hello there")

	for _, class := range models.AllEntityClasses {
		assert.NotNil(t, entities[class], "class %s must have a non-nil list", class)
	}
	assert.Equal(t, 0, entities.Total())
}

func TestExtract_Deterministic(t *testing.T) {
	text := "Create invoice for Acme Corp and assign it to @bob"
	first := Extract(text)
	second := Extract(text)

	assert.Equal(t, first, second)
}
