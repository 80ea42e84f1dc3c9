// internal/resolver/intent/classifier.go

// Package intent classifies an utterance into one of the closed intent set.
// The table is an explicit ordered list: more specific intents come first and
// the first pattern hit wins, so fallback behavior is declaration order, not
// map iteration order.
package intent

import (
	"regexp"

	"context-resolver/internal/models"
)

type intentPatterns struct {
	intent   models.Intent
	patterns []*regexp.Regexp
}

var classificationTable = []intentPatterns{
	{
		intent: models.IntentCreateInvoice,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:create|generate|make|draft|send|prepare)\b.*\binvoice\b`),
			regexp.MustCompile(`(?i)\binvoice\b.*\b(?:for|to)\b`),
			regexp.MustCompile(`(?i)\bbill\b\s+(?:the\s+)?(?:customer|client|[A-Z])`),
		},
	},
	{
		intent: models.IntentShowOverdue,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\boverdue\b`),
			regexp.MustCompile(`(?i)\bpast\s+due\b`),
			regexp.MustCompile(`(?i)\b(?:late|unpaid)\b.*\b(?:tasks?|invoices?)\b`),
		},
	},
	{
		intent: models.IntentAssignTask,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bassign\b`),
			regexp.MustCompile(`(?i)\b(?:give|hand)\b.*\btask\b.*\bto\b`),
		},
	},
	{
		intent: models.IntentUpdateStatus,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:update|change|set)\b.*\bstatus\b`),
			regexp.MustCompile(`(?i)\bmark\b.*\bas\b\s+(?:done|completed?|in.progress|on.hold|todo)`),
			regexp.MustCompile(`(?i)\b(?:close|complete|finish)\b.*\b(?:task|project)\b`),
		},
	},
	{
		intent: models.IntentCreateProject,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:create|start|add|new)\b.*\bproject\b`),
			regexp.MustCompile(`(?i)\bkick\s*off\b`),
		},
	},
	{
		intent: models.IntentCreateTask,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:create|add|new)\b.*\b(?:task|todo)\b`),
			regexp.MustCompile(`(?i)\bremind\s+me\s+to\b`),
		},
	},
}

// Classify returns the first intent in table order with any matching pattern,
// falling back to GENERAL. Never returns an empty intent.
func Classify(text string) models.Intent {
	for _, ip := range classificationTable {
		for _, re := range ip.patterns {
			if re.MatchString(text) {
				return ip.intent
			}
		}
	}
	return models.IntentGeneral
}
