// internal/resolver/extract/extractor.go

// Package extract pulls literal candidate strings per entity class out of
// free-form text. Extraction is pure pattern matching: no backend calls, no
// statistical model, deterministic for identical input.
package extract

import (
	"regexp"
	"strings"

	"context-resolver/internal/models"
)

const (
	minCandidateLen = 2
	maxCandidateLen = 100
)

// classPatterns is an ordered list of regex templates for one entity class.
// Every template contributes its first capture group.
type classPatterns struct {
	class    models.EntityClass
	patterns []*regexp.Regexp
}

// patternTable is evaluated independently per class; a token may be extracted
// under more than one class.
var patternTable = []classPatterns{
	{
		class: models.ClassCustomer,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:invoice|bill)\s+(?:for|to)\s+([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*)*)`),
			regexp.MustCompile(`(?i)(?:customer|client|account)\s+(?:named\s+|called\s+)?([A-Z][\w&.'-]*(?:\s+[A-Z][\w&.'-]*)*)`),
			regexp.MustCompile(`(?i)\bfor\s+([A-Z][\w&.'-]+(?:\s+(?:Corp|Inc|LLC|Ltd|GmbH|Co)\.?)+)`),
		},
	},
	{
		class: models.ClassProject,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)project\s+(?:named\s+|called\s+)?"?([\w][\w\s&.'-]*?)"?(?:\s+(?:project|for|to|with|and)\b|[,.!?]|$)`),
			regexp.MustCompile(`(?i)\bon\s+(?:the\s+)?([\w][\w\s&.'-]*?)\s+project\b`),
		},
	},
	{
		class: models.ClassTask,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)task\s+(?:named\s+|called\s+|titled\s+)?"?([\w][\w\s&.'-]*?)"?(?:\s+(?:task|for|to|with|and)\b|[,.!?]|$)`),
			regexp.MustCompile(`(?i)"([^"]+)"\s+task\b`),
			regexp.MustCompile(`(?i)\bfinish(?:ed)?\s+([\w][\w\s&.'-]*?)(?:[,.!?]|$)`),
		},
	},
	{
		class: models.ClassInvoice,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(INV-\d{4}-\d+)\b`),
			regexp.MustCompile(`(?i)invoice\s+(?:number\s+|#\s*)(\d+)`),
		},
	},
	{
		class: models.ClassTeam,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`@([\w.-]+)`),
			regexp.MustCompile(`(?i)assign(?:ed)?\s+(?:it\s+)?to\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)?)`),
			regexp.MustCompile(`(?i)(?:team\s+member|teammate)\s+([A-Z][\w'-]*(?:\s+[A-Z][\w'-]*)?)`),
		},
	},
}

// Extract applies the pattern table over text. Candidates appear in match
// order; duplicates survive until after search. A class with no matches gets
// an empty (never nil) list.
func Extract(text string) models.ExtractedEntities {
	out := make(models.ExtractedEntities, len(patternTable))

	for _, cp := range patternTable {
		candidates := []string{}
		for _, re := range cp.patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 {
					continue
				}
				candidate := strings.TrimSpace(m[1])
				if len(candidate) >= minCandidateLen && len(candidate) < maxCandidateLen {
					candidates = append(candidates, candidate)
				}
			}
		}
		out[cp.class] = candidates
	}

	return out
}
