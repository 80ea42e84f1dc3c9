// internal/resolver/confidence.go
package resolver

import "context-resolver/internal/models"

// Confidence heuristics. The scalar this produces is the single gate between
// "act autonomously" and "ask the user"; keep the weights in one place.
const (
	baseConfidence         = 0.5
	groundedBoost          = 0.3 // extraction produced terms AND search found rows
	invoiceCustomerBoost   = 0.2
	invoiceTaskBoost       = 0.1
	invoiceProjectBoost    = 0.1
	statusTargetBoost      = 0.3
	assignPairBoost        = 0.3
	ambiguityPenalty       = 0.2
	ambiguityResultCount   = 10
)

// Score rates how trustworthy a resolution is, clamped to [0,1].
func Score(entities models.ExtractedEntities, rc *models.ResolvedContext, intent models.Intent) float64 {
	score := baseConfidence

	if entities.Total() > 0 && rc.TotalResults() > 0 {
		score += groundedBoost
	}

	switch intent {
	case models.IntentCreateInvoice:
		if len(rc.Customers) > 0 {
			score += invoiceCustomerBoost
		}
		if len(rc.Tasks) > 0 {
			score += invoiceTaskBoost
		}
		if len(rc.Projects) > 0 {
			score += invoiceProjectBoost
		}
	case models.IntentUpdateStatus:
		if len(rc.Projects) > 0 || len(rc.Tasks) > 0 {
			score += statusTargetBoost
		}
	case models.IntentAssignTask:
		if len(rc.Tasks) > 0 && len(rc.TeamMembers) > 0 {
			score += assignPairBoost
		}
	}

	if rc.TotalResults() > ambiguityResultCount {
		score -= ambiguityPenalty
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Suggestions explains a weak resolution in user-facing terms. Empty when
// the score clears the autonomy threshold.
func Suggestions(entities models.ExtractedEntities, rc *models.ResolvedContext, intent models.Intent, score, threshold float64) []string {
	if score >= threshold {
		return []string{}
	}

	out := []string{}
	if entities.Total() == 0 {
		out = append(out, "try naming a specific customer, project or task")
	}
	if entities.Total() > 0 && rc.TotalResults() == 0 {
		out = append(out, "no matching records were found, check the spelling of the name")
	}
	if rc.TotalResults() > ambiguityResultCount {
		out = append(out, "too many matches, add more detail to narrow the request")
	}
	if intent == models.IntentCreateInvoice && len(rc.Customers) == 0 {
		out = append(out, "tell me which customer the invoice is for")
	}
	if intent == models.IntentAssignTask && len(rc.TeamMembers) == 0 {
		out = append(out, "mention the team member to assign, e.g. @username")
	}
	if len(out) == 0 {
		out = append(out, "please be more specific")
	}
	return out
}
