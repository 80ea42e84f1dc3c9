// internal/defaults/project.go
package defaults

import (
	"context"
	"regexp"
	"strings"
	"time"

	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

var (
	urgencyPattern     = regexp.MustCompile(`(?i)\b(urgent|asap|critical|immediately|right away|rush)\b`)
	lowPriorityPattern = regexp.MustCompile(`(?i)\blow\s+priority\b`)
)

// ProjectDefaults are the suggested values for a new project.
type ProjectDefaults struct {
	StartDate           string `json:"startDate"` // next Monday
	Priority            string `json:"priority"`
	OwnerID             string `json:"ownerId,omitempty"`
	BudgetEstimateCents *int64 `json:"budgetEstimateCents,omitempty"`
}

// priorityFromText maps urgency wording to a priority level.
func priorityFromText(text string) string {
	if urgencyPattern.MatchString(text) {
		return models.PriorityHigh
	}
	if lowPriorityPattern.MatchString(text) {
		return models.PriorityLow
	}
	return models.PriorityMedium
}

// nextMonday returns the next Monday strictly after t.
func nextMonday(t time.Time) time.Time {
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return t.AddDate(0, 0, days)
}

// canOwnProjects reports whether a role may own a project directly.
func canOwnProjects(role string) bool {
	switch strings.ToLower(role) {
	case "admin", "manager", "project_manager", "pm":
		return true
	}
	return false
}

func isManagerRole(role string) bool {
	lowered := strings.ToLower(role)
	return strings.Contains(lowered, "manager") || lowered == "pm"
}

// ComputeProjectDefaults derives start date, priority, owner and a budget
// estimate for a new project. Lookup failures degrade to the simple
// defaults; they never fail the command.
func (e *Engine) ComputeProjectDefaults(ctx context.Context, name, description string, currentUser models.TeamMember) ProjectDefaults {
	d := ProjectDefaults{
		StartDate: nextMonday(e.now()).Format(dateLayout),
		Priority:  priorityFromText(name + " " + description),
	}

	if canOwnProjects(currentUser.Role) {
		d.OwnerID = currentUser.ID
	} else {
		d.OwnerID = e.leastLoadedManager(ctx)
	}

	if budget, ok := e.similarProjectBudget(ctx, name); ok {
		d.BudgetEstimateCents = &budget
	}
	return d
}

// leastLoadedManager picks the PM/manager with the lowest current workload.
func (e *Engine) leastLoadedManager(ctx context.Context) string {
	members, err := e.client.TeamMembers(ctx, "", 50)
	if err != nil {
		e.logger.Warn("team member lookup failed, leaving owner unset", map[string]interface{}{"error": err.Error()})
		return ""
	}

	best := ""
	bestLoad := 0.0
	for _, m := range members {
		if !isManagerRole(m.Role) {
			continue
		}
		if best == "" || m.CurrentWorkloadHours < bestLoad {
			best = m.ID
			bestLoad = m.CurrentWorkloadHours
		}
	}
	return best
}

// similarProjectBudget averages the budgets of projects whose name shares
// its first two tokens with the new project's name.
func (e *Engine) similarProjectBudget(ctx context.Context, name string) (int64, bool) {
	tokens := strings.Fields(strings.ToLower(name))
	if len(tokens) < 2 {
		return 0, false
	}
	prefix := tokens[0] + " " + tokens[1]

	projects, err := e.client.Projects(ctx, search.ProjectFilter{Term: tokens[0]}, 100)
	if err != nil {
		e.logger.Warn("similar project lookup failed, omitting budget estimate", map[string]interface{}{"error": err.Error()})
		return 0, false
	}

	var sum int64
	var count int64
	for _, p := range projects {
		existing := strings.Fields(strings.ToLower(p.Name))
		if len(existing) < 2 {
			continue
		}
		if existing[0]+" "+existing[1] == prefix && p.BudgetCents > 0 {
			sum += p.BudgetCents
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / count, true
}
