// internal/defaults/task.go
package defaults

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

const fallbackEstimatedHours = 4.0

// TaskDefaults are the suggested values for a new task.
type TaskDefaults struct {
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimatedHours"`
	DueDate        string  `json:"dueDate"`
}

// ComputeTaskDefaults derives priority, an hour estimate and a due date for
// a new task. The estimate is the median billable hours of historical tasks
// with a similar title; the due date works forward from the project start
// (or today) at the configured productive hours per day.
func (e *Engine) ComputeTaskDefaults(ctx context.Context, title string, project *models.Project) TaskDefaults {
	d := TaskDefaults{
		Priority:       priorityFromText(title),
		EstimatedHours: fallbackEstimatedHours,
	}

	// A high-priority project escalates its tasks.
	if project != nil && project.Priority == models.PriorityHigh && d.Priority == models.PriorityMedium {
		d.Priority = models.PriorityHigh
	}

	if est, ok := e.historicalEstimate(ctx, title); ok {
		d.EstimatedHours = est
	}

	start := e.now()
	if project != nil && project.StartDate != "" {
		if parsed, err := time.Parse(dateLayout, project.StartDate); err == nil && parsed.After(start) {
			start = parsed
		}
	}
	workDays := int(math.Ceil(d.EstimatedHours / e.cfg.ProductiveHoursPerDay))
	if workDays < 1 {
		workDays = 1
	}
	d.DueDate = start.AddDate(0, 0, workDays).Format(dateLayout)
	return d
}

// historicalEstimate is the median billable hours of tasks whose title
// shares a keyword with the new title.
func (e *Engine) historicalEstimate(ctx context.Context, title string) (float64, bool) {
	term := longestToken(title)
	if term == "" {
		return 0, false
	}

	tasks, err := e.client.Tasks(ctx, search.TaskFilter{Term: term}, 50)
	if err != nil {
		e.logger.Warn("historical task lookup failed, using fallback estimate", map[string]interface{}{"error": err.Error()})
		return 0, false
	}

	var hours []float64
	for _, t := range tasks {
		if h := t.BillableHours(); h > 0 {
			hours = append(hours, h)
		}
	}
	if len(hours) == 0 {
		return 0, false
	}

	sort.Float64s(hours)
	mid := len(hours) / 2
	if len(hours)%2 == 1 {
		return hours[mid], true
	}
	return (hours[mid-1] + hours[mid]) / 2, true
}

// longestToken picks the most specific word of a title as the search term.
func longestToken(title string) string {
	best := ""
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		tok = strings.Trim(tok, ".,!?:;\"'")
		if len(tok) > len(best) {
			best = tok
		}
	}
	if len(best) < 3 {
		return ""
	}
	return best
}
