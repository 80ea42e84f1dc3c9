// internal/defaults/task_test.go
package defaults

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"context-resolver/internal/models"
	"context-resolver/internal/resolver/search"
)

func TestComputeTaskDefaults_PriorityEscalation(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())
	highProject := &models.Project{ID: "p1", Priority: models.PriorityHigh}

	d := e.ComputeTaskDefaults(context.Background(), "write release notes", highProject)
	assert.Equal(t, models.PriorityHigh, d.Priority, "a high-priority project escalates its tasks")

	d = e.ComputeTaskDefaults(context.Background(), "cleanup, low priority", highProject)
	assert.Equal(t, models.PriorityLow, d.Priority, "an explicit low marker is not escalated")

	d = e.ComputeTaskDefaults(context.Background(), "urgent hotfix", nil)
	assert.Equal(t, models.PriorityHigh, d.Priority)
}

func TestComputeTaskDefaults_MedianEstimateFromHistory(t *testing.T) {
	store := search.NewMemoryStore()
	store.AddTasks(
		models.Task{ID: "t1", Title: "Login redesign", ActualHours: 2},
		models.Task{ID: "t2", Title: "Fix login button", ActualHours: 4},
		models.Task{ID: "t3", Title: "Login API", EstimatedHours: 6},
	)
	e := newTestEngine(t, store)

	d := e.ComputeTaskDefaults(context.Background(), "Fix login page bug", nil)
	assert.Equal(t, 4.0, d.EstimatedHours)
}

func TestComputeTaskDefaults_FallbackEstimate(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	d := e.ComputeTaskDefaults(context.Background(), "something unprecedented", nil)
	assert.Equal(t, fallbackEstimatedHours, d.EstimatedHours)
}

func TestComputeTaskDefaults_DueDateFromEstimate(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())

	// 4h at 6 productive hours/day rounds up to one working day from today.
	d := e.ComputeTaskDefaults(context.Background(), "something unprecedented", nil)
	assert.Equal(t, "2026-09-02", d.DueDate)
}

func TestComputeTaskDefaults_DueDateFromProjectStart(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())
	project := &models.Project{ID: "p1", StartDate: "2026-09-10"}

	d := e.ComputeTaskDefaults(context.Background(), "something unprecedented", project)
	assert.Equal(t, "2026-09-11", d.DueDate, "a future project start pushes the due date")
}

func TestComputeTaskDefaults_PastProjectStartIgnored(t *testing.T) {
	e := newTestEngine(t, search.NewMemoryStore())
	project := &models.Project{ID: "p1", StartDate: "2026-01-01"}

	d := e.ComputeTaskDefaults(context.Background(), "something unprecedented", project)
	assert.Equal(t, "2026-09-02", d.DueDate)
}

func TestComputeTaskDefaults_LookupFailureDegrades(t *testing.T) {
	e := newTestEngine(t, erroringClient{})

	d := e.ComputeTaskDefaults(context.Background(), "fix the login flow", nil)
	assert.Equal(t, fallbackEstimatedHours, d.EstimatedHours)
}
