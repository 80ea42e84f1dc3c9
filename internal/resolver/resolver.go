// internal/resolver/resolver.go

// Package resolver turns an utterance into a ResolvedContext: it extracts
// candidate entities, classifies the intent, queries the collections in an
// intent-driven order, enriches around the primary hits and scores the
// outcome.
package resolver

import (
	"context"
	"strings"
	"sync"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/common/metrics"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver/extract"
	"context-resolver/internal/resolver/intent"
	"context-resolver/internal/resolver/search"
)

// Options carries the fan-out caps. They are deliberate bounds against
// request storms; tune them in config, not here.
type Options struct {
	MaxTermsPerClass      int
	MaxCustomerEnrichment int
	MaxProjectEnrichment  int
	MaxInFlight           int
	ConfidenceThreshold   float64
}

func DefaultOptions() Options {
	return Options{
		MaxTermsPerClass:      3,
		MaxCustomerEnrichment: 2,
		MaxProjectEnrichment:  3,
		MaxInFlight:           6,
		ConfidenceThreshold:   0.5,
	}
}

// Result is one complete resolution. Entities and Intent are recomputed even
// on a cache hit; they are pure functions of the text.
type Result struct {
	Query    models.ContextQuery
	Entities models.ExtractedEntities
	Intent   models.Intent
	Context  *models.ResolvedContext
	CacheHit bool
}

type Resolver struct {
	client search.Client
	cache  Cache
	opts   Options
	logger logger.Logger
}

func New(client search.Client, cache Cache, opts Options, log logger.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "resolver"}),
	}
}

// classPriority maps an intent to the collections worth querying, in order.
var classPriority = map[models.Intent][]models.EntityClass{
	models.IntentCreateInvoice: {models.ClassCustomer, models.ClassProject, models.ClassTask},
	models.IntentUpdateStatus:  {models.ClassProject, models.ClassTask},
	models.IntentAssignTask:    {models.ClassTask, models.ClassTeam, models.ClassProject},
	models.IntentShowOverdue:   {models.ClassTask, models.ClassProject, models.ClassInvoice},
	models.IntentCreateProject: {models.ClassCustomer, models.ClassProject, models.ClassTeam},
	models.IntentCreateTask:    {models.ClassProject, models.ClassTask, models.ClassTeam},
}

// searchOrder computes which classes to query. An explicit filter restricts
// to that one class; "all" and empty both mean unfiltered, so the intent
// picks the priority list.
func searchOrder(in models.Intent, filter models.EntityClass) []models.EntityClass {
	if filter != "" && filter != models.ClassAll {
		return []models.EntityClass{filter}
	}
	if order, ok := classPriority[in]; ok {
		return order
	}
	return models.AllEntityClasses
}

// Resolve runs the full pipeline for one query. Per-term search failures are
// logged and swallowed; the error return is reserved for context
// cancellation.
func (r *Resolver) Resolve(ctx context.Context, q models.ContextQuery) (*Result, error) {
	entities := extract.Extract(q.Text)
	classified := intent.Classify(q.Text)

	result := &Result{
		Query:    q,
		Entities: entities,
		Intent:   classified,
	}

	key := CacheKey(q)
	if cached, ok := r.cache.Get(ctx, key); ok {
		metrics.CacheHits.Inc()
		result.Context = cached
		result.CacheHit = true
		return result, nil
	}
	metrics.CacheMisses.Inc()

	rc := &models.ResolvedContext{
		Customers:   []models.Customer{},
		Projects:    []models.Project{},
		Tasks:       []models.Task{},
		Invoices:    []models.Invoice{},
		TeamMembers: []models.TeamMember{},
		Suggestions: []string{},
	}

	r.runSearches(ctx, q, entities, classified, rc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.enrich(ctx, q, rc)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc.Confidence = Score(entities, rc, classified)
	rc.Suggestions = Suggestions(entities, rc, classified, rc.Confidence, r.opts.ConfidenceThreshold)

	r.cache.Set(ctx, key, rc)

	result.Context = rc
	return result, nil
}

// ClearCache drops all memoized resolutions, e.g. after a write elsewhere in
// the system.
func (r *Resolver) ClearCache(ctx context.Context) error {
	return r.cache.Clear(ctx)
}

// searchJob is one (collection, term) request. Jobs run concurrently but
// merge in declaration order, so de-duplication keeps first-seen order.
type searchJob struct {
	class models.EntityClass
	term  string
}

type searchResult struct {
	customers   []models.Customer
	projects    []models.Project
	tasks       []models.Task
	invoices    []models.Invoice
	teamMembers []models.TeamMember
}

func (r *Resolver) runSearches(ctx context.Context, q models.ContextQuery, entities models.ExtractedEntities, in models.Intent, rc *models.ResolvedContext) {
	var jobs []searchJob
	for _, class := range searchOrder(in, q.EntityTypeFilter) {
		terms := entities[class]
		if len(terms) > r.opts.MaxTermsPerClass {
			terms = terms[:r.opts.MaxTermsPerClass]
		}
		if len(terms) == 0 {
			// Nothing extracted for this class: fall back to the raw text
			// so an explicit filter (or the all-classes default) still
			// searches something.
			text := strings.TrimSpace(q.Text)
			if text == "" {
				continue
			}
			terms = []string{text}
		}
		for _, term := range terms {
			jobs = append(jobs, searchJob{class: class, term: term})
		}
	}

	results := make([]searchResult, len(jobs))
	sem := make(chan struct{}, r.opts.MaxInFlight)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job searchJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runOne(ctx, job, q.Limit)
		}(i, job)
	}
	wg.Wait()

	seen := newSeenSets()
	for _, res := range results {
		mergeResult(rc, res, seen, q.Limit)
	}
}

// runOne executes a single search; failures are converted to empty results
// here so one bad term never aborts the resolution.
func (r *Resolver) runOne(ctx context.Context, job searchJob, limit int) searchResult {
	var res searchResult
	var err error

	switch job.class {
	case models.ClassCustomer:
		res.customers, err = r.client.Customers(ctx, job.term, limit)
	case models.ClassProject:
		res.projects, err = r.client.Projects(ctx, search.ProjectFilter{Term: job.term}, limit)
	case models.ClassTask:
		res.tasks, err = r.client.Tasks(ctx, search.TaskFilter{Term: job.term}, limit)
	case models.ClassInvoice:
		res.invoices, err = r.client.Invoices(ctx, search.InvoiceFilter{Term: job.term}, limit)
	case models.ClassTeam:
		res.teamMembers, err = r.client.TeamMembers(ctx, job.term, limit)
	default:
		err = apperrors.NewUnknownCollectionError(string(job.class))
	}

	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewSearchQueryError(string(job.class), job.term, err)
		}
		metrics.SearchFailures.WithLabelValues(string(job.class)).Inc()
		r.logger.Warn("search failed, treating as empty", map[string]interface{}{
			"collection": string(job.class),
			"term":       job.term,
			"retryable":  apperrors.IsRetryable(err),
			"error":      err.Error(),
		})
		return searchResult{}
	}
	return res
}

// enrich pulls the work hanging off the primary hits: projects and
// uninvoiced completed tasks for the first customers, tasks for the first
// projects. A user naming only a customer implicitly means that customer's
// work, and the defaults engine needs task detail for line items.
func (r *Resolver) enrich(ctx context.Context, q models.ContextQuery, rc *models.ResolvedContext) {
	seen := newSeenSets()
	seed(seen, rc)

	customers := rc.Customers
	if len(customers) > r.opts.MaxCustomerEnrichment {
		customers = customers[:r.opts.MaxCustomerEnrichment]
	}
	for _, customer := range customers {
		projects, err := r.client.Projects(ctx, search.ProjectFilter{CustomerID: customer.ID}, q.Limit)
		if err != nil {
			metrics.SearchFailures.WithLabelValues(string(models.ClassProject)).Inc()
			r.logger.Warn("customer project enrichment failed", map[string]interface{}{
				"customerId": customer.ID, "error": err.Error(),
			})
		}
		for _, p := range projects {
			if !seen.projects[p.ID] {
				seen.projects[p.ID] = true
				rc.Projects = append(rc.Projects, p)
			}
		}

		tasks, err := r.client.Tasks(ctx, search.TaskFilter{
			CustomerID: customer.ID,
			Status:     models.TaskStatusCompleted,
			Invoiced:   search.BoolPtr(false),
		}, q.Limit)
		if err != nil {
			metrics.SearchFailures.WithLabelValues(string(models.ClassTask)).Inc()
			r.logger.Warn("customer task enrichment failed", map[string]interface{}{
				"customerId": customer.ID, "error": err.Error(),
			})
		}
		for _, t := range tasks {
			if !seen.tasks[t.ID] {
				seen.tasks[t.ID] = true
				rc.Tasks = append(rc.Tasks, t)
			}
		}
	}

	projects := rc.Projects
	if len(projects) > r.opts.MaxProjectEnrichment {
		projects = projects[:r.opts.MaxProjectEnrichment]
	}
	for _, project := range projects {
		tasks, err := r.client.Tasks(ctx, search.TaskFilter{ProjectID: project.ID}, q.Limit)
		if err != nil {
			metrics.SearchFailures.WithLabelValues(string(models.ClassTask)).Inc()
			r.logger.Warn("project task enrichment failed", map[string]interface{}{
				"projectId": project.ID, "error": err.Error(),
			})
		}
		for _, t := range tasks {
			if !seen.tasks[t.ID] {
				seen.tasks[t.ID] = true
				rc.Tasks = append(rc.Tasks, t)
			}
		}
	}
}

type seenSets struct {
	customers   map[string]bool
	projects    map[string]bool
	tasks       map[string]bool
	invoices    map[string]bool
	teamMembers map[string]bool
}

func newSeenSets() *seenSets {
	return &seenSets{
		customers:   map[string]bool{},
		projects:    map[string]bool{},
		tasks:       map[string]bool{},
		invoices:    map[string]bool{},
		teamMembers: map[string]bool{},
	}
}

func seed(s *seenSets, rc *models.ResolvedContext) {
	for _, c := range rc.Customers {
		s.customers[c.ID] = true
	}
	for _, p := range rc.Projects {
		s.projects[p.ID] = true
	}
	for _, t := range rc.Tasks {
		s.tasks[t.ID] = true
	}
	for _, inv := range rc.Invoices {
		s.invoices[inv.ID] = true
	}
	for _, m := range rc.TeamMembers {
		s.teamMembers[m.ID] = true
	}
}

// mergeResult folds one search result into the context, de-duplicating by id
// and capping each class list at the query limit.
func mergeResult(rc *models.ResolvedContext, res searchResult, seen *seenSets, limit int) {
	for _, c := range res.customers {
		if len(rc.Customers) >= limit {
			break
		}
		if !seen.customers[c.ID] {
			seen.customers[c.ID] = true
			rc.Customers = append(rc.Customers, c)
		}
	}
	for _, p := range res.projects {
		if len(rc.Projects) >= limit {
			break
		}
		if !seen.projects[p.ID] {
			seen.projects[p.ID] = true
			rc.Projects = append(rc.Projects, p)
		}
	}
	for _, t := range res.tasks {
		if len(rc.Tasks) >= limit {
			break
		}
		if !seen.tasks[t.ID] {
			seen.tasks[t.ID] = true
			rc.Tasks = append(rc.Tasks, t)
		}
	}
	for _, inv := range res.invoices {
		if len(rc.Invoices) >= limit {
			break
		}
		if !seen.invoices[inv.ID] {
			seen.invoices[inv.ID] = true
			rc.Invoices = append(rc.Invoices, inv)
		}
	}
	for _, m := range res.teamMembers {
		if len(rc.TeamMembers) >= limit {
			break
		}
		if !seen.teamMembers[m.ID] {
			seen.teamMembers[m.ID] = true
			rc.TeamMembers = append(rc.TeamMembers, m)
		}
	}
}
