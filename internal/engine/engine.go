// internal/engine/engine.go

// Package engine is the facade over the resolution pipeline: it resolves the
// context, routes risky invoice resolutions to disambiguation and attaches
// smart defaults to the command it returns.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/common/metrics"
	"context-resolver/internal/common/observability"
	"context-resolver/internal/defaults"
	"context-resolver/internal/disambiguation"
	"context-resolver/internal/models"
	"context-resolver/internal/resolver"
)

// Request is one utterance to resolve. CurrentUser is optional and only
// consulted by the project-defaults heuristics.
type Request struct {
	Text             string             `json:"text"`
	EntityTypeFilter models.EntityClass `json:"entityTypeFilter,omitempty"`
	Limit            int                `json:"limit,omitempty"`
	CurrentUser      *models.TeamMember `json:"currentUser,omitempty"`
}

type Engine struct {
	resolver     *resolver.Resolver
	defaults     *defaults.Engine
	router       *disambiguation.Router
	obs          *observability.Observability
	threshold    float64
	defaultLimit int
	logger       logger.Logger
}

func New(res *resolver.Resolver, def *defaults.Engine, router *disambiguation.Router, obs *observability.Observability, threshold float64, defaultLimit int, log logger.Logger) *Engine {
	return &Engine{
		resolver:     res,
		defaults:     def,
		router:       router,
		obs:          obs,
		threshold:    threshold,
		defaultLimit: defaultLimit,
		logger:       log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// Resolve turns an utterance into a ResolvedCommand. A blank utterance is
// rejected up front; past that, resolution failures other than caller
// cancellation degrade to the empty context with zero confidence and the
// command itself is always returned.
func (e *Engine) Resolve(ctx context.Context, req Request) (*models.ResolvedCommand, error) {
	start := time.Now()

	if strings.TrimSpace(req.Text) == "" {
		return nil, apperrors.NewInvalidQueryError("text must not be empty")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = e.defaultLimit
	}
	query := models.ContextQuery{
		Text:             req.Text,
		EntityTypeFilter: req.EntityTypeFilter,
		Limit:            limit,
	}

	cmd := &models.ResolvedCommand{
		RequestID:    uuid.New().String(),
		OriginalText: req.Text,
	}

	result, err := e.resolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		e.logger.WithError(apperrors.NewResolutionFailedError(err)).Error("resolution failed, returning empty context", map[string]interface{}{
			"requestId": cmd.RequestID,
		})
		cmd.Intent = models.IntentGeneral
		cmd.Entities = models.ExtractedEntities{}
		cmd.Context = models.EmptyContext()
		cmd.RequiresConfirmation = true
		return cmd, nil
	}

	cmd.Intent = result.Intent
	cmd.Entities = result.Entities
	cmd.Context = result.Context
	cmd.RequiresConfirmation = result.Context.Confidence < e.threshold

	e.attachDefaults(ctx, req, cmd)

	elapsed := time.Since(start)
	metrics.ResolutionsTotal.WithLabelValues(string(cmd.Intent)).Inc()
	metrics.ResolutionDuration.WithLabelValues(string(cmd.Intent)).Observe(elapsed.Seconds())
	if e.obs != nil {
		e.obs.RecordResolution(ctx, string(cmd.Intent))
		e.obs.RecordResolutionDuration(ctx, elapsed, string(cmd.Intent))
	}

	e.logger.Info("resolution complete", map[string]interface{}{
		"requestId":  cmd.RequestID,
		"intent":     string(cmd.Intent),
		"confidence": cmd.Context.Confidence,
		"results":    cmd.Context.TotalResults(),
		"cacheHit":   result.CacheHit,
		"durationMs": elapsed.Milliseconds(),
	})
	return cmd, nil
}

// attachDefaults adds the intent-specific suggested parameters, or a pending
// choice when a disambiguation branch fires. Defaults computation is
// best-effort throughout.
func (e *Engine) attachDefaults(ctx context.Context, req Request, cmd *models.ResolvedCommand) {
	switch cmd.Intent {
	case models.IntentCreateInvoice:
		if len(cmd.Context.Customers) == 0 {
			return
		}
		if choice := e.router.Route(ctx, cmd.Context); choice != nil {
			cmd.PendingChoice = choice
			cmd.RequiresConfirmation = true
			return
		}
		bundle, err := e.defaults.BuildInvoiceOptionsForCustomer(ctx, cmd.Context.Customers[0].ID)
		if err != nil {
			e.logger.WithError(apperrors.NewDefaultsLookupError("invoice options", err)).Warn("invoice options unavailable", map[string]interface{}{
				"customerId": cmd.Context.Customers[0].ID,
			})
			return
		}
		cmd.SuggestedParameters = map[string]interface{}{
			"invoiceOptions": bundle,
			"defaults":       bundle.Defaults,
		}

	case models.IntentCreateProject:
		name := req.Text
		if candidates := cmd.Entities[models.ClassProject]; len(candidates) > 0 {
			name = candidates[0]
		}
		var user models.TeamMember
		if req.CurrentUser != nil {
			user = *req.CurrentUser
		}
		cmd.SuggestedParameters = map[string]interface{}{
			"defaults": e.defaults.ComputeProjectDefaults(ctx, name, req.Text, user),
		}

	case models.IntentCreateTask:
		title := req.Text
		if candidates := cmd.Entities[models.ClassTask]; len(candidates) > 0 {
			title = candidates[0]
		}
		var project *models.Project
		if len(cmd.Context.Projects) > 0 {
			project = &cmd.Context.Projects[0]
		}
		cmd.SuggestedParameters = map[string]interface{}{
			"defaults": e.defaults.ComputeTaskDefaults(ctx, title, project),
		}
	}
}

// BuildInvoiceOptions exposes the A/B/C bundle directly, for callers that
// already know the customer id.
func (e *Engine) BuildInvoiceOptions(ctx context.Context, customerID string) (*models.InvoiceOptionsBundle, error) {
	return e.defaults.BuildInvoiceOptionsForCustomer(ctx, customerID)
}

// ClearCache drops all memoized resolutions.
func (e *Engine) ClearCache(ctx context.Context) error {
	return e.resolver.ClearCache(ctx)
}
