// internal/defaults/engine.go

// Package defaults computes business defaults for commands the engine
// resolved: invoice numbering/terms/line-item bundles, project and task
// heuristics. Everything here is best-effort: a failed lookup degrades to
// the stated fallback, never to an error for the caller.
package defaults

import (
	"time"

	"context-resolver/internal/common/logger"
	"context-resolver/internal/resolver/search"
)

// Config carries the tunables for default computation.
type Config struct {
	InvoiceScanLimit      int
	DefaultCurrency       string
	DefaultNetDays        int
	ProductiveHoursPerDay float64
}

func DefaultConfig() Config {
	return Config{
		InvoiceScanLimit:      100,
		DefaultCurrency:       "USD",
		DefaultNetDays:        30,
		ProductiveHoursPerDay: 6,
	}
}

type Engine struct {
	client search.Client
	cfg    Config
	now    func() time.Time
	logger logger.Logger
}

// New creates the defaults engine. The clock is injectable so date
// arithmetic is testable; pass nil for time.Now.
func New(client search.Client, cfg Config, now func() time.Time, log logger.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		client: client,
		cfg:    cfg,
		now:    now,
		logger: log.WithFields(map[string]interface{}{"component": "defaults"}),
	}
}

const dateLayout = "2006-01-02"
