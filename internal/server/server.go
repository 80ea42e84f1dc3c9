// internal/server/server.go

// Package server exposes the resolution engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xeipuuv/gojsonschema"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/engine"
)

const resolveSchema = `{
	"type": "object",
	"properties": {
		"text": {"type": "string", "minLength": 1, "maxLength": 1000},
		"entityTypeFilter": {"type": "string", "enum": ["", "all", "customer", "project", "task", "invoice", "team"]},
		"limit": {"type": "integer", "minimum": 1, "maximum": 100},
		"currentUser": {"type": "object"}
	},
	"required": ["text"],
	"additionalProperties": false
}`

const invoiceOptionsSchema = `{
	"type": "object",
	"properties": {
		"customerId": {"type": "string", "minLength": 1}
	},
	"required": ["customerId"],
	"additionalProperties": false
}`

// HealthCheck is one dependency probe reported by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	engine               *engine.Engine
	checks               []HealthCheck
	resolveLoader        gojsonschema.JSONLoader
	invoiceOptionsLoader gojsonschema.JSONLoader
	logger               logger.Logger
}

func New(eng *engine.Engine, checks []HealthCheck, log logger.Logger) *Server {
	return &Server{
		engine:               eng,
		checks:               checks,
		resolveLoader:        gojsonschema.NewStringLoader(resolveSchema),
		invoiceOptionsLoader: gojsonschema.NewStringLoader(invoiceOptionsSchema),
		logger:               log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/resolve", s.handleResolve)
	mux.HandleFunc("POST /api/v1/invoice-options", s.handleInvoiceOptions)
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if !s.decodeValidated(w, r, s.resolveLoader, &req) {
		return
	}

	cmd, err := s.engine.Resolve(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, string(apperrors.ErrCodeResolutionFailed), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, cmd)
}

func (s *Server) handleInvoiceOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if !s.decodeValidated(w, r, s.invoiceOptionsLoader, &req) {
		return
	}

	bundle, err := s.engine.BuildInvoiceOptions(r.Context(), req.CustomerID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrCodeCustomerNotFound {
			s.writeError(w, http.StatusNotFound, string(apperrors.ErrCodeCustomerNotFound), err.Error())
			return
		}
		s.writeError(w, http.StatusServiceUnavailable, string(apperrors.ErrCodeDefaultsLookupFailed), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearCache(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, string(apperrors.ErrCodeCacheWriteFailed), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for _, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			deps[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[check.Name] = "ok"
		}
	}
	s.writeJSON(w, status, map[string]interface{}{
		"status":       map[bool]string{true: "ok", false: "degraded"}[status == http.StatusOK],
		"dependencies": deps,
	})
}

// decodeValidated reads the body, validates it against the schema and then
// unmarshals into the typed request. Returns false after writing the error
// response.
func (s *Server) decodeValidated(w http.ResponseWriter, r *http.Request, schema gojsonschema.JSONLoader, out interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, 1<<20)
	defer body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidQuery), "request body must be a JSON object")
		return false
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(raw))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidQuery), err.Error())
		return false
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		s.writeError(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidQuery), strings.Join(details, "; "))
		return false
	}

	encoded, err := json.Marshal(raw)
	if err == nil {
		err = json.Unmarshal(encoded, out)
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, string(apperrors.ErrCodeInvalidQuery), err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("response encode failed", nil)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
