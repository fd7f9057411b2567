// Package triageapi exposes the triage pipeline over HTTP.
package triageapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/frontline/internal/domain"
	"github.com/linnemanlabs/frontline/internal/triage"
)

// TriageService defines the business operations triageapi needs.
type TriageService interface {
	Triage(ctx context.Context, req *triage.SubmitRequest, onStep triage.StepFunc) (*triage.Result, error)
	Submit(ctx context.Context, req *triage.SubmitRequest) (*triage.SubmitResult, error)
	Get(ctx context.Context, id string) (*triage.Result, bool, error)
	Recent(ctx context.Context, domainID string, limit int) ([]*triage.Result, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     TriageService
	domains *domain.Registry
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService, domains *domain.Registry) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	if domains == nil {
		panic(xerrors.New("domain registry is required"))
	}
	return &API{
		logger:  logger,
		svc:     svc,
		domains: domains,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", a.handleTriage)
		r.Post("/messages", a.handleSubmitMessage)
		r.Get("/triage/{id}", a.handleGetTriage)
		r.Get("/triage", a.handleListTriage)
		r.Get("/domains", a.handleListDomains)
	})
}

// handleTriage runs the pipeline synchronously. With ?stream=1 the response
// is NDJSON: one line per progress step, then a final line with the result.
func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var req triage.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("frontline.domain", req.DomainID))

	if r.URL.Query().Get("stream") == "1" {
		a.streamTriage(w, r, &req)
		return
	}

	result, err := a.svc.Triage(r.Context(), &req, nil)
	if err != nil {
		a.writeSubmitError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("frontline.triage.id", result.ID))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// streamLine is one NDJSON line in a streamed triage response.
type streamLine struct {
	Type   string               `json:"type"` // "step" or "result"
	Step   *triage.ProgressStep `json:"step,omitempty"`
	Result *triage.Result       `json:"result,omitempty"`
}

func (a *API) streamTriage(w http.ResponseWriter, r *http.Request, req *triage.SubmitRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	type outcome struct {
		result *triage.Result
		err    error
	}

	stream := triage.NewStream(64)
	done := make(chan outcome, 1)
	go func() {
		res, err := a.svc.Triage(r.Context(), req, stream.Step)
		stream.Close()
		done <- outcome{result: res, err: err}
	}()

	// Headers are only committed on first write, so a validation failure
	// (which emits no steps) can still produce a proper error status below.
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	enc := json.NewEncoder(w)
	for st := range stream.C() {
		if err := enc.Encode(streamLine{Type: "step", Step: &st}); err != nil {
			a.logger.Warn(r.Context(), "stream write failed, draining run", "error", err)
			for range stream.C() { //nolint:revive // drain so the run is not blocked on a dead client
			}
			break
		}
		flusher.Flush()
	}

	out := <-done
	if out.err != nil {
		a.writeSubmitError(w, r, out.err)
		return
	}

	_ = enc.Encode(streamLine{Type: "result", Result: out.result})
	flusher.Flush()
}

// handleSubmitMessage accepts a message for async triage and returns the run ID.
func (a *API) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req triage.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	sub, err := a.svc.Submit(r.Context(), &req)
	if err != nil {
		a.writeSubmitError(w, r, err)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("frontline.triage.id", sub.ID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": sub.ID,
	})
}

func (a *API) handleGetTriage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("frontline.triage.id", id))

	result, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage result", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("frontline.triage.status", string(result.Status)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (a *API) handleListTriage(w http.ResponseWriter, r *http.Request) {
	domainID := r.URL.Query().Get("domain")
	if domainID == "" {
		http.Error(w, `{"error":"domain query parameter is required"}`, http.StatusBadRequest)
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			http.Error(w, `{"error":"limit must be 1..100"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := a.svc.Recent(r.Context(), domainID, limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list triage results", "domain", domainID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*triage.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": results,
	})
}

// domainSummary is the public view of a domain config. Risk keywords stay
// internal: exposing them would let callers game the scorer.
type domainSummary struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	SLAThresholds domain.SLAThresholds `json:"sla_thresholds"`
}

func (a *API) handleListDomains(w http.ResponseWriter, r *http.Request) {
	configs := a.domains.List()
	out := make([]domainSummary, 0, len(configs))
	for _, c := range configs {
		out = append(out, domainSummary{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			SLAThresholds: c.SLAThresholds,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"domains": out,
	})
}

// writeSubmitError maps service validation errors to 400 and everything else
// to 500.
func (a *API) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, triage.ErrUnknownDomain), errors.Is(err, triage.ErrEmptyMessage):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": err.Error(),
		})
	default:
		a.logger.Error(r.Context(), err, "triage request failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}
