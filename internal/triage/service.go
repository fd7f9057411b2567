package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/frontline/internal/custdata"
	"github.com/linnemanlabs/frontline/internal/domain"
)

// Notifier pushes a completed triage result to an external channel (Slack).
type Notifier interface {
	Notify(ctx context.Context, result *Result) error
}

// Publisher emits a completed triage result to an event stream (Kafka).
type Publisher interface {
	Publish(ctx context.Context, result *Result) error
}

// SubmitRequest is an incoming customer message to triage.
type SubmitRequest struct {
	Message  string                `json:"message"`
	History  []ConversationMessage `json:"history,omitempty"`
	DomainID string                `json:"domain"`
}

// SubmitResult is the outcome of submitting a message for async triage.
type SubmitResult struct {
	ID string
}

// ErrUnknownDomain is returned when the request names an unregistered domain.
var ErrUnknownDomain = errors.New("unknown domain")

// ErrEmptyMessage is returned when the request carries no message text.
var ErrEmptyMessage = errors.New("message is required")

// Service is the business boundary for triage operations: request
// validation, run lifecycle, persistence, and completion side effects.
type Service struct {
	store     Store
	engine    *Engine
	domains   *domain.Registry
	customers custdata.Provider
	logger    log.Logger
	metrics   *Metrics
	notifier  Notifier
	publisher Publisher
}

// NewService creates a new triage service. notifier and publisher may be nil.
func NewService(
	store Store,
	engine *Engine,
	domains *domain.Registry,
	customers custdata.Provider,
	logger log.Logger,
	metrics *Metrics,
	notifier Notifier,
	publisher Publisher,
) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:     store,
		engine:    engine,
		domains:   domains,
		customers: customers,
		logger:    logger,
		metrics:   metrics,
		notifier:  notifier,
		publisher: publisher,
	}
}

// resolve validates the request and builds the engine input.
func (s *Service) resolve(req *SubmitRequest) (*Request, error) {
	if req.Message == "" {
		return nil, ErrEmptyMessage
	}
	d, ok := s.domains.Lookup(req.DomainID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, req.DomainID)
	}
	cc, _ := s.customers.Lookup(req.DomainID)
	return &Request{
		Message:         req.Message,
		History:         req.History,
		Domain:          d,
		CustomerContext: cc,
	}, nil
}

// Triage runs the pipeline synchronously, persisting the result and steps as
// they are produced. onStep may be nil.
func (s *Service) Triage(ctx context.Context, req *SubmitRequest, onStep StepFunc) (*Result, error) {
	in, err := s.resolve(req)
	if err != nil {
		s.countSubmit("rejected")
		return nil, err
	}

	id := ulid.Make().String()
	s.countSubmit("accepted")

	pending := &Result{
		ID:        id,
		DomainID:  req.DomainID,
		Message:   req.Message,
		Status:    StatusInProgress,
		CreatedAt: time.Now(),
	}
	if err := s.store.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("store pending result: %w", err)
	}

	seq := 0
	step := func(st ProgressStep) {
		if err := s.store.AppendStep(ctx, id, seq, &st); err != nil {
			s.logger.Error(ctx, err, "failed to persist progress step", "triage_id", id, "seq", seq)
		}
		seq++
		if onStep != nil {
			onStep(st)
		}
	}

	result := s.engine.Run(ctx, id, in, step)
	s.finish(ctx, result)
	return result, nil
}

// Submit accepts a message for async triage and returns immediately with the
// run ID. The run continues even if the caller's context is canceled.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	in, err := s.resolve(req)
	if err != nil {
		s.countSubmit("rejected")
		return nil, err
	}

	id := ulid.Make().String()
	s.countSubmit("accepted")

	pending := &Result{
		ID:        id,
		DomainID:  req.DomainID,
		Message:   req.Message,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("store pending result: %w", err)
	}

	go s.runTriage(context.WithoutCancel(ctx), id, in)

	return &SubmitResult{ID: id}, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

// Recent returns the most recent triage runs for a domain.
func (s *Service) Recent(ctx context.Context, domainID string, limit int) ([]*Result, error) {
	return s.store.ListByDomain(ctx, domainID, limit)
}

func (s *Service) runTriage(ctx context.Context, id string, in *Request) {
	L := s.logger.With("triage_id", id, "domain", in.Domain.ID)

	seq := 0
	step := func(st ProgressStep) {
		if err := s.store.AppendStep(ctx, id, seq, &st); err != nil {
			L.Error(ctx, err, "failed to persist progress step", "seq", seq)
		}
		seq++
	}

	result := s.engine.Run(ctx, id, in, step)
	s.finish(ctx, result)
}

// finish persists the final result and fires completion side effects.
// Side-effect failures are logged, never propagated: delivery of the result
// does not depend on them.
func (s *Service) finish(ctx context.Context, result *Result) {
	if err := s.store.Put(ctx, result); err != nil {
		s.logger.Error(ctx, err, "failed to persist triage result", "triage_id", result.ID)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, result); err != nil {
			s.logger.Error(ctx, err, "failed to publish triage event", "triage_id", result.ID)
		}
	}

	if s.notifier != nil && (result.RiskLevel == RiskCritical || result.SLABreachPredicted) {
		if err := s.notifier.Notify(ctx, result); err != nil {
			s.logger.Error(ctx, err, "failed to send triage notification", "triage_id", result.ID)
		}
	}
}

func (s *Service) countSubmit(outcome string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(outcome).Inc()
	}
}
