package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/frontline/internal/domain"
)

// tracer resolves at call time so spans follow the current global tracer
// provider rather than the one installed when this package initialized.
func tracer() trace.Tracer {
	return otel.Tracer("github.com/linnemanlabs/frontline/internal/triage")
}

// Request is one triage run's input. Domain and CustomerContext are resolved
// by the caller (Service) and treated as read-only; the engine never retains
// them past the run.
type Request struct {
	Message         string
	History         []ConversationMessage
	Domain          *domain.Config
	CustomerContext json.RawMessage
}

// StepFunc receives progress steps as the pipeline advances. Emission order
// is strict: a stage's terminal step is delivered before the next stage's
// pending step.
type StepFunc func(step ProgressStep)

// EngineHooks are optional observation callbacks, wired to metrics by main.
type EngineHooks struct {
	OnLLMCall  func(stage Stage, inputTokens, outputTokens int, duration float64, failed bool)
	OnStage    func(stage Stage, status StepStatus, duration float64)
	OnComplete func(e *CompleteEvent)
}

// CompleteEvent summarizes a finished run for the OnComplete hook.
type CompleteEvent struct {
	DomainID         string
	Intent           Intent
	RiskLevel        RiskLevel
	BreachPredicted  bool
	ValidationPassed bool
	Duration         float64
	LLMCalls         int
	TokensIn         int
	TokensOut        int
	Model            string
}

// Engine is the decision pipeline: classification, risk scoring, SLA
// estimation, team routing, response generation, and response validation,
// executed in that order on every run. The engine is a closed failure
// boundary: each external call degrades to its documented fallback and Run
// always returns a complete Result.
type Engine struct {
	provider Provider
	router   *Router
	logger   log.Logger
	hooks    EngineHooks
}

// NewEngine creates a pipeline engine. The provider is an explicit dependency
// so callers control its lifetime (fresh per credential rotation if needed).
func NewEngine(provider Provider, router *Router, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if router == nil {
		router = NewRouter()
	}
	return &Engine{
		provider: provider,
		router:   router,
		logger:   logger,
		hooks:    hooks,
	}
}

// run carries one triage run's mutable state through the stages.
type run struct {
	e          *Engine
	id         string
	result     *Result
	onStep     StepFunc
	stageStart time.Time
}

// Run executes the full pipeline for a message. Every run visits every stage;
// local stage failures are absorbed into fallback values, reported as warning
// steps, and never propagated. The returned Result is complete even when all
// three external calls failed.
func (e *Engine) Run(ctx context.Context, triageID string, req *Request, onStep StepFunc) *Result {
	start := time.Now()

	result := &Result{
		ID:               triageID,
		DomainID:         req.Domain.ID,
		Message:          req.Message,
		Status:           StatusInProgress,
		ValidationPassed: true,
		CreatedAt:        start,
	}

	r := &run{e: e, id: triageID, result: result, onStep: onStep}

	L := e.logger.With("triage_id", triageID, "domain", req.Domain.ID)

	// classify
	r.enter(StageClassify, "Classifying message intent")
	intent, err := r.classifyIntent(ctx, req.Message, req.Domain.Name)
	if err != nil {
		L.Warn(ctx, "intent classification degraded", "error", err)
		r.exit(StageClassify, StepWarning, "Intent classification unavailable, defaulting to QUERY")
	} else {
		r.exit(StageClassify, StepSuccess, fmt.Sprintf("Intent classified as %s", intent))
	}
	result.Intent = intent

	// score
	r.enter(StageScore, "Scoring message risk")
	risk := ScoreRisk(req.Message, req.Domain)
	result.RiskScore = risk.Score
	result.RiskLevel = risk.Level
	r.exit(StageScore, StepSuccess, fmt.Sprintf("Risk scored %d (%s)", risk.Score, risk.Level))

	// sla
	r.enter(StageSLA, "Estimating resolution target")
	sla := EstimateSLA(intent, risk.Level, req.Domain)
	result.SLABreachPredicted = sla.BreachPredicted
	result.SLATargetHours = sla.TargetHours
	result.SLAReason = sla.Reason
	if sla.BreachPredicted {
		r.exit(StageSLA, StepWarning, fmt.Sprintf("Breach predicted against %.2fh target (%s)", sla.TargetHours, sla.Reason))
	} else {
		r.exit(StageSLA, StepSuccess, fmt.Sprintf("Target %.2fh (%s)", sla.TargetHours, sla.Reason))
	}

	// route
	r.enter(StageRoute, "Routing to teams")
	teams := e.router.Route(intent, risk.Level, req.Domain.ID)
	result.NotifiedTeams = teams
	r.exit(StageRoute, StepSuccess, fmt.Sprintf("Notifying %d team(s)", len(teams)))

	// generate
	r.enter(StageGenerate, "Generating response")
	reply, actions, err := r.generateReply(ctx, req.Message, req.History, intent, risk, sla, teams, req.CustomerContext, req.Domain)
	if err != nil {
		L.Warn(ctx, "response generation degraded", "error", err)
		r.exit(StageGenerate, StepWarning, "Response generation unavailable, using fallback reply")
	} else {
		r.exit(StageGenerate, StepSuccess, "Response generated")
	}
	result.Reply = reply
	result.Actions = actions

	// validate
	r.enter(StageValidate, "Validating response")
	valid, reason, err := r.validateReply(ctx, req.Message, intent, risk, req.CustomerContext, reply)
	result.ValidationPassed = valid
	result.ValidationReason = reason
	switch {
	case err != nil:
		L.Warn(ctx, "response validation degraded", "error", err)
		r.exit(StageValidate, StepWarning, ValidationUnavailableReason)
	case !valid:
		r.exit(StageValidate, StepWarning, fmt.Sprintf("Response flagged by validator: %s", reason))
	default:
		r.exit(StageValidate, StepSuccess, "Response validated")
	}

	result.Status = StatusComplete
	result.CompletedAt = time.Now()
	result.Duration = time.Since(start).Seconds()

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(&CompleteEvent{
			DomainID:         result.DomainID,
			Intent:           result.Intent,
			RiskLevel:        result.RiskLevel,
			BreachPredicted:  result.SLABreachPredicted,
			ValidationPassed: result.ValidationPassed,
			Duration:         result.Duration,
			LLMCalls:         result.LLMCalls,
			TokensIn:         result.InputTokensUsed,
			TokensOut:        result.OutputTokensUsed,
			Model:            result.Model,
		})
	}

	L.Info(ctx, "triage complete",
		"intent", result.Intent,
		"risk_score", result.RiskScore,
		"risk_level", result.RiskLevel,
		"breach_predicted", result.SLABreachPredicted,
		"teams", result.NotifiedTeams,
		"validation_passed", result.ValidationPassed,
		"duration", result.Duration,
		"llm_calls", result.LLMCalls,
	)

	return result
}

// enter emits a stage's pending step and marks the stage start time.
func (r *run) enter(stage Stage, msg string) {
	r.stageStart = time.Now()
	r.emit(ProgressStep{Stage: stage, Message: msg, Status: StepPending, Timestamp: r.stageStart})
}

// exit emits a stage's terminal step and fires the stage hook.
func (r *run) exit(stage Stage, status StepStatus, msg string) {
	now := time.Now()
	r.emit(ProgressStep{Stage: stage, Message: msg, Status: status, Timestamp: now})
	if r.e.hooks.OnStage != nil {
		r.e.hooks.OnStage(stage, status, now.Sub(r.stageStart).Seconds())
	}
}

func (r *run) emit(step ProgressStep) {
	r.result.Steps = append(r.result.Steps, step)
	if r.onStep != nil {
		r.onStep(step)
	}
}

// call sends one LLM request, recording a span, token usage, and the LLM
// hook. Each call site is attempted exactly once; retries and timeouts are
// the transport's concern.
func (r *run) call(ctx context.Context, stage Stage, req *LLMRequest) (*LLMResponse, error) {
	ctx, span := tracer().Start(ctx, "llm.call", trace.WithAttributes(
		attribute.String("gen_ai.operation.name", "llm.call"),
		attribute.String("frontline.triage.id", r.id),
		attribute.String("frontline.stage", string(stage)),
	))
	defer span.End()

	start := time.Now()
	resp, err := r.e.provider.Send(ctx, req)
	dur := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if r.e.hooks.OnLLMCall != nil {
			r.e.hooks.OnLLMCall(stage, 0, 0, dur, true)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.Model),
		attribute.Int("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)

	r.result.LLMCalls++
	r.result.InputTokensUsed += resp.Usage.InputTokens
	r.result.OutputTokensUsed += resp.Usage.OutputTokens
	if resp.Model != "" {
		r.result.Model = resp.Model
	}

	if r.e.hooks.OnLLMCall != nil {
		r.e.hooks.OnLLMCall(stage, resp.Usage.InputTokens, resp.Usage.OutputTokens, dur, false)
	}

	return resp, nil
}
