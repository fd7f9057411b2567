package triage

import "time"

// Status tracks where a triage run is in its lifecycle.
type Status string

const (
	// StatusPending means created, not yet started
	StatusPending Status = "pending"

	// StatusInProgress means currently being processed
	StatusInProgress Status = "in_progress"

	// StatusComplete means finished (possibly with degraded stages)
	StatusComplete Status = "complete"
)

// Intent is the coarse categorical purpose of a customer message.
type Intent string

const (
	IntentQuery     Intent = "QUERY"
	IntentFeedback  Intent = "FEEDBACK"
	IntentComplaint Intent = "COMPLAINT"
	IntentUnknown   Intent = "UNKNOWN"
)

// RiskLevel buckets the numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Stage identifies one sequential unit of the pipeline.
type Stage string

const (
	StageClassify Stage = "classify"
	StageScore    Stage = "score"
	StageSLA      Stage = "sla"
	StageRoute    Stage = "route"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{StageClassify, StageScore, StageSLA, StageRoute, StageGenerate, StageValidate}

// StepStatus is the reported status of a progress step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepWarning StepStatus = "warning"
	StepError   StepStatus = "error"
)

// ProgressStep is one progress emission from the pipeline. A stage emits a
// pending step on entry and a terminal step on exit; consumers treat
// same-stage emissions as an update in place.
type ProgressStep struct {
	Stage     Stage      `json:"stage"`
	Message   string     `json:"message"`
	Status    StepStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// ConversationMessage is one prior turn of the customer conversation.
type ConversationMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// RiskAssessment is the deterministic keyword-based risk result.
type RiskAssessment struct {
	Score int       `json:"score"` // 0..100
	Level RiskLevel `json:"level"`
}

// SLAAssessment predicts whether the resolution target will be missed.
type SLAAssessment struct {
	BreachPredicted bool    `json:"breach_predicted"`
	TargetHours     float64 `json:"target_hours"`
	Reason          string  `json:"reason"`
}

// ActionKind distinguishes suggested actions that fetch data from ones that
// trigger an operation.
type ActionKind string

const (
	ActionData   ActionKind = "data"
	ActionAction ActionKind = "action"
)

// SuggestedAction is a follow-up the assistant offers alongside its reply.
type SuggestedAction struct {
	Label   string     `json:"label"`
	Trigger string     `json:"trigger"`
	Kind    ActionKind `json:"kind"`
}

// Result is the outcome of a triage run. It is complete on every return,
// even when every external call degraded to its fallback.
type Result struct {
	ID       string `json:"id"`
	DomainID string `json:"domain"`
	Message  string `json:"message"`
	Status   Status `json:"status"`

	Reply   string            `json:"reply,omitempty"`
	Actions []SuggestedAction `json:"actions,omitempty"`

	Intent             Intent    `json:"intent,omitempty"`
	RiskScore          int       `json:"risk_score"`
	RiskLevel          RiskLevel `json:"risk_level,omitempty"`
	SLABreachPredicted bool      `json:"sla_breach_predicted"`
	SLATargetHours     float64   `json:"sla_target_hours,omitempty"`
	SLAReason          string    `json:"sla_reason,omitempty"`
	NotifiedTeams      []string  `json:"notified_teams,omitempty"`
	ValidationPassed   bool      `json:"validation_passed"`
	ValidationReason   string    `json:"validation_reason,omitempty"`

	Steps []ProgressStep `json:"steps,omitempty"`

	CreatedAt        time.Time `json:"created_at"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
	Duration         float64   `json:"duration_seconds,omitempty"`
	LLMCalls         int       `json:"llm_calls,omitempty"`
	InputTokensUsed  int       `json:"input_tokens_used,omitempty"`
	OutputTokensUsed int       `json:"output_tokens_used,omitempty"`
	Model            string    `json:"model,omitempty"`
}

// LatestSteps collapses the ordered step emissions to the latest emission per
// stage, preserving first-seen stage order. This is the observable trace;
// Steps keeps the full sequence for replay.
func (r *Result) LatestSteps() []ProgressStep {
	idx := make(map[Stage]int, len(Stages))
	out := make([]ProgressStep, 0, len(Stages))
	for _, s := range r.Steps {
		if i, ok := idx[s.Stage]; ok {
			out[i] = s
			continue
		}
		idx[s.Stage] = len(out)
		out = append(out, s)
	}
	return out
}
