package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          *prometheus.HistogramVec
	StageDuration        *prometheus.HistogramVec
	StageWarningsTotal   *prometheus.CounterVec
	RiskLevelTotal       *prometheus.CounterVec
	IntentTotal          *prometheus.CounterVec
	BreachPredictedTotal prometheus.Counter
	ValidationFailed     prometheus.Counter
	LLMCallsTotal        *prometheus.CounterVec
	LLMTokensIn          prometheus.Counter
	LLMTokensOut         prometheus.Counter
	LLMDuration          *prometheus.HistogramVec
	SubmitsTotal         *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_triage_runs_total",
			Help: "Total triage runs by domain and risk level.",
		}, []string{"domain", "risk_level"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontline_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"domain"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8), // 10ms .. ~163s
		}, []string{"stage", "status"}),
		StageWarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_stage_warnings_total",
			Help: "Stage completions with warning or error status.",
		}, []string{"stage"}),
		RiskLevelTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_risk_level_total",
			Help: "Triage runs by computed risk level.",
		}, []string{"level"}),
		IntentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_intent_total",
			Help: "Triage runs by classified intent.",
		}, []string{"intent"}),
		BreachPredictedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontline_sla_breach_predicted_total",
			Help: "Triage runs with a predicted SLA breach.",
		}),
		ValidationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontline_validation_failed_total",
			Help: "Triage runs whose reply was flagged by the validator.",
		}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_llm_calls_total",
			Help: "Total LLM provider calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontline_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontline_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frontline_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9), // 0.25s .. ~64s
		}, []string{"stage"}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontline_submits_total",
			Help: "Total message submissions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.StageDuration,
		m.StageWarningsTotal,
		m.RiskLevelTotal,
		m.IntentTotal,
		m.BreachPredictedTotal,
		m.ValidationFailed,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.SubmitsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(stage Stage, inputTokens, outputTokens int, duration float64, failed bool) {
			outcome := "success"
			if failed {
				outcome = "error"
			}
			m.LLMCallsTotal.WithLabelValues(string(stage), outcome).Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.WithLabelValues(string(stage)).Observe(duration)
		},
		OnStage: func(stage Stage, status StepStatus, duration float64) {
			m.StageDuration.WithLabelValues(string(stage), string(status)).Observe(duration)
			if status == StepWarning || status == StepError {
				m.StageWarningsTotal.WithLabelValues(string(stage)).Inc()
			}
		},
		OnComplete: func(e *CompleteEvent) {
			m.RunsTotal.WithLabelValues(e.DomainID, string(e.RiskLevel)).Inc()
			m.RunDuration.WithLabelValues(e.DomainID).Observe(e.Duration)
			m.RiskLevelTotal.WithLabelValues(string(e.RiskLevel)).Inc()
			m.IntentTotal.WithLabelValues(string(e.Intent)).Inc()
			if e.BreachPredicted {
				m.BreachPredictedTotal.Inc()
			}
			if !e.ValidationPassed {
				m.ValidationFailed.Inc()
			}
		},
	}
}
