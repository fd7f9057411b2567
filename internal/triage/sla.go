package triage

import "github.com/linnemanlabs/frontline/internal/domain"

// Fixed SLA reasons, in precedence order.
const (
	SLAReasonCriticalRisk = "Critical Risk Score"
	SLAReasonHighRisk     = "High Risk Score"
	SLAReasonComplaint    = "Complaint Priority"
	SLAReasonUrgentIntent = "Urgent Intent Classification"
	SLAReasonStandard     = "Standard workflow applies"
)

// EstimateSLA predicts whether the domain's resolution target will be missed
// for a message with the given intent and risk level. A breach is predicted
// only for urgent cases whose target window is under one hour.
func EstimateSLA(intent Intent, level RiskLevel, d *domain.Config) SLAAssessment {
	isUrgent := level == RiskHigh || level == RiskCritical || intent == IntentComplaint

	target := d.SLAThresholds.StandardHours
	if isUrgent {
		target = d.SLAThresholds.UrgentHours
	}

	var reason string
	switch {
	case level == RiskCritical:
		reason = SLAReasonCriticalRisk
	case level == RiskHigh:
		reason = SLAReasonHighRisk
	case intent == IntentComplaint:
		reason = SLAReasonComplaint
	case isUrgent:
		reason = SLAReasonUrgentIntent
	default:
		reason = SLAReasonStandard
	}

	return SLAAssessment{
		BreachPredicted: isUrgent && target < 1,
		TargetHours:     target,
		Reason:          reason,
	}
}
