package triage

import (
	"strings"

	"github.com/linnemanlabs/frontline/internal/domain"
)

// Keyword tier weights and level thresholds for risk scoring.
const (
	criticalWeight = 40
	highWeight     = 20
	mediumWeight   = 10

	criticalThreshold = 80
	highThreshold     = 50
	mediumThreshold   = 20
)

// ScoreRisk computes the deterministic keyword-based risk assessment for a
// message. Each configured phrase contributes its tier weight at most once,
// matched case-insensitively as a substring; the total saturates at 100.
func ScoreRisk(text string, d *domain.Config) RiskAssessment {
	lower := strings.ToLower(text)

	score := 0
	score += tierScore(lower, d.RiskKeywords.Critical, criticalWeight)
	score += tierScore(lower, d.RiskKeywords.High, highWeight)
	score += tierScore(lower, d.RiskKeywords.Medium, mediumWeight)

	if score > 100 {
		score = 100
	}

	return RiskAssessment{Score: score, Level: levelForScore(score)}
}

func tierScore(lower string, phrases []string, weight int) int {
	score := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			score += weight
		}
	}
	return score
}

// levelForScore maps a clamped score to its risk level. Bounds are inclusive
// and checked highest first.
func levelForScore(score int) RiskLevel {
	switch {
	case score >= criticalThreshold:
		return RiskCritical
	case score >= highThreshold:
		return RiskHigh
	case score >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}
