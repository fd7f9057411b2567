package triage

import "sort"

// Core team names. Domain-specific teams come from registered DomainRules.
const (
	TeamDefault        = "customer-support"
	TeamComplianceLeg  = "compliance-legal"
	TeamLeadership     = "leadership"
	TeamCrisisResponse = "crisis-response"
	TeamRiskManagement = "risk-management"
	TeamEscalationLead = "escalation-lead"
	TeamRetention      = "customer-retention"
	TeamQualityAssur   = "quality-assurance"
	TeamProduct        = "product"
	TeamResearch       = "customer-research"
)

// DomainRule contributes extra teams for one domain, conditioned on the
// classified intent and risk level. Rules are registered, not branched on
// inline, so new domains are added without touching the router.
type DomainRule interface {
	Teams(intent Intent, level RiskLevel) []string
}

// DomainRuleFunc adapts a plain function to DomainRule.
type DomainRuleFunc func(intent Intent, level RiskLevel) []string

// Teams implements DomainRule.
func (f DomainRuleFunc) Teams(intent Intent, level RiskLevel) []string {
	return f(intent, level)
}

// Router decides which internal teams are notified for a message. Routing is
// pure: the same inputs always produce the same sorted team set.
type Router struct {
	rules map[string]DomainRule
}

// NewRouter creates a router pre-loaded with the built-in domain rules.
func NewRouter() *Router {
	r := &Router{rules: make(map[string]DomainRule)}
	for id, rule := range builtinRules() {
		r.rules[id] = rule
	}
	return r
}

// RegisterRule adds or replaces the rule for a domain ID.
func (r *Router) RegisterRule(domainID string, rule DomainRule) {
	r.rules[domainID] = rule
}

// Route returns the sorted, non-empty set of teams to notify. CRITICAL risk
// replaces the default team with the crisis set; all other tiers retain it.
// Intent additions are independent of risk additions.
func (r *Router) Route(intent Intent, level RiskLevel, domainID string) []string {
	teams := map[string]struct{}{TeamDefault: {}}

	switch level {
	case RiskCritical:
		delete(teams, TeamDefault)
		teams[TeamComplianceLeg] = struct{}{}
		teams[TeamLeadership] = struct{}{}
		teams[TeamCrisisResponse] = struct{}{}
	case RiskHigh:
		teams[TeamRiskManagement] = struct{}{}
		teams[TeamEscalationLead] = struct{}{}
	}

	switch intent {
	case IntentComplaint:
		teams[TeamRetention] = struct{}{}
		teams[TeamQualityAssur] = struct{}{}
	case IntentFeedback:
		teams[TeamProduct] = struct{}{}
		teams[TeamResearch] = struct{}{}
	}

	if rule, ok := r.rules[domainID]; ok {
		for _, t := range rule.Teams(intent, level) {
			teams[t] = struct{}{}
		}
	}

	out := make([]string, 0, len(teams))
	for t := range teams {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func builtinRules() map[string]DomainRule {
	return map[string]DomainRule{
		"bny": DomainRuleFunc(func(intent Intent, level RiskLevel) []string {
			var teams []string
			if level == RiskHigh || level == RiskCritical {
				teams = append(teams, "fraud-operations")
			}
			if intent == IntentComplaint {
				teams = append(teams, "relationship-management")
			}
			return teams
		}),
		"zepto": DomainRuleFunc(func(intent Intent, level RiskLevel) []string {
			var teams []string
			if level == RiskHigh || level == RiskCritical {
				teams = append(teams, "delivery-operations")
			}
			if intent == IntentComplaint {
				teams = append(teams, "courier-quality")
			}
			return teams
		}),
	}
}
