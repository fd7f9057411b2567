package triage

import (
	"slices"
	"sort"
	"testing"
)

func TestRoute_BaselineIsDefaultTeam(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	got := r.Route(IntentQuery, RiskLow, "unregistered-domain")
	want := []string{TeamDefault}
	if !slices.Equal(got, want) {
		t.Errorf("teams = %v, want %v", got, want)
	}
}

func TestRoute_CriticalReplacesDefault(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	got := r.Route(IntentQuery, RiskCritical, "unregistered-domain")

	if slices.Contains(got, TeamDefault) {
		t.Errorf("critical routing should drop %q, got %v", TeamDefault, got)
	}
	for _, want := range []string{TeamComplianceLeg, TeamLeadership, TeamCrisisResponse} {
		if !slices.Contains(got, want) {
			t.Errorf("teams = %v, missing %q", got, want)
		}
	}
}

func TestRoute_HighAddsEscalationTeams(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	got := r.Route(IntentQuery, RiskHigh, "unregistered-domain")

	for _, want := range []string{TeamDefault, TeamRiskManagement, TeamEscalationLead} {
		if !slices.Contains(got, want) {
			t.Errorf("teams = %v, missing %q", got, want)
		}
	}
}

func TestRoute_IntentAdditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		intent Intent
		want   []string
	}{
		{"complaint", IntentComplaint, []string{TeamRetention, TeamQualityAssur}},
		{"feedback", IntentFeedback, []string{TeamProduct, TeamResearch}},
	}

	r := NewRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := r.Route(tt.intent, RiskLow, "unregistered-domain")
			for _, team := range tt.want {
				if !slices.Contains(got, team) {
					t.Errorf("teams = %v, missing %q", got, team)
				}
			}
			if !slices.Contains(got, TeamDefault) {
				t.Errorf("teams = %v, missing %q", got, TeamDefault)
			}
		})
	}
}

func TestRoute_IntentAndRiskCompose(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	got := r.Route(IntentComplaint, RiskCritical, "unregistered-domain")

	for _, want := range []string{
		TeamComplianceLeg, TeamLeadership, TeamCrisisResponse,
		TeamRetention, TeamQualityAssur,
	} {
		if !slices.Contains(got, want) {
			t.Errorf("teams = %v, missing %q", got, want)
		}
	}
	if slices.Contains(got, TeamDefault) {
		t.Errorf("teams = %v, should not contain %q", got, TeamDefault)
	}
}

func TestRoute_DomainRules(t *testing.T) {
	t.Parallel()

	r := NewRouter()

	got := r.Route(IntentComplaint, RiskHigh, "bny")
	for _, want := range []string{"fraud-operations", "relationship-management"} {
		if !slices.Contains(got, want) {
			t.Errorf("bny teams = %v, missing %q", got, want)
		}
	}

	got = r.Route(IntentQuery, RiskCritical, "zepto")
	if !slices.Contains(got, "delivery-operations") {
		t.Errorf("zepto teams = %v, missing delivery-operations", got)
	}
	if slices.Contains(got, "courier-quality") {
		t.Errorf("zepto teams = %v, courier-quality is complaint-only", got)
	}
}

func TestRoute_RegisterRuleOverrides(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	r.RegisterRule("acme", DomainRuleFunc(func(_ Intent, level RiskLevel) []string {
		if level == RiskCritical {
			return []string{"acme-war-room"}
		}
		return nil
	}))

	got := r.Route(IntentQuery, RiskCritical, "acme")
	if !slices.Contains(got, "acme-war-room") {
		t.Errorf("teams = %v, missing acme-war-room", got)
	}
}

func TestRoute_SortedAndDeduplicated(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	// Rule returning a team the router already added must not duplicate it.
	r.RegisterRule("dup", DomainRuleFunc(func(_ Intent, _ RiskLevel) []string {
		return []string{TeamRiskManagement, TeamRiskManagement}
	}))

	got := r.Route(IntentQuery, RiskHigh, "dup")
	if !sort.StringsAreSorted(got) {
		t.Errorf("teams not sorted: %v", got)
	}
	seen := make(map[string]int)
	for _, team := range got {
		seen[team]++
	}
	if seen[TeamRiskManagement] != 1 {
		t.Errorf("team %q appears %d times, want 1", TeamRiskManagement, seen[TeamRiskManagement])
	}
}

func TestRoute_NeverEmpty(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	for _, intent := range []Intent{IntentQuery, IntentFeedback, IntentComplaint, IntentUnknown} {
		for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
			if got := r.Route(intent, level, "unregistered-domain"); len(got) == 0 {
				t.Errorf("Route(%s, %s) returned no teams", intent, level)
			}
		}
	}
}
