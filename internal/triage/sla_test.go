package triage

import "testing"

func TestEstimateSLA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		intent      Intent
		level       RiskLevel
		wantBreach  bool
		wantTarget  float64
		wantReason  string
		useDelivery bool
	}{
		{
			name:       "low risk query is standard",
			intent:     IntentQuery,
			level:      RiskLow,
			wantBreach: false,
			wantTarget: 24,
			wantReason: SLAReasonStandard,
		},
		{
			name:       "medium risk query is standard",
			intent:     IntentQuery,
			level:      RiskMedium,
			wantBreach: false,
			wantTarget: 24,
			wantReason: SLAReasonStandard,
		},
		{
			name:       "high risk uses urgent target",
			intent:     IntentQuery,
			level:      RiskHigh,
			wantBreach: false, // 2h target, not under an hour
			wantTarget: 2,
			wantReason: SLAReasonHighRisk,
		},
		{
			name:       "critical risk uses urgent target",
			intent:     IntentQuery,
			level:      RiskCritical,
			wantBreach: false,
			wantTarget: 2,
			wantReason: SLAReasonCriticalRisk,
		},
		{
			name:       "complaint alone is urgent",
			intent:     IntentComplaint,
			level:      RiskLow,
			wantBreach: false,
			wantTarget: 2,
			wantReason: SLAReasonComplaint,
		},
		{
			name:       "critical reason outranks complaint",
			intent:     IntentComplaint,
			level:      RiskCritical,
			wantBreach: false,
			wantTarget: 2,
			wantReason: SLAReasonCriticalRisk,
		},
		{
			name:       "high reason outranks complaint",
			intent:     IntentComplaint,
			level:      RiskHigh,
			wantBreach: false,
			wantTarget: 2,
			wantReason: SLAReasonHighRisk,
		},
		{
			name:        "sub-hour urgent target predicts breach",
			intent:      IntentQuery,
			level:       RiskHigh,
			wantBreach:  true,
			wantTarget:  0.25,
			wantReason:  SLAReasonHighRisk,
			useDelivery: true,
		},
		{
			name:        "complaint with sub-hour target predicts breach",
			intent:      IntentComplaint,
			level:       RiskLow,
			wantBreach:  true,
			wantTarget:  0.25,
			wantReason:  SLAReasonComplaint,
			useDelivery: true,
		},
		{
			name:        "standard path never breaches even under an hour",
			intent:      IntentFeedback,
			level:       RiskLow,
			wantBreach:  false,
			wantTarget:  2,
			wantReason:  SLAReasonStandard,
			useDelivery: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := testDomain()
			if tt.useDelivery {
				d = testDeliveryDomain()
			}

			got := EstimateSLA(tt.intent, tt.level, d)
			if got.BreachPredicted != tt.wantBreach {
				t.Errorf("breach = %v, want %v", got.BreachPredicted, tt.wantBreach)
			}
			if got.TargetHours != tt.wantTarget {
				t.Errorf("target = %v, want %v", got.TargetHours, tt.wantTarget)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
