// Package triage provides the business boundary for Frontline's
// customer-message triage pipeline. It defines the Service (lifecycle, async
// dispatch, persistence, notification), Engine (the sequential decision
// pipeline: intent classification, risk scoring, SLA estimation, team
// routing, response generation, response validation), Store interface, and
// domain models. The pipeline is a closed failure boundary: every external
// call degrades to a documented fallback and Run always returns a complete
// Result.
package triage
