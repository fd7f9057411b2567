// Package kafka publishes triage lifecycle events to a Kafka topic so
// downstream consumers (analytics, workforce planning) can react to
// completed runs without polling the API.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/linnemanlabs/frontline/internal/triage"
)

// Publisher writes triage-completed events to Kafka.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Lz4,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, topic: topic}
}

// completedEvent is the wire shape of a triage-completed event. Fields are a
// stable summary of the run; the full record stays in the store.
type completedEvent struct {
	ID                 string    `json:"id"`
	Domain             string    `json:"domain"`
	Intent             string    `json:"intent"`
	RiskScore          int       `json:"risk_score"`
	RiskLevel          string    `json:"risk_level"`
	SLABreachPredicted bool      `json:"sla_breach_predicted"`
	SLATargetHours     float64   `json:"sla_target_hours"`
	NotifiedTeams      []string  `json:"notified_teams"`
	ValidationPassed   bool      `json:"validation_passed"`
	DurationSeconds    float64   `json:"duration_seconds"`
	LLMCalls           int       `json:"llm_calls"`
	CompletedAt        time.Time `json:"completed_at"`
}

// Publish emits one triage-completed event keyed by triage ID, so all events
// for a run land on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, r *triage.Result) error {
	evt := completedEvent{
		ID:                 r.ID,
		Domain:             r.DomainID,
		Intent:             string(r.Intent),
		RiskScore:          r.RiskScore,
		RiskLevel:          string(r.RiskLevel),
		SLABreachPredicted: r.SLABreachPredicted,
		SLATargetHours:     r.SLATargetHours,
		NotifiedTeams:      r.NotifiedTeams,
		ValidationPassed:   r.ValidationPassed,
		DurationSeconds:    r.Duration,
		LLMCalls:           r.LLMCalls,
		CompletedAt:        r.CompletedAt,
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("triage.completed")},
			{Key: "domain", Value: []byte(r.DomainID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes pending batches and releases writer resources.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
