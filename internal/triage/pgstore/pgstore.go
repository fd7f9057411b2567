// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/frontline/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/frontline/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const runColumns = `id, domain, message, status, reply, actions, intent, risk_score, risk_level,
	sla_breach_predicted, sla_target_hours, sla_reason, notified_teams,
	validation_passed, validation_reason, created_at, completed_at, duration_s,
	llm_calls, input_tokens_used, output_tokens_used, model`

// Get retrieves a triage result by ID, including its progress steps.
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + runColumns + ` FROM triage_runs WHERE id = $1`
	r, err := s.scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}

	if err := s.loadSteps(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	return r, true, nil
}

// Put inserts or updates a triage result (upsert on triage_runs only; steps
// are written through AppendStep).
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	actionsJSON, err := json.Marshal(r.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	teamsJSON, err := json.Marshal(r.NotifiedTeams)
	if err != nil {
		return fmt.Errorf("marshal teams: %w", err)
	}

	var completedAt *time.Time
	if !r.CompletedAt.IsZero() {
		completedAt = &r.CompletedAt
	}

	query := `INSERT INTO triage_runs (` + runColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	ON CONFLICT (id) DO UPDATE SET
		status               = EXCLUDED.status,
		reply                = EXCLUDED.reply,
		actions              = EXCLUDED.actions,
		intent               = EXCLUDED.intent,
		risk_score           = EXCLUDED.risk_score,
		risk_level           = EXCLUDED.risk_level,
		sla_breach_predicted = EXCLUDED.sla_breach_predicted,
		sla_target_hours     = EXCLUDED.sla_target_hours,
		sla_reason           = EXCLUDED.sla_reason,
		notified_teams       = EXCLUDED.notified_teams,
		validation_passed    = EXCLUDED.validation_passed,
		validation_reason    = EXCLUDED.validation_reason,
		completed_at         = EXCLUDED.completed_at,
		duration_s           = EXCLUDED.duration_s,
		llm_calls            = EXCLUDED.llm_calls,
		input_tokens_used    = EXCLUDED.input_tokens_used,
		output_tokens_used   = EXCLUDED.output_tokens_used,
		model                = EXCLUDED.model`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.DomainID, r.Message, string(r.Status), r.Reply, actionsJSON,
		string(r.Intent), r.RiskScore, string(r.RiskLevel),
		r.SLABreachPredicted, r.SLATargetHours, r.SLAReason, teamsJSON,
		r.ValidationPassed, r.ValidationReason, r.CreatedAt, completedAt, r.Duration,
		r.LLMCalls, r.InputTokensUsed, r.OutputTokensUsed, r.Model,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage run: %w", err)
	}
	return nil
}

// ListByDomain returns the most recent results for a domain, newest first.
// Steps are not loaded for list views.
func (s *Store) ListByDomain(ctx context.Context, domainID string, limit int) ([]*triage.Result, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListByDomain", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM triage_runs WHERE domain = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, query, domainID, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list triage runs: %w", err)
	}
	defer rows.Close()

	var out []*triage.Result
	for rows.Next() {
		r, err := s.scanRun(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate triage runs: %w", err)
	}
	return out, nil
}

// AppendStep inserts one progress step row for a run.
func (s *Store) AppendStep(ctx context.Context, triageID string, seq int, step *triage.ProgressStep) error {
	ctx, span := tracer.Start(ctx, "pgstore.AppendStep", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO triage_steps (triage_id, seq, stage, message, status, emitted_at)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (triage_id, seq) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		triageID, seq, string(step.Stage), step.Message, string(step.Status), step.Timestamp,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert step: %w", err)
	}
	return nil
}

func (s *Store) loadSteps(ctx context.Context, r *triage.Result) error {
	query := `SELECT stage, message, status, emitted_at FROM triage_steps WHERE triage_id = $1 ORDER BY seq`
	rows, err := s.pool.Query(ctx, query, r.ID)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st triage.ProgressStep
		var stage, status string
		if err := rows.Scan(&stage, &st.Message, &status, &st.Timestamp); err != nil {
			return fmt.Errorf("scan step: %w", err)
		}
		st.Stage = triage.Stage(stage)
		st.Status = triage.StepStatus(status)
		r.Steps = append(r.Steps, st)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate steps: %w", err)
	}
	return nil
}

func (s *Store) scanRun(row pgx.Row) (*triage.Result, error) {
	var (
		r           triage.Result
		status      string
		intent      string
		riskLevel   string
		actionsJSON []byte
		teamsJSON   []byte
		completedAt *time.Time
	)

	err := row.Scan(
		&r.ID, &r.DomainID, &r.Message, &status, &r.Reply, &actionsJSON,
		&intent, &r.RiskScore, &riskLevel,
		&r.SLABreachPredicted, &r.SLATargetHours, &r.SLAReason, &teamsJSON,
		&r.ValidationPassed, &r.ValidationReason, &r.CreatedAt, &completedAt, &r.Duration,
		&r.LLMCalls, &r.InputTokensUsed, &r.OutputTokensUsed, &r.Model,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan triage run: %w", err)
	}

	r.Status = triage.Status(status)
	r.Intent = triage.Intent(intent)
	r.RiskLevel = triage.RiskLevel(riskLevel)
	if completedAt != nil {
		r.CompletedAt = *completedAt
	}
	if err := json.Unmarshal(actionsJSON, &r.Actions); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	if err := json.Unmarshal(teamsJSON, &r.NotifiedTeams); err != nil {
		return nil, fmt.Errorf("unmarshal teams: %w", err)
	}

	return &r, nil
}
