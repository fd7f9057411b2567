package triage

import "context"

// Store is the persistence interface for triage results.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	Put(ctx context.Context, result *Result) error
	ListByDomain(ctx context.Context, domainID string, limit int) ([]*Result, error)
	AppendStep(ctx context.Context, triageID string, seq int, step *ProgressStep) error
}
