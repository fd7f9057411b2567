// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/frontline/internal/triage"
)

// Store holds triage results in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	results map[string]*triage.Result        // triage ID -> result
	steps   map[string][]triage.ProgressStep // triage ID -> ordered steps
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		results: make(map[string]*triage.Result),
		steps:   make(map[string][]triage.ProgressStep),
	}
}

// Get retrieves a triage result by its ID. Returns a copy with its appended
// steps attached.
func (s *Store) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	if len(cp.Steps) == 0 && len(s.steps[id]) > 0 {
		cp.Steps = append([]triage.ProgressStep(nil), s.steps[id]...)
	}
	return &cp, true, nil
}

// Put stores a copy of the triage result.
func (s *Store) Put(_ context.Context, r *triage.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.results[r.ID] = &cp
	return nil
}

// ListByDomain returns the most recent results for a domain, newest first.
func (s *Store) ListByDomain(_ context.Context, domainID string, limit int) ([]*triage.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*triage.Result
	for _, r := range s.results {
		if r.DomainID != domainID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendStep records one progress step for a run.
func (s *Store) AppendStep(_ context.Context, triageID string, _ int, step *triage.ProgressStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[triageID] = append(s.steps[triageID], *step)
	return nil
}
