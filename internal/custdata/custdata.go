// Package custdata provides per-domain customer-context records. Records are
// opaque JSON blobs: the pipeline passes them through to response generation
// and validation verbatim, never parsing them.
package custdata

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Provider looks up the customer-context record for a domain.
type Provider interface {
	Lookup(domainID string) (json.RawMessage, bool)
}

// Static serves records from an in-memory map, optionally loaded from a JSON
// file keyed by domain ID.
type Static struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

// NewStatic creates a provider pre-loaded with the built-in sample records.
func NewStatic() *Static {
	s := &Static{records: make(map[string]json.RawMessage)}
	for id, rec := range builtins {
		s.records[id] = json.RawMessage(rec)
	}
	return s
}

// Lookup returns the record for a domain ID.
func (s *Static) Lookup(domainID string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[domainID]
	return rec, ok
}

// Set stores a record for a domain ID.
func (s *Static) Set(domainID string, rec json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[domainID] = rec
}

// LoadFile reads a JSON object mapping domain IDs to records. File entries
// override built-ins with the same ID.
func (s *Static) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("read customer data file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse customer data file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range doc {
		s.records[id] = rec
	}
	return nil
}

// builtins are sample records for the reference domains. Real deployments
// load these from the customer-data file.
var builtins = map[string]string{
	"bny": `{
		"customer_id": "BNY-884213",
		"tier": "private-client",
		"accounts": [
			{"id": "CHK-5501", "type": "checking", "balance": 42180.55},
			{"id": "INV-9033", "type": "managed-portfolio", "balance": 1250400.00}
		],
		"recent_transactions": [
			{"id": "TXN-77120", "amount": -3500.00, "description": "Wire transfer", "date": "2026-08-27"},
			{"id": "TXN-77098", "amount": -45.00, "description": "Monthly advisory fee", "date": "2026-08-25"}
		]
	}`,
	"zepto": `{
		"customer_id": "ZPT-1190442",
		"plan": "zepto-pass",
		"recent_orders": [
			{"id": "ORD-58812", "status": "out_for_delivery", "eta_minutes": 14, "total": 21.40},
			{"id": "ORD-58703", "status": "delivered", "delivered_late": true, "total": 33.75}
		]
	}`,
}
