// Package domain holds per-business-domain triage configuration: SLA
// thresholds and the keyword tiers that drive risk scoring. Configs are
// immutable once registered; the pipeline only reads them.
package domain

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SLAThresholds are the two time-to-resolution targets for a domain, in hours.
type SLAThresholds struct {
	UrgentHours   float64 `yaml:"urgent_hours" json:"urgent_hours"`
	StandardHours float64 `yaml:"standard_hours" json:"standard_hours"`
}

// RiskKeywords are the three keyword tiers contributing to the risk score.
// Phrases are matched case-insensitively as substrings.
type RiskKeywords struct {
	Critical []string `yaml:"critical" json:"critical"`
	High     []string `yaml:"high" json:"high"`
	Medium   []string `yaml:"medium" json:"medium"`
}

// Config is the static triage configuration for one business domain.
type Config struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description" json:"description"`
	SLAThresholds SLAThresholds `yaml:"sla_thresholds" json:"sla_thresholds"`
	RiskKeywords  RiskKeywords  `yaml:"risk_keywords" json:"risk_keywords"`
}

// Validate checks the config for obvious misconfiguration.
func (c *Config) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("domain id is required"))
	}
	if c.SLAThresholds.UrgentHours <= 0 {
		errs = append(errs, fmt.Errorf("domain %q: urgent_hours must be positive, got %v", c.ID, c.SLAThresholds.UrgentHours))
	}
	if c.SLAThresholds.StandardHours <= 0 {
		errs = append(errs, fmt.Errorf("domain %q: standard_hours must be positive, got %v", c.ID, c.SLAThresholds.StandardHours))
	}
	for _, tier := range []struct {
		name    string
		phrases []string
	}{
		{"critical", c.RiskKeywords.Critical},
		{"high", c.RiskKeywords.High},
		{"medium", c.RiskKeywords.Medium},
	} {
		for _, p := range tier.phrases {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Errorf("domain %q: empty phrase in %s tier", c.ID, tier.name))
			}
			if p != strings.ToLower(p) {
				errs = append(errs, fmt.Errorf("domain %q: phrase %q in %s tier must be lowercase", c.ID, p, tier.name))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Registry is a read-mostly lookup of domain configs keyed by ID.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*Config
}

// NewRegistry creates a registry pre-loaded with the built-in domains.
func NewRegistry() *Registry {
	r := &Registry{domains: make(map[string]*Config)}
	for _, d := range builtins() {
		r.domains[d.ID] = d
	}
	return r
}

// Register adds or replaces a domain config after validating it.
func (r *Registry) Register(c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[c.ID] = c
	return nil
}

// Lookup returns the config for a domain ID.
func (r *Registry) Lookup(id string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.domains[id]
	return c, ok
}

// List returns all registered configs sorted by ID.
func (r *Registry) List() []*Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Config, 0, len(r.domains))
	for _, c := range r.domains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadFile reads a YAML file of domain configs and registers each one.
// File entries override built-ins with the same ID.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("read domains file: %w", err)
	}

	var doc struct {
		Domains []*Config `yaml:"domains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse domains file: %w", err)
	}

	for _, c := range doc.Domains {
		if err := r.Register(c); err != nil {
			return fmt.Errorf("register domain: %w", err)
		}
	}
	return nil
}

// builtins returns the domains shipped with the binary. They cover the two
// reference deployments and serve as templates for file-based configs.
func builtins() []*Config {
	return []*Config{
		{
			ID:          "bny",
			Name:        "BNY Private Banking",
			Description: "Wealth management and private banking support",
			SLAThresholds: SLAThresholds{
				UrgentHours:   2,
				StandardHours: 24,
			},
			RiskKeywords: RiskKeywords{
				Critical: []string{"fraud", "unauthorized", "emergency", "stolen", "lawsuit"},
				High:     []string{"locked out", "missing funds", "wrong amount", "dispute", "urgent"},
				Medium:   []string{"fees", "delay", "statement", "confused", "error"},
			},
		},
		{
			ID:          "zepto",
			Name:        "Zepto Quick Commerce",
			Description: "10-minute grocery delivery support",
			SLAThresholds: SLAThresholds{
				UrgentHours:   0.25,
				StandardHours: 2,
			},
			RiskKeywords: RiskKeywords{
				Critical: []string{"food poisoning", "allergic", "injury", "accident"},
				High:     []string{"late", "driver", "never arrived", "missing item", "refund"},
				Medium:   []string{"cold", "damaged", "wrong item", "substitution"},
			},
		},
	}
}
