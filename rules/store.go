package rules

import (
	"fmt"
	"sync"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// STORE - Process-wide mutable configuration with snapshot reads
// =============================================================================

// Store holds the live rule configuration. Writes validate eagerly and
// take the write lock; Snapshot returns a deep copy so engines never
// observe a mid-computation edit.
type Store struct {
	mu           sync.RWMutex
	coefficients []QuotaCoefficient
	tiers        []FeeTier
	stages       []DiscountStage
	alerts       []AlertRule
	billing      BillingSettings
}

// NewStore creates a store seeded with the given rule set. The seed must
// already be valid (use ValidateSnapshot for untrusted input).
func NewStore(seed Snapshot) *Store {
	s := &Store{}
	s.replace(seed)
	return s
}

// NewDefaultStore creates a store seeded with the built-in rule set.
func NewDefaultStore() *Store {
	return NewStore(Defaults())
}

func (s *Store) replace(snap Snapshot) {
	s.coefficients = append([]QuotaCoefficient(nil), snap.Coefficients...)
	s.tiers = SortTiers(snap.Tiers)
	s.stages = append([]DiscountStage(nil), snap.Stages...)
	s.alerts = append([]AlertRule(nil), snap.Alerts...)
	s.billing = snap.Billing
}

// Snapshot returns a deep read-copy of the current configuration.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Coefficients: append([]QuotaCoefficient(nil), s.coefficients...),
		Tiers:        make([]FeeTier, len(s.tiers)),
		Stages:       append([]DiscountStage(nil), s.stages...),
		Alerts:       append([]AlertRule(nil), s.alerts...),
		Billing:      s.billing,
	}
	// FeeTier holds a pointer; copy the pointee so snapshot readers are
	// isolated from later edits.
	for i, t := range s.tiers {
		if t.MaxExcessPct != nil {
			max := *t.MaxExcessPct
			t.MaxExcessPct = &max
		}
		snap.Tiers[i] = t
	}
	return snap
}

// Replace swaps in a whole new rule set after validating it.
func (s *Store) Replace(snap Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(snap)
	return nil
}

// =============================================================================
// COEFFICIENT CRUD
// =============================================================================

func (s *Store) UpsertCoefficient(c QuotaCoefficient) error {
	if err := ValidateCoefficient(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.coefficients {
		if existing.ID == c.ID {
			s.coefficients[i] = c
			return nil
		}
	}
	s.coefficients = append(s.coefficients, c)
	return nil
}

func (s *Store) DeleteCoefficient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.coefficients {
		if c.ID == id {
			s.coefficients = append(s.coefficients[:i], s.coefficients[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("coefficient %s: %w", id, core.ErrNotFound)
}

// =============================================================================
// TIERS / STAGES - Replaced as whole sets (partition invariants are
// properties of the set, not of single rows)
// =============================================================================

func (s *Store) ReplaceTiers(tiers []FeeTier) error {
	if err := ValidateTiers(tiers); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers = SortTiers(tiers)
	return nil
}

func (s *Store) ReplaceStages(stages []DiscountStage) error {
	if err := ValidateStages(stages); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append([]DiscountStage(nil), stages...)
	return nil
}

// =============================================================================
// ALERT RULE CRUD
// =============================================================================

func (s *Store) UpsertAlertRule(r AlertRule) error {
	if err := ValidateAlertRule(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.alerts {
		if existing.ID == r.ID {
			s.alerts[i] = r
			return nil
		}
	}
	s.alerts = append(s.alerts, r)
	return nil
}

func (s *Store) SetAlertEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.alerts {
		if r.ID == id {
			s.alerts[i].Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("alert rule %s: %w", id, core.ErrNotFound)
}

// =============================================================================
// BILLING SETTINGS
// =============================================================================

func (s *Store) SetBilling(b BillingSettings) error {
	if err := ValidateBilling(b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing = b
	return nil
}
