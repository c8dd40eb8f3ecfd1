/*
validate.go - Constraint checks for rule configuration writes

PURPOSE:
  Enforces the invariants computations rely on, at write time:
    - coefficient values are strictly positive
    - fee tiers partition [0, ∞): sorted, first band starts at 0, bands
      are contiguous, exactly one open-ended top band
    - discount stages are densely indexed from 0 with fractions in (0, 1]
    - alert thresholds are non-negative and severities well-formed
  A failed check returns a *core.ConfigError wrapping
  core.ErrInvalidConfiguration; the store rejects the whole write.
*/
package rules

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/core"
)

// ValidateCoefficient checks a single quota coefficient.
func ValidateCoefficient(c QuotaCoefficient) error {
	switch c.Category {
	case CategoryPersonnel, CategoryStudent, CategoryDiscipline:
	default:
		return &core.ConfigError{Field: "coefficient.category", Reason: fmt.Sprintf("unknown category %q", c.Category)}
	}
	if c.Name == "" {
		return &core.ConfigError{Field: "coefficient.name", Reason: "must not be empty"}
	}
	if !c.Value.IsPositive() {
		return &core.ConfigError{Field: "coefficient.value", Reason: fmt.Sprintf("must be positive, got %s", c.Value)}
	}
	return nil
}

// ValidateTiers checks that the tier set partitions [0, ∞).
// The input is not mutated; callers should store tiers sorted by
// MinExcessPct (SortTiers).
func ValidateTiers(tiers []FeeTier) error {
	if len(tiers) == 0 {
		return &core.ConfigError{Field: "tiers", Reason: "at least one tier is required"}
	}

	sorted := SortTiers(tiers)

	if !sorted[0].MinExcessPct.IsZero() {
		return &core.ConfigError{Field: "tiers", Reason: fmt.Sprintf("first tier must start at 0%%, got %s%%", sorted[0].MinExcessPct)}
	}

	for i, t := range sorted {
		if t.MinExcessPct.IsNegative() {
			return &core.ConfigError{Field: "tiers", Reason: fmt.Sprintf("tier %q has negative lower bound", t.DisplayName)}
		}
		if !t.Multiplier.IsPositive() {
			return &core.ConfigError{Field: "tiers", Reason: fmt.Sprintf("tier %q multiplier must be positive", t.DisplayName)}
		}

		last := i == len(sorted)-1
		if last {
			if t.MaxExcessPct != nil {
				return &core.ConfigError{Field: "tiers", Reason: "top tier must be open-ended"}
			}
			continue
		}
		if t.MaxExcessPct == nil {
			return &core.ConfigError{Field: "tiers", Reason: fmt.Sprintf("only the top tier may be open-ended, tier %q is not last", t.DisplayName)}
		}
		if !t.MaxExcessPct.GreaterThan(t.MinExcessPct) {
			return &core.ConfigError{Field: "tiers", Reason: fmt.Sprintf("tier %q is empty or inverted", t.DisplayName)}
		}
		// Contiguity: this band's upper bound is the next band's lower bound.
		next := sorted[i+1]
		if !t.MaxExcessPct.Equal(next.MinExcessPct) {
			return &core.ConfigError{
				Field:  "tiers",
				Reason: fmt.Sprintf("gap or overlap between %s%% and %s%%", t.MaxExcessPct, next.MinExcessPct),
			}
		}
	}
	return nil
}

// SortTiers returns a copy of tiers ordered by MinExcessPct.
func SortTiers(tiers []FeeTier) []FeeTier {
	sorted := make([]FeeTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinExcessPct.LessThan(sorted[j].MinExcessPct)
	})
	return sorted
}

// ValidateStages checks the discount schedule: indexes 0..n-1 with no
// holes, fractions in (0, 1].
func ValidateStages(stages []DiscountStage) error {
	sorted := make([]DiscountStage, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	one := decimal.NewFromInt(1)
	for i, st := range sorted {
		if st.Index != i {
			return &core.ConfigError{Field: "stages", Reason: fmt.Sprintf("stage indexes must be dense from 0, missing index %d", i)}
		}
		if !st.Fraction.IsPositive() || st.Fraction.GreaterThan(one) {
			return &core.ConfigError{Field: "stages", Reason: fmt.Sprintf("stage %d fraction must be in (0,1], got %s", st.Index, st.Fraction)}
		}
	}
	return nil
}

// ValidateAlertRule checks a single alert rule.
func ValidateAlertRule(r AlertRule) error {
	switch r.Category {
	case AlertUtilization, AlertSafety, AlertFinance:
	default:
		return &core.ConfigError{Field: "alert.category", Reason: fmt.Sprintf("unknown category %q", r.Category)}
	}
	switch r.Severity {
	case SeverityHigh, SeverityMedium, SeverityLow:
	default:
		return &core.ConfigError{Field: "alert.severity", Reason: fmt.Sprintf("unknown severity %q", r.Severity)}
	}
	if r.Direction != "" && r.Direction != DirectionBelow && r.Direction != DirectionAbove {
		return &core.ConfigError{Field: "alert.direction", Reason: fmt.Sprintf("unknown direction %q", r.Direction)}
	}
	if r.Threshold.IsNegative() {
		return &core.ConfigError{Field: "alert.threshold", Reason: "must not be negative"}
	}
	return nil
}

// ValidateBilling checks billing settings.
func ValidateBilling(b BillingSettings) error {
	if !b.BaseRate.IsPositive() {
		return &core.ConfigError{Field: "billing.base_rate", Reason: "must be positive"}
	}
	if b.PaymentDeadline.IsZero() {
		return &core.ConfigError{Field: "billing.payment_deadline", Reason: "must be set"}
	}
	return nil
}

// ValidateSnapshot checks a whole rule set, used when loading a rules file.
func ValidateSnapshot(s Snapshot) error {
	for _, c := range s.Coefficients {
		if err := ValidateCoefficient(c); err != nil {
			return err
		}
	}
	if err := ValidateTiers(s.Tiers); err != nil {
		return err
	}
	if err := ValidateStages(s.Stages); err != nil {
		return err
	}
	for _, r := range s.Alerts {
		if err := ValidateAlertRule(r); err != nil {
			return err
		}
	}
	return ValidateBilling(s.Billing)
}
