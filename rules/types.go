/*
Package rules holds the mutable rule configuration that drives every engine.

PURPOSE:
  Operators edit these rules at runtime: quota coefficients (how much area
  a professor or PhD student entitles a department to), fee tiers (how the
  overage multiplier escalates with the excess percentage), time-discount
  stages (early-tenure relief), alert thresholds, and billing settings
  (base rate, annual payment deadline).

  The package is pure data + validation. No computation happens here; the
  quota, fee and alert packages read a Snapshot and compute from it.

CONSISTENCY:
  Validation runs at WRITE time, never at computation time. A computation
  that receives a Snapshot may assume:
    - every coefficient value is positive
    - fee tiers partition [0, ∞) with no gap or overlap
    - discount fractions are in (0, 1] and stages are densely indexed
  Rejected writes return core.ErrInvalidConfiguration.

SNAPSHOT SEMANTICS:
  Store.Snapshot() returns a deep copy. An engine invocation that starts
  with a given snapshot never observes a concurrent configuration edit.

SEE ALSO:
  - validate.go: Constraint checks
  - store.go: The RWMutex-guarded store
  - defaults.go: The built-in rule set
*/
package rules

import (
	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// QUOTA COEFFICIENTS
// =============================================================================

type CoefficientCategory string

const (
	CategoryPersonnel  CoefficientCategory = "Personnel"
	CategoryStudent    CoefficientCategory = "Student"
	CategoryDiscipline CoefficientCategory = "Discipline"
)

// QuotaCoefficient is one entry of the quota model: either an area
// entitlement per person (Personnel/Student, m²/person) or a discipline
// adjustment factor (Discipline, dimensionless).
type QuotaCoefficient struct {
	ID          string
	Category    CoefficientCategory
	Name        string // e.g. "Professor", "PhD Student", "STEM"
	Value       decimal.Decimal
	Unit        string // "m²/person" or "coefficient"
	Description string
}

// =============================================================================
// FEE TIERS - Overage multiplier bands over excess percentage
// =============================================================================

// FeeTier is one band of the tiered overage schedule. The band covers
// excess percentages in [MinExcessPct, MaxExcessPct); the final tier has
// MaxExcessPct == nil and is open-ended.
type FeeTier struct {
	ID           string
	MinExcessPct decimal.Decimal
	MaxExcessPct *decimal.Decimal
	Multiplier   decimal.Decimal
	DisplayName  string
}

// Contains reports whether pct falls inside this tier's band.
func (t FeeTier) Contains(pct decimal.Decimal) bool {
	if pct.LessThan(t.MinExcessPct) {
		return false
	}
	if t.MaxExcessPct == nil {
		return true
	}
	return pct.LessThan(*t.MaxExcessPct)
}

// =============================================================================
// TIME-DISCOUNT STAGES - Tenure-based relief on overage cost
// =============================================================================

// DiscountStage reduces the overage cost during tenure year Index
// (0-based: Index 0 is the first year of occupancy). Tenures past the last
// defined stage pay the full rate.
type DiscountStage struct {
	Index       int
	Description string
	Fraction    decimal.Decimal // in (0, 1]; the bill is cost × Fraction
}

// =============================================================================
// ALERT RULES
// =============================================================================

type AlertCategory string

const (
	AlertUtilization AlertCategory = "Utilization"
	AlertSafety      AlertCategory = "Safety"
	AlertFinance     AlertCategory = "Finance"
)

type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

type Direction string

const (
	DirectionBelow Direction = "Below"
	DirectionAbove Direction = "Above"
)

// AlertRule triggers when a metric of the matching category crosses the
// threshold in the rule's direction. Direction defaults by category
// (Utilization alarms on low values, Safety/Finance on high ones) unless
// explicitly overridden.
type AlertRule struct {
	ID        string
	Name      string
	Category  AlertCategory
	Threshold decimal.Decimal
	Unit      string // "%", "Months", "Days", "Years"
	Enabled   bool
	Severity  Severity
	Direction Direction // empty = derive from Category
}

// EffectiveDirection resolves the comparison direction, applying the
// category default when no override is set.
func (r AlertRule) EffectiveDirection() Direction {
	if r.Direction != "" {
		return r.Direction
	}
	if r.Category == AlertUtilization {
		return DirectionBelow
	}
	return DirectionAbove
}

// =============================================================================
// BILLING SETTINGS
// =============================================================================

// BillingSettings carries the scalar billing parameters: the base rate
// charged per m² of excess area before tier multipliers and discounts, and
// the annual deadline after which unpaid bills put a department in arrears.
type BillingSettings struct {
	BaseRate        core.Money
	PaymentDeadline core.Date
}

// =============================================================================
// SNAPSHOT - A consistent read-copy of the whole configuration
// =============================================================================

// Snapshot is a deep copy of the rule set, safe to read for the duration
// of one engine invocation.
type Snapshot struct {
	Coefficients []QuotaCoefficient
	Tiers        []FeeTier
	Stages       []DiscountStage
	Alerts       []AlertRule
	Billing      BillingSettings
}

// Coefficient returns the coefficient with the given name in the given
// category, if configured.
func (s Snapshot) Coefficient(category CoefficientCategory, name string) (QuotaCoefficient, bool) {
	for _, c := range s.Coefficients {
		if c.Category == category && c.Name == name {
			return c, true
		}
	}
	return QuotaCoefficient{}, false
}

// HasDisciplineValue reports whether v equals one of the configured
// Discipline coefficient values.
func (s Snapshot) HasDisciplineValue(v decimal.Decimal) bool {
	for _, c := range s.Coefficients {
		if c.Category == CategoryDiscipline && c.Value.Equal(v) {
			return true
		}
	}
	return false
}
