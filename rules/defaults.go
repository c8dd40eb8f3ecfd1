package rules

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// DEFAULT RULE SET - The campus baseline configuration
// =============================================================================

func d(s string) decimal.Decimal { return core.MustParseDecimal(s) }

func pct(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// Defaults returns the built-in rule set: the standard coefficient table,
// the three-band overage schedule (1.0× up to 30%, 1.5× to 60%, 3.0×
// beyond), the three-year discount ramp (50%, 80%, full rate) and the
// default alert thresholds.
func Defaults() Snapshot {
	return Snapshot{
		Coefficients: []QuotaCoefficient{
			{ID: "Q-01", Category: CategoryPersonnel, Name: "Professor", Value: d("24"), Unit: "m²/person", Description: "Research and administrative office combined"},
			{ID: "Q-02", Category: CategoryPersonnel, Name: "AssociateProfessor", Value: d("16"), Unit: "m²/person", Description: "Research and administrative office combined"},
			{ID: "Q-03", Category: CategoryPersonnel, Name: "Lecturer", Value: d("9"), Unit: "m²/person", Description: "Shared office space"},
			{ID: "Q-04", Category: CategoryStudent, Name: "PhDStudent", Value: d("6"), Unit: "m²/person", Description: "Workstation and lab support"},
			{ID: "Q-05", Category: CategoryStudent, Name: "MasterStudent", Value: d("3"), Unit: "m²/person", Description: "Workstation and lab support"},
			{ID: "Q-06", Category: CategoryDiscipline, Name: "STEM", Value: d("1.2"), Unit: "coefficient", Description: "Lab equipment footprint adjustment"},
			{ID: "Q-07", Category: CategoryDiscipline, Name: "Humanities", Value: d("1.0"), Unit: "coefficient", Description: "Standard office"},
			{ID: "Q-08", Category: CategoryDiscipline, Name: "ArtsSports", Value: d("1.5"), Unit: "coefficient", Description: "Rehearsal and equipment space"},
		},
		Tiers: []FeeTier{
			{ID: "TIER-1", MinExcessPct: d("0"), MaxExcessPct: pct("30"), Multiplier: d("1.0"), DisplayName: "Rate A (baseline)"},
			{ID: "TIER-2", MinExcessPct: d("30"), MaxExcessPct: pct("60"), Multiplier: d("1.5"), DisplayName: "Rate B (punitive)"},
			{ID: "TIER-3", MinExcessPct: d("60"), MaxExcessPct: nil, Multiplier: d("3.0"), DisplayName: "Rate C (circuit breaker)"},
		},
		Stages: []DiscountStage{
			{Index: 0, Description: "First year (protected)", Fraction: d("0.5")},
			{Index: 1, Description: "Second year (transition)", Fraction: d("0.8")},
			{Index: 2, Description: "Third year onward", Fraction: d("1.0")},
		},
		Alerts: []AlertRule{
			{ID: "ALT-01", Name: "Low utilization", Category: AlertUtilization, Threshold: d("60"), Unit: "%", Enabled: true, Severity: SeverityMedium},
			{ID: "ALT-02", Name: "Prolonged vacancy", Category: AlertUtilization, Threshold: d("6"), Unit: "Months", Enabled: true, Severity: SeverityMedium},
			{ID: "ALT-03", Name: "Fire remediation overdue", Category: AlertSafety, Threshold: d("15"), Unit: "Days", Enabled: true, Severity: SeverityHigh},
			{ID: "ALT-04", Name: "Structural inspection overdue", Category: AlertSafety, Threshold: d("10"), Unit: "Years", Enabled: true, Severity: SeverityHigh},
			{ID: "ALT-05", Name: "Arrears circuit-breaker window", Category: AlertFinance, Threshold: d("45"), Unit: "Days", Enabled: true, Severity: SeverityHigh},
		},
		Billing: BillingSettings{
			BaseRate:        d("120"),
			PaymentDeadline: core.NewDate(2024, time.January, 15),
		},
	}
}
