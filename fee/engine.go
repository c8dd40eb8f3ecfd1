package fee

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// TIER SELECTION - Total over [0, ∞) for any valid tier set
// =============================================================================

// SelectTier returns the unique tier whose band contains excessPct.
// For tier sets accepted by rules.ValidateTiers this is total: every
// non-negative percentage lands in exactly one band. An error here means
// the configuration invariant was bypassed.
func SelectTier(excessPct decimal.Decimal, tiers []rules.FeeTier) (rules.FeeTier, error) {
	if excessPct.IsNegative() {
		return rules.FeeTier{}, fmt.Errorf("excess percentage must be non-negative, got %s", excessPct)
	}
	for _, t := range rules.SortTiers(tiers) {
		if t.Contains(excessPct) {
			return t, nil
		}
	}
	return rules.FeeTier{}, fmt.Errorf("no tier covers %s%%: %w", excessPct, core.ErrInvalidConfiguration)
}

// =============================================================================
// COST COMPUTATION - excess × base rate × tier multiplier × stage fraction
// =============================================================================

// CostBreakdown is the fully itemized result of a fee computation, so the
// shell can show how a bill was arrived at.
type CostBreakdown struct {
	ExcessArea    core.Area
	ExcessPct     decimal.Decimal
	TierID        string
	Multiplier    decimal.Decimal
	RawCost       core.Money
	StageIndex    int // -1 when past the last stage (full rate)
	StageFraction decimal.Decimal
	FinalCost     core.Money
}

// ComputeCost computes the overage bill for a department with the given
// quota and actual areas at the given tenure in whole years.
// excessArea ≤ 0 short-circuits to a zero cost without any tier lookup.
func ComputeCost(quotaArea, actualArea core.Area, tenureYears int, snap rules.Snapshot) (CostBreakdown, error) {
	excess := actualArea.Sub(quotaArea)
	if !excess.IsPositive() {
		return CostBreakdown{
			ExcessArea:    decimal.Zero,
			ExcessPct:     decimal.Zero,
			RawCost:       decimal.Zero,
			StageIndex:    -1,
			StageFraction: decimal.NewFromInt(1),
			FinalCost:     decimal.Zero,
		}, nil
	}
	if !quotaArea.IsPositive() {
		// Occupancy with no entitlement at all: the whole area is excess
		// and lands in the open-ended top band.
		return computeWithPct(excess, core.MustParseDecimal("100"), tenureYears, snap)
	}

	pct := excess.Div(quotaArea).Mul(core.MustParseDecimal("100"))
	return computeWithPct(excess, pct, tenureYears, snap)
}

func computeWithPct(excess core.Area, pct decimal.Decimal, tenureYears int, snap rules.Snapshot) (CostBreakdown, error) {
	tier, err := SelectTier(pct, snap.Tiers)
	if err != nil {
		return CostBreakdown{}, err
	}

	raw := excess.Mul(snap.Billing.BaseRate).Mul(tier.Multiplier)
	idx, fraction := stageFor(tenureYears, snap.Stages)

	return CostBreakdown{
		ExcessArea:    excess,
		ExcessPct:     pct,
		TierID:        tier.ID,
		Multiplier:    tier.Multiplier,
		RawCost:       raw,
		StageIndex:    idx,
		StageFraction: fraction,
		FinalCost:     raw.Mul(fraction),
	}, nil
}

// stageFor picks the discount stage for a tenure. Stages are validated to
// be densely indexed from 0, so stage N covers tenure year N; tenures past
// the last stage pay full rate.
func stageFor(tenureYears int, stages []rules.DiscountStage) (int, decimal.Decimal) {
	for _, st := range stages {
		if st.Index == tenureYears {
			return st.Index, st.Fraction
		}
	}
	return -1, decimal.NewFromInt(1)
}
