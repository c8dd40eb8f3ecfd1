/*
Package quota computes a department's entitled floor area.

PURPOSE:
  The quota model is: sum over role categories of
  (headcount × matching coefficient value), scaled by the department's
  discipline coefficient. All inputs come from the caller and a rules
  snapshot; the computation is pure.

TOLERANCE:
  The engine never fails on partial input. A role present in the input but
  absent from the coefficient table contributes zero and is surfaced as an
  UnconfiguredInput diagnostic; a discipline coefficient that is not one of
  the configured Discipline values is used as supplied and flagged the same
  way. Diagnostics accompany the result, they do not replace it.

EXAMPLE:
  snap := store.Snapshot()
  area, diags := quota.Compute(map[string]int{"Professor": 10}, d("1.2"), snap)
  // area = 10 × 24 × 1.2 = 288 m²

SEE ALSO:
  - rules/types.go: QuotaCoefficient, Snapshot
*/
package quota

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// DIAGNOSTICS - Non-fatal warnings about unconfigured input
// =============================================================================

// Diagnostic reports a quota input that had no matching configuration.
// The computation proceeded; the caller decides whether to display it.
type Diagnostic struct {
	Kind    string // "unconfigured_role" | "unconfigured_coefficient"
	Subject string
	Message string
}

func (d Diagnostic) String() string { return d.Message }

// =============================================================================
// COMPUTE - area = Σ(count × coefficient) × disciplineCoefficient
// =============================================================================

// Compute returns the entitled area for the given headcounts and
// discipline coefficient under the snapshot's coefficient table, along
// with any non-fatal diagnostics.
func Compute(headcounts map[string]int, disciplineCoeff decimal.Decimal, snap rules.Snapshot) (core.Area, []Diagnostic) {
	var diags []Diagnostic

	// Deterministic iteration keeps diagnostics stable across runs.
	roles := make([]string, 0, len(headcounts))
	for role := range headcounts {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	base := decimal.Zero
	for _, role := range roles {
		count := headcounts[role]
		if count <= 0 {
			continue
		}
		coeff, ok := lookupRole(snap, role)
		if !ok {
			diags = append(diags, Diagnostic{
				Kind:    "unconfigured_role",
				Subject: role,
				Message: fmt.Sprintf("role %q has no configured coefficient; contributes zero area", role),
			})
			continue
		}
		base = base.Add(coeff.Value.Mul(decimal.NewFromInt(int64(count))))
	}

	if !snap.HasDisciplineValue(disciplineCoeff) {
		diags = append(diags, Diagnostic{
			Kind:    "unconfigured_coefficient",
			Subject: disciplineCoeff.String(),
			Message: fmt.Sprintf("discipline coefficient %s is not a configured value; using it as supplied", disciplineCoeff),
		})
	}

	return base.Mul(disciplineCoeff), diags
}

// lookupRole matches a headcount role name against Personnel and Student
// coefficients. Discipline coefficients never match a role.
func lookupRole(snap rules.Snapshot, role string) (rules.QuotaCoefficient, bool) {
	if c, ok := snap.Coefficient(rules.CategoryPersonnel, role); ok {
		return c, true
	}
	if c, ok := snap.Coefficient(rules.CategoryStudent, role); ok {
		return c, true
	}
	return rules.QuotaCoefficient{}, false
}
