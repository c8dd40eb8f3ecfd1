package fee

import (
	"context"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// ARREARS - The cross-module circuit breaker
// =============================================================================

// ArrearsChecker is the single predicate other modules consult before
// letting a department act. The allocation workflow gates submissions on
// it; it must be idempotent and side-effect-free.
type ArrearsChecker interface {
	IsInArrears(ctx context.Context, dept core.DepartmentID, asOf core.Date) (bool, error)
}

// IsInArrears reports whether the department has at least one unsettled
// bill with a positive cost while asOf is past the configured payment
// deadline. Before the deadline no department is in arrears, whatever it
// owes.
func (s *Service) IsInArrears(ctx context.Context, dept core.DepartmentID, asOf core.Date) (bool, error) {
	deadline := s.Rules.Snapshot().Billing.PaymentDeadline
	if !asOf.After(deadline) {
		return false, nil
	}

	records, err := s.Records.ListByDepartment(ctx, dept)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.ExcessCost.IsPositive() && !r.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}
