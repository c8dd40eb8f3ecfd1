package fee

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// STATE MACHINE - Single transition function
// =============================================================================

// NextStatus computes the next lifecycle status from (current, action,
// actor role). Callers never hold the transition table; they submit an
// action and either get the new status or a typed refusal.
func NextStatus(current Status, action Action, role core.Role) (Status, error) {
	if current.Terminal() {
		return current, fmt.Errorf("fee record is settled: %w", core.ErrAlreadyTerminal)
	}

	switch action {
	case ActionVerify:
		if role != core.RoleAssetAdmin {
			return current, roleBlocked(action, role)
		}
		if current != StatusVerifying {
			return current, transitionBlocked(current, action)
		}
		return StatusBillGenerated, nil

	case ActionRequestConfirm:
		if role != core.RoleCollegeAdmin {
			return current, roleBlocked(action, role)
		}
		if current != StatusBillGenerated {
			return current, transitionBlocked(current, action)
		}
		return StatusPendingConfirm, nil

	case ActionUploadConfirm:
		if role != core.RoleCollegeAdmin {
			return current, roleBlocked(action, role)
		}
		if current != StatusBillGenerated && current != StatusPendingConfirm {
			return current, transitionBlocked(current, action)
		}
		return StatusFinanceProcessing, nil

	case ActionRemind:
		if role != core.RoleAssetAdmin {
			return current, roleBlocked(action, role)
		}
		// Reminders never move the bill.
		return current, nil

	case ActionDeduct:
		if role != core.RoleAssetAdmin {
			return current, roleBlocked(action, role)
		}
		switch current {
		case StatusBillGenerated:
			return StatusFinanceProcessing, nil
		case StatusFinanceProcessing:
			return StatusCompleted, nil
		default:
			return current, transitionBlocked(current, action)
		}

	default:
		return current, &core.BlockedError{Invariant: "unknown action", Detail: string(action)}
	}
}

func roleBlocked(action Action, role core.Role) error {
	return &core.BlockedError{
		Invariant: "role not permitted",
		Detail:    fmt.Sprintf("action %q is not available to role %q", action, role),
	}
}

func transitionBlocked(current Status, action Action) error {
	return &core.BlockedError{
		Invariant: "transition not available",
		Detail:    fmt.Sprintf("action %q does not apply in status %q", action, current),
	}
}

// =============================================================================
// SERVICE - Billing operations over the record store
// =============================================================================

// Service drives fee records through the lifecycle against a RecordStore,
// reading a fresh rules snapshot per operation.
type Service struct {
	Records RecordStore
	Rules   *rules.Store
	Audit   core.AuditLog // optional
}

// OpenBillingRecord creates a new record for a department at billing-period
// open, deriving excess area and cost from the current rule set.
// establishedAt determines the tenure used for the discount stage.
func (s *Service) OpenBillingRecord(
	ctx context.Context,
	dept core.DepartmentID,
	quotaArea, actualArea core.Area,
	establishedAt, billingDate core.Date,
) (Record, error) {
	snap := s.Rules.Snapshot()

	tenure := core.YearsBetween(establishedAt, billingDate)
	breakdown, err := ComputeCost(quotaArea, actualArea, tenure, snap)
	if err != nil {
		return Record{}, fmt.Errorf("compute cost for %s: %w", dept, err)
	}

	rec := Record{
		ID:           core.FeeRecordID("FEE-" + uuid.NewString()),
		DepartmentID: dept,
		QuotaArea:    quotaArea,
		ActualArea:   actualArea,
		ExcessArea:   breakdown.ExcessArea,
		ExcessCost:   breakdown.FinalCost,
		Status:       StatusVerifying,
		OpenedAt:     billingDate,
	}
	if err := s.Records.Insert(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Apply drives one lifecycle action against a record. The store serializes
// concurrent Apply calls on the same record.
func (s *Service) Apply(ctx context.Context, id core.FeeRecordID, action Action, actorID string, role core.Role, at core.Date) (Record, error) {
	updated, err := s.Records.Update(ctx, id, func(r *Record) error {
		next, err := NextStatus(r.Status, action, role)
		if err != nil {
			return err
		}

		switch action {
		case ActionRemind:
			// Idempotent: a second reminder is a confirmation, not an error.
			r.HasReminder = true
		case ActionVerify:
			// Nothing owed: settle immediately, skipping the billing steps.
			if !r.ExcessCost.IsPositive() {
				next = StatusCompleted
			}
		}

		r.Status = next
		return nil
	})
	if err != nil {
		return Record{}, err
	}

	s.audit(ctx, auditActionFor(action), actorID, role, string(id), at, map[string]any{
		"status": string(updated.Status),
	})
	return updated, nil
}

// ClosePeriod archives settled records at billing-period close. Unsettled
// records stay live and keep feeding the arrears predicate.
func (s *Service) ClosePeriod(ctx context.Context, actorID string, at core.Date) (int, error) {
	records, err := s.Records.List(ctx)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, rec := range records {
		if rec.Archived || rec.Status != StatusCompleted {
			continue
		}
		if _, err := s.Records.Update(ctx, rec.ID, func(r *Record) error {
			r.Archived = true
			return nil
		}); err != nil {
			return archived, err
		}
		archived++
	}

	s.audit(ctx, core.AuditPeriodClosed, actorID, core.RoleAssetAdmin, "", at, map[string]any{
		"archived": archived,
	})
	return archived, nil
}

func auditActionFor(action Action) core.AuditAction {
	switch action {
	case ActionVerify:
		return core.AuditBillVerified
	case ActionRemind:
		return core.AuditReminderSent
	case ActionRequestConfirm, ActionUploadConfirm:
		return core.AuditConfirmUploaded
	default:
		return core.AuditDeductionRun
	}
}

func (s *Service) audit(ctx context.Context, action core.AuditAction, actorID string, role core.Role, entityID string, at core.Date, detail map[string]any) {
	if s.Audit == nil {
		return
	}
	s.Audit.Append(ctx, core.AuditEntry{
		ID:       "audit-" + uuid.NewString(),
		At:       at,
		ActorID:  actorID,
		Role:     role,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	})
}
