/*
Package fee computes overage costs and drives the per-bill fee lifecycle.

PURPOSE:
  Each billing period, every department gets a DepartmentFeeRecord
  comparing its quota area against its actual occupied area. The excess is
  billed on a tiered schedule (the band is chosen by excess percentage)
  with a tenure-based discount, and the resulting bill walks a small state
  machine from data verification to settlement.

FEE LIFECYCLE:

  Verifying ──verify──▶ BillGenerated ──┬─request-confirm──▶ PendingConfirm
                                        │                          │
                                        ├────upload-confirm────────┤
                                        │                          ▼
                                        └──deduct (admin)──▶ FinanceProcessing
                                                                   │
                                                            deduct (admin)
                                                                   ▼
                                                               Completed

  There is no Rejected state: a computed fee obligation is settled or
  stays delinquent, which is what feeds the arrears circuit breaker.
  Zero-excess records complete directly at verification.

ARREARS:
  IsInArrears is the single predicate other modules consult. A department
  is in arrears iff it has an unsettled bill with a positive cost and the
  as-of date is past the configured payment deadline.

SEE ALSO:
  - engine.go: Tier selection and cost computation
  - lifecycle.go: State machine and the billing service
  - arrears.go: The circuit-breaker predicate
*/
package fee

import (
	"context"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// STATUS - Fee lifecycle states
// =============================================================================

type Status string

const (
	StatusVerifying         Status = "Verifying"
	StatusBillGenerated     Status = "BillGenerated"
	StatusPendingConfirm    Status = "PendingConfirm"
	StatusFinanceProcessing Status = "FinanceProcessing"
	StatusCompleted         Status = "Completed"
)

// Terminal reports whether no further transition applies.
func (s Status) Terminal() bool { return s == StatusCompleted }

// =============================================================================
// ACTIONS - Events that drive the lifecycle
// =============================================================================

type Action string

const (
	// ActionVerify closes data verification and generates the bill.
	ActionVerify Action = "verify"
	// ActionRequestConfirm routes the bill to the college for confirmation.
	ActionRequestConfirm Action = "request_confirm"
	// ActionUploadConfirm records the college's confirmation artifact and
	// starts finance processing.
	ActionUploadConfirm Action = "upload_confirm"
	// ActionRemind sends a payment reminder; the status does not change.
	ActionRemind Action = "remind"
	// ActionDeduct runs the finance deduction. From BillGenerated it moves
	// the bill straight into finance processing; from FinanceProcessing it
	// settles the bill.
	ActionDeduct Action = "deduct"
)

// =============================================================================
// RECORD - One department's bill for one billing period
// =============================================================================

// Record is a DepartmentFeeRecord. ExcessArea and ExcessCost are derived
// at record-open time from a rules snapshot and never set directly.
type Record struct {
	ID           core.FeeRecordID
	DepartmentID core.DepartmentID
	QuotaArea    core.Area
	ActualArea   core.Area
	ExcessArea   core.Area
	ExcessCost   core.Money
	Status       Status
	HasReminder  bool
	Archived     bool
	OpenedAt     core.Date
}

// =============================================================================
// RECORD STORE - Persistence interface
// =============================================================================

// RecordStore persists fee records. Update serializes mutations per
// record: the callback runs with exclusive access to the stored record,
// preserving the one-clean-transition-at-a-time invariant.
type RecordStore interface {
	Get(ctx context.Context, id core.FeeRecordID) (Record, error)
	Insert(ctx context.Context, r Record) error
	Update(ctx context.Context, id core.FeeRecordID, fn func(*Record) error) (Record, error)
	ListByDepartment(ctx context.Context, dept core.DepartmentID) ([]Record, error)
	List(ctx context.Context) ([]Record, error)
}
