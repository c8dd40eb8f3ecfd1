/*
Package allocation routes space requests through multi-level approval.

PURPOSE:
  A department requests floor area; the requested area alone decides how
  many approval levels the request must clear:

    area < 500 m²          Level 1 only          (vice president)
    500 ≤ area < 1000 m²   Levels 1 and 2        (+ leadership group)
    area ≥ 1000 m²         Levels 1, 2 and 3     (+ chancellor meeting)

  Boundary values land on the higher tier. The routing is fixed at
  submission; the requested area is immutable afterward, so approvals
  never re-evaluate it.

CROSS-MODULE GATE:
  Submission is refused with a Blocked error when the department is in
  arrears (fee.ArrearsChecker) at submission time. The gate is checked at
  submission only, never on later approvals.

SEE ALSO:
  - fee/arrears.go: The arrears predicate
*/
package allocation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/fee"
)

// =============================================================================
// STATUS - Approval pipeline states
// =============================================================================

type Status string

const (
	StatusPendingLevel1 Status = "PendingLevel1"
	StatusPendingLevel2 Status = "PendingLevel2"
	StatusPendingLevel3 Status = "PendingLevel3"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
)

func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// =============================================================================
// REQUEST
// =============================================================================

// Request is an AllocationRequest. RequestedArea is immutable after
// submission; there is no revision flow back to a draft.
type Request struct {
	ID            core.RequestID
	DepartmentID  core.DepartmentID
	RequestedArea core.Area
	Justification string
	Status        Status
	SubmittedAt   core.Date
}

// RequestStore persists allocation requests; Update serializes mutations
// per request.
type RequestStore interface {
	Get(ctx context.Context, id core.RequestID) (Request, error)
	Insert(ctx context.Context, r Request) error
	Update(ctx context.Context, id core.RequestID, fn func(*Request) error) (Request, error)
	List(ctx context.Context) ([]Request, error)
}

// =============================================================================
// ROUTING - Depth is a pure function of requested area
// =============================================================================

var (
	level2Threshold = core.NewArea(500)
	level3Threshold = core.NewArea(1000)
)

// RequiredLevels returns how many approval levels the area routes through.
func RequiredLevels(area core.Area) int {
	switch {
	case area.LessThan(level2Threshold):
		return 1
	case area.LessThan(level3Threshold):
		return 2
	default:
		return 3
	}
}

// NextStatus advances a pending request exactly one level. The caller
// never needs the routing table: the next state falls out of the current
// status and the requested area.
func NextStatus(current Status, area core.Area) (Status, error) {
	switch current {
	case StatusPendingLevel1:
		if RequiredLevels(area) >= 2 {
			return StatusPendingLevel2, nil
		}
		return StatusApproved, nil
	case StatusPendingLevel2:
		if RequiredLevels(area) >= 3 {
			return StatusPendingLevel3, nil
		}
		return StatusApproved, nil
	case StatusPendingLevel3:
		return StatusApproved, nil
	default:
		return current, fmt.Errorf("request already %s: %w", current, core.ErrAlreadyTerminal)
	}
}

// =============================================================================
// SERVICE - Submission gate and approval actions
// =============================================================================

type Service struct {
	Requests RequestStore
	Arrears  fee.ArrearsChecker
	Audit    core.AuditLog // optional
}

// Submit creates a new request at Level 1, refusing with a Blocked error
// when the department is in arrears as of `now`. The arrears gate applies
// at submission time only.
func (s *Service) Submit(ctx context.Context, dept core.DepartmentID, area core.Area, justification string, now core.Date) (Request, error) {
	if !area.IsPositive() {
		return Request{}, &core.BlockedError{Invariant: "invalid area", Detail: "requested area must be positive"}
	}

	inArrears, err := s.Arrears.IsInArrears(ctx, dept, now)
	if err != nil {
		return Request{}, fmt.Errorf("arrears check for %s: %w", dept, err)
	}
	if inArrears {
		return Request{}, &core.BlockedError{
			Invariant: "in arrears",
			Detail:    fmt.Sprintf("department %s has unpaid overage fees past the deadline", dept),
		}
	}

	req := Request{
		ID:            core.RequestID("REQ-" + uuid.NewString()),
		DepartmentID:  dept,
		RequestedArea: area,
		Justification: justification,
		Status:        StatusPendingLevel1,
		SubmittedAt:   now,
	}
	if err := s.Requests.Insert(ctx, req); err != nil {
		return Request{}, err
	}

	s.audit(ctx, core.AuditRequestSubmitted, string(dept), string(req.ID), now, map[string]any{
		"area":   area.String(),
		"levels": RequiredLevels(area),
	})
	return req, nil
}

// Approve advances a pending request one level.
func (s *Service) Approve(ctx context.Context, id core.RequestID, approverID string, now core.Date) (Request, error) {
	updated, err := s.Requests.Update(ctx, id, func(r *Request) error {
		next, err := NextStatus(r.Status, r.RequestedArea)
		if err != nil {
			return err
		}
		r.Status = next
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.audit(ctx, core.AuditRequestApproved, approverID, string(id), now, map[string]any{
		"status": string(updated.Status),
	})
	return updated, nil
}

// Reject terminates a pending request. Terminal requests refuse with
// AlreadyTerminal.
func (s *Service) Reject(ctx context.Context, id core.RequestID, rejecterID, reason string, now core.Date) (Request, error) {
	updated, err := s.Requests.Update(ctx, id, func(r *Request) error {
		if r.Status.Terminal() {
			return fmt.Errorf("request already %s: %w", r.Status, core.ErrAlreadyTerminal)
		}
		r.Status = StatusRejected
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.audit(ctx, core.AuditRequestRejected, rejecterID, string(id), now, map[string]any{
		"reason": reason,
	})
	return updated, nil
}

func (s *Service) audit(ctx context.Context, action core.AuditAction, actorID, entityID string, at core.Date, detail map[string]any) {
	if s.Audit == nil {
		return
	}
	s.Audit.Append(ctx, core.AuditEntry{
		ID:       "audit-" + uuid.NewString(),
		At:       at,
		ActorID:  actorID,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	})
}
