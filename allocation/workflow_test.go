package allocation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// stubArrears marks a fixed set of departments delinquent.
type stubArrears map[core.DepartmentID]bool

func (s stubArrears) IsInArrears(_ context.Context, dept core.DepartmentID, _ core.Date) (bool, error) {
	return s[dept], nil
}

func newTestService(arrears stubArrears) *allocation.Service {
	if arrears == nil {
		arrears = stubArrears{}
	}
	return &allocation.Service{
		Requests: memory.NewRequests(),
		Arrears:  arrears,
		Audit:    core.NewMemoryAuditLog(),
	}
}

func submit(t *testing.T, svc *allocation.Service, area float64) allocation.Request {
	t.Helper()
	req, err := svc.Submit(context.Background(), "DEPT-PHY", core.NewArea(area), "lab expansion", core.MustDate("2024-01-02"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return req
}

// =============================================================================
// ROUTING - Depth is a pure function of requested area
// =============================================================================

func TestRequiredLevels_Boundaries(t *testing.T) {
	cases := []struct {
		area float64
		want int
	}{
		{1, 1},
		{499, 1},
		{500, 2}, // boundary lands on the higher tier
		{999, 2},
		{1000, 3},
		{5000, 3},
	}
	for _, tc := range cases {
		if got := allocation.RequiredLevels(core.NewArea(tc.area)); got != tc.want {
			t.Errorf("RequiredLevels(%v) = %d, want %d", tc.area, got, tc.want)
		}
	}
}

func TestNextStatus_SmallRequestApprovesAtLevel1(t *testing.T) {
	next, err := allocation.NextStatus(allocation.StatusPendingLevel1, core.NewArea(300))
	if err != nil {
		t.Fatal(err)
	}
	if next != allocation.StatusApproved {
		t.Fatalf("expected Approved, got %s", next)
	}
}

func TestNextStatus_TerminalRefuses(t *testing.T) {
	for _, s := range []allocation.Status{allocation.StatusApproved, allocation.StatusRejected} {
		_, err := allocation.NextStatus(s, core.NewArea(300))
		if !core.IsTerminal(err) {
			t.Errorf("expected AlreadyTerminal from %s, got %v", s, err)
		}
	}
}

// =============================================================================
// SUBMISSION - Arrears gate and input validation
// =============================================================================

func TestSubmit_StartsAtLevel1(t *testing.T) {
	svc := newTestService(nil)

	req := submit(t, svc, 750)

	if req.Status != allocation.StatusPendingLevel1 {
		t.Fatalf("expected PendingLevel1, got %s", req.Status)
	}
	if !req.SubmittedAt.Equal(core.MustDate("2024-01-02")) {
		t.Fatalf("unexpected SubmittedAt %s", req.SubmittedAt)
	}
}

func TestSubmit_BlockedWhenInArrears(t *testing.T) {
	// GIVEN: Physics has unpaid overage fees past the deadline
	svc := newTestService(stubArrears{"DEPT-PHY": true})

	// WHEN: Physics requests more space
	_, err := svc.Submit(context.Background(), "DEPT-PHY", core.NewArea(300), "lab expansion", core.MustDate("2024-02-01"))

	// THEN: The submission is refused outright
	if !core.IsBlocked(err) {
		t.Fatalf("expected Blocked error, got %v", err)
	}
	var blocked *core.BlockedError
	if !errors.As(err, &blocked) || blocked.Invariant != "in arrears" {
		t.Fatalf("expected 'in arrears' invariant, got %v", err)
	}
}

func TestSubmit_NonPositiveAreaBlocked(t *testing.T) {
	svc := newTestService(nil)

	for _, area := range []float64{0, -50} {
		_, err := svc.Submit(context.Background(), "DEPT-PHY", core.NewArea(area), "x", core.MustDate("2024-01-02"))
		var blocked *core.BlockedError
		if !errors.As(err, &blocked) || blocked.Invariant != "invalid area" {
			t.Errorf("area %v: expected 'invalid area' refusal, got %v", area, err)
		}
	}
}

func TestApprove_ArrearsNotRecheckedAfterSubmission(t *testing.T) {
	// GIVEN: A request submitted while the department was in good standing
	arrears := stubArrears{}
	svc := newTestService(arrears)
	req := submit(t, svc, 300)

	// WHEN: The department falls into arrears before the approval
	arrears["DEPT-PHY"] = true

	// THEN: The pending request still goes through
	updated, err := svc.Approve(context.Background(), req.ID, "vp-1", core.MustDate("2024-03-01"))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != allocation.StatusApproved {
		t.Fatalf("expected Approved, got %s", updated.Status)
	}
}

// =============================================================================
// APPROVAL CHAIN
// =============================================================================

func TestApprove_MidSizeRequestNeedsTwoLevels(t *testing.T) {
	// GIVEN: A 750 m² request (levels 1 and 2)
	svc := newTestService(nil)
	req := submit(t, svc, 750)
	ctx := context.Background()

	updated, err := svc.Approve(ctx, req.ID, "vp-1", core.MustDate("2024-01-03"))
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != allocation.StatusPendingLevel2 {
		t.Fatalf("after first approval expected PendingLevel2, got %s", updated.Status)
	}

	updated, err = svc.Approve(ctx, req.ID, "leadership-1", core.MustDate("2024-01-04"))
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != allocation.StatusApproved {
		t.Fatalf("after second approval expected Approved, got %s", updated.Status)
	}
}

func TestApprove_LargeRequestWalksAllThreeLevels(t *testing.T) {
	svc := newTestService(nil)
	req := submit(t, svc, 1200)
	ctx := context.Background()

	want := []allocation.Status{
		allocation.StatusPendingLevel2,
		allocation.StatusPendingLevel3,
		allocation.StatusApproved,
	}
	for i, expected := range want {
		updated, err := svc.Approve(ctx, req.ID, "approver", core.MustDate("2024-01-03"))
		if err != nil {
			t.Fatalf("approval %d: %v", i+1, err)
		}
		if updated.Status != expected {
			t.Fatalf("approval %d: expected %s, got %s", i+1, expected, updated.Status)
		}
	}

	// A fourth approval hits a terminal request.
	_, err := svc.Approve(ctx, req.ID, "approver", core.MustDate("2024-01-05"))
	if !core.IsTerminal(err) {
		t.Fatalf("expected AlreadyTerminal, got %v", err)
	}
}

// =============================================================================
// REJECTION
// =============================================================================

func TestReject_FromAnyPendingLevel(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	// Reject at level 1.
	req := submit(t, svc, 1200)
	updated, err := svc.Reject(ctx, req.ID, "vp-1", "no capacity", core.MustDate("2024-01-03"))
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != allocation.StatusRejected {
		t.Fatalf("expected Rejected, got %s", updated.Status)
	}

	// Reject at level 3.
	req = submit(t, svc, 1200)
	for i := 0; i < 2; i++ {
		if _, err := svc.Approve(ctx, req.ID, "approver", core.MustDate("2024-01-03")); err != nil {
			t.Fatal(err)
		}
	}
	updated, err = svc.Reject(ctx, req.ID, "chancellor", "budget freeze", core.MustDate("2024-01-05"))
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != allocation.StatusRejected {
		t.Fatalf("expected Rejected, got %s", updated.Status)
	}
}

func TestReject_TerminalRefuses(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	req := submit(t, svc, 300)
	if _, err := svc.Approve(ctx, req.ID, "vp-1", core.MustDate("2024-01-03")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Reject(ctx, req.ID, "vp-1", "changed my mind", core.MustDate("2024-01-04"))
	if !core.IsTerminal(err) {
		t.Fatalf("expected AlreadyTerminal, got %v", err)
	}
}
