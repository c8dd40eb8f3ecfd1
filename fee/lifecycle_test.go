package fee_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/rules"
	"github.com/estateops/space-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService() *fee.Service {
	return &fee.Service{
		Records: memory.NewFeeRecords(),
		Rules:   rules.NewDefaultStore(),
		Audit:   core.NewMemoryAuditLog(),
	}
}

func openRecord(t *testing.T, svc *fee.Service, dept string, quota, actual string) fee.Record {
	t.Helper()
	rec, err := svc.OpenBillingRecord(
		context.Background(),
		core.DepartmentID(dept),
		d(quota), d(actual),
		core.MustDate("1985-09-01"), // tenure far past the discount ramp
		core.MustDate("2024-01-01"),
	)
	require.NoError(t, err)
	return rec
}

// =============================================================================
// STATE MACHINE - Role and transition gating
// =============================================================================

func TestNextStatus_HappyPathThroughConfirmation(t *testing.T) {
	next, err := fee.NextStatus(fee.StatusVerifying, fee.ActionVerify, core.RoleAssetAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusBillGenerated, next)

	next, err = fee.NextStatus(next, fee.ActionRequestConfirm, core.RoleCollegeAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusPendingConfirm, next)

	next, err = fee.NextStatus(next, fee.ActionUploadConfirm, core.RoleCollegeAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusFinanceProcessing, next)

	next, err = fee.NextStatus(next, fee.ActionDeduct, core.RoleAssetAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusCompleted, next)
}

func TestNextStatus_DirectDeductionSkipsConfirmation(t *testing.T) {
	// BillGenerated → deduct → FinanceProcessing, no college involvement
	next, err := fee.NextStatus(fee.StatusBillGenerated, fee.ActionDeduct, core.RoleAssetAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusFinanceProcessing, next)
}

func TestNextStatus_UploadConfirmWithoutRequest(t *testing.T) {
	// The college may upload its confirmation without the request step.
	next, err := fee.NextStatus(fee.StatusBillGenerated, fee.ActionUploadConfirm, core.RoleCollegeAdmin)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusFinanceProcessing, next)
}

func TestNextStatus_WrongRoleBlocked(t *testing.T) {
	cases := []struct {
		action fee.Action
		role   core.Role
	}{
		{fee.ActionVerify, core.RoleCollegeAdmin},
		{fee.ActionVerify, core.RoleTeacher},
		{fee.ActionRequestConfirm, core.RoleAssetAdmin},
		{fee.ActionUploadConfirm, core.RoleTeacher},
		{fee.ActionRemind, core.RoleCollegeAdmin},
		{fee.ActionDeduct, core.RoleCollegeAdmin},
	}
	for _, tc := range cases {
		current := fee.StatusVerifying
		if tc.action != fee.ActionVerify {
			current = fee.StatusBillGenerated
		}
		_, err := fee.NextStatus(current, tc.action, tc.role)
		require.Error(t, err, "%s as %s", tc.action, tc.role)
		assert.True(t, core.IsBlocked(err))

		var blocked *core.BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, "role not permitted", blocked.Invariant)
	}
}

func TestNextStatus_WrongStateBlocked(t *testing.T) {
	// Verify only applies while the record is still in data verification.
	_, err := fee.NextStatus(fee.StatusBillGenerated, fee.ActionVerify, core.RoleAssetAdmin)
	require.Error(t, err)

	var blocked *core.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "transition not available", blocked.Invariant)

	// Deduct needs a generated bill.
	_, err = fee.NextStatus(fee.StatusVerifying, fee.ActionDeduct, core.RoleAssetAdmin)
	require.Error(t, err)
	assert.True(t, core.IsBlocked(err))
}

func TestNextStatus_TerminalRefusesEverything(t *testing.T) {
	for _, action := range []fee.Action{
		fee.ActionVerify, fee.ActionRequestConfirm, fee.ActionUploadConfirm, fee.ActionRemind, fee.ActionDeduct,
	} {
		_, err := fee.NextStatus(fee.StatusCompleted, action, core.RoleAssetAdmin)
		require.Error(t, err, "action %s", action)
		assert.True(t, core.IsTerminal(err))
	}
}

// =============================================================================
// SERVICE - Billing operations
// =============================================================================

func TestService_OpenBillingRecord_DerivesCostFromRules(t *testing.T) {
	svc := newTestService()

	rec := openRecord(t, svc, "DEPT-PHY", "800", "1000")

	assert.Equal(t, fee.StatusVerifying, rec.Status)
	assert.True(t, rec.ExcessArea.Equal(d("200")))
	assert.True(t, rec.ExcessCost.Equal(d("24000")))
	assert.False(t, rec.HasReminder)
}

func TestService_VerifyWithZeroCostSettlesImmediately(t *testing.T) {
	// GIVEN: A department within its quota
	svc := newTestService()
	rec := openRecord(t, svc, "DEPT-HIS", "600", "550")
	require.True(t, rec.ExcessCost.IsZero())

	// WHEN: The asset office verifies the data
	updated, err := svc.Apply(context.Background(), rec.ID, fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.NoError(t, err)

	// THEN: Nothing is owed; the record completes without billing steps
	assert.Equal(t, fee.StatusCompleted, updated.Status)
}

func TestService_RemindIsIdempotentAndKeepsStatus(t *testing.T) {
	svc := newTestService()
	rec := openRecord(t, svc, "DEPT-PHY", "800", "1000")
	_, err := svc.Apply(context.Background(), rec.ID, fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.NoError(t, err)

	first, err := svc.Apply(context.Background(), rec.ID, fee.ActionRemind, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-20"))
	require.NoError(t, err)
	assert.True(t, first.HasReminder)
	assert.Equal(t, fee.StatusBillGenerated, first.Status)

	// A second reminder is a confirmation, not an error.
	second, err := svc.Apply(context.Background(), rec.ID, fee.ActionRemind, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-21"))
	require.NoError(t, err)
	assert.True(t, second.HasReminder)
	assert.Equal(t, fee.StatusBillGenerated, second.Status)
}

func TestService_BlockedActionLeavesRecordUntouched(t *testing.T) {
	svc := newTestService()
	rec := openRecord(t, svc, "DEPT-PHY", "800", "1000")

	// A teacher cannot verify.
	_, err := svc.Apply(context.Background(), rec.ID, fee.ActionVerify, "prof-1", core.RoleTeacher, core.MustDate("2024-01-05"))
	require.Error(t, err)
	assert.True(t, core.IsBlocked(err))

	stored, err := svc.Records.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, fee.StatusVerifying, stored.Status)
}

func TestService_ApplyUnknownRecord(t *testing.T) {
	svc := newTestService()

	_, err := svc.Apply(context.Background(), "FEE-missing", fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestService_AuditTrailRecordsLifecycle(t *testing.T) {
	svc := newTestService()
	rec := openRecord(t, svc, "DEPT-PHY", "800", "1000")

	ctx := context.Background()
	_, err := svc.Apply(ctx, rec.ID, fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.NoError(t, err)
	_, err = svc.Apply(ctx, rec.ID, fee.ActionDeduct, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-02-01"))
	require.NoError(t, err)

	id := string(rec.ID)
	entries, err := svc.Audit.Query(ctx, core.AuditFilter{EntityID: &id})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.AuditBillVerified, entries[0].Action)
	assert.Equal(t, core.AuditDeductionRun, entries[1].Action)
}

// =============================================================================
// PERIOD CLOSE
// =============================================================================

func TestService_ClosePeriodArchivesOnlySettledRecords(t *testing.T) {
	// GIVEN: One settled bill and one still delinquent
	svc := newTestService()
	ctx := context.Background()

	settled := openRecord(t, svc, "DEPT-HIS", "600", "550")
	_, err := svc.Apply(ctx, settled.ID, fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.NoError(t, err)

	open := openRecord(t, svc, "DEPT-PHY", "800", "1000")
	_, err = svc.Apply(ctx, open.ID, fee.ActionVerify, "admin-1", core.RoleAssetAdmin, core.MustDate("2024-01-05"))
	require.NoError(t, err)

	// WHEN: The billing period closes
	archived, err := svc.ClosePeriod(ctx, "admin-1", core.MustDate("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	// THEN: The delinquent bill stays live and keeps feeding arrears
	stored, err := svc.Records.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.False(t, stored.Archived)
	assert.Equal(t, fee.StatusBillGenerated, stored.Status)

	// Closing again archives nothing new.
	archived, err = svc.ClosePeriod(ctx, "admin-1", core.MustDate("2024-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 0, archived)
}
