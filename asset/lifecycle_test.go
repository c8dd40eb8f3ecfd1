package asset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService() *asset.Service {
	return &asset.Service{
		Projects: memory.NewProjects(),
		Audit:    core.NewMemoryAuditLog(),
	}
}

func register(t *testing.T, svc *asset.Service) asset.Project {
	t.Helper()
	p, err := svc.Register(
		context.Background(),
		"Engineering Annex B",
		"Northgate Construction Co.",
		core.NewMoney(5_000_000),
		core.MustDate("2023-11-30"),
		true,
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return p
}

// =============================================================================
// PIPELINE - Construction → PreAcceptance → FinancialReview → Active
// =============================================================================

func TestRegister_StartsInConstruction(t *testing.T) {
	p := register(t, newTestService())

	if p.Status != asset.StatusConstruction {
		t.Fatalf("expected Construction, got %s", p.Status)
	}
	if p.TempCardCreated {
		t.Fatal("temp card must not exist before pre-acceptance")
	}
	if p.FinalAmount != nil {
		t.Fatal("final amount must not be set before financial review")
	}
}

func TestRegister_EmptyNameRefused(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), "", "contractor", core.NewMoney(1), core.MustDate("2023-11-30"), false)
	if !core.IsBlocked(err) {
		t.Fatalf("expected Blocked error, got %v", err)
	}
}

func TestAdvance_FullCapitalizationPipeline(t *testing.T) {
	// GIVEN: A freshly registered project
	svc := newTestService()
	p := register(t, svc)
	ctx := context.Background()

	// WHEN: Advancing into pre-acceptance
	p, err := svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2023-12-05"))
	if err != nil {
		t.Fatal(err)
	}
	// THEN: The temporary asset card is created
	if p.Status != asset.StatusPreAcceptance || !p.TempCardCreated {
		t.Fatalf("expected PreAcceptance with temp card, got %s (card=%v)", p.Status, p.TempCardCreated)
	}

	// WHEN: Advancing into financial review with the audited final amount
	final := core.NewMoney(4_785_000)
	p, err = svc.Advance(ctx, p.ID, "admin-1", &final, core.MustDate("2024-01-10"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != asset.StatusFinancialReview {
		t.Fatalf("expected FinancialReview, got %s", p.Status)
	}
	if p.FinalAmount == nil || !p.FinalAmount.Equal(final) {
		t.Fatalf("final amount not recorded: %v", p.FinalAmount)
	}

	// WHEN: The final advance capitalizes the asset
	p, err = svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2024-02-01"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != asset.StatusActive {
		t.Fatalf("expected Active, got %s", p.Status)
	}
}

func TestAdvance_FinalAmountIgnoredOutsideFinancialReview(t *testing.T) {
	// GIVEN: A final amount supplied on the first advance
	svc := newTestService()
	p := register(t, svc)
	amount := core.NewMoney(999)

	p, err := svc.Advance(context.Background(), p.ID, "admin-1", &amount, core.MustDate("2023-12-05"))
	if err != nil {
		t.Fatal(err)
	}

	// THEN: It is not recorded; only the advance into review consumes it
	if p.FinalAmount != nil {
		t.Fatalf("final amount recorded too early: %v", p.FinalAmount)
	}
}

func TestAdvance_ActiveIsTerminal(t *testing.T) {
	svc := newTestService()
	p := register(t, svc)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		var err error
		p, err = svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2024-01-01"))
		if err != nil {
			t.Fatal(err)
		}
	}

	_, err := svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2024-06-01"))
	if !core.IsTerminal(err) {
		t.Fatalf("expected AlreadyTerminal, got %v", err)
	}

	// The refused advance must not touch the stored project.
	stored, err := svc.Projects.Get(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != asset.StatusActive {
		t.Fatalf("terminal refusal mutated the project: %s", stored.Status)
	}
}

// =============================================================================
// DISPOSAL - Administrative override for failed projects
// =============================================================================

func TestDispose_FromPreAcceptance(t *testing.T) {
	svc := newTestService()
	p := register(t, svc)
	ctx := context.Background()

	if _, err := svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2023-12-05")); err != nil {
		t.Fatal(err)
	}

	disposed, err := svc.Dispose(ctx, p.ID, "admin-1", "structural survey failed", core.MustDate("2024-01-15"))
	if err != nil {
		t.Fatal(err)
	}
	if disposed.Status != asset.StatusDisposal {
		t.Fatalf("expected Disposal, got %s", disposed.Status)
	}
}

func TestDispose_ActiveAssetRefused(t *testing.T) {
	// GIVEN: A fully capitalized asset
	svc := newTestService()
	p := register(t, svc)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Advance(ctx, p.ID, "admin-1", nil, core.MustDate("2024-01-01")); err != nil {
			t.Fatal(err)
		}
	}

	// WHEN/THEN: The project pipeline cannot dispose of it
	_, err := svc.Dispose(ctx, p.ID, "admin-1", "obsolete", core.MustDate("2024-06-01"))
	var blocked *core.BlockedError
	if !errors.As(err, &blocked) || blocked.Invariant != "already capitalized" {
		t.Fatalf("expected 'already capitalized' refusal, got %v", err)
	}
}

func TestDispose_TwiceRefusesWithTerminal(t *testing.T) {
	svc := newTestService()
	p := register(t, svc)
	ctx := context.Background()

	if _, err := svc.Dispose(ctx, p.ID, "admin-1", "funding withdrawn", core.MustDate("2024-01-15")); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Dispose(ctx, p.ID, "admin-1", "funding withdrawn", core.MustDate("2024-01-16"))
	if !core.IsTerminal(err) {
		t.Fatalf("expected AlreadyTerminal, got %v", err)
	}
}
