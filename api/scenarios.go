/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the stores with realistic
	campus data for testing and demos. Each scenario seeds fee records,
	allocation requests, and asset projects that demonstrate specific
	workflows.

AVAILABLE SCENARIOS:

	campus-baseline:       Mixed departments, one over quota, one within
	arrears-gate:          Unpaid overage bill past the deadline
	construction-pipeline: Projects at every lifecycle stage

HOW SCENARIOS WORK:
 1. Reset stores (clear all data)
 2. Seed the default rule set
 3. Open billing records through the fee service (so costs derive from
    the rules, not hand-entered numbers)
 4. Drive a few lifecycle actions to land records in interesting states
 5. Submit requests and register projects

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "campus-baseline"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset all stored data. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: Handler dependencies and helpers
  - rules/defaults.go: The rule set scenarios run under
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "campus-baseline",
		Name:        "Campus Baseline",
		Description: "Physics over quota at full rate, History within quota, pending requests",
		Category:    "fees",
	},
	{
		ID:          "arrears-gate",
		Name:        "Arrears Gate",
		Description: "Unpaid overage bill past the payment deadline blocking new requests",
		Category:    "fees",
	},
	{
		ID:          "construction-pipeline",
		Name:        "Construction Pipeline",
		Description: "Projects at each capitalization stage, one disposed",
		Category:    "assets",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	if err := h.resetAll(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "campus-baseline":
		err = h.loadCampusBaselineScenario(ctx)
	case "arrears-gate":
		err = h.loadArrearsGateScenario(ctx)
	case "construction-pipeline":
		err = h.loadConstructionPipelineScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetData clears all stored data and restores the default rule set.
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	if err := h.resetAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetAll(ctx context.Context) error {
	if h.Resetter != nil {
		if err := h.Resetter.Reset(ctx); err != nil {
			return err
		}
	}
	if err := h.Rules.Replace(rules.Defaults()); err != nil {
		return err
	}
	h.currentScenario = ""
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadCampusBaselineScenario seeds the mixed campus: Physics 200m² over
// quota (25% excess, full rate, ¥24,000), History within quota (zero
// excess, completes on verify), plus a pending allocation request per
// routing band.
func (h *Handler) loadCampusBaselineScenario(ctx context.Context) error {
	billing := core.MustDate("2024-01-01")

	// Physics: quota 800, actual 1000. Established long before the stage
	// table reaches, so the full rate applies: 200 × 120 × 1.0 = 24000.
	physics, err := h.Fees.OpenBillingRecord(ctx, "DEPT-PHYS",
		core.MustParseDecimal("800"), core.MustParseDecimal("1000"),
		core.MustDate("1985-09-01"), billing)
	if err != nil {
		return err
	}
	if _, err := h.Fees.Apply(ctx, physics.ID, fee.ActionVerify,
		"asset-admin-01", core.RoleAssetAdmin, billing); err != nil {
		return err
	}

	// History: within quota, so verification completes the record.
	history, err := h.Fees.OpenBillingRecord(ctx, "DEPT-HIST",
		core.MustParseDecimal("600"), core.MustParseDecimal("550"),
		core.MustDate("1978-09-01"), billing)
	if err != nil {
		return err
	}
	if _, err := h.Fees.Apply(ctx, history.ID, fee.ActionVerify,
		"asset-admin-01", core.RoleAssetAdmin, billing); err != nil {
		return err
	}

	// Chemistry: founded two years before billing, so the third-year
	// discount stage applies. Left unverified.
	if _, err := h.Fees.OpenBillingRecord(ctx, "DEPT-CHEM",
		core.MustParseDecimal("500"), core.MustParseDecimal("700"),
		core.MustDate("2022-01-01"), billing); err != nil {
		return err
	}

	// One request per approval band. Seeded before any deadline passes,
	// so none are arrears-gated.
	asOf := core.MustDate("2024-01-02")
	if _, err := h.Allocations.Submit(ctx, "DEPT-PHYS",
		core.MustParseDecimal("300"), "Laser lab annex", asOf); err != nil {
		return err
	}
	if _, err := h.Allocations.Submit(ctx, "DEPT-HIST",
		core.MustParseDecimal("750"), "Archive expansion", asOf); err != nil {
		return err
	}
	if _, err := h.Allocations.Submit(ctx, "DEPT-CHEM",
		core.MustParseDecimal("1200"), "New teaching block", asOf); err != nil {
		return err
	}

	return nil
}

// loadArrearsGateScenario seeds one unpaid overage bill so any request
// submitted with as_of past 2024-01-15 is refused.
func (h *Handler) loadArrearsGateScenario(ctx context.Context) error {
	billing := core.MustDate("2024-01-01")

	rec, err := h.Fees.OpenBillingRecord(ctx, "DEPT-MATH",
		core.MustParseDecimal("400"), core.MustParseDecimal("650"),
		core.MustDate("1990-09-01"), billing)
	if err != nil {
		return err
	}
	// Verified but never paid: the bill sits in BillGenerated with a
	// positive cost, which is what the arrears check looks for.
	if _, err := h.Fees.Apply(ctx, rec.ID, fee.ActionVerify,
		"asset-admin-01", core.RoleAssetAdmin, billing); err != nil {
		return err
	}
	if _, err := h.Fees.Apply(ctx, rec.ID, fee.ActionRemind,
		"asset-admin-01", core.RoleAssetAdmin, core.MustDate("2024-01-20")); err != nil {
		return err
	}

	// A request submitted before the deadline goes through normally.
	if _, err := h.Allocations.Submit(ctx, "DEPT-MATH",
		core.MustParseDecimal("200"), "Seminar room", core.MustDate("2024-01-10")); err != nil {
		return err
	}

	return nil
}

// loadConstructionPipelineScenario seeds projects at every stage.
func (h *Handler) loadConstructionPipelineScenario(ctx context.Context) error {
	at := core.MustDate("2024-03-01")

	// Still under construction.
	if _, err := h.Assets.Register(ctx, "West Gate Dormitory", "Changjiang Construction Co.",
		core.MustParseDecimal("18500000"), core.MustDate("2025-06-30"), false); err != nil {
		return err
	}

	// Advanced to PreAcceptance: temp card created.
	pre, err := h.Assets.Register(ctx, "Library Annex", "Huadong Builders",
		core.MustParseDecimal("9200000"), core.MustDate("2024-02-15"), true)
	if err != nil {
		return err
	}
	if _, err := h.Assets.Advance(ctx, pre.ID, "asset-admin-01", nil, at); err != nil {
		return err
	}

	// Through financial review into Active.
	final := core.MustParseDecimal("4785000")
	active, err := h.Assets.Register(ctx, "Stadium Lighting Retrofit", "Mingguang Engineering",
		core.MustParseDecimal("4600000"), core.MustDate("2023-11-30"), true)
	if err != nil {
		return err
	}
	if _, err := h.Assets.Advance(ctx, active.ID, "asset-admin-01", nil, at); err != nil {
		return err
	}
	if _, err := h.Assets.Advance(ctx, active.ID, "asset-admin-01", &final, at); err != nil {
		return err
	}
	if _, err := h.Assets.Advance(ctx, active.ID, "asset-admin-01", nil, at); err != nil {
		return err
	}

	// Disposed after pre-acceptance by admin override.
	disposed, err := h.Assets.Register(ctx, "Old Boiler House Conversion", "Huadong Builders",
		core.MustParseDecimal("1300000"), core.MustDate("2023-05-01"), false)
	if err != nil {
		return err
	}
	if _, err := h.Assets.Advance(ctx, disposed.ID, "asset-admin-01", nil, at); err != nil {
		return err
	}
	if _, err := h.Assets.Dispose(ctx, disposed.ID, "asset-admin-01",
		"structural survey failed", at); err != nil {
		return err
	}

	return nil
}
