/*
handlers_test.go - HTTP-level tests over the full router

Tests exercise the handlers through httptest against the real chi router,
with in-memory repositories underneath, so routing, JSON codecs and
domain-error mapping are covered together.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/factory"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/report"
	"github.com/estateops/space-engine/rules"
	"github.com/estateops/space-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ruleStore := rules.NewDefaultStore()
	audit := core.NewMemoryAuditLog()

	fees := &fee.Service{Records: memory.NewFeeRecords(), Rules: ruleStore, Audit: audit}
	allocations := &allocation.Service{Requests: memory.NewRequests(), Arrears: fees, Audit: audit}
	assets := &asset.Service{Projects: memory.NewProjects(), Audit: audit}
	reports := &report.Facade{} // no generator wired, reports degrade to fallbacks

	h := NewHandler(ruleStore, fees, allocations, assets, reports, audit)
	server := httptest.NewServer(NewRouter(h))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func openFee(t *testing.T, base string, dept, quota, actual string) FeeRecordDTO {
	t.Helper()
	var rec FeeRecordDTO
	resp := doJSON(t, http.MethodPost, base+"/api/fees", OpenFeeRecordRequest{
		DepartmentID:  dept,
		QuotaArea:     quota,
		ActualArea:    actual,
		EstablishedAt: "1985-09-01",
		BillingDate:   "2024-01-01",
	}, &rec)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return rec
}

func feeAction(t *testing.T, base, id, action, role string) (*http.Response, FeeRecordDTO) {
	t.Helper()
	var rec FeeRecordDTO
	url := fmt.Sprintf("%s/api/fees/%s/%s", base, id, action)
	resp := doJSON(t, http.MethodPost, url, FeeActionRequest{
		ActorID: "actor-1", Role: role, Date: "2024-01-05",
	}, &rec)
	return resp, rec
}

// =============================================================================
// HEALTH AND CONFIG
// =============================================================================

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetConfig_ReturnsDefaultRuleSet(t *testing.T) {
	server := newTestServer(t)

	var doc factory.RuleSetDoc
	resp := doJSON(t, http.MethodGet, server.URL+"/api/config", nil, &doc)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, doc.Tiers, 3)
	assert.Len(t, doc.Stages, 3)
	assert.Equal(t, 120.0, doc.Billing.BaseRate)
	assert.Equal(t, "2024-01-15", doc.Billing.PaymentDeadline)
}

func TestReplaceTiers_InvalidSchedule_Returns400(t *testing.T) {
	server := newTestServer(t)

	capped := 30.0
	var errResp ErrorResponse
	resp := doJSON(t, http.MethodPut, server.URL+"/api/config/tiers", ReplaceTiersRequest{
		Tiers: []factory.TierDoc{
			{ID: "T-1", MinExcessPct: 0, MaxExcessPct: &capped, Multiplier: 1.0, DisplayName: "only"},
		},
	}, &errResp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid configuration", errResp.Error)

	// The default schedule must still be in force.
	var doc factory.RuleSetDoc
	doJSON(t, http.MethodGet, server.URL+"/api/config", nil, &doc)
	assert.Len(t, doc.Tiers, 3)
}

func TestConfigChange_AppearsInAuditTrail(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/config/billing", SetBillingRequest{
		Billing: factory.BillingDoc{BaseRate: 150, PaymentDeadline: "2025-01-15"},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []AuditEntryDTO
	doJSON(t, http.MethodGet, server.URL+"/api/audit?actor_id=system", nil, &entries)
	require.NotEmpty(t, entries)
	assert.Equal(t, string(core.AuditConfigChanged), entries[0].Action)
}

// =============================================================================
// QUOTA
// =============================================================================

func TestComputeQuota_NamedDiscipline(t *testing.T) {
	server := newTestServer(t)

	var out ComputeQuotaResponse
	resp := doJSON(t, http.MethodPost, server.URL+"/api/quota/compute", ComputeQuotaRequest{
		Headcounts:     map[string]int{"Professor": 10},
		DisciplineName: "STEM",
	}, &out)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "288", out.QuotaArea)
	assert.Empty(t, out.Diagnostics)
}

func TestComputeQuota_UnknownDiscipline_Returns400(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/quota/compute", ComputeQuotaRequest{
		Headcounts:     map[string]int{"Professor": 10},
		DisciplineName: "Astrology",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComputeQuota_NoDisciplineFallsBackToOne(t *testing.T) {
	server := newTestServer(t)

	var out ComputeQuotaResponse
	resp := doJSON(t, http.MethodPost, server.URL+"/api/quota/compute", ComputeQuotaRequest{
		Headcounts: map[string]int{"Professor": 10},
	}, &out)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "240", out.QuotaArea)
	require.NotEmpty(t, out.Diagnostics)
	assert.Contains(t, out.Diagnostics[0], "no discipline supplied")
}

// =============================================================================
// FEE LIFECYCLE OVER HTTP
// =============================================================================

func TestFeeLifecycle_EndToEnd(t *testing.T) {
	server := newTestServer(t)

	// Open: 200 m² over at full rate is a ¥24000 bill.
	rec := openFee(t, server.URL, "DEPT-PHYS", "800", "1000")
	assert.Equal(t, "Verifying", rec.Status)
	assert.Equal(t, "24000", rec.ExcessCost)

	// Verify as the asset office.
	resp, rec := feeAction(t, server.URL, rec.ID, "verify", "AssetAdmin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BillGenerated", rec.Status)

	// College confirmation round trip.
	resp, rec = feeAction(t, server.URL, rec.ID, "request-confirm", "CollegeAdmin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PendingConfirm", rec.Status)

	resp, rec = feeAction(t, server.URL, rec.ID, "confirm", "CollegeAdmin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FinanceProcessing", rec.Status)

	// Deduction settles the bill.
	resp, rec = feeAction(t, server.URL, rec.ID, "deduct", "AssetAdmin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Completed", rec.Status)

	// Further actions hit a terminal record.
	resp, _ = feeAction(t, server.URL, rec.ID, "remind", "AssetAdmin")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFeeAction_WrongRole_Returns409(t *testing.T) {
	server := newTestServer(t)
	rec := openFee(t, server.URL, "DEPT-PHYS", "800", "1000")

	resp, _ := feeAction(t, server.URL, rec.ID, "verify", "Teacher")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetFee_Unknown_Returns404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/fees/FEE-missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListFees_FilterByDepartment(t *testing.T) {
	server := newTestServer(t)
	openFee(t, server.URL, "DEPT-PHYS", "800", "1000")
	openFee(t, server.URL, "DEPT-HIST", "600", "550")

	var all []FeeRecordDTO
	doJSON(t, http.MethodGet, server.URL+"/api/fees", nil, &all)
	assert.Len(t, all, 2)

	var phys []FeeRecordDTO
	doJSON(t, http.MethodGet, server.URL+"/api/fees?department_id=DEPT-PHYS", nil, &phys)
	require.Len(t, phys, 1)
	assert.Equal(t, "DEPT-PHYS", phys[0].DepartmentID)
}

// =============================================================================
// ARREARS AND THE ALLOCATION GATE
// =============================================================================

func TestArrears_EndpointAndSubmissionGate(t *testing.T) {
	server := newTestServer(t)
	openFee(t, server.URL, "DEPT-PHYS", "800", "1000")

	// Before the deadline Physics is not in arrears.
	var arrears ArrearsDTO
	resp := doJSON(t, http.MethodGet, server.URL+"/api/departments/DEPT-PHYS/arrears?as_of=2024-01-10", nil, &arrears)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, arrears.InArrears)

	// Past the deadline it is.
	doJSON(t, http.MethodGet, server.URL+"/api/departments/DEPT-PHYS/arrears?as_of=2024-02-01", nil, &arrears)
	assert.True(t, arrears.InArrears)

	// And its new space request is refused.
	var errResp ErrorResponse
	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests", SubmitRequestDTO{
		DepartmentID:  "DEPT-PHYS",
		RequestedArea: "300",
		Justification: "lab expansion",
		AsOf:          "2024-02-01",
	}, &errResp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Action blocked", errResp.Error)
}

func TestArrears_MissingAsOf_Returns400(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/departments/DEPT-PHYS/arrears")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestApprovalChain(t *testing.T) {
	server := newTestServer(t)

	var req RequestDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", SubmitRequestDTO{
		DepartmentID:  "DEPT-HIST",
		RequestedArea: "750",
		Justification: "archive room",
		AsOf:          "2024-01-02",
	}, &req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PendingLevel1", req.Status)
	assert.Equal(t, 2, req.RequiredLevels)

	decide := DecideRequestDTO{ActorID: "vp-1", Date: "2024-01-03"}
	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests/"+req.ID+"/approve", decide, &req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PendingLevel2", req.Status)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests/"+req.ID+"/approve", decide, &req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Approved", req.Status)

	// Rejecting the approved request hits a terminal state.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests/"+req.ID+"/reject",
		DecideRequestDTO{ActorID: "vp-1", Reason: "late", Date: "2024-01-04"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// PROJECTS
// =============================================================================

func TestProjectPipelineOverHTTP(t *testing.T) {
	server := newTestServer(t)

	var project ProjectDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/projects", RegisterProjectRequest{
		Name:           "Engineering Annex B",
		Contractor:     "Northgate Construction Co.",
		ContractAmount: "5000000",
		CompletionDate: "2023-11-30",
		HasSurveyData:  true,
	}, &project)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Construction", project.Status)

	advance := func(body AdvanceProjectRequest) ProjectDTO {
		var out ProjectDTO
		resp := doJSON(t, http.MethodPost, server.URL+"/api/projects/"+project.ID+"/advance", body, &out)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return out
	}

	p := advance(AdvanceProjectRequest{ActorID: "admin-1", Date: "2023-12-05"})
	assert.Equal(t, "PreAcceptance", p.Status)
	assert.True(t, p.TempCardCreated)

	final := "4785000"
	p = advance(AdvanceProjectRequest{ActorID: "admin-1", FinalAmount: &final, Date: "2024-01-10"})
	assert.Equal(t, "FinancialReview", p.Status)
	require.NotNil(t, p.FinalAmount)
	assert.Equal(t, "4785000", *p.FinalAmount)

	p = advance(AdvanceProjectRequest{ActorID: "admin-1", Date: "2024-02-01"})
	assert.Equal(t, "Active", p.Status)

	// Disposing the capitalized asset is refused.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/projects/"+project.ID+"/dispose",
		DisposeProjectRequest{ActorID: "admin-1", Reason: "obsolete", Date: "2024-03-01"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// ALERTS, REPORTS, SUMMARY
// =============================================================================

func TestEvaluateAlerts(t *testing.T) {
	server := newTestServer(t)

	var triggered []TriggeredAlertDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/alerts/evaluate", EvaluateAlertsRequest{
		Metrics: []MetricDTO{
			{Category: "Utilization", Value: "45"},
			{Category: "Finance", Value: "90"},
		},
	}, &triggered)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, triggered, 2)
	assert.Equal(t, "ALT-01", triggered[0].RuleID)
	assert.Equal(t, "Below", triggered[0].Direction)
	assert.Equal(t, "ALT-05", triggered[1].RuleID)
}

func TestTriage_WithoutGeneratorDegradesToFallback(t *testing.T) {
	server := newTestServer(t)

	var out ReportResponse
	resp := doJSON(t, http.MethodPost, server.URL+"/api/reports/triage",
		TriageRequest{Issue: "broken window in lab 3"}, &out)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, report.FallbackTriage, out.Text)
}

func TestSummary(t *testing.T) {
	server := newTestServer(t)
	rec := openFee(t, server.URL, "DEPT-PHYS", "800", "1000")
	openFee(t, server.URL, "DEPT-HIST", "600", "550")
	feeAction(t, server.URL, rec.ID, "verify", "AssetAdmin")

	var summary SummaryDTO
	resp := doJSON(t, http.MethodGet, server.URL+"/api/summary", nil, &summary)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, summary.FeeRecords)
	assert.Equal(t, 2, summary.OpenFeeRecords)
	assert.Equal(t, "24000", summary.OutstandingCost)
	assert.Equal(t, 5, summary.AlertRules)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListLoadCurrentReset(t *testing.T) {
	server := newTestServer(t)

	var list []ScenarioDTO
	doJSON(t, http.MethodGet, server.URL+"/api/scenarios", nil, &list)
	require.Len(t, list, 3)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "arrears-gate"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var current ScenarioDTO
	doJSON(t, http.MethodGet, server.URL+"/api/scenarios/current", nil, &current)
	assert.Equal(t, "arrears-gate", current.ID)

	// The seeded Math department is delinquent and reminded.
	var arrears ArrearsDTO
	doJSON(t, http.MethodGet, server.URL+"/api/departments/DEPT-MATH/arrears?as_of=2024-02-01", nil, &arrears)
	assert.True(t, arrears.InArrears)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/scenarios/reset", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadScenario_Unknown_Returns400(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "nope"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
