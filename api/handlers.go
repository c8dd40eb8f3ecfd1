/*
handlers.go - HTTP API handlers for the space governance system

PURPOSE:
  Exposes the governance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Configuration:
    GET    /api/config                  Full rule-set document
    PUT    /api/config                  Replace the whole rule set
    POST   /api/config/quotas           Upsert a quota coefficient
    DELETE /api/config/quotas/{id}      Remove a quota coefficient
    PUT    /api/config/tiers            Replace the fee tier table
    PUT    /api/config/discounts        Replace the discount stages
    POST   /api/config/alerts           Upsert an alert rule
    PUT    /api/config/alerts/{id}      Enable/disable an alert rule
    PUT    /api/config/billing          Replace billing settings

  Quota:
    POST   /api/quota/compute           Compute a department quota

  Fees:
    GET    /api/fees                    List fee records
    POST   /api/fees                    Open a billing record
    GET    /api/fees/{id}               Get one record
    POST   /api/fees/{id}/verify        Verify (AssetAdmin)
    POST   /api/fees/{id}/remind        Send payment reminder (AssetAdmin)
    POST   /api/fees/{id}/request-confirm  Request confirmation (CollegeAdmin)
    POST   /api/fees/{id}/confirm       Upload confirmation (CollegeAdmin)
    POST   /api/fees/{id}/deduct        Run deduction (AssetAdmin)
    POST   /api/fees/close-period       Archive completed records
    GET    /api/departments/{id}/arrears  Arrears check (?as_of=YYYY-MM-DD)

  Allocation requests, asset projects, alerts, reports, summary, audit,
  scenarios: see server.go for the route map.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engines, services)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Domain errors map onto HTTP status codes:
  - 400: Invalid configuration, malformed input
  - 404: Entity not found
  - 409: Blocked action or terminal-state conflict
  - 500: Internal errors
  The response body names the violated invariant.

SECURITY NOTE:
  The caller asserts its own role in the request body; there is no
  authentication layer. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/alert"
	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/factory"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/quota"
	"github.com/estateops/space-engine/report"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Rules       *rules.Store
	Fees        *fee.Service
	Allocations *allocation.Service
	Assets      *asset.Service
	Reports     *report.Facade
	Audit       core.AuditLog

	// Optional hook used by the scenario reset endpoint to wipe
	// persistent storage before reseeding.
	Resetter interface {
		Reset(ctx context.Context) error
	}

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler over the given services.
func NewHandler(rulesStore *rules.Store, fees *fee.Service, allocations *allocation.Service, assets *asset.Service, reports *report.Facade, audit core.AuditLog) *Handler {
	return &Handler{
		Rules:       rulesStore,
		Fees:        fees,
		Allocations: allocations,
		Assets:      assets,
		Reports:     reports,
		Audit:       audit,
	}
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// GetConfig returns the full rule set as a document.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// ReplaceConfig replaces the whole rule set atomically.
func (h *Handler) ReplaceConfig(w http.ResponseWriter, r *http.Request) {
	var doc factory.RuleSetDoc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap, err := factory.FromDoc(doc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.Rules.Replace(snap); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "rule_set", "replaced")
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// UpsertCoefficient creates or replaces one quota coefficient.
func (h *Handler) UpsertCoefficient(w http.ResponseWriter, r *http.Request) {
	var req UpsertCoefficientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c := rules.QuotaCoefficient{
		ID:          req.Coefficient.ID,
		Category:    rules.CoefficientCategory(req.Coefficient.Category),
		Name:        req.Coefficient.Name,
		Value:       decimal.NewFromFloat(req.Coefficient.Value),
		Unit:        req.Coefficient.Unit,
		Description: req.Coefficient.Description,
	}
	if err := h.Rules.UpsertCoefficient(c); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "coefficient", c.ID)
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// DeleteCoefficient removes a quota coefficient.
func (h *Handler) DeleteCoefficient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Rules.DeleteCoefficient(id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "coefficient_deleted", id)
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// ReplaceTiers replaces the whole fee tier table. Partial edits are not
// supported; the table is validated as a unit.
func (h *Handler) ReplaceTiers(w http.ResponseWriter, r *http.Request) {
	var req ReplaceTiersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tiers := make([]rules.FeeTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tier := rules.FeeTier{
			ID:           t.ID,
			MinExcessPct: decimal.NewFromFloat(t.MinExcessPct),
			Multiplier:   decimal.NewFromFloat(t.Multiplier),
			DisplayName:  t.DisplayName,
		}
		if t.MaxExcessPct != nil {
			max := decimal.NewFromFloat(*t.MaxExcessPct)
			tier.MaxExcessPct = &max
		}
		tiers = append(tiers, tier)
	}
	if err := h.Rules.ReplaceTiers(tiers); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "tiers", "replaced")
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// ReplaceStages replaces the discount stage table.
func (h *Handler) ReplaceStages(w http.ResponseWriter, r *http.Request) {
	var req ReplaceStagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	stages := make([]rules.DiscountStage, 0, len(req.Stages))
	for _, s := range req.Stages {
		stages = append(stages, rules.DiscountStage{
			Index:       s.Index,
			Description: s.Description,
			Fraction:    decimal.NewFromFloat(s.Fraction),
		})
	}
	if err := h.Rules.ReplaceStages(stages); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "stages", "replaced")
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// UpsertAlert creates or replaces an alert rule.
func (h *Handler) UpsertAlert(w http.ResponseWriter, r *http.Request) {
	var req UpsertAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule := rules.AlertRule{
		ID:        req.Alert.ID,
		Name:      req.Alert.Name,
		Category:  rules.AlertCategory(req.Alert.Category),
		Threshold: decimal.NewFromFloat(req.Alert.Threshold),
		Unit:      req.Alert.Unit,
		Enabled:   req.Alert.Enabled,
		Severity:  rules.Severity(req.Alert.Severity),
		Direction: rules.Direction(req.Alert.Direction),
	}
	if err := h.Rules.UpsertAlertRule(rule); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "alert", rule.ID)
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// SetAlertEnabled toggles an alert rule without re-stating its definition.
func (h *Handler) SetAlertEnabled(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req SetAlertEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Rules.SetAlertEnabled(id, req.Enabled); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "alert_toggled", id)
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// SetBilling replaces the billing settings.
func (h *Handler) SetBilling(w http.ResponseWriter, r *http.Request) {
	var req SetBillingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	deadline, err := core.ParseDate(req.Billing.PaymentDeadline)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment_deadline format (use YYYY-MM-DD)", err)
		return
	}
	b := rules.BillingSettings{
		BaseRate:        decimal.NewFromFloat(req.Billing.BaseRate),
		PaymentDeadline: deadline,
	}
	if err := h.Rules.SetBilling(b); err != nil {
		writeDomainError(w, err)
		return
	}
	h.auditConfigChange(r.Context(), "billing", "replaced")
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Rules.Snapshot()))
}

// =============================================================================
// QUOTA HANDLERS
// =============================================================================

// ComputeQuota computes a department's entitled area.
func (h *Handler) ComputeQuota(w http.ResponseWriter, r *http.Request) {
	var req ComputeQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	snap := h.Rules.Snapshot()

	var extra []string
	coeff := decimal.NewFromInt(1)
	switch {
	case req.DisciplineName != "":
		c, ok := snap.Coefficient(rules.CategoryDiscipline, req.DisciplineName)
		if !ok {
			writeError(w, http.StatusBadRequest,
				"Unknown discipline: "+req.DisciplineName, core.ErrInvalidConfiguration)
			return
		}
		coeff = c.Value
	case req.DisciplineCoeff != "":
		v, err := decimal.NewFromString(req.DisciplineCoeff)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid discipline_coefficient", err)
			return
		}
		coeff = v
	default:
		extra = append(extra, "no discipline supplied; using coefficient 1")
	}

	area, diags := quota.Compute(req.Headcounts, coeff, snap)

	resp := ComputeQuotaResponse{QuotaArea: area.String(), Diagnostics: extra}
	for _, d := range diags {
		resp.Diagnostics = append(resp.Diagnostics, d.Message)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// FEE HANDLERS
// =============================================================================

// ListFees returns all fee records, optionally filtered by department.
func (h *Handler) ListFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		records []fee.Record
		err     error
	)
	if dept := r.URL.Query().Get("department_id"); dept != "" {
		records, err = h.Fees.Records.ListByDepartment(ctx, core.DepartmentID(dept))
	} else {
		records, err = h.Fees.Records.List(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee records", err)
		return
	}

	dtos := make([]FeeRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toFeeRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetFee returns a single fee record.
func (h *Handler) GetFee(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Fees.Records.Get(r.Context(), core.FeeRecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeRecordDTO(rec))
}

// OpenFee opens a billing record for a department.
func (h *Handler) OpenFee(w http.ResponseWriter, r *http.Request) {
	var req OpenFeeRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quotaArea, err := decimal.NewFromString(req.QuotaArea)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quota_area", err)
		return
	}
	actualArea, err := decimal.NewFromString(req.ActualArea)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid actual_area", err)
		return
	}
	established, err := core.ParseDate(req.EstablishedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid established_at format (use YYYY-MM-DD)", err)
		return
	}
	billingDate, err := core.ParseDate(req.BillingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid billing_date format (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Fees.OpenBillingRecord(r.Context(),
		core.DepartmentID(req.DepartmentID), quotaArea, actualArea, established, billingDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFeeRecordDTO(rec))
}

// feeAction runs one lifecycle action parsed from the request body.
func (h *Handler) feeAction(w http.ResponseWriter, r *http.Request, action fee.Action) {
	id := core.FeeRecordID(chi.URLParam(r, "id"))

	var req FeeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role := core.ParseRole(req.Role)
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Fees.Apply(r.Context(), id, action, req.ActorID, role, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeeRecordDTO(rec))
}

// VerifyFee confirms the measured usage data and generates (or completes)
// the bill.
func (h *Handler) VerifyFee(w http.ResponseWriter, r *http.Request) {
	h.feeAction(w, r, fee.ActionVerify)
}

// RemindFee sends a payment reminder. Idempotent; never changes status.
func (h *Handler) RemindFee(w http.ResponseWriter, r *http.Request) {
	h.feeAction(w, r, fee.ActionRemind)
}

// RequestFeeConfirm asks the college to confirm the generated bill.
func (h *Handler) RequestFeeConfirm(w http.ResponseWriter, r *http.Request) {
	h.feeAction(w, r, fee.ActionRequestConfirm)
}

// ConfirmFee uploads the college's confirmation.
func (h *Handler) ConfirmFee(w http.ResponseWriter, r *http.Request) {
	h.feeAction(w, r, fee.ActionUploadConfirm)
}

// DeductFee runs the finance deduction step.
func (h *Handler) DeductFee(w http.ResponseWriter, r *http.Request) {
	h.feeAction(w, r, fee.ActionDeduct)
}

// ClosePeriod archives all completed records.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	archived, err := h.Fees.ClosePeriod(r.Context(), req.ActorID, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClosePeriodResponse{Archived: archived})
}

// GetArrears reports whether a department is in arrears as of a date.
func (h *Handler) GetArrears(w http.ResponseWriter, r *http.Request) {
	dept := core.DepartmentID(chi.URLParam(r, "id"))

	asOfStr := r.URL.Query().Get("as_of")
	if asOfStr == "" {
		writeError(w, http.StatusBadRequest, "Missing as_of query parameter (YYYY-MM-DD)", nil)
		return
	}
	asOf, err := core.ParseDate(asOfStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	inArrears, err := h.Fees.IsInArrears(r.Context(), dept, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ArrearsDTO{
		DepartmentID: string(dept),
		AsOf:         asOf.String(),
		InArrears:    inArrears,
	})
}

// =============================================================================
// ALLOCATION REQUEST HANDLERS
// =============================================================================

// ListRequests returns all allocation requests.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Allocations.Requests.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]RequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRequest returns a single allocation request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Allocations.Requests.Get(r.Context(), core.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// SubmitRequest submits a new allocation request, applying the arrears
// gate as of the supplied date.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	area, err := decimal.NewFromString(req.RequestedArea)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid requested_area", err)
		return
	}
	asOf, err := core.ParseDate(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Allocations.Submit(r.Context(),
		core.DepartmentID(req.DepartmentID), area, req.Justification, asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// ApproveRequest advances a request one approval level.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := core.RequestID(chi.URLParam(r, "id"))

	var req DecideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	updated, err := h.Allocations.Approve(r.Context(), id, req.ActorID, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(updated))
}

// RejectRequest rejects a pending request at any level.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := core.RequestID(chi.URLParam(r, "id"))

	var req DecideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	updated, err := h.Allocations.Reject(r.Context(), id, req.ActorID, req.Reason, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(updated))
}

// =============================================================================
// ASSET PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Assets.Projects.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Assets.Projects.Get(r.Context(), core.ProjectID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// RegisterProject registers a new project in Construction.
func (h *Handler) RegisterProject(w http.ResponseWriter, r *http.Request) {
	var req RegisterProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.ContractAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract_amount", err)
		return
	}
	completion, err := core.ParseDate(req.CompletionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid completion_date format (use YYYY-MM-DD)", err)
		return
	}

	p, err := h.Assets.Register(r.Context(), req.Name, req.Contractor, amount, completion, req.HasSurveyData)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// AdvanceProject moves a project one stage forward.
func (h *Handler) AdvanceProject(w http.ResponseWriter, r *http.Request) {
	id := core.ProjectID(chi.URLParam(r, "id"))

	var req AdvanceProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	var finalAmount *core.Money
	if req.FinalAmount != nil {
		v, err := decimal.NewFromString(*req.FinalAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid final_amount", err)
			return
		}
		finalAmount = &v
	}

	p, err := h.Assets.Advance(r.Context(), id, req.ActorID, finalAmount, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// DisposeProject runs the admin disposal override.
func (h *Handler) DisposeProject(w http.ResponseWriter, r *http.Request) {
	id := core.ProjectID(chi.URLParam(r, "id"))

	var req DisposeProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	at, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	p, err := h.Assets.Dispose(r.Context(), id, req.ActorID, req.Reason, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// EvaluateAlerts checks observed metrics against the configured rules.
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	var req EvaluateAlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	metrics := make([]alert.Metric, 0, len(req.Metrics))
	for _, m := range req.Metrics {
		v, err := decimal.NewFromString(m.Value)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid metric value for "+m.Category, err)
			return
		}
		metrics = append(metrics, alert.Metric{
			Category: rules.AlertCategory(m.Category),
			Value:    v,
		})
	}

	triggered := alert.EvaluateAll(metrics, h.Rules.Snapshot().Alerts)

	dtos := make([]TriggeredAlertDTO, len(triggered))
	for i, t := range triggered {
		dtos[i] = TriggeredAlertDTO{
			RuleID:    t.Rule.ID,
			Name:      t.Rule.Name,
			Category:  string(t.Rule.Category),
			Severity:  string(t.Rule.Severity),
			Threshold: t.Rule.Threshold.String(),
			Value:     t.Value.String(),
			Direction: string(t.Direction),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// FeeAnalysis generates narrative analysis of the current billing data.
// Always returns 200; unavailability degrades to fallback text.
func (h *Handler) FeeAnalysis(w http.ResponseWriter, r *http.Request) {
	records, err := h.Fees.Records.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee records", err)
		return
	}

	views := make([]report.RecordView, len(records))
	for i, rec := range records {
		views[i] = report.RecordView{
			DepartmentID: rec.DepartmentID,
			QuotaArea:    rec.QuotaArea,
			ActualArea:   rec.ActualArea,
			ExcessArea:   rec.ExcessArea,
			ExcessCost:   rec.ExcessCost,
			Status:       string(rec.Status),
		}
	}

	text := h.Reports.FeeAnalysis(r.Context(), report.SnapshotFromRecords(views))
	writeJSON(w, http.StatusOK, ReportResponse{Text: text})
}

// Triage suggests routing for a reported facility issue.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Issue == "" {
		writeError(w, http.StatusBadRequest, "Missing issue text", nil)
		return
	}

	text := h.Reports.Triage(r.Context(), req.Issue)
	writeJSON(w, http.StatusOK, ReportResponse{Text: text})
}

// =============================================================================
// SUMMARY AND AUDIT
// =============================================================================

// GetSummary returns the dashboard roll-up.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.Fees.Records.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list fee records", err)
		return
	}
	requests, err := h.Allocations.Requests.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	projects, err := h.Assets.Projects.List(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	summary := SummaryDTO{FeeRecords: len(records)}
	outstanding := decimal.Zero
	for _, rec := range records {
		if !rec.Status.Terminal() {
			summary.OpenFeeRecords++
			outstanding = outstanding.Add(rec.ExcessCost)
		}
	}
	summary.OutstandingCost = outstanding.String()
	for _, req := range requests {
		if !req.Status.Terminal() {
			summary.PendingRequests++
		}
	}
	for _, p := range projects {
		if p.Status == asset.StatusActive {
			summary.ActiveProjects++
		}
	}
	summary.AlertRules = len(h.Rules.Snapshot().Alerts)

	writeJSON(w, http.StatusOK, summary)
}

// GetAudit returns the audit trail, optionally filtered by entity.
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	var filter core.AuditFilter
	if entity := r.URL.Query().Get("entity_id"); entity != "" {
		filter.EntityID = &entity
	}
	if actor := r.URL.Query().Get("actor_id"); actor != "" {
		filter.ActorID = &actor
	}

	entries, err := h.Audit.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query audit trail", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ID:       e.ID,
			At:       e.At.String(),
			ActorID:  e.ActorID,
			Role:     string(e.Role),
			Action:   string(e.Action),
			EntityID: e.EntityID,
			Detail:   e.Detail,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func toFeeRecordDTO(r fee.Record) FeeRecordDTO {
	return FeeRecordDTO{
		ID:           string(r.ID),
		DepartmentID: string(r.DepartmentID),
		QuotaArea:    r.QuotaArea.String(),
		ActualArea:   r.ActualArea.String(),
		ExcessArea:   r.ExcessArea.String(),
		ExcessCost:   r.ExcessCost.String(),
		Status:       string(r.Status),
		HasReminder:  r.HasReminder,
		Archived:     r.Archived,
		OpenedAt:     r.OpenedAt.String(),
	}
}

func toRequestDTO(r allocation.Request) RequestDTO {
	return RequestDTO{
		ID:             string(r.ID),
		DepartmentID:   string(r.DepartmentID),
		RequestedArea:  r.RequestedArea.String(),
		Justification:  r.Justification,
		Status:         string(r.Status),
		RequiredLevels: allocation.RequiredLevels(r.RequestedArea),
		SubmittedAt:    r.SubmittedAt.String(),
	}
}

func toProjectDTO(p asset.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:              string(p.ID),
		Name:            p.Name,
		ContractAmount:  p.ContractAmount.String(),
		Contractor:      p.Contractor,
		Status:          string(p.Status),
		CompletionDate:  p.CompletionDate.String(),
		HasSurveyData:   p.HasSurveyData,
		TempCardCreated: p.TempCardCreated,
	}
	if p.FinalAmount != nil {
		s := p.FinalAmount.String()
		dto.FinalAmount = &s
	}
	return dto
}

func (h *Handler) auditConfigChange(ctx context.Context, field, detail string) {
	if h.Audit == nil {
		return
	}
	h.Audit.Append(ctx, core.AuditEntry{
		ID:       "AUD-" + uuid.NewString(),
		ActorID:  "system",
		Action:   core.AuditConfigChanged,
		EntityID: field,
		Detail:   map[string]any{"change": detail},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses. The message is
// the error text itself, which names the violated invariant.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsInvalidConfig(err):
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
	case core.IsBlocked(err):
		writeError(w, http.StatusConflict, "Action blocked", err)
	case core.IsTerminal(err):
		writeError(w, http.StatusConflict, "State is terminal", err)
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
