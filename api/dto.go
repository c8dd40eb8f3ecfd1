/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Decimal amounts (areas, money) are serialized as strings so clients do
  not lose precision to float64 JSON numbers.

VALIDATION:
  Validation is done in handlers and the rules package, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ruleset.go: Rule-set document types reused for config endpoints
*/
package api

import (
	"github.com/estateops/space-engine/factory"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Rule-set configuration endpoints reuse the factory document types, so
// the REST payloads and the on-disk rule-set files share one schema.

// UpsertCoefficientRequest creates or replaces a quota coefficient.
type UpsertCoefficientRequest struct {
	Coefficient factory.CoefficientDoc `json:"coefficient"`
}

// ReplaceTiersRequest replaces the whole fee tier table.
type ReplaceTiersRequest struct {
	Tiers []factory.TierDoc `json:"tiers"`
}

// ReplaceStagesRequest replaces the whole discount stage table.
type ReplaceStagesRequest struct {
	Stages []factory.StageDoc `json:"stages"`
}

// UpsertAlertRequest creates or replaces an alert rule.
type UpsertAlertRequest struct {
	Alert factory.AlertDoc `json:"alert"`
}

// SetAlertEnabledRequest toggles an alert rule.
type SetAlertEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetBillingRequest replaces the billing settings.
type SetBillingRequest struct {
	Billing factory.BillingDoc `json:"billing"`
}

// =============================================================================
// QUOTA
// =============================================================================

// ComputeQuotaRequest asks for a department's space quota. The discipline
// can be named (looked up in the coefficient table) or given as a raw
// coefficient; a raw value that matches no configured discipline is still
// used, with a diagnostic.
type ComputeQuotaRequest struct {
	Headcounts      map[string]int `json:"headcounts"`
	DisciplineName  string         `json:"discipline_name,omitempty"`
	DisciplineCoeff string         `json:"discipline_coefficient,omitempty"`
}

// ComputeQuotaResponse carries the quota and any diagnostics about inputs
// that had no configured coefficient.
type ComputeQuotaResponse struct {
	QuotaArea   string   `json:"quota_area"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// =============================================================================
// FEES
// =============================================================================

// FeeRecordDTO represents a fee record in API responses.
type FeeRecordDTO struct {
	ID           string `json:"id"`
	DepartmentID string `json:"department_id"`
	QuotaArea    string `json:"quota_area"`
	ActualArea   string `json:"actual_area"`
	ExcessArea   string `json:"excess_area"`
	ExcessCost   string `json:"excess_cost"`
	Status       string `json:"status"`
	HasReminder  bool   `json:"has_reminder"`
	Archived     bool   `json:"archived"`
	OpenedAt     string `json:"opened_at"`
}

// OpenFeeRecordRequest opens a billing record for a department.
type OpenFeeRecordRequest struct {
	DepartmentID  string `json:"department_id"`
	QuotaArea     string `json:"quota_area"`
	ActualArea    string `json:"actual_area"`
	EstablishedAt string `json:"established_at"`
	BillingDate   string `json:"billing_date"`
}

// FeeActionRequest drives a lifecycle action on a fee record.
type FeeActionRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	Date    string `json:"date"`
}

// ClosePeriodRequest archives completed records.
type ClosePeriodRequest struct {
	ActorID string `json:"actor_id"`
	Date    string `json:"date"`
}

// ClosePeriodResponse reports how many records were archived.
type ClosePeriodResponse struct {
	Archived int `json:"archived"`
}

// ArrearsDTO is the arrears check result for a department.
type ArrearsDTO struct {
	DepartmentID string `json:"department_id"`
	AsOf         string `json:"as_of"`
	InArrears    bool   `json:"in_arrears"`
}

// =============================================================================
// ALLOCATION REQUESTS
// =============================================================================

// RequestDTO represents an allocation request in API responses.
type RequestDTO struct {
	ID             string `json:"id"`
	DepartmentID   string `json:"department_id"`
	RequestedArea  string `json:"requested_area"`
	Justification  string `json:"justification,omitempty"`
	Status         string `json:"status"`
	RequiredLevels int    `json:"required_levels"`
	SubmittedAt    string `json:"submitted_at"`
}

// SubmitRequestDTO submits a new allocation request.
type SubmitRequestDTO struct {
	DepartmentID  string `json:"department_id"`
	RequestedArea string `json:"requested_area"`
	Justification string `json:"justification"`
	AsOf          string `json:"as_of"`
}

// DecideRequestDTO approves or rejects a pending request.
type DecideRequestDTO struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
	Date    string `json:"date"`
}

// =============================================================================
// ASSET PROJECTS
// =============================================================================

// ProjectDTO represents a construction project in API responses.
type ProjectDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContractAmount  string  `json:"contract_amount"`
	FinalAmount     *string `json:"final_amount,omitempty"`
	Contractor      string  `json:"contractor,omitempty"`
	Status          string  `json:"status"`
	CompletionDate  string  `json:"completion_date"`
	HasSurveyData   bool    `json:"has_survey_data"`
	TempCardCreated bool    `json:"temp_card_created"`
}

// RegisterProjectRequest registers a new project in Construction.
type RegisterProjectRequest struct {
	Name           string `json:"name"`
	Contractor     string `json:"contractor"`
	ContractAmount string `json:"contract_amount"`
	CompletionDate string `json:"completion_date"`
	HasSurveyData  bool   `json:"has_survey_data"`
}

// AdvanceProjectRequest moves a project one stage forward. FinalAmount is
// consumed on the advance into FinancialReview.
type AdvanceProjectRequest struct {
	ActorID     string  `json:"actor_id"`
	FinalAmount *string `json:"final_amount,omitempty"`
	Date        string  `json:"date"`
}

// DisposeProjectRequest runs the admin disposal override.
type DisposeProjectRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
	Date    string `json:"date"`
}

// =============================================================================
// ALERTS
// =============================================================================

// EvaluateAlertsRequest submits observed metrics for threshold evaluation.
type EvaluateAlertsRequest struct {
	Metrics []MetricDTO `json:"metrics"`
}

// MetricDTO is one observed value for an alert category.
type MetricDTO struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// TriggeredAlertDTO is one alert that fired.
type TriggeredAlertDTO struct {
	RuleID    string `json:"rule_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Threshold string `json:"threshold"`
	Value     string `json:"value"`
	Direction string `json:"direction"`
}

// =============================================================================
// REPORTS
// =============================================================================

// TriageRequest asks for routing advice on a reported issue.
type TriageRequest struct {
	Issue string `json:"issue"`
}

// ReportResponse carries generated (or fallback) report text.
type ReportResponse struct {
	Text string `json:"text"`
}

// =============================================================================
// SUMMARY / AUDIT / SCENARIOS
// =============================================================================

// SummaryDTO is the dashboard roll-up.
type SummaryDTO struct {
	FeeRecords      int    `json:"fee_records"`
	OpenFeeRecords  int    `json:"open_fee_records"`
	OutstandingCost string `json:"outstanding_cost"`
	PendingRequests int    `json:"pending_requests"`
	ActiveProjects  int    `json:"active_projects"`
	AlertRules      int    `json:"alert_rules"`
}

// AuditEntryDTO is one audit trail entry.
type AuditEntryDTO struct {
	ID       string         `json:"id"`
	At       string         `json:"at"`
	ActorID  string         `json:"actor_id"`
	Role     string         `json:"role"`
	Action   string         `json:"action"`
	EntityID string         `json:"entity_id"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error envelope. Error names the violated
// invariant; Details carries the underlying error text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
