/*
Package report is the fail-soft boundary to the external text generator.

PURPOSE:
  Two calls cross this boundary: a fee-analysis report generated from a
  data snapshot, and a repair triage suggestion generated from a free-text
  issue description. Both are single-attempt, timeout-bounded, and NEVER
  surface a transport or service error to the caller - any failure returns
  a fixed human-readable fallback string. There is no retry policy.

  The Facade depends on a Generator interface so tests and the offline
  server run without a real service behind it.
*/
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// GENERATOR - The external request/response text contract
// =============================================================================

// Generator accepts a prompt and returns generated text. Implementations
// may fail; the Facade absorbs every failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Fallback strings returned when the generator is unavailable. These are
// the caller-visible contract for every failure mode.
const (
	FallbackAnalysis = "The analysis service is unavailable; please retry later."
	FallbackTriage   = "Automatic triage is unavailable; route the ticket manually."
)

// =============================================================================
// FACADE
// =============================================================================

// FeeSnapshot is the per-department slice of billing data handed to the
// analysis prompt. It is a read-only copy; the facade never holds entity
// references.
type FeeSnapshot struct {
	Department string     `json:"department"`
	QuotaArea  string     `json:"quota_area"`
	ActualArea string     `json:"actual_area"`
	ExcessArea string     `json:"excess_area"`
	ExcessCost string     `json:"excess_cost"`
	Status     string     `json:"status"`
}

// Facade wraps a Generator with the fail-soft contract and a per-call
// timeout.
type Facade struct {
	Generator Generator
	Timeout   time.Duration // defaults to 15s when zero
}

func (f *Facade) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return 15 * time.Second
}

// FeeAnalysis asks the generator for an administrative summary of the
// billing snapshot. Any failure yields FallbackAnalysis.
func (f *Facade) FeeAnalysis(ctx context.Context, snapshot []FeeSnapshot) string {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return FallbackAnalysis
	}

	var b strings.Builder
	b.WriteString("You are a campus facility data analyst. Analyze this overage billing data:\n")
	b.Write(payload)
	b.WriteString("\n1. Identify departments severely over quota.\n")
	b.WriteString("2. Suggest cost or space optimizations for the worst offender.\n")
	b.WriteString("3. Output a concise executive summary in Markdown.")

	return f.generate(ctx, b.String(), FallbackAnalysis)
}

// Triage asks the generator to triage a free-text repair issue. Any
// failure yields FallbackTriage.
func (f *Facade) Triage(ctx context.Context, issue string) string {
	prompt := fmt.Sprintf(
		"As a campus facility maintenance expert, triage this repair issue: %q.\n"+
			"1. Priority (low/medium/high/urgent).\n"+
			"2. Suggested trade (HVAC, carpentry, electrical, ...).\n"+
			"3. Estimated repair time.\nKeep it brief.",
		issue,
	)
	return f.generate(ctx, prompt, FallbackTriage)
}

func (f *Facade) generate(ctx context.Context, prompt, fallback string) string {
	if f.Generator == nil {
		return fallback
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout())
	defer cancel()

	text, err := f.Generator.Generate(ctx, prompt)
	if err != nil || text == "" {
		return fallback
	}
	return text
}

// =============================================================================
// HTTP GENERATOR - Concrete client for a remote generation endpoint
// =============================================================================

// HTTPGenerator posts {"prompt": ...} to a generation endpoint and expects
// {"text": ...} back. Single attempt; the Facade provides the timeout via
// the request context.
type HTTPGenerator struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func (g *HTTPGenerator) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// SnapshotFromRecords builds the analysis snapshot from fee data supplied
// by the caller. Moneys and areas are serialized as strings to keep the
// prompt exact.
func SnapshotFromRecords(records []RecordView) []FeeSnapshot {
	snap := make([]FeeSnapshot, 0, len(records))
	for _, r := range records {
		snap = append(snap, FeeSnapshot{
			Department: string(r.DepartmentID),
			QuotaArea:  r.QuotaArea.String(),
			ActualArea: r.ActualArea.String(),
			ExcessArea: r.ExcessArea.String(),
			ExcessCost: r.ExcessCost.String(),
			Status:     r.Status,
		})
	}
	return snap
}

// RecordView is the minimal read-only projection of a fee record the
// facade needs. Defined here so report does not import the fee package.
type RecordView struct {
	DepartmentID core.DepartmentID
	QuotaArea    core.Area
	ActualArea   core.Area
	ExcessArea   core.Area
	ExcessCost   core.Money
	Status       string
}
