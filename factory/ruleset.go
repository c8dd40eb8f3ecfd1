/*
Package factory converts rule-set documents to and from rules types.

PURPOSE:
  Operators maintain the governance rules as a document (JSON or YAML)
  rather than code: coefficient tables, fee tiers, discount stages, alert
  thresholds and billing settings. The factory parses a document into a
  validated rules.Snapshot and serializes a snapshot back out, so the rule
  set can live in version control, be edited in an admin UI, or be stored
  as a row in the database.

DOCUMENT SCHEMA (YAML):

  coefficients:
    - id: Q-01
      category: Personnel
      name: Professor
      value: 24
      unit: m²/person
  tiers:
    - id: TIER-1
      min_excess_pct: 0
      max_excess_pct: 30      # omit for the open-ended top tier
      multiplier: 1.0
      display_name: Rate A
  stages:
    - index: 0
      description: First year
      fraction: 0.5
  alerts:
    - id: ALT-01
      name: Low utilization
      category: Utilization
      threshold: 60
      unit: "%"
      enabled: true
      severity: Medium
  billing:
    base_rate: 120
    payment_deadline: 2024-01-15

VALIDATION:
  Parse* run rules.ValidateSnapshot before returning; a malformed document
  is rejected with core.ErrInvalidConfiguration, never half-loaded.

SEE ALSO:
  - rules/validate.go: The invariants enforced on parse
  - cmd/server/main.go: Loads an optional rules file at startup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/rules"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// RuleSetDoc is the serialized form of a complete rule set.
type RuleSetDoc struct {
	Coefficients []CoefficientDoc `json:"coefficients" yaml:"coefficients"`
	Tiers        []TierDoc        `json:"tiers" yaml:"tiers"`
	Stages       []StageDoc       `json:"stages" yaml:"stages"`
	Alerts       []AlertDoc       `json:"alerts" yaml:"alerts"`
	Billing      BillingDoc       `json:"billing" yaml:"billing"`
}

type CoefficientDoc struct {
	ID          string  `json:"id" yaml:"id"`
	Category    string  `json:"category" yaml:"category"`
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value" yaml:"value"`
	Unit        string  `json:"unit" yaml:"unit"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

type TierDoc struct {
	ID           string   `json:"id" yaml:"id"`
	MinExcessPct float64  `json:"min_excess_pct" yaml:"min_excess_pct"`
	MaxExcessPct *float64 `json:"max_excess_pct,omitempty" yaml:"max_excess_pct,omitempty"`
	Multiplier   float64  `json:"multiplier" yaml:"multiplier"`
	DisplayName  string   `json:"display_name" yaml:"display_name"`
}

type StageDoc struct {
	Index       int     `json:"index" yaml:"index"`
	Description string  `json:"description" yaml:"description"`
	Fraction    float64 `json:"fraction" yaml:"fraction"`
}

type AlertDoc struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Category  string  `json:"category" yaml:"category"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Unit      string  `json:"unit" yaml:"unit"`
	Enabled   bool    `json:"enabled" yaml:"enabled"`
	Severity  string  `json:"severity" yaml:"severity"`
	Direction string  `json:"direction,omitempty" yaml:"direction,omitempty"`
}

type BillingDoc struct {
	BaseRate        float64 `json:"base_rate" yaml:"base_rate"`
	PaymentDeadline string  `json:"payment_deadline" yaml:"payment_deadline"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseJSON parses and validates a JSON rule-set document.
func ParseJSON(data []byte) (rules.Snapshot, error) {
	var doc RuleSetDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return rules.Snapshot{}, fmt.Errorf("parse rule set: %w", err)
	}
	return FromDoc(doc)
}

// ParseYAML parses and validates a YAML rule-set document.
func ParseYAML(data []byte) (rules.Snapshot, error) {
	var doc RuleSetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return rules.Snapshot{}, fmt.Errorf("parse rule set: %w", err)
	}
	return FromDoc(doc)
}

// LoadFile reads a rule-set file, dispatching on the extension
// (.yaml/.yml/.json).
func LoadFile(path string) (rules.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.Snapshot{}, fmt.Errorf("read rule set %s: %w", path, err)
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return rules.Snapshot{}, fmt.Errorf("unsupported rule-set format %q", filepath.Ext(path))
	}
}

// FromDoc converts a document to a validated snapshot.
func FromDoc(doc RuleSetDoc) (rules.Snapshot, error) {
	snap := rules.Snapshot{}

	for _, c := range doc.Coefficients {
		snap.Coefficients = append(snap.Coefficients, rules.QuotaCoefficient{
			ID:          c.ID,
			Category:    rules.CoefficientCategory(c.Category),
			Name:        c.Name,
			Value:       decimal.NewFromFloat(c.Value),
			Unit:        c.Unit,
			Description: c.Description,
		})
	}

	for _, t := range doc.Tiers {
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
		snap.Tiers = append(snap.Tiers, tier)
	}

	for _, st := range doc.Stages {
		snap.Stages = append(snap.Stages, rules.DiscountStage{
			Index:       st.Index,
			Description: st.Description,
			Fraction:    decimal.NewFromFloat(st.Fraction),
		})
	}

	for _, a := range doc.Alerts {
		snap.Alerts = append(snap.Alerts, rules.AlertRule{
			ID:        a.ID,
			Name:      a.Name,
			Category:  rules.AlertCategory(a.Category),
			Threshold: decimal.NewFromFloat(a.Threshold),
			Unit:      a.Unit,
			Enabled:   a.Enabled,
			Severity:  rules.Severity(a.Severity),
			Direction: rules.Direction(a.Direction),
		})
	}

	deadline, err := core.ParseDate(doc.Billing.PaymentDeadline)
	if err != nil {
		return rules.Snapshot{}, &core.ConfigError{Field: "billing.payment_deadline", Reason: err.Error()}
	}
	snap.Billing = rules.BillingSettings{
		BaseRate:        decimal.NewFromFloat(doc.Billing.BaseRate),
		PaymentDeadline: deadline,
	}

	if err := rules.ValidateSnapshot(snap); err != nil {
		return rules.Snapshot{}, err
	}
	return snap, nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToDoc converts a snapshot back into its document form.
func ToDoc(snap rules.Snapshot) RuleSetDoc {
	doc := RuleSetDoc{}

	for _, c := range snap.Coefficients {
		v, _ := c.Value.Float64()
		doc.Coefficients = append(doc.Coefficients, CoefficientDoc{
			ID:          c.ID,
			Category:    string(c.Category),
			Name:        c.Name,
			Value:       v,
			Unit:        c.Unit,
			Description: c.Description,
		})
	}

	for _, t := range snap.Tiers {
		min, _ := t.MinExcessPct.Float64()
		mult, _ := t.Multiplier.Float64()
		td := TierDoc{ID: t.ID, MinExcessPct: min, Multiplier: mult, DisplayName: t.DisplayName}
		if t.MaxExcessPct != nil {
			max, _ := t.MaxExcessPct.Float64()
			td.MaxExcessPct = &max
		}
		doc.Tiers = append(doc.Tiers, td)
	}

	for _, st := range snap.Stages {
		f, _ := st.Fraction.Float64()
		doc.Stages = append(doc.Stages, StageDoc{Index: st.Index, Description: st.Description, Fraction: f})
	}

	for _, a := range snap.Alerts {
		th, _ := a.Threshold.Float64()
		doc.Alerts = append(doc.Alerts, AlertDoc{
			ID:        a.ID,
			Name:      a.Name,
			Category:  string(a.Category),
			Threshold: th,
			Unit:      a.Unit,
			Enabled:   a.Enabled,
			Severity:  string(a.Severity),
			Direction: string(a.Direction),
		})
	}

	rate, _ := snap.Billing.BaseRate.Float64()
	doc.Billing = BillingDoc{
		BaseRate:        rate,
		PaymentDeadline: snap.Billing.PaymentDeadline.String(),
	}
	return doc
}

// MarshalJSON serializes a snapshot as a JSON document (used by the
// sqlite store to persist the rule set).
func MarshalJSON(snap rules.Snapshot) ([]byte, error) {
	return json.Marshal(ToDoc(snap))
}
