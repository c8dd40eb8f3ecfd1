/*
Package alert evaluates configured thresholds against metrics.

PURPOSE:
  Pure threshold evaluation: given a metric observation (category + value)
  and the configured alert rules, return every enabled rule of the
  matching category whose threshold is crossed in the rule's direction.
  Utilization rules alarm on low values by default, Safety and Finance on
  high ones; a rule may override its direction.

  All matches are returned. Picking the most severe is a presentation
  concern, not the evaluator's.
*/
package alert

import (
	"github.com/shopspring/decimal"

	"github.com/estateops/space-engine/rules"
)

// Metric is one observation to evaluate.
type Metric struct {
	Category rules.AlertCategory
	Value    decimal.Decimal
}

// Triggered pairs a fired rule with the observation that fired it.
type Triggered struct {
	Rule      rules.AlertRule
	Value     decimal.Decimal
	Direction rules.Direction
}

// Evaluate returns all enabled rules of the metric's category whose
// threshold the value crosses. Disabled rules are skipped, not evaluated.
func Evaluate(metric Metric, configured []rules.AlertRule) []Triggered {
	var triggered []Triggered
	for _, r := range configured {
		if !r.Enabled || r.Category != metric.Category {
			continue
		}
		dir := r.EffectiveDirection()
		fired := false
		switch dir {
		case rules.DirectionBelow:
			fired = metric.Value.LessThan(r.Threshold)
		case rules.DirectionAbove:
			fired = metric.Value.GreaterThan(r.Threshold)
		}
		if fired {
			triggered = append(triggered, Triggered{Rule: r, Value: metric.Value, Direction: dir})
		}
	}
	return triggered
}

// EvaluateAll evaluates a batch of metrics against the same rule set.
func EvaluateAll(metrics []Metric, configured []rules.AlertRule) []Triggered {
	var triggered []Triggered
	for _, m := range metrics {
		triggered = append(triggered, Evaluate(m, configured)...)
	}
	return triggered
}
