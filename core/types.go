/*
Package core provides the shared types for the facility governance engine.

PURPOSE:
  This package contains the domain-neutral building blocks used by every
  engine: identifiers, actor roles, precise decimal quantities for area
  and money, the Date value type, the error taxonomy, and the repository
  interfaces. Domain packages (quota, fee, allocation, asset, alert) build
  their state machines and scoring functions on top of these.

KEY CONCEPTS IN THIS FILE (types.go):
  - Area / Money: decimal quantities (never float64 in business math)
  - DepartmentID and friends: type-safe identifiers
  - Role: the three actor roles that gate workflow actions

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing entity kinds
  3. Determinism: No wall-clock reads; dates are always passed in

SEE ALSO:
  - time.go: Date value type
  - errors.go: Error taxonomy
  - store.go: Repository interfaces
*/
package core

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// QUANTITIES - Area (m²) and Money (yuan) as exact decimals
// =============================================================================

// Area is a floor area in square meters.
type Area = decimal.Decimal

// Money is a monetary amount in yuan.
type Money = decimal.Decimal

func NewArea(v float64) Area   { return decimal.NewFromFloat(v) }
func NewMoney(v float64) Money { return decimal.NewFromFloat(v) }

// MustParseDecimal parses a decimal string, returning zero on failure.
// Intended for trusted literals in seed data and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type DepartmentID string
type FeeRecordID string
type RequestID string
type ProjectID string

// =============================================================================
// ACTOR ROLES - Gate workflow actions
// =============================================================================

// Role identifies the kind of actor performing a workflow action.
// Fee lifecycle actions are role-gated: colleges confirm their own bills,
// the asset office sends reminders and runs deductions.
type Role string

const (
	RoleTeacher      Role = "Teacher"
	RoleCollegeAdmin Role = "CollegeAdmin"
	RoleAssetAdmin   Role = "AssetAdmin"
)

// ParseRole maps a string to a Role, defaulting to Teacher.
func ParseRole(s string) Role {
	switch s {
	case string(RoleCollegeAdmin):
		return RoleCollegeAdmin
	case string(RoleAssetAdmin):
		return RoleAssetAdmin
	default:
		return RoleTeacher
	}
}
