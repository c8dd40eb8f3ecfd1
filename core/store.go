/*
store.go - Audit log and persistence conventions

PURPOSE:
  Each domain package owns its entity type and declares the repository
  interface it needs (fee.RecordStore, allocation.RequestStore,
  asset.ProjectStore). Implementations live under store/memory and
  store/sqlite. This file holds the one persistence concern shared by all
  workflows: the append-only audit log.

APPEND-ONLY CONTRACT:
  The audit log has no Update or Delete. Every workflow action (bill
  verified, reminder sent, request approved, project disposed) appends an
  entry recording who did what when.

SEE ALSO:
  - store/memory/memory.go: In-memory repositories
  - store/sqlite/sqlite.go: SQLite repositories
*/
package core

import (
	"context"
	"sync"
)

// =============================================================================
// AUDIT LOG - Tracks who did what when, separate from entity state
// =============================================================================

type AuditAction string

const (
	AuditBillVerified     AuditAction = "bill_verified"
	AuditReminderSent     AuditAction = "reminder_sent"
	AuditConfirmUploaded  AuditAction = "confirm_uploaded"
	AuditDeductionRun     AuditAction = "deduction_run"
	AuditPeriodClosed     AuditAction = "period_closed"
	AuditRequestSubmitted AuditAction = "request_submitted"
	AuditRequestApproved  AuditAction = "request_approved"
	AuditRequestRejected  AuditAction = "request_rejected"
	AuditProjectAdvanced  AuditAction = "project_advanced"
	AuditProjectDisposed  AuditAction = "project_disposed"
	AuditConfigChanged    AuditAction = "config_changed"
)

// AuditEntry records a single workflow action.
type AuditEntry struct {
	ID       string
	At       Date
	ActorID  string
	Role     Role
	Action   AuditAction
	EntityID string
	Detail   map[string]any
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	EntityID *string
	ActorID  *string
	Actions  []AuditAction
}

// =============================================================================
// MEMORY AUDIT LOG - Default implementation
// =============================================================================

type MemoryAuditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (m *MemoryAuditLog) Append(_ context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryAuditLog) Query(_ context.Context, filter AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []AuditEntry
	for _, e := range m.entries {
		if filter.EntityID != nil && e.EntityID != *filter.EntityID {
			continue
		}
		if filter.ActorID != nil && e.ActorID != *filter.ActorID {
			continue
		}
		if len(filter.Actions) > 0 && !containsAction(filter.Actions, e.Action) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func containsAction(actions []AuditAction, a AuditAction) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
