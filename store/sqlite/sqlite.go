/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (fee.RecordStore,
  allocation.RequestStore, asset.ProjectStore, core.AuditLog) plus rule-set
  persistence using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  fee_records:         Per-department billing records with lifecycle status
  allocation_requests: Space requests moving through the approval chain
  asset_projects:      Construction projects moving toward capitalization
  rule_sets:           The governance rule set, stored as a JSON document
  audit_entries:       Append-only record of workflow actions

APPEND-ONLY ENFORCEMENT:
  audit_entries has no UPDATE or DELETE path; corrections are new entries.

AMOUNTS AND DATES:
  Decimal amounts are stored as TEXT (their exact string form) so no
  precision is lost round-tripping through the database. Dates are stored
  as YYYY-MM-DD.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The Update methods run their
  mutation callback under the write lock, so concurrent mutations of the
  same entity are serialized. In production with PostgreSQL, row locking
  handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/space.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - fee/types.go, allocation/workflow.go, asset/lifecycle.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/factory"
	"github.com/estateops/space-engine/fee"
	"github.com/estateops/space-engine/rules"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fee_records (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		quota_area TEXT NOT NULL,
		actual_area TEXT NOT NULL,
		excess_area TEXT NOT NULL,
		excess_cost TEXT NOT NULL,
		status TEXT NOT NULL,
		has_reminder BOOLEAN DEFAULT FALSE,
		archived BOOLEAN DEFAULT FALSE,
		opened_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fee_records_department
		ON fee_records(department_id);
	CREATE INDEX IF NOT EXISTS idx_fee_records_status
		ON fee_records(status);

	CREATE TABLE IF NOT EXISTS allocation_requests (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		requested_area TEXT NOT NULL,
		justification TEXT,
		status TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocation_requests_department
		ON allocation_requests(department_id);
	CREATE INDEX IF NOT EXISTS idx_allocation_requests_status
		ON allocation_requests(status);

	CREATE TABLE IF NOT EXISTS asset_projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		contract_amount TEXT NOT NULL,
		final_amount TEXT,
		contractor TEXT,
		status TEXT NOT NULL,
		completion_date TEXT NOT NULL,
		has_survey_data BOOLEAN DEFAULT FALSE,
		temp_card_created BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_asset_projects_status
		ON asset_projects(status);

	-- The active rule set, stored whole as a JSON document. A single row
	-- (id = 'active') is overwritten on every configuration change.
	CREATE TABLE IF NOT EXISTS rule_sets (
		id TEXT PRIMARY KEY,
		document_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		role TEXT NOT NULL,
		action TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		detail_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entries_entity
		ON audit_entries(entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_action
		ON audit_entries(action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FEE RECORDS (fee.RecordStore interface)
// =============================================================================

// Get retrieves a fee record by ID.
func (s *Store) Get(ctx context.Context, id core.FeeRecordID) (fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getFeeRecord(ctx, id)
}

func (s *Store) getFeeRecord(ctx context.Context, id core.FeeRecordID) (fee.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, quota_area, actual_area, excess_area, excess_cost,
		        status, has_reminder, archived, opened_at
		 FROM fee_records WHERE id = ?`, string(id))
	return scanFeeRecord(row)
}

// Insert adds a new fee record.
func (s *Store) Insert(ctx context.Context, r fee.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fee_records
		 (id, department_id, quota_area, actual_area, excess_area, excess_cost,
		  status, has_reminder, archived, opened_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.DepartmentID),
		r.QuotaArea.String(), r.ActualArea.String(), r.ExcessArea.String(), r.ExcessCost.String(),
		string(r.Status), r.HasReminder, r.Archived, r.OpenedAt.String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fee record: %w", err)
	}
	return nil
}

// Update loads a fee record, applies fn, and writes the result back.
// The callback runs under the store lock, so concurrent mutations of the
// same record are serialized.
func (s *Store) Update(ctx context.Context, id core.FeeRecordID, fn func(*fee.Record) error) (fee.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.getFeeRecord(ctx, id)
	if err != nil {
		return fee.Record{}, err
	}
	if err := fn(&r); err != nil {
		return fee.Record{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE fee_records SET
		   department_id = ?, quota_area = ?, actual_area = ?, excess_area = ?,
		   excess_cost = ?, status = ?, has_reminder = ?, archived = ?,
		   opened_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(r.DepartmentID),
		r.QuotaArea.String(), r.ActualArea.String(), r.ExcessArea.String(), r.ExcessCost.String(),
		string(r.Status), r.HasReminder, r.Archived, r.OpenedAt.String(), nowRFC3339(),
		string(r.ID),
	)
	if err != nil {
		return fee.Record{}, fmt.Errorf("failed to update fee record: %w", err)
	}
	return r, nil
}

// ListByDepartment returns all fee records for a department.
func (s *Store) ListByDepartment(ctx context.Context, dept core.DepartmentID) ([]fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryFeeRecords(ctx,
		`SELECT id, department_id, quota_area, actual_area, excess_area, excess_cost,
		        status, has_reminder, archived, opened_at
		 FROM fee_records WHERE department_id = ? ORDER BY id ASC`, string(dept))
}

// List returns all fee records.
func (s *Store) List(ctx context.Context) ([]fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryFeeRecords(ctx,
		`SELECT id, department_id, quota_area, actual_area, excess_area, excess_cost,
		        status, has_reminder, archived, opened_at
		 FROM fee_records ORDER BY id ASC`)
}

func (s *Store) queryFeeRecords(ctx context.Context, query string, args ...any) ([]fee.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee records: %w", err)
	}
	defer rows.Close()

	var records []fee.Record
	for rows.Next() {
		r, err := scanFeeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeeRecord(row rowScanner) (fee.Record, error) {
	var (
		r                                          fee.Record
		id, dept, quota, actual, excess, cost, status, openedAt string
	)
	err := row.Scan(&id, &dept, &quota, &actual, &excess, &cost,
		&status, &r.HasReminder, &r.Archived, &openedAt)
	if err == sql.ErrNoRows {
		return fee.Record{}, fmt.Errorf("fee record: %w", core.ErrNotFound)
	}
	if err != nil {
		return fee.Record{}, fmt.Errorf("failed to scan fee record: %w", err)
	}

	r.ID = core.FeeRecordID(id)
	r.DepartmentID = core.DepartmentID(dept)
	r.QuotaArea = core.MustParseDecimal(quota)
	r.ActualArea = core.MustParseDecimal(actual)
	r.ExcessArea = core.MustParseDecimal(excess)
	r.ExcessCost = core.MustParseDecimal(cost)
	r.Status = fee.Status(status)
	r.OpenedAt, _ = core.ParseDate(openedAt)
	return r, nil
}

// =============================================================================
// ALLOCATION REQUESTS (allocation.RequestStore interface)
// =============================================================================

// GetRequest retrieves an allocation request by ID.
func (s *Store) GetRequest(ctx context.Context, id core.RequestID) (allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(ctx, id)
}

func (s *Store) getRequest(ctx context.Context, id core.RequestID) (allocation.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, department_id, requested_area, justification, status, submitted_at
		 FROM allocation_requests WHERE id = ?`, string(id))
	return scanRequest(row)
}

// InsertRequest adds a new allocation request.
func (s *Store) InsertRequest(ctx context.Context, r allocation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO allocation_requests
		 (id, department_id, requested_area, justification, status, submitted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.ID), string(r.DepartmentID), r.RequestedArea.String(),
		r.Justification, string(r.Status), r.SubmittedAt.String(), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// UpdateRequest loads a request, applies fn, and writes the result back.
func (s *Store) UpdateRequest(ctx context.Context, id core.RequestID, fn func(*allocation.Request) error) (allocation.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.getRequest(ctx, id)
	if err != nil {
		return allocation.Request{}, err
	}
	if err := fn(&r); err != nil {
		return allocation.Request{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE allocation_requests SET
		   department_id = ?, requested_area = ?, justification = ?, status = ?,
		   submitted_at = ?, updated_at = ?
		 WHERE id = ?`,
		string(r.DepartmentID), r.RequestedArea.String(), r.Justification,
		string(r.Status), r.SubmittedAt.String(), nowRFC3339(), string(r.ID),
	)
	if err != nil {
		return allocation.Request{}, fmt.Errorf("failed to update request: %w", err)
	}
	return r, nil
}

// ListRequests returns all allocation requests.
func (s *Store) ListRequests(ctx context.Context) ([]allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, department_id, requested_area, justification, status, submitted_at
		 FROM allocation_requests ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []allocation.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (allocation.Request, error) {
	var (
		r                                  allocation.Request
		id, dept, area, status, submitted string
	)
	err := row.Scan(&id, &dept, &area, &r.Justification, &status, &submitted)
	if err == sql.ErrNoRows {
		return allocation.Request{}, fmt.Errorf("request: %w", core.ErrNotFound)
	}
	if err != nil {
		return allocation.Request{}, fmt.Errorf("failed to scan request: %w", err)
	}

	r.ID = core.RequestID(id)
	r.DepartmentID = core.DepartmentID(dept)
	r.RequestedArea = core.MustParseDecimal(area)
	r.Status = allocation.Status(status)
	r.SubmittedAt, _ = core.ParseDate(submitted)
	return r, nil
}

// =============================================================================
// ASSET PROJECTS (asset.ProjectStore interface)
// =============================================================================

// GetProject retrieves a project by ID.
func (s *Store) GetProject(ctx context.Context, id core.ProjectID) (asset.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProject(ctx, id)
}

func (s *Store) getProject(ctx context.Context, id core.ProjectID) (asset.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, contract_amount, final_amount, contractor, status,
		        completion_date, has_survey_data, temp_card_created
		 FROM asset_projects WHERE id = ?`, string(id))
	return scanProject(row)
}

// InsertProject adds a new project.
func (s *Store) InsertProject(ctx context.Context, p asset.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finalAmount sql.NullString
	if p.FinalAmount != nil {
		finalAmount = sql.NullString{String: p.FinalAmount.String(), Valid: true}
	}

	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_projects
		 (id, name, contract_amount, final_amount, contractor, status,
		  completion_date, has_survey_data, temp_card_created, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), p.Name, p.ContractAmount.String(), finalAmount, p.Contractor,
		string(p.Status), p.CompletionDate.String(), p.HasSurveyData, p.TempCardCreated,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// UpdateProject loads a project, applies fn, and writes the result back.
func (s *Store) UpdateProject(ctx context.Context, id core.ProjectID, fn func(*asset.Project) error) (asset.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getProject(ctx, id)
	if err != nil {
		return asset.Project{}, err
	}
	if err := fn(&p); err != nil {
		return asset.Project{}, err
	}

	var finalAmount sql.NullString
	if p.FinalAmount != nil {
		finalAmount = sql.NullString{String: p.FinalAmount.String(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE asset_projects SET
		   name = ?, contract_amount = ?, final_amount = ?, contractor = ?,
		   status = ?, completion_date = ?, has_survey_data = ?, temp_card_created = ?,
		   updated_at = ?
		 WHERE id = ?`,
		p.Name, p.ContractAmount.String(), finalAmount, p.Contractor,
		string(p.Status), p.CompletionDate.String(), p.HasSurveyData, p.TempCardCreated,
		nowRFC3339(), string(p.ID),
	)
	if err != nil {
		return asset.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects.
func (s *Store) ListProjects(ctx context.Context) ([]asset.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, contract_amount, final_amount, contractor, status,
		        completion_date, has_survey_data, temp_card_created
		 FROM asset_projects ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []asset.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (asset.Project, error) {
	var (
		p                                asset.Project
		id, contract, status, completion string
		finalAmount                      sql.NullString
	)
	err := row.Scan(&id, &p.Name, &contract, &finalAmount, &p.Contractor,
		&status, &completion, &p.HasSurveyData, &p.TempCardCreated)
	if err == sql.ErrNoRows {
		return asset.Project{}, fmt.Errorf("project: %w", core.ErrNotFound)
	}
	if err != nil {
		return asset.Project{}, fmt.Errorf("failed to scan project: %w", err)
	}

	p.ID = core.ProjectID(id)
	p.ContractAmount = core.MustParseDecimal(contract)
	if finalAmount.Valid {
		amount := core.MustParseDecimal(finalAmount.String)
		p.FinalAmount = &amount
	}
	p.Status = asset.Status(status)
	p.CompletionDate, _ = core.ParseDate(completion)
	return p, nil
}

// =============================================================================
// RULE SET PERSISTENCE
// =============================================================================

// SaveRuleSet stores the active rule set as a JSON document, replacing any
// previous version.
func (s *Store) SaveRuleSet(ctx context.Context, snap rules.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := factory.MarshalJSON(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize rule set: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rule_sets (id, document_json, updated_at)
		 VALUES ('active', ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   document_json = excluded.document_json,
		   updated_at = excluded.updated_at`,
		string(doc), nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to save rule set: %w", err)
	}
	return nil
}

// LoadRuleSet loads the active rule set. Returns core.ErrNotFound if none
// has been saved yet.
func (s *Store) LoadRuleSet(ctx context.Context) (rules.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document_json FROM rule_sets WHERE id = 'active'").Scan(&doc)
	if err == sql.ErrNoRows {
		return rules.Snapshot{}, fmt.Errorf("rule set: %w", core.ErrNotFound)
	}
	if err != nil {
		return rules.Snapshot{}, fmt.Errorf("failed to load rule set: %w", err)
	}

	return factory.ParseJSON([]byte(doc))
}

// =============================================================================
// AUDIT LOG (core.AuditLog interface)
// =============================================================================

// Append adds an audit entry. There is no update or delete path.
func (s *Store) Append(ctx context.Context, entry core.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	detailJSON, _ := json.Marshal(entry.Detail)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, at, actor_id, role, action, entity_id, detail_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.At.String(), entry.ActorID, string(entry.Role),
		string(entry.Action), entry.EntityID, string(detailJSON), nowRFC3339(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns audit entries matching the filter, oldest first.
func (s *Store) Query(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, at, actor_id, role, action, entity_id, detail_json
	          FROM audit_entries`
	var (
		clauses []string
		args    []any
	)
	if filter.EntityID != nil {
		clauses = append(clauses, "entity_id = ?")
		args = append(args, *filter.EntityID)
	}
	if filter.ActorID != nil {
		clauses = append(clauses, "actor_id = ?")
		args = append(args, *filter.ActorID)
	}
	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			placeholders[i] = "?"
			args = append(args, string(a))
		}
		clauses = append(clauses, "action IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []core.AuditEntry
	for rows.Next() {
		var (
			e              core.AuditEntry
			at, role, action, detailJSON string
		)
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &role, &action, &e.EntityID, &detailJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.At, _ = core.ParseDate(at)
		e.Role = core.Role(role)
		e.Action = core.AuditAction(action)
		if detailJSON != "" && detailJSON != "null" {
			json.Unmarshal([]byte(detailJSON), &e.Detail)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"fee_records", "allocation_requests", "asset_projects", "rule_sets", "audit_entries"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// FeeRecords exposes the store under the fee.RecordStore interface.
func (s *Store) FeeRecords() fee.RecordStore { return s }

// Requests exposes the store under the allocation.RequestStore interface.
func (s *Store) Requests() allocation.RequestStore {
	return requestStore{s}
}

// Projects exposes the store under the asset.ProjectStore interface.
func (s *Store) Projects() asset.ProjectStore {
	return projectStore{s}
}

// The three repository interfaces share method names (Get, Insert, Update)
// with conflicting signatures, so one *Store cannot satisfy all of them
// directly. The fee interface is implemented on the Store itself; requests
// and projects get thin adapters.

type requestStore struct{ s *Store }

func (r requestStore) Get(ctx context.Context, id core.RequestID) (allocation.Request, error) {
	return r.s.GetRequest(ctx, id)
}
func (r requestStore) Insert(ctx context.Context, req allocation.Request) error {
	return r.s.InsertRequest(ctx, req)
}
func (r requestStore) Update(ctx context.Context, id core.RequestID, fn func(*allocation.Request) error) (allocation.Request, error) {
	return r.s.UpdateRequest(ctx, id, fn)
}
func (r requestStore) List(ctx context.Context) ([]allocation.Request, error) {
	return r.s.ListRequests(ctx)
}

type projectStore struct{ s *Store }

func (p projectStore) Get(ctx context.Context, id core.ProjectID) (asset.Project, error) {
	return p.s.GetProject(ctx, id)
}
func (p projectStore) Insert(ctx context.Context, proj asset.Project) error {
	return p.s.InsertProject(ctx, proj)
}
func (p projectStore) Update(ctx context.Context, id core.ProjectID, fn func(*asset.Project) error) (asset.Project, error) {
	return p.s.UpdateProject(ctx, id, fn)
}
func (p projectStore) List(ctx context.Context) ([]asset.Project, error) {
	return p.s.ListProjects(ctx)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
