// Package memory provides in-memory repository implementations (for
// testing/dev). Mutations to the same entity are serialized: Update runs
// its callback under the store lock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/estateops/space-engine/allocation"
	"github.com/estateops/space-engine/asset"
	"github.com/estateops/space-engine/core"
	"github.com/estateops/space-engine/fee"
)

// =============================================================================
// FEE RECORDS
// =============================================================================

type FeeRecords struct {
	mu      sync.RWMutex
	records map[core.FeeRecordID]fee.Record
}

func NewFeeRecords() *FeeRecords {
	return &FeeRecords{records: make(map[core.FeeRecordID]fee.Record)}
}

func (s *FeeRecords) Get(_ context.Context, id core.FeeRecordID) (fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return fee.Record{}, fmt.Errorf("fee record %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *FeeRecords) Insert(_ context.Context, r fee.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("fee record %s already exists", r.ID)
	}
	s.records[r.ID] = r
	return nil
}

func (s *FeeRecords) Update(_ context.Context, id core.FeeRecordID, fn func(*fee.Record) error) (fee.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return fee.Record{}, fmt.Errorf("fee record %s: %w", id, core.ErrNotFound)
	}
	if err := fn(&r); err != nil {
		return fee.Record{}, err
	}
	s.records[id] = r
	return r, nil
}

func (s *FeeRecords) ListByDepartment(_ context.Context, dept core.DepartmentID) ([]fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []fee.Record
	for _, r := range s.records {
		if r.DepartmentID == dept {
			result = append(result, r)
		}
	}
	sortFeeRecords(result)
	return result, nil
}

func (s *FeeRecords) List(_ context.Context) ([]fee.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]fee.Record, 0, len(s.records))
	for _, r := range s.records {
		result = append(result, r)
	}
	sortFeeRecords(result)
	return result, nil
}

func sortFeeRecords(records []fee.Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
}

// =============================================================================
// ALLOCATION REQUESTS
// =============================================================================

type Requests struct {
	mu       sync.RWMutex
	requests map[core.RequestID]allocation.Request
}

func NewRequests() *Requests {
	return &Requests{requests: make(map[core.RequestID]allocation.Request)}
}

func (s *Requests) Get(_ context.Context, id core.RequestID) (allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return allocation.Request{}, fmt.Errorf("request %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Requests) Insert(_ context.Context, r allocation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return fmt.Errorf("request %s already exists", r.ID)
	}
	s.requests[r.ID] = r
	return nil
}

func (s *Requests) Update(_ context.Context, id core.RequestID, fn func(*allocation.Request) error) (allocation.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return allocation.Request{}, fmt.Errorf("request %s: %w", id, core.ErrNotFound)
	}
	if err := fn(&r); err != nil {
		return allocation.Request{}, err
	}
	s.requests[id] = r
	return r, nil
}

func (s *Requests) List(_ context.Context) ([]allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]allocation.Request, 0, len(s.requests))
	for _, r := range s.requests {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// ASSET PROJECTS
// =============================================================================

type Projects struct {
	mu       sync.RWMutex
	projects map[core.ProjectID]asset.Project
}

func NewProjects() *Projects {
	return &Projects{projects: make(map[core.ProjectID]asset.Project)}
}

func (s *Projects) Get(_ context.Context, id core.ProjectID) (asset.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return asset.Project{}, fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (s *Projects) Insert(_ context.Context, p asset.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[p.ID]; exists {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	s.projects[p.ID] = p
	return nil
}

func (s *Projects) Update(_ context.Context, id core.ProjectID, fn func(*asset.Project) error) (asset.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return asset.Project{}, fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return asset.Project{}, err
	}
	s.projects[id] = p
	return p, nil
}

func (s *Projects) List(_ context.Context) ([]asset.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]asset.Project, 0, len(s.projects))
	for _, p := range s.projects {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
