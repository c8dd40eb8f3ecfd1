/*
Package asset advances capital projects through the capitalization pipeline.

PURPOSE:
  A construction project becomes a fixed asset in three handovers:

    Construction ──▶ PreAcceptance ──▶ FinancialReview ──▶ Active

  Entering PreAcceptance creates the temporary asset card; entering
  FinancialReview records the final settlement amount when supplied.
  Active is terminal for Advance. Disposal is a side terminal reached only
  through the explicit administrative Dispose operation, from any
  non-Active state; Advance never routes there.
*/
package asset

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/estateops/space-engine/core"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusConstruction    Status = "Construction"
	StatusPreAcceptance   Status = "PreAcceptance"
	StatusFinancialReview Status = "FinancialReview"
	StatusActive          Status = "Active"
	StatusDisposal        Status = "Disposal"
)

func (s Status) Terminal() bool { return s == StatusActive || s == StatusDisposal }

// =============================================================================
// PROJECT
// =============================================================================

// Project is an AssetProject. FinalAmount is set during financial review;
// TempCardCreated flips when the project reaches pre-acceptance.
type Project struct {
	ID              core.ProjectID
	Name            string
	ContractAmount  core.Money
	FinalAmount     *core.Money
	Contractor      string
	Status          Status
	CompletionDate  core.Date
	HasSurveyData   bool
	TempCardCreated bool
}

// ProjectStore persists projects; Update serializes mutations per project.
type ProjectStore interface {
	Get(ctx context.Context, id core.ProjectID) (Project, error)
	Insert(ctx context.Context, p Project) error
	Update(ctx context.Context, id core.ProjectID, fn func(*Project) error) (Project, error)
	List(ctx context.Context) ([]Project, error)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Next returns the single status that follows current in the normal
// capitalization pipeline. Terminal states refuse with AlreadyTerminal.
func Next(current Status) (Status, error) {
	switch current {
	case StatusConstruction:
		return StatusPreAcceptance, nil
	case StatusPreAcceptance:
		return StatusFinancialReview, nil
	case StatusFinancialReview:
		return StatusActive, nil
	case StatusActive, StatusDisposal:
		return current, fmt.Errorf("project is %s: %w", current, core.ErrAlreadyTerminal)
	default:
		return current, fmt.Errorf("unknown project status %q", current)
	}
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Projects ProjectStore
	Audit    core.AuditLog // optional
}

// Register creates a new project in Construction.
func (s *Service) Register(ctx context.Context, name, contractor string, contractAmount core.Money, completion core.Date, hasSurveyData bool) (Project, error) {
	if name == "" {
		return Project{}, &core.BlockedError{Invariant: "invalid project", Detail: "name must not be empty"}
	}
	p := Project{
		ID:             core.ProjectID("PRJ-" + uuid.NewString()),
		Name:           name,
		Contractor:     contractor,
		ContractAmount: contractAmount,
		Status:         StatusConstruction,
		CompletionDate: completion,
		HasSurveyData:  hasSurveyData,
	}
	if err := s.Projects.Insert(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Advance moves the project one step along the pipeline. finalAmount is
// recorded when the project enters financial review; it is ignored on the
// other steps.
func (s *Service) Advance(ctx context.Context, id core.ProjectID, actorID string, finalAmount *core.Money, at core.Date) (Project, error) {
	updated, err := s.Projects.Update(ctx, id, func(p *Project) error {
		next, err := Next(p.Status)
		if err != nil {
			return err
		}
		switch next {
		case StatusPreAcceptance:
			p.TempCardCreated = true
		case StatusFinancialReview:
			if finalAmount != nil {
				amt := *finalAmount
				p.FinalAmount = &amt
			}
		}
		p.Status = next
		return nil
	})
	if err != nil {
		return Project{}, err
	}

	s.audit(ctx, core.AuditProjectAdvanced, actorID, string(id), at, map[string]any{
		"status": string(updated.Status),
	})
	return updated, nil
}

// Dispose is the administrative override: it moves any non-Active,
// non-Disposal project to Disposal. Disposing an Active asset is refused
// (capitalized assets leave the books through a separate process);
// disposing twice refuses with AlreadyTerminal.
func (s *Service) Dispose(ctx context.Context, id core.ProjectID, actorID, reason string, at core.Date) (Project, error) {
	updated, err := s.Projects.Update(ctx, id, func(p *Project) error {
		switch p.Status {
		case StatusDisposal:
			return fmt.Errorf("project already disposed: %w", core.ErrAlreadyTerminal)
		case StatusActive:
			return &core.BlockedError{Invariant: "already capitalized", Detail: "active assets cannot be disposed through the project pipeline"}
		}
		p.Status = StatusDisposal
		return nil
	})
	if err != nil {
		return Project{}, err
	}

	s.audit(ctx, core.AuditProjectDisposed, actorID, string(id), at, map[string]any{
		"reason": reason,
	})
	return updated, nil
}

func (s *Service) audit(ctx context.Context, action core.AuditAction, actorID, entityID string, at core.Date, detail map[string]any) {
	if s.Audit == nil {
		return
	}
	s.Audit.Append(ctx, core.AuditEntry{
		ID:       "audit-" + uuid.NewString(),
		At:       at,
		ActorID:  actorID,
		Action:   action,
		EntityID: entityID,
		Detail:   detail,
	})
}
