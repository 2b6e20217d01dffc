// Package service implements lead management: CRUD, the append-only activity
// log contract, and the status state machine transitions.
package service

import (
	"context"
	"fmt"
	"time"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the lead service depends on.
// Satisfied by *repository.Repository; faked in tests.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, source *domain.LeadSource) ([]repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
	AppendActivity(ctx context.Context, params repository.AppendActivityParams) (repository.Activity, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// CreateParams are the fields accepted when creating a lead.
type CreateParams struct {
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        *string
	CompanyName        *string
	Title              *string
	LeadSource         domain.LeadSource
	ExternalPlatformID *string
}

// Create inserts a new lead and its paired lead_created activity. The two
// writes are one logical operation: a failed activity append after the lead
// insert is surfaced, not hidden.
func (s *Service) Create(ctx context.Context, params CreateParams) (repository.Lead, error) {
	source := params.LeadSource
	if source == "" {
		source = domain.SourceManual
	}

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		FirstName:          params.FirstName,
		LastName:           params.LastName,
		Email:              params.Email,
		PhoneNumber:        params.PhoneNumber,
		CompanyName:        params.CompanyName,
		Title:              params.Title,
		LeadSource:         source,
		Status:             domain.StatusNew,
		ExternalPlatformID: params.ExternalPlatformID,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	if _, err := s.store.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityLeadCreated,
		Body:         "Lead created in system",
	}); err != nil {
		return repository.Lead{}, fmt.Errorf("lead %s created but activity append failed: %w", lead.ID, err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Source:    string(lead.LeadSource),
		Email:     lead.Email,
	})

	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return repository.Lead{}, apperr.NotFound(fmt.Sprintf("lead with ID %s not found", id))
	}
	return lead, err
}

func (s *Service) List(ctx context.Context, source *domain.LeadSource) ([]repository.Lead, error) {
	return s.store.List(ctx, source)
}

// LogActivity appends an activity to an existing lead's log.
func (s *Service) LogActivity(ctx context.Context, leadID uuid.UUID, activityType domain.ActivityType, body string, at *time.Time) (repository.Activity, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return repository.Activity{}, err
	}

	return s.store.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:           leadID,
		ActivityType:     activityType,
		Body:             body,
		ActivityDatetime: at,
	})
}

func (s *Service) ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, leadID)
}

// MarkContacted advances a lead from new to contacted after an outbound
// action. Fires at most once: a lead past new is left unchanged and no
// status_changed activity is appended. Returns whether the transition fired.
func (s *Service) MarkContacted(ctx context.Context, leadID uuid.UUID) (bool, error) {
	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return false, err
	}

	if !domain.ShouldMarkContacted(lead.Status) {
		return false, nil
	}

	if err := s.transition(ctx, lead, domain.StatusContacted); err != nil {
		return false, err
	}

	return true, nil
}

// Qualify moves a lead to qualified regardless of its current status. This
// is the scheduling-confirmation override: unlike MarkContacted there is no
// guard on the starting status.
func (s *Service) Qualify(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return err
	}

	if lead.Status == domain.StatusQualified {
		return nil
	}

	return s.transition(ctx, lead, domain.StatusQualified)
}

// SetStatus moves a lead to an explicitly requested status. The only guard
// is that the lead exists and the target is a defined explicit target.
func (s *Service) SetStatus(ctx context.Context, leadID uuid.UUID, target domain.Status) error {
	if !domain.CanSetExplicitly(target) {
		return apperr.Validation(fmt.Sprintf("status %q cannot be set directly", target))
	}

	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return err
	}

	if lead.Status == target {
		return nil
	}

	return s.transition(ctx, lead, target)
}

// transition writes the status and its paired status_changed activity.
// The activity is the only audit trail for the change: a failed append after
// the status write succeeded is surfaced to the caller.
func (s *Service) transition(ctx context.Context, lead repository.Lead, target domain.Status) error {
	if err := s.store.UpdateStatus(ctx, lead.ID, target); err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound(fmt.Sprintf("lead with ID %s not found", lead.ID))
		}
		return err
	}

	if _, err := s.store.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityStatusChanged,
		Body:         fmt.Sprintf("Status changed from %s to %s", lead.Status, target),
	}); err != nil {
		return fmt.Errorf("status of lead %s changed to %s but activity append failed: %w", lead.ID, target, err)
	}

	s.log.Info("lead status changed",
		"lead_id", lead.ID.String(),
		"from", string(lead.Status),
		"to", string(target),
	)

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OldStatus: string(lead.Status),
		NewStatus: string(target),
	})

	return nil
}
