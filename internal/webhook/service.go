// Package webhook normalizes inbound provider callbacks (Bland voice, Twilio
// WhatsApp, Meta Messenger/Instagram/WhatsApp Business, Calendly) into lead
// activities and status transitions.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartlead_backend/internal/ai"
	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/internal/meta"
	"smartlead_backend/internal/voice"
	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/phone"
	"smartlead_backend/platform/validator"

	"github.com/google/uuid"
)

// Outcome is the result of processing an acknowledged webhook. A rejected
// webhook is reported as an error instead, which the handler maps to a 4xx.
type Outcome struct {
	Warning string
	Detail  string
}

// Acked marks an event as fully processed.
func Acked(detail string) Outcome {
	return Outcome{Detail: detail}
}

// AckedWithWarning acknowledges receipt while signalling that no lead action
// was taken.
func AckedWithWarning(warning string) Outcome {
	return Outcome{Warning: warning}
}

// LeadService is the slice of the lead service the webhook pipeline uses.
type LeadService interface {
	Create(ctx context.Context, params service.CreateParams) (repository.Lead, error)
	Get(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	LogActivity(ctx context.Context, leadID uuid.UUID, activityType domain.ActivityType, body string, at *time.Time) (repository.Activity, error)
	Qualify(ctx context.Context, leadID uuid.UUID) error
}

// Resolver finds existing leads by channel identity.
type Resolver interface {
	ByPhone(ctx context.Context, raw string) (*repository.Lead, error)
	ByEmail(ctx context.Context, email string) (*repository.Lead, error)
	ByPlatformID(ctx context.Context, source domain.LeadSource, externalID string) (*repository.Lead, error)
}

// CallAnalyzer runs post-call transcript analysis.
type CallAnalyzer interface {
	Analyze(ctx context.Context, callID string, params voice.AnalyzeParams) (voice.AnalyzeResult, error)
}

// ProfileLookup fetches sender display names from the Graph API.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, senderID string) meta.Profile
}

// InfoExtractor pulls contact details out of an inbound message body when a
// new lead has to be created from it.
type InfoExtractor interface {
	ExtractLeadInfo(ctx context.Context, content string) ai.LeadInfo
}

type Service struct {
	leads     LeadService
	resolver  Resolver
	analyzer  CallAnalyzer
	profiles  ProfileLookup
	extractor InfoExtractor
	dedupe    Deduper
	bus       events.Bus
	val       *validator.Validator
	log       *logger.Logger
}

func NewService(leads LeadService, resolver Resolver, analyzer CallAnalyzer, profiles ProfileLookup, extractor InfoExtractor, dedupe Deduper, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{
		leads:     leads,
		resolver:  resolver,
		analyzer:  analyzer,
		profiles:  profiles,
		extractor: extractor,
		dedupe:    dedupe,
		bus:       bus,
		val:       val,
		log:       log,
	}
}

// TwilioMessage is an inbound Twilio WhatsApp webhook, already parsed from
// its form encoding.
type TwilioMessage struct {
	From        string
	Body        string
	MessageSid  string
	ProfileName string
}

// HandleWhatsApp records an inbound Twilio WhatsApp message, creating the
// lead first if the sender's number is unknown.
func (s *Service) HandleWhatsApp(ctx context.Context, msg TwilioMessage) (Outcome, error) {
	if msg.From == "" {
		return Outcome{}, apperr.BadRequest("missing From field")
	}

	if s.dedupe.AlreadySeen(ctx, "twilio", msg.MessageSid) {
		return Acked("duplicate delivery ignored"), nil
	}

	normalized := phone.NormalizeE164(msg.From)
	lead, created, err := s.resolveOrCreateByPhone(ctx, normalized, func() service.CreateParams {
		// Extracted details win; the profile name (or a placeholder) fills
		// whatever the model could not determine.
		info := s.extractor.ExtractLeadInfo(ctx, msg.Body)
		first, last := splitName(msg.ProfileName, "WhatsApp", "User")
		if known(info.FirstName) != nil {
			first = info.FirstName
		}
		if known(info.LastName) != nil {
			last = info.LastName
		}
		return service.CreateParams{
			FirstName:   first,
			LastName:    last,
			Email:       placeholderEmail(normalized, "whatsapp"),
			PhoneNumber: &normalized,
			CompanyName: known(info.CompanyName),
			Title:       known(info.Title),
			LeadSource:  domain.SourceWhatsApp,
		}
	})
	if err != nil {
		return Outcome{}, err
	}

	if _, err := s.leads.LogActivity(ctx, lead.ID, domain.ActivityWhatsAppMessage, "WhatsApp message received: "+msg.Body, nil); err != nil {
		return Outcome{}, err
	}
	s.dedupe.MarkSeen(ctx, "twilio", msg.MessageSid)

	s.bus.Publish(ctx, events.InboundMessageReceived{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		Platform:    string(domain.SourceWhatsApp),
		PhoneNumber: normalized,
		Body:        msg.Body,
		NewLead:     created,
	})

	return Acked(fmt.Sprintf("message recorded for lead %s", lead.ID)), nil
}

// resolveOrCreateByPhone finds the lead owning a phone number or creates one.
// A unique-index conflict means another request created the lead between our
// lookup and insert; the winner is re-resolved and used.
func (s *Service) resolveOrCreateByPhone(ctx context.Context, normalized string, params func() service.CreateParams) (*repository.Lead, bool, error) {
	lead, err := s.resolver.ByPhone(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if lead != nil {
		return lead, false, nil
	}

	created, err := s.leads.Create(ctx, params())
	if err == nil {
		return &created, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicatePlatformIdentity) {
		return nil, false, err
	}

	lead, err = s.resolver.ByPhone(ctx, normalized)
	if err != nil {
		return nil, false, err
	}
	if lead == nil {
		return nil, false, fmt.Errorf("lead conflict for %s but winner not found", normalized)
	}
	return lead, false, nil
}

// resolveOrCreateByPlatformID is the platform-scoped variant used for
// Messenger and Instagram senders.
func (s *Service) resolveOrCreateByPlatformID(ctx context.Context, source domain.LeadSource, externalID string, params func() service.CreateParams) (*repository.Lead, bool, error) {
	lead, err := s.resolver.ByPlatformID(ctx, source, externalID)
	if err != nil {
		return nil, false, err
	}
	if lead != nil {
		return lead, false, nil
	}

	created, err := s.leads.Create(ctx, params())
	if err == nil {
		return &created, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicatePlatformIdentity) {
		return nil, false, err
	}

	lead, err = s.resolver.ByPlatformID(ctx, source, externalID)
	if err != nil {
		return nil, false, err
	}
	if lead == nil {
		return nil, false, fmt.Errorf("lead conflict for %s/%s but winner not found", source, externalID)
	}
	return lead, false, nil
}

// splitName turns a display name into first/last, falling back to the given
// placeholders when the profile name is absent.
func splitName(display, fallbackFirst, fallbackLast string) (string, string) {
	display = strings.TrimSpace(display)
	if display == "" {
		return fallbackFirst, fallbackLast
	}

	parts := strings.Fields(display)
	if len(parts) == 1 {
		return parts[0], fallbackLast
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// known turns an extracted field into an optional value, treating the
// model's "Unknown" marker as absent.
func known(value string) *string {
	if value == "" || value == "Unknown" {
		return nil
	}
	return &value
}

// placeholderEmail satisfies the required-email constraint for channel leads
// that arrive without one.
func placeholderEmail(identifier, channel string) string {
	cleaned := strings.TrimPrefix(identifier, "+")
	return fmt.Sprintf("%s@%s.lead", cleaned, channel)
}
