package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/platform/apperr"
)

// CalendlyPayload accepts both delivery shapes: the standard nested form
// with invitee details under "payload", and the flat form some integrations
// send with the fields at the top level.
type CalendlyPayload struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`

	// Flat shape fields.
	Email        string `json:"email"`
	EventType    string `json:"event_type"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	CancelReason string `json:"cancel_reason"`
	Rescheduled  bool   `json:"rescheduled"`
}

type calendlyInvitee struct {
	Email          string `json:"email"`
	CancelReason   string `json:"cancel_reason"`
	Rescheduled    bool   `json:"rescheduled"`
	ScheduledEvent struct {
		Name      string `json:"name"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	} `json:"scheduled_event"`
}

type meetingDetails struct {
	Event        string
	Email        string
	EventType    string
	StartTime    string
	EndTime      string
	CancelReason string
	Rescheduled  bool
}

func (p CalendlyPayload) details() (meetingDetails, error) {
	d := meetingDetails{Event: p.Event}

	if len(p.Payload) > 0 && string(p.Payload) != "null" {
		var invitee calendlyInvitee
		if err := json.Unmarshal(p.Payload, &invitee); err != nil {
			return meetingDetails{}, apperr.BadRequest("invalid calendly payload")
		}
		d.Email = invitee.Email
		d.EventType = invitee.ScheduledEvent.Name
		d.StartTime = invitee.ScheduledEvent.StartTime
		d.EndTime = invitee.ScheduledEvent.EndTime
		d.CancelReason = invitee.CancelReason
		d.Rescheduled = invitee.Rescheduled
		return d, nil
	}

	d.Email = p.Email
	d.EventType = p.EventType
	d.StartTime = p.StartTime
	d.EndTime = p.EndTime
	d.CancelReason = p.CancelReason
	d.Rescheduled = p.Rescheduled
	return d, nil
}

// HandleCalendly processes a scheduling webhook. A confirmed booking
// qualifies the lead unconditionally; cancellations only append to the log.
// A payload whose email matches no lead is acknowledged with a warning so
// Calendly does not retry it.
func (s *Service) HandleCalendly(ctx context.Context, payload CalendlyPayload) (Outcome, error) {
	d, err := payload.details()
	if err != nil {
		return Outcome{}, err
	}
	if d.Email == "" {
		return Outcome{}, apperr.BadRequest("calendly webhook missing invitee email")
	}
	if err := s.val.Var(d.Email, "email"); err != nil {
		return Outcome{}, apperr.BadRequest("calendly webhook has invalid invitee email")
	}

	lead, err := s.resolver.ByEmail(ctx, d.Email)
	if err != nil {
		return Outcome{}, err
	}
	if lead == nil {
		s.log.WebhookEvent("calendly", true, "no lead for "+d.Email)
		return AckedWithWarning(fmt.Sprintf("no lead found for email %s", d.Email)), nil
	}

	switch d.Event {
	case "invitee.created":
		activityType := domain.ActivityMeetingScheduled
		body := fmt.Sprintf("Meeting scheduled: %s from %s to %s", d.EventType, d.StartTime, d.EndTime)
		if d.Rescheduled {
			activityType = domain.ActivityMeetingRescheduled
			body = fmt.Sprintf("Meeting rescheduled: %s from %s to %s", d.EventType, d.StartTime, d.EndTime)
		}

		if _, err := s.leads.LogActivity(ctx, lead.ID, activityType, body, nil); err != nil {
			return Outcome{}, err
		}

		if err := s.leads.Qualify(ctx, lead.ID); err != nil {
			return Outcome{}, err
		}

		s.bus.Publish(ctx, events.MeetingScheduled{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			EventType: d.EventType,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})

		return Acked(fmt.Sprintf("meeting recorded for lead %s", lead.ID)), nil

	case "invitee.canceled":
		body := "Meeting canceled"
		if d.EventType != "" {
			body = "Meeting canceled: " + d.EventType
		}
		if d.CancelReason != "" {
			body += ". Reason: " + d.CancelReason
		}

		if _, err := s.leads.LogActivity(ctx, lead.ID, domain.ActivityMeetingCanceled, body, nil); err != nil {
			return Outcome{}, err
		}

		return Acked(fmt.Sprintf("cancellation recorded for lead %s", lead.ID)), nil

	default:
		return AckedWithWarning(fmt.Sprintf("unhandled calendly event %q", d.Event)), nil
	}
}
