package webhook

import (
	"context"
	"fmt"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/service"
)

// MetaPayload covers both webhook shapes Meta delivers to a single endpoint:
// the Messenger platform shape (entry[].messaging, used by Facebook Messenger
// and Instagram DMs) and the Graph change shape (entry[].changes, used by
// WhatsApp Business). Classification keys on which array is populated, not on
// the top-level object field.
type MetaPayload struct {
	Object string      `json:"object"`
	Entry  []MetaEntry `json:"entry"`
}

type MetaEntry struct {
	ID        string           `json:"id"`
	Messaging []MessagingEvent `json:"messaging"`
	Changes   []GraphChange    `json:"changes"`
}

type MessagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message"`
}

type GraphChange struct {
	Field string `json:"field"`
	Value struct {
		MessagingProduct string `json:"messaging_product"`
		Contacts         []struct {
			Profile struct {
				Name string `json:"name"`
			} `json:"profile"`
			WaID string `json:"wa_id"`
		} `json:"contacts"`
		Messages []struct {
			From string `json:"from"`
			ID   string `json:"id"`
			Type string `json:"type"`
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		} `json:"messages"`
	} `json:"value"`
}

// HandleMeta routes a Meta webhook to the messenger or WhatsApp Business
// pipeline depending on its shape.
func (s *Service) HandleMeta(ctx context.Context, payload MetaPayload) (Outcome, error) {
	recorded := 0

	for _, entry := range payload.Entry {
		if len(entry.Messaging) > 0 {
			n, err := s.handleMessengerEntry(ctx, payload.Object, entry)
			if err != nil {
				return Outcome{}, err
			}
			recorded += n
			continue
		}

		for _, change := range entry.Changes {
			n, err := s.handleGraphChange(ctx, change)
			if err != nil {
				return Outcome{}, err
			}
			recorded += n
		}
	}

	if recorded == 0 {
		return AckedWithWarning("no processable messages in payload"), nil
	}
	return Acked(fmt.Sprintf("%d message(s) recorded", recorded)), nil
}

func (s *Service) handleMessengerEntry(ctx context.Context, object string, entry MetaEntry) (int, error) {
	source := domain.SourceMessenger
	channel := "messenger"
	fallbackFirst := "Facebook"
	if object == "instagram" {
		source = domain.SourceInstagram
		channel = "instagram"
		fallbackFirst = "Instagram"
	}

	recorded := 0
	for _, event := range entry.Messaging {
		senderID := event.Sender.ID
		text := event.Message.Text
		if senderID == "" || text == "" {
			continue
		}

		if s.dedupe.AlreadySeen(ctx, "meta", event.Message.MID) {
			continue
		}

		externalID := senderID
		lead, created, err := s.resolveOrCreateByPlatformID(ctx, source, externalID, func() service.CreateParams {
			profile := s.profiles.LookupProfile(ctx, senderID)
			first, last := profile.FirstName, profile.LastName
			if first == "" {
				first, last = fallbackFirst, "User"
			}
			return service.CreateParams{
				FirstName:          first,
				LastName:           last,
				Email:              placeholderEmail(senderID, channel),
				LeadSource:         source,
				ExternalPlatformID: &externalID,
			}
		})
		if err != nil {
			return recorded, err
		}

		if _, err := s.leads.LogActivity(ctx, lead.ID, domain.ActivityMessengerMessage, "Messenger message received: "+text, nil); err != nil {
			return recorded, err
		}
		s.dedupe.MarkSeen(ctx, "meta", event.Message.MID)

		s.bus.Publish(ctx, events.InboundMessageReceived{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Platform:  string(source),
			Body:      text,
			NewLead:   created,
		})
		recorded++
	}

	return recorded, nil
}

func (s *Service) handleGraphChange(ctx context.Context, change GraphChange) (int, error) {
	names := make(map[string]string, len(change.Value.Contacts))
	for _, contact := range change.Value.Contacts {
		names[contact.WaID] = contact.Profile.Name
	}

	recorded := 0
	for _, msg := range change.Value.Messages {
		body := msg.Text.Body
		if msg.From == "" || body == "" {
			continue
		}

		if s.dedupe.AlreadySeen(ctx, "meta", msg.ID) {
			continue
		}

		// Graph delivers the sender as a bare wa_id (digits, no plus).
		normalized := "+" + msg.From
		waID := msg.From
		lead, created, err := s.resolveOrCreateByPhone(ctx, normalized, func() service.CreateParams {
			first, last := splitName(names[msg.From], "WhatsApp", "User")
			return service.CreateParams{
				FirstName:          first,
				LastName:           last,
				Email:              placeholderEmail(normalized, "whatsapp"),
				PhoneNumber:        &normalized,
				LeadSource:         domain.SourceWhatsAppBusiness,
				ExternalPlatformID: &waID,
			}
		})
		if err != nil {
			return recorded, err
		}

		if _, err := s.leads.LogActivity(ctx, lead.ID, domain.ActivityWhatsAppMessage, "WhatsApp message received: "+body, nil); err != nil {
			return recorded, err
		}
		s.dedupe.MarkSeen(ctx, "meta", msg.ID)

		s.bus.Publish(ctx, events.InboundMessageReceived{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      lead.ID,
			Platform:    string(domain.SourceWhatsAppBusiness),
			PhoneNumber: normalized,
			Body:        body,
			NewLead:     created,
		})
		recorded++
	}

	return recorded, nil
}
