package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/meta"

	"github.com/google/uuid"
)

func decodeMeta(t *testing.T, raw string) MetaPayload {
	t.Helper()
	var payload MetaPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

const messengerPayload = `{
	"object": "page",
	"entry": [{
		"id": "page-1",
		"messaging": [{
			"sender": {"id": "psid-1"},
			"message": {"mid": "mid-1", "text": "Is the offer still available?"}
		}]
	}]
}`

const graphWhatsAppPayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "waba-1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"contacts": [{"profile": {"name": "Ada Lovelace"}, "wa_id": "16502530000"}],
				"messages": [{"from": "16502530000", "id": "wamid-1", "type": "text", "text": {"body": "Tell me more"}}]
			}
		}]
	}]
}`

func TestHandleMetaMessengerShape(t *testing.T) {
	f := newFixture()
	f.profiles.profiles["psid-1"] = meta.Profile{FirstName: "Grace", LastName: "Hopper"}

	outcome, err := f.svc.HandleMeta(context.Background(), decodeMeta(t, messengerPayload))
	if err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}
	if outcome.Warning != "" {
		t.Errorf("unexpected warning %q", outcome.Warning)
	}

	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	created := f.leads.created[0]
	if created.LeadSource != domain.SourceMessenger {
		t.Errorf("source = %q, want facebook_messenger", created.LeadSource)
	}
	if created.FirstName != "Grace" || created.LastName != "Hopper" {
		t.Errorf("name = %s %s, want Graph profile name", created.FirstName, created.LastName)
	}
	if created.ExternalPlatformID == nil || *created.ExternalPlatformID != "psid-1" {
		t.Errorf("external platform ID = %v", created.ExternalPlatformID)
	}

	if len(f.leads.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(f.leads.activities))
	}
	if f.leads.activities[0].Type != domain.ActivityMessengerMessage {
		t.Errorf("activity type = %q", f.leads.activities[0].Type)
	}
	if f.leads.activities[0].Body != "Messenger message received: Is the offer still available?" {
		t.Errorf("activity body = %q", f.leads.activities[0].Body)
	}
}

func TestHandleMetaMessengerProfileFallback(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.HandleMeta(context.Background(), decodeMeta(t, messengerPayload)); err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}

	created := f.leads.created[0]
	if created.FirstName != "Facebook" || created.LastName != "User" {
		t.Errorf("fallback name = %s %s", created.FirstName, created.LastName)
	}
}

func TestHandleMetaInstagramObjectSetsSource(t *testing.T) {
	f := newFixture()
	payload := decodeMeta(t, messengerPayload)
	payload.Object = "instagram"

	if _, err := f.svc.HandleMeta(context.Background(), payload); err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}

	created := f.leads.created[0]
	if created.LeadSource != domain.SourceInstagram {
		t.Errorf("source = %q, want instagram", created.LeadSource)
	}
	if created.FirstName != "Instagram" {
		t.Errorf("fallback first name = %q", created.FirstName)
	}
}

func TestHandleMetaGraphWhatsAppShape(t *testing.T) {
	f := newFixture()

	outcome, err := f.svc.HandleMeta(context.Background(), decodeMeta(t, graphWhatsAppPayload))
	if err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}
	if outcome.Warning != "" {
		t.Errorf("unexpected warning %q", outcome.Warning)
	}

	if len(f.leads.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.leads.created))
	}
	created := f.leads.created[0]
	if created.LeadSource != domain.SourceWhatsAppBusiness {
		t.Errorf("source = %q, want whatsapp_business", created.LeadSource)
	}
	if created.PhoneNumber == nil || *created.PhoneNumber != "+16502530000" {
		t.Errorf("phone = %v", created.PhoneNumber)
	}
	if created.FirstName != "Ada" || created.LastName != "Lovelace" {
		t.Errorf("name = %s %s, want contact profile name", created.FirstName, created.LastName)
	}

	if len(f.leads.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(f.leads.activities))
	}
	if f.leads.activities[0].Type != domain.ActivityWhatsAppMessage {
		t.Errorf("activity type = %q", f.leads.activities[0].Type)
	}
	if f.leads.activities[0].Body != "WhatsApp message received: Tell me more" {
		t.Errorf("activity body = %q", f.leads.activities[0].Body)
	}
}

func TestHandleMetaGraphReusesExistingLeadByPhone(t *testing.T) {
	f := newFixture()
	existing := &repository.Lead{ID: uuid.New()}
	f.resolver.byPhone["+16502530000"] = existing

	if _, err := f.svc.HandleMeta(context.Background(), decodeMeta(t, graphWhatsAppPayload)); err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}

	if len(f.leads.created) != 0 {
		t.Errorf("created = %d, want 0", len(f.leads.created))
	}
	if len(f.leads.activities) != 1 || f.leads.activities[0].LeadID != existing.ID {
		t.Error("activity not attributed to existing lead")
	}
}

func TestHandleMetaUnrecognizedShapeWarns(t *testing.T) {
	f := newFixture()

	outcome, err := f.svc.HandleMeta(context.Background(), decodeMeta(t, `{"object": "page", "entry": [{"id": "x"}]}`))
	if err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}
	if outcome.Warning == "" {
		t.Error("expected warning for unprocessable payload")
	}
	if len(f.leads.activities) != 0 {
		t.Errorf("activities = %d, want 0", len(f.leads.activities))
	}
}

func TestHandleMetaNonTextEventsSkipped(t *testing.T) {
	f := newFixture()
	payload := decodeMeta(t, `{
		"object": "page",
		"entry": [{
			"messaging": [{"sender": {"id": "psid-2"}, "message": {"mid": "mid-2"}}]
		}]
	}`)

	outcome, err := f.svc.HandleMeta(context.Background(), payload)
	if err != nil {
		t.Fatalf("HandleMeta() error = %v", err)
	}
	if outcome.Warning == "" {
		t.Error("expected warning when all events lack text")
	}
}
