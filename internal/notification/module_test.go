package notification

import (
	"context"
	"errors"
	"testing"

	"smartlead_backend/internal/events"
	platformevents "smartlead_backend/platform/events"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return "SM1", nil
}

func setup(sender *fakeSender) events.Bus {
	bus := platformevents.NewInMemoryBus(logger.New("test"))
	NewModule(bus, sender, logger.New("test"))
	return bus
}

func inbound(platform string, newLead bool) events.InboundMessageReceived {
	return events.InboundMessageReceived{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      uuid.New(),
		Platform:    platform,
		PhoneNumber: "+16502530000",
		Body:        "hello",
		NewLead:     newLead,
	}
}

func TestWelcomeSentForNewWhatsAppLead(t *testing.T) {
	sender := &fakeSender{}
	bus := setup(sender)

	if err := bus.PublishSync(context.Background(), inbound("whatsapp", true)); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	if sender.sent[0] != "+16502530000: "+welcomeMessage {
		t.Errorf("sent = %q", sender.sent[0])
	}
}

func TestNoWelcomeForExistingLead(t *testing.T) {
	sender := &fakeSender{}
	bus := setup(sender)

	if err := bus.PublishSync(context.Background(), inbound("whatsapp", false)); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}

	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0 for existing lead", len(sender.sent))
	}
}

func TestNoWelcomeForOtherPlatforms(t *testing.T) {
	sender := &fakeSender{}
	bus := setup(sender)

	for _, platform := range []string{"facebook_messenger", "instagram", "whatsapp_business"} {
		if err := bus.PublishSync(context.Background(), inbound(platform, true)); err != nil {
			t.Fatalf("PublishSync(%s) error = %v", platform, err)
		}
	}

	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0 for non-Twilio platforms", len(sender.sent))
	}
}

func TestSendFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("twilio down")}
	bus := setup(sender)

	if err := bus.PublishSync(context.Background(), inbound("whatsapp", true)); err != nil {
		t.Errorf("PublishSync() error = %v, send failures must not propagate", err)
	}
}
