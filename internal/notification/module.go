// Package notification reacts to domain events with outbound messages.
// It holds no state of its own; everything is driven off the event bus.
package notification

import (
	"context"

	"smartlead_backend/internal/events"
	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/platform/logger"
)

const welcomeMessage = "Thanks for reaching out to Smartlead CRM! 👋 We've received your message and one of our team members will get back to you shortly."

// MessageSender delivers outbound WhatsApp messages.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) (string, error)
}

// Module sends a welcome reply when a WhatsApp message creates a new lead.
// Delivery is best effort: a send failure is logged, never propagated, so a
// broken outbound channel cannot fail webhook processing.
type Module struct {
	sender MessageSender
	log    *logger.Logger
}

func NewModule(bus events.Bus, sender MessageSender, log *logger.Logger) *Module {
	m := &Module{sender: sender, log: log}

	bus.Subscribe(events.InboundMessageReceived{}.EventName(), events.HandlerFunc(m.onInboundMessage))

	return m
}

func (m *Module) onInboundMessage(ctx context.Context, event events.Event) error {
	e, ok := event.(events.InboundMessageReceived)
	if !ok {
		return nil
	}

	if !e.NewLead || e.Platform != string(domain.SourceWhatsApp) || e.PhoneNumber == "" {
		return nil
	}

	if _, err := m.sender.SendMessage(ctx, e.PhoneNumber, welcomeMessage); err != nil {
		m.log.DispatchError("whatsapp", e.LeadID.String(), err)
		return nil
	}

	m.log.Info("welcome message sent", "lead_id", e.LeadID)
	return nil
}
