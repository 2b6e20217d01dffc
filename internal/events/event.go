// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"smartlead_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadCreated is published when a new lead is created, explicitly or from an
// inbound message.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source"`
	Email  string    `json:"email"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadStatusChanged is published on every status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// InboundMessageReceived is published when an inbound channel message has
// been normalized into an activity.
type InboundMessageReceived struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	Platform    string    `json:"platform"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Body        string    `json:"body"`
	NewLead     bool      `json:"newLead"`
}

func (e InboundMessageReceived) EventName() string { return "leads.inbound.message" }

// MeetingScheduled is published when a scheduling confirmation qualifies a lead.
type MeetingScheduled struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	EventType string    `json:"eventType"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

func (e MeetingScheduled) EventName() string { return "leads.meeting.scheduled" }
