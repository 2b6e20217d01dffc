package domain

import "fmt"

// ActivityType classifies entries in the append-only activity log.
type ActivityType string

const (
	ActivityLeadCreated        ActivityType = "lead_created"
	ActivityEmailSent          ActivityType = "email_sent"
	ActivityEmailReceived      ActivityType = "email_received"
	ActivityCallMade           ActivityType = "call_made"
	ActivityCallCompleted      ActivityType = "call_completed"
	ActivityCallAnalyzed       ActivityType = "call_analyzed"
	ActivityWhatsAppMessage    ActivityType = "whatsapp_message"
	ActivityMessengerMessage   ActivityType = "messenger_message"
	ActivityStatusChanged      ActivityType = "status_changed"
	ActivityMeetingScheduled   ActivityType = "meeting_scheduled"
	ActivityMeetingCanceled    ActivityType = "meeting_canceled"
	ActivityMeetingRescheduled ActivityType = "meeting_rescheduled"
)

var validActivityTypes = map[ActivityType]bool{
	ActivityLeadCreated:        true,
	ActivityEmailSent:          true,
	ActivityEmailReceived:      true,
	ActivityCallMade:           true,
	ActivityCallCompleted:      true,
	ActivityCallAnalyzed:       true,
	ActivityWhatsAppMessage:    true,
	ActivityMessengerMessage:   true,
	ActivityStatusChanged:      true,
	ActivityMeetingScheduled:   true,
	ActivityMeetingCanceled:    true,
	ActivityMeetingRescheduled: true,
}

// ParseActivityType validates a raw activity type value.
func ParseActivityType(raw string) (ActivityType, error) {
	a := ActivityType(raw)
	if !validActivityTypes[a] {
		return "", fmt.Errorf("invalid activity type %q", raw)
	}
	return a, nil
}

// LeadSource identifies the channel a lead originated from.
type LeadSource string

const (
	SourceManual           LeadSource = "manual"
	SourceEmail            LeadSource = "email"
	SourceWhatsApp         LeadSource = "whatsapp"
	SourceMessenger        LeadSource = "facebook_messenger"
	SourceInstagram        LeadSource = "instagram"
	SourceWhatsAppBusiness LeadSource = "whatsapp_business"
)

var validSources = map[LeadSource]bool{
	SourceManual:           true,
	SourceEmail:            true,
	SourceWhatsApp:         true,
	SourceMessenger:        true,
	SourceInstagram:        true,
	SourceWhatsAppBusiness: true,
}

// ParseLeadSource validates a raw lead source value.
func ParseLeadSource(raw string) (LeadSource, error) {
	s := LeadSource(raw)
	if !validSources[s] {
		return "", fmt.Errorf("invalid lead source %q", raw)
	}
	return s, nil
}
