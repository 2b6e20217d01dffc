// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// channelPrefixes are scheme prefixes some messaging providers attach to the
// sender number (e.g. Twilio's "whatsapp:+15551234567").
var channelPrefixes = []string{"whatsapp:", "tel:"}

// StripChannelPrefix removes a provider channel scheme from a sender number.
func StripChannelPrefix(input string) string {
	trimmed := strings.TrimSpace(input)
	lower := strings.ToLower(trimmed)
	for _, prefix := range channelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return trimmed[len(prefix):]
		}
	}
	return trimmed
}

// NormalizeE164 formats a phone number to E.164, stripping any channel prefix
// first. If parsing fails, it returns the stripped, trimmed input.
func NormalizeE164(input string) string {
	trimmed := StripChannelPrefix(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
