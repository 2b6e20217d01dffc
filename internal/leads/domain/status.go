// Package domain provides core business rules for the leads bounded context.
package domain

import "fmt"

// Status is a lead lifecycle status.
type Status string

const (
	StatusNew          Status = "new"
	StatusContacted    Status = "contacted"
	StatusQualified    Status = "qualified"
	StatusCustomer     Status = "customer"
	StatusDisqualified Status = "disqualified"
	StatusRemarket     Status = "remarket"
)

var validStatuses = map[Status]bool{
	StatusNew:          true,
	StatusContacted:    true,
	StatusQualified:    true,
	StatusCustomer:     true,
	StatusDisqualified: true,
	StatusRemarket:     true,
}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !validStatuses[s] {
		return "", fmt.Errorf("invalid lead status %q", raw)
	}
	return s, nil
}

// IsValidStatus reports whether raw is a defined status value.
func IsValidStatus(raw string) bool {
	return validStatuses[Status(raw)]
}

// ShouldMarkContacted reports whether an outbound action (call placed, email
// sent, WhatsApp message sent) should advance the lead to contacted. The
// transition fires only from new; a lead already past new is left unchanged
// (idempotent no-op, not an error).
func ShouldMarkContacted(current Status) bool {
	return current == StatusNew
}

// explicitTargets are statuses reachable by a direct external call. The only
// guard is that the lead exists; qualified is also reachable this way in
// addition to the scheduling-confirmation override.
var explicitTargets = map[Status]bool{
	StatusContacted:    true,
	StatusQualified:    true,
	StatusCustomer:     true,
	StatusDisqualified: true,
	StatusRemarket:     true,
}

// CanSetExplicitly reports whether target is a status an explicit external
// call may move a lead to.
func CanSetExplicitly(target Status) bool {
	return explicitTargets[target]
}
