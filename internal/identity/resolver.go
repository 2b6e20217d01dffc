// Package identity resolves inbound channel identifiers (phone numbers,
// platform sender IDs, email addresses) to existing leads.
package identity

import (
	"context"

	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/platform/phone"
)

// LeadFinder is the lookup surface the resolver needs.
type LeadFinder interface {
	FindByPhone(ctx context.Context, phoneNumber string) (*repository.Lead, error)
	FindByEmail(ctx context.Context, email string) (*repository.Lead, error)
	FindByPlatformID(ctx context.Context, source domain.LeadSource, externalID string) (*repository.Lead, error)
}

type Resolver struct {
	finder LeadFinder
}

func NewResolver(finder LeadFinder) *Resolver {
	return &Resolver{finder: finder}
}

// ByPhone normalizes the number before lookup so "whatsapp:+1..." and the
// stored E.164 form match. Returns nil when no lead is found.
func (r *Resolver) ByPhone(ctx context.Context, raw string) (*repository.Lead, error) {
	return r.finder.FindByPhone(ctx, phone.NormalizeE164(raw))
}

func (r *Resolver) ByEmail(ctx context.Context, email string) (*repository.Lead, error) {
	return r.finder.FindByEmail(ctx, email)
}

func (r *Resolver) ByPlatformID(ctx context.Context, source domain.LeadSource, externalID string) (*repository.Lead, error) {
	return r.finder.FindByPlatformID(ctx, source, externalID)
}
