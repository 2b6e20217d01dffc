// Package transport defines request and response shapes for the leads HTTP API.
package transport

import (
	"time"

	"smartlead_backend/internal/leads/repository"
)

type CreateLeadRequest struct {
	FirstName          string  `json:"first_name" binding:"required"`
	LastName           string  `json:"last_name" binding:"required"`
	Email              string  `json:"email" binding:"required,email"`
	PhoneNumber        *string `json:"phone_number"`
	CompanyName        *string `json:"company_name"`
	Title              *string `json:"title"`
	LeadSource         string  `json:"lead_source"`
	ExternalPlatformID *string `json:"external_platform_id"`
}

type ActivityRequest struct {
	ActivityType     string     `json:"activity_type" binding:"required"`
	Body             string     `json:"body" binding:"required"`
	ActivityDatetime *time.Time `json:"activity_datetime"`
}

type CallRequest struct {
	Prompt      string `json:"prompt"`
	Language    string `json:"language"`
	Voice       string `json:"voice"`
	MaxDuration int    `json:"max_duration"`
}

type EmailRequest struct {
	Subject string   `json:"subject" binding:"required"`
	Body    string   `json:"body" binding:"required"`
	Cc      []string `json:"cc"`
	Bcc     []string `json:"bcc"`
}

type WhatsAppSendRequest struct {
	Message string `json:"message" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type LeadResponse struct {
	ID                 string    `json:"id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	PhoneNumber        *string   `json:"phone_number"`
	CompanyName        *string   `json:"company_name"`
	Title              *string   `json:"title"`
	LeadSource         string    `json:"lead_source"`
	Status             string    `json:"status"`
	ExternalPlatformID *string   `json:"external_platform_id"`
	CreatedAt          time.Time `json:"created_at"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                 lead.ID.String(),
		FirstName:          lead.FirstName,
		LastName:           lead.LastName,
		Email:              lead.Email,
		PhoneNumber:        lead.PhoneNumber,
		CompanyName:        lead.CompanyName,
		Title:              lead.Title,
		LeadSource:         string(lead.LeadSource),
		Status:             string(lead.Status),
		ExternalPlatformID: lead.ExternalPlatformID,
		CreatedAt:          lead.CreatedAt,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

type ActivityResponse struct {
	ID               string    `json:"id"`
	LeadID           string    `json:"lead_id"`
	ActivityType     string    `json:"activity_type"`
	Body             string    `json:"body"`
	ActivityDatetime time.Time `json:"activity_datetime"`
}

func ToActivityResponse(activity repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:               activity.ID.String(),
		LeadID:           activity.LeadID.String(),
		ActivityType:     string(activity.ActivityType),
		Body:             activity.Body,
		ActivityDatetime: activity.ActivityDatetime,
	}
}

func ToActivityResponses(activities []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		out = append(out, ToActivityResponse(activity))
	}
	return out
}
