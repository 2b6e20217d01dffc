// Package handler exposes the leads HTTP API.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"smartlead_backend/internal/leads/domain"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/internal/leads/transport"
	"smartlead_backend/internal/voice"
	"smartlead_backend/platform/httpkit"
	"smartlead_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidLeadID  = "invalid lead ID"
)

// VoiceDialer places outbound calls.
type VoiceDialer interface {
	MakeCall(ctx context.Context, params voice.CallParams) (voice.CallResult, error)
}

// MessageSender delivers outbound WhatsApp messages.
type MessageSender interface {
	SendMessage(ctx context.Context, to, body string) (string, error)
}

// EmailSender delivers outbound email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string, cc, bcc []string) error
}

// InboxProcessor pulls unread inbound email into the activity log.
type InboxProcessor interface {
	ProcessUnread(ctx context.Context) (processed, created int, err error)
}

type Handler struct {
	svc      *service.Service
	voice    VoiceDialer
	whatsapp MessageSender
	email    EmailSender
	inbox    InboxProcessor
	log      *logger.Logger
}

func New(svc *service.Service, dialer VoiceDialer, sender MessageSender, email EmailSender, log *logger.Logger) *Handler {
	return &Handler{svc: svc, voice: dialer, whatsapp: sender, email: email, log: log}
}

// SetInbox injects the inbox processor after construction. The inbox needs
// the lead service, so it cannot exist before the module does.
func (h *Handler) SetInbox(inbox InboxProcessor) {
	h.inbox = inbox
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.POST("/process-emails", h.ProcessEmails)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/activities", h.ListActivities)
	rg.POST("/:id/activities", h.LogActivity)
	rg.POST("/:id/call", h.Call)
	rg.POST("/:id/send-email", h.SendEmail)
	rg.POST("/:id/send-whatsapp", h.SendWhatsApp)
	rg.POST("/:id/status", h.SetStatus)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	source := domain.SourceManual
	if req.LeadSource != "" {
		parsed, err := domain.ParseLeadSource(req.LeadSource)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		source = parsed
	}

	lead, err := h.svc.Create(c.Request.Context(), service.CreateParams{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		PhoneNumber:        req.PhoneNumber,
		CompanyName:        req.CompanyName,
		Title:              req.Title,
		LeadSource:         source,
		ExternalPlatformID: req.ExternalPlatformID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	var source *domain.LeadSource
	if raw := c.Query("lead_source"); raw != "" {
		parsed, err := domain.ParseLeadSource(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		source = &parsed
	}

	leads, err := h.svc.List(c.Request.Context(), source)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	activities, err := h.svc.ListActivities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToActivityResponses(activities))
}

func (h *Handler) LogActivity(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	activityType, err := domain.ParseActivityType(req.ActivityType)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	activity, err := h.svc.LogActivity(c.Request.Context(), id, activityType, req.Body, req.ActivityDatetime)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToActivityResponse(activity))
}

// Call places an automated outbound call to the lead. The lead ID travels in
// call metadata so the voice webhook can attribute the result without a
// phone-number lookup.
func (h *Handler) Call(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	// The body is optional; defaults are applied when it is absent.
	var req transport.CallRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return
		}
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if lead.PhoneNumber == nil || *lead.PhoneNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, "lead has no phone number", nil)
		return
	}

	task := req.Prompt
	if task == "" {
		task = fmt.Sprintf("You are a friendly sales assistant calling %s %s. Introduce yourself, ask about their needs, and offer to schedule a follow-up meeting.", lead.FirstName, lead.LastName)
	}

	result, err := h.voice.MakeCall(c.Request.Context(), voice.CallParams{
		PhoneNumber: *lead.PhoneNumber,
		Task:        task,
		Voice:       req.Voice,
		Language:    req.Language,
		MaxDuration: req.MaxDuration,
		Metadata:    map[string]string{"lead_id": lead.ID.String()},
	})
	if httpkit.HandleError(c, err) {
		return
	}

	if _, err := h.svc.LogActivity(c.Request.Context(), id, domain.ActivityCallMade, "Automated call initiated", nil); httpkit.HandleError(c, err) {
		return
	}
	if _, err := h.svc.MarkContacted(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"call_id": result.CallID, "call_status": result.Status})
}

func (h *Handler) SendEmail(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	if err := h.email.Send(c.Request.Context(), lead.Email, req.Subject, req.Body, req.Cc, req.Bcc); err != nil {
		h.log.DispatchError("email", id.String(), err)
		httpkit.HandleError(c, err)
		return
	}

	if _, err := h.svc.LogActivity(c.Request.Context(), id, domain.ActivityEmailSent, "Email sent: "+req.Subject, nil); httpkit.HandleError(c, err) {
		return
	}
	if _, err := h.svc.MarkContacted(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message": "Email sent successfully"})
}

func (h *Handler) SendWhatsApp(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.WhatsAppSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if lead.PhoneNumber == nil || *lead.PhoneNumber == "" {
		httpkit.Error(c, http.StatusBadRequest, "lead has no phone number", nil)
		return
	}

	sid, err := h.whatsapp.SendMessage(c.Request.Context(), *lead.PhoneNumber, req.Message)
	if err != nil {
		h.log.DispatchError("whatsapp", id.String(), err)
		httpkit.HandleError(c, err)
		return
	}

	if _, err := h.svc.LogActivity(c.Request.Context(), id, domain.ActivityWhatsAppMessage, "WhatsApp message sent: "+req.Message, nil); httpkit.HandleError(c, err) {
		return
	}
	if _, err := h.svc.MarkContacted(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"message_sid": sid})
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), id, status); httpkit.HandleError(c, err) {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

// ProcessEmails runs one inbox poll on demand.
func (h *Handler) ProcessEmails(c *gin.Context) {
	if h.inbox == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "inbox processing not configured", nil)
		return
	}

	processed, created, err := h.inbox.ProcessUnread(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"emails_processed": processed, "leads_created": created})
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	return id, true
}
