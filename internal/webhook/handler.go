package webhook

import (
	"net/http"

	"smartlead_backend/platform/httpkit"
	"smartlead_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc         *Service
	verifyToken string
	log         *logger.Logger
}

func NewHandler(svc *Service, verifyToken string, log *logger.Logger) *Handler {
	return &Handler{svc: svc, verifyToken: verifyToken, log: log}
}

// respond maps an acknowledged outcome to a 200 envelope. Warnings still
// return 200 so the provider stops retrying, but with warning status.
func (h *Handler) respond(c *gin.Context, provider string, outcome Outcome) {
	if outcome.Warning != "" {
		h.log.WebhookEvent(provider, true, outcome.Warning)
		httpkit.Warning(c, outcome.Warning)
		return
	}

	h.log.WebhookEvent(provider, true, outcome.Detail)
	httpkit.OK(c, gin.H{"message": outcome.Detail})
}

func (h *Handler) CallStatus(c *gin.Context) {
	var payload VoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	outcome, err := h.svc.HandleCallStatus(c.Request.Context(), payload)
	if err != nil {
		h.log.WebhookEvent("bland", false, err.Error())
		httpkit.HandleError(c, err)
		return
	}

	h.respond(c, "bland", outcome)
}

// WhatsAppInbound handles Twilio's form-encoded inbound message callback.
func (h *Handler) WhatsAppInbound(c *gin.Context) {
	msg := TwilioMessage{
		From:        c.PostForm("From"),
		Body:        c.PostForm("Body"),
		MessageSid:  c.PostForm("MessageSid"),
		ProfileName: c.PostForm("ProfileName"),
	}

	outcome, err := h.svc.HandleWhatsApp(c.Request.Context(), msg)
	if err != nil {
		h.log.WebhookEvent("twilio", false, err.Error())
		httpkit.HandleError(c, err)
		return
	}

	h.respond(c, "twilio", outcome)
}

// MetaVerify answers Meta's subscription handshake: echo the challenge when
// the verify token matches, 403 otherwise.
func (h *Handler) MetaVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}

	h.log.WebhookEvent("meta", false, "verification failed")
	httpkit.Error(c, http.StatusForbidden, "verification failed", nil)
}

func (h *Handler) MetaInbound(c *gin.Context) {
	var payload MetaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	outcome, err := h.svc.HandleMeta(c.Request.Context(), payload)
	if err != nil {
		h.log.WebhookEvent("meta", false, err.Error())
		httpkit.HandleError(c, err)
		return
	}

	h.respond(c, "meta", outcome)
}

func (h *Handler) Calendly(c *gin.Context) {
	var payload CalendlyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid webhook payload", err.Error())
		return
	}

	outcome, err := h.svc.HandleCalendly(c.Request.Context(), payload)
	if err != nil {
		h.log.WebhookEvent("calendly", false, err.Error())
		httpkit.HandleError(c, err)
		return
	}

	h.respond(c, "calendly", outcome)
}
