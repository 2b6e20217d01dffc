package webhook

import (
	"smartlead_backend/internal/events"
	apphttp "smartlead_backend/internal/http"
	"smartlead_backend/internal/identity"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/validator"
)

// Module is the webhook bounded context implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule wires the webhook normalization pipeline. The lead service and
// identity resolver come from the leads module; the analyzer, profile lookup,
// and extractor are the shared vendor clients.
func NewModule(leads LeadService, resolver *identity.Resolver, analyzer CallAnalyzer, profiles ProfileLookup, extractor InfoExtractor, dedupe Deduper, bus events.Bus, val *validator.Validator, cfg config.MetaConfig, log *logger.Logger) *Module {
	svc := NewService(leads, resolver, analyzer, profiles, extractor, dedupe, bus, val, log)
	return &Module{handler: NewHandler(svc, cfg.GetMetaVerifyToken(), log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the provider callback endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Root.POST("/leads/call/webhook", m.handler.CallStatus)
	ctx.Root.POST("/leads/whatsapp/webhook", m.handler.WhatsAppInbound)
	ctx.Root.POST("/leads/calendly/webhook", m.handler.Calendly)
	ctx.Root.GET("/meta/webhook", m.handler.MetaVerify)
	ctx.Root.POST("/meta/webhook", m.handler.MetaInbound)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
