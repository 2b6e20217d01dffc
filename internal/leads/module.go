// Package leads provides the lead management bounded context module.
package leads

import (
	"smartlead_backend/internal/events"
	apphttp "smartlead_backend/internal/http"
	"smartlead_backend/internal/leads/handler"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the leads repository, service, and handler. The vendor
// clients arrive as narrow interfaces so the module stays decoupled from
// provider packages.
func NewModule(pool *pgxpool.Pool, bus events.Bus, dialer handler.VoiceDialer, sender handler.MessageSender, email handler.EmailSender, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, dialer, sender, email, log)

	return &Module{handler: h, service: svc, repo: repo}
}

// SetInboxProcessor injects the inbox poller (breaks the construction cycle:
// the inbox depends on this module's service).
func (m *Module) SetInboxProcessor(inbox handler.InboxProcessor) {
	m.handler.SetInbox(inbox)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the lead service for other modules (webhook normalization).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the repository for identity resolution.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Root.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
