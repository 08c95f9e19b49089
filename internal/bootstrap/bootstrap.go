package bootstrap

import (
	"context"
	"fmt"

	authHandler "autosales/internal/auth/handler"
	authProcessor "autosales/internal/auth/processor"
	"autosales/internal/clients/mail"
	openaiClient "autosales/internal/clients/openai"
	"autosales/internal/config"
	contactsHandler "autosales/internal/contacts/handler"
	contactsProcessor "autosales/internal/contacts/processor"
	dispatchHandler "autosales/internal/dispatch/handler"
	dispatchProcessor "autosales/internal/dispatch/processor"
	ingestHandler "autosales/internal/ingest/handler"
	ingestProcessor "autosales/internal/ingest/processor"
	"autosales/internal/messaging"
	"autosales/internal/observability"
	"autosales/internal/store"
	templatesHandler "autosales/internal/templates/handler"
	templatesProcessor "autosales/internal/templates/processor"
	"autosales/internal/ws"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Store  *store.Store
	Logger *observability.Logger

	// Outbound gateway
	Gateway messaging.Gateway

	// Progress hub
	Hub *ws.Hub

	// Handlers
	AuthHandler      authHandler.Handler
	ContactsHandler  *contactsHandler.Handler
	TemplatesHandler *templatesHandler.Handler
	IngestHandler    *ingestHandler.Handler
	DispatchHandler  *dispatchHandler.Handler
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger: logger,
	}

	// Initialize database store
	st, err := store.New(cfg.Database.ConnectionString(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.Store = &st

	// Initialize clients
	mailClient, err := mail.NewResendClient(cfg.Services.ResendAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resend client: %w", err)
	}

	aiClient, err := openaiClient.NewClient(cfg.Services.OpenAIAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	// Select the WhatsApp gateway implementation
	switch cfg.Gateway.Provider {
	case config.GatewayProviderEvolution:
		deps.Gateway = messaging.NewEvolutionGateway(cfg.Gateway, logger)
	case config.GatewayProviderTwilio:
		deps.Gateway = messaging.NewTwilioGateway(cfg.Gateway, logger)
	default:
		return nil, fmt.Errorf("unsupported gateway provider %q", cfg.Gateway.Provider)
	}

	// Campaign progress hub
	deps.Hub = ws.NewHub(logger)

	// Initialize auth processor and handler
	authProc := authProcessor.New(deps.Store, mailClient, cfg.Services.DefaultEmailSender, cfg.Auth.JWTSecret, logger)
	deps.AuthHandler = authHandler.New(authProc, logger)

	// Initialize contacts processor and handler
	contactsProc := contactsProcessor.New(deps.Store, logger)
	deps.ContactsHandler = contactsHandler.New(contactsProc, logger)

	// Initialize templates processor and handler
	templatesProc := templatesProcessor.New(deps.Store, aiClient, logger)
	deps.TemplatesHandler = templatesHandler.New(templatesProc, logger)

	// Initialize ingestion processor and handler
	ingestProc := ingestProcessor.New(deps.Store, logger)
	deps.IngestHandler = ingestHandler.New(ingestProc, logger)

	// Initialize dispatch processor and handler
	dispatchProc := dispatchProcessor.New(deps.Store, deps.Gateway, deps.Hub, mailClient, cfg.Services.DefaultEmailSender, logger)
	deps.DispatchHandler = dispatchHandler.New(dispatchProc, deps.Store, logger)

	return deps, nil
}

// Cleanup releases resources held by the dependencies
func (d *Dependencies) Cleanup() {
	if d.Store != nil {
		if err := d.Store.DB().Close(); err != nil {
			d.Logger.Error(context.Background(), "failed to close database", err)
		}
	}
}
