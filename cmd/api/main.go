package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mail"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memstore"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewStore(pg.PoolHandle())
	} else {
		logger.Warn("POSTGRES_DSN not provided; using in-memory store, data is lost on restart")
		store = memstore.New()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if redis.Enabled() {
		revoker = auth.NewRedisRevoker(redis.Client)
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	if cfg.Access.BootstrapOnStart {
		if err := bootstrapAccess(ctx, store, cfg.Access, logger); err != nil {
			logger.Fatal("failed to bootstrap groups", zap.Error(err))
		}
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, store, mail.New(cfg.Mail, logger), logger, service.NotificationConfig{
		EmailFrom: cfg.Mail.EmailFrom,
		BaseURL:   cfg.App.BaseURL,
	})
	worker.StartNotificationWorker(notifications, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Store:   store,
		Tokens:  auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		Revoker: revoker,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{Store: store, Dispatcher: dispatcher})
	followUpService := service.NewFollowUpService(service.FollowUpDependencies{Store: store, Dispatcher: dispatcher})
	attachmentService := service.NewAttachmentService(store, objects, logger)
	queryService := service.NewQueryService(store)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimit(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareOptions{
		Timeout:      cfg.App.RequestTimeout(),
		AllowedHosts: cfg.App.AllowedHosts,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
			"storage":  objects,
		}),
		Auth: handlers.NewAuthHandler(authService, handlers.SessionCookie{
			Name:   cfg.Auth.SessionCookieName,
			Secure: cfg.Auth.SessionCookieSecure,
		}),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		FollowUps:      handlers.NewFollowUpsHandler(followUpService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		Views:          handlers.NewViewsHandler(queryService, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService, cfg.Auth.SessionCookieName),
		Permissions:    auth.Permissions{Enforce: cfg.Auth.EnforcePermissions},
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func bootstrapAccess(ctx context.Context, store repository.Store, cfg config.AccessConfig, logger *zap.Logger) error {
	definitions := service.DefaultGroupDefinitions()
	if cfg.GroupsFile != "" {
		loaded, err := service.LoadGroupDefinitions(cfg.GroupsFile)
		if err != nil {
			return err
		}
		definitions = loaded
	}
	_, err := service.NewAccessService(store, logger).Bootstrap(ctx, definitions, domain.EntityPermissions())
	return err
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
